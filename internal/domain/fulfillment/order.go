package fulfillment

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShippingSpeed is the fulfillment provider's shipping-speed category
type ShippingSpeed string

const (
	ShippingSpeedStandard  ShippingSpeed = "Standard"
	ShippingSpeedExpedited ShippingSpeed = "Expedited"
	ShippingSpeedPriority  ShippingSpeed = "Priority"
)

// IsValid returns true if the speed is one the provider accepts
func (s ShippingSpeed) IsValid() bool {
	switch s {
	case ShippingSpeedStandard, ShippingSpeedExpedited, ShippingSpeedPriority:
		return true
	default:
		return false
	}
}

// DestinationAddress is the normalized delivery address sent to the provider
type DestinationAddress struct {
	Name          string
	AddressLine1  string
	AddressLine2  string
	City          string
	StateOrRegion string
	PostalCode    string
	CountryCode   string
	Phone         string
}

// OrderItem is one line of a fulfillment order, keyed by the provider's SKU
type OrderItem struct {
	// SellerSKU is the SKU on the fulfillment provider
	SellerSKU string
	// SellerFulfillmentOrderItemID identifies the line within the order
	SellerFulfillmentOrderItemID string
	// Quantity to ship
	Quantity int
	// PerUnitPrice is omitted from the request when nil
	PerUnitPrice *decimal.Decimal
	// PerUnitTax is omitted from the request when nil
	PerUnitTax *decimal.Decimal
	// PerUnitDeclaredValue is omitted from the request when nil; zero-filling
	// would misrepresent customs value
	PerUnitDeclaredValue *decimal.Decimal
}

// OrderRequest is a request to create a fulfillment order. The
// SellerFulfillmentOrderID is derived deterministically from the source order
// ID and doubles as the idempotency key. Immutable once submitted.
type OrderRequest struct {
	SellerFulfillmentOrderID string
	DisplayableOrderID       string
	DisplayableOrderDate     time.Time
	DisplayableOrderComment  string
	ShippingSpeedCategory    ShippingSpeed
	DestinationAddress       DestinationAddress
	Items                    []OrderItem
	NotificationEmails       []string
}

// OrderStatus is the provider-side status of a fulfillment order
type OrderStatus string

const (
	OrderStatusReceived   OrderStatus = "RECEIVED"
	OrderStatusPlanning   OrderStatus = "PLANNING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusComplete   OrderStatus = "COMPLETE"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusUnfillable OrderStatus = "UNFULFILLABLE"
)

// Order is a fulfillment order as reported by the provider
type Order struct {
	SellerFulfillmentOrderID string
	DisplayableOrderID       string
	Status                   OrderStatus
	StatusUpdatedAt          time.Time
	ReceivedAt               time.Time
}

// Shipment is one provider-side shipment of a fulfillment order
type Shipment struct {
	ShipmentID       string
	Status           string
	EstimatedShip    *time.Time
	EstimatedArrival *time.Time
	Packages         []ShipmentPackage
}

// ShipmentPackage is one physical package within a shipment
type ShipmentPackage struct {
	PackageNumber  int
	CarrierCode    string
	TrackingNumber string
	ShippedAt      *time.Time
}

// OrderDetail bundles an order with its items and shipments
type OrderDetail struct {
	Order     Order
	Items     []OrderItem
	Shipments []Shipment
}

// TrackingEvent is one entry in a package's tracking history
type TrackingEvent struct {
	EventAt     time.Time
	EventCode   string
	Description string
	Location    string
}

// PackageTracking is per-package tracking detail from the provider
type PackageTracking struct {
	PackageNumber  int
	TrackingNumber string
	CarrierCode    string
	CarrierName    string
	CurrentStatus  string
	Events         []TrackingEvent
}
