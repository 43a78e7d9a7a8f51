package channel

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the order status reported by the source platform
type OrderStatus string

const (
	// OrderStatusAwaitingShipment means the order is paid and waiting to be shipped
	OrderStatusAwaitingShipment OrderStatus = "AWAITING_SHIPMENT"
	// OrderStatusAwaitingCollection means the package is packed and waiting for carrier pickup
	OrderStatusAwaitingCollection OrderStatus = "AWAITING_COLLECTION"
	// OrderStatusShipped means the order has left the warehouse
	OrderStatusShipped OrderStatus = "SHIPPED"
	// OrderStatusCompleted means the order was delivered
	OrderStatusCompleted OrderStatus = "COMPLETED"
	// OrderStatusCancelled means the order was cancelled on the platform
	OrderStatusCancelled OrderStatus = "CANCELLED"
	// OrderStatusUnknown covers statuses this engine does not act on
	OrderStatusUnknown OrderStatus = "UNKNOWN"
)

// IsFulfillable returns true if an order in this status may be routed to the
// fulfillment provider. Anything else is a skip, not an error.
func (s OrderStatus) IsFulfillable() bool {
	switch s {
	case OrderStatusAwaitingShipment, OrderStatusAwaitingCollection:
		return true
	default:
		return false
	}
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// RecipientAddress is the free-form, unnormalized address as reported by the
// source platform. Normalization happens in the order validator.
type RecipientAddress struct {
	Name       string
	Phone      string
	AddressLn1 string
	AddressLn2 string
	City       string
	Region     string
	PostalCode string
	Country    string
}

// LineItem is a single order line on the source platform
type LineItem struct {
	// SKU is the seller SKU on the source platform
	SKU string
	// Quantity ordered
	Quantity int
	// UnitPrice is the per-unit sale price; nil when the platform omits it
	UnitPrice *decimal.Decimal
	// UnitTax is the per-unit tax amount; nil when the platform omits it
	UnitTax *decimal.Decimal
	// DeclaredValue is the per-unit customs declared value; nil when absent
	DeclaredValue *decimal.Decimal
	// ProductName is the display name, used for fulfillment slips
	ProductName string
}

// Package identifies a shippable package on the source platform. Tracking
// updates are keyed by package, not by order.
type Package struct {
	PackageID string
	OrderID   string
}

// SourceOrder represents one order as reported by the source platform.
// Owned by the platform; read-only to this engine.
type SourceOrder struct {
	// OrderID is the platform's external order identifier
	OrderID string
	// Status is the platform-reported order status
	Status OrderStatus
	// DeliveryOption is the buyer-selected shipping option label
	DeliveryOption string
	// Recipient is the raw, unnormalized destination address
	Recipient RecipientAddress
	// Items are the order lines
	Items []LineItem
	// Packages are the platform's package splits, when known
	Packages []Package
	// BuyerEmail receives fulfillment notifications when present
	BuyerEmail string
	// CreatedAt is when the order was placed on the platform
	CreatedAt time.Time
	// UpdatedAt is when the platform last modified the order
	UpdatedAt time.Time
}

// OrderFilter selects orders when listing from the source platform
type OrderFilter struct {
	// Status filters by platform order status; nil means platform default
	Status *OrderStatus
	// Cursor is the opaque pagination cursor from a previous page
	Cursor string
	// PageSize is the number of orders per page
	PageSize int
}

// OrderPage is one page of orders from the source platform
type OrderPage struct {
	Orders     []SourceOrder
	NextCursor string
	HasMore    bool
}

// TrackingInfo is the tracking payload pushed back to the source platform
type TrackingInfo struct {
	TrackingNumber string
	CarrierID      string
	CarrierName    string
}
