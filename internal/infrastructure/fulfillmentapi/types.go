package fulfillmentapi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/orderbridge/backend/internal/domain/fulfillment"
)

// wireMoney is the provider's money shape. Pointers keep absent amounts
// absent on the wire instead of sending zero.
type wireMoney struct {
	CurrencyCode string `json:"currencyCode"`
	Value        string `json:"value"`
}

// wireDestinationAddress is the provider's delivery address shape
type wireDestinationAddress struct {
	Name          string `json:"name"`
	AddressLine1  string `json:"addressLine1"`
	AddressLine2  string `json:"addressLine2,omitempty"`
	City          string `json:"city"`
	StateOrRegion string `json:"stateOrRegion"`
	PostalCode    string `json:"postalCode"`
	CountryCode   string `json:"countryCode"`
	Phone         string `json:"phone,omitempty"`
}

// wireOrderItem is one requested fulfillment line
type wireOrderItem struct {
	SellerSKU                    string     `json:"sellerSku"`
	SellerFulfillmentOrderItemID string     `json:"sellerFulfillmentOrderItemId"`
	Quantity                     int        `json:"quantity"`
	PerUnitPrice                 *wireMoney `json:"perUnitPrice,omitempty"`
	PerUnitTax                   *wireMoney `json:"perUnitTax,omitempty"`
	PerUnitDeclaredValue         *wireMoney `json:"perUnitDeclaredValue,omitempty"`
}

// createOrderRequest is the fulfillment order creation body
type createOrderRequest struct {
	SellerFulfillmentOrderID string                 `json:"sellerFulfillmentOrderId"`
	MarketplaceID            string                 `json:"marketplaceId"`
	DisplayableOrderID       string                 `json:"displayableOrderId"`
	DisplayableOrderDate     string                 `json:"displayableOrderDate"`
	DisplayableOrderComment  string                 `json:"displayableOrderComment,omitempty"`
	ShippingSpeedCategory    string                 `json:"shippingSpeedCategory"`
	DestinationAddress       wireDestinationAddress `json:"destinationAddress"`
	Items                    []wireOrderItem        `json:"items"`
	NotificationEmails       []string               `json:"notificationEmails,omitempty"`
}

// apiError is one provider error entry
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// errorResponse is the provider's error envelope
type errorResponse struct {
	Errors []apiError `json:"errors"`
}

// wireFulfillmentOrder is the provider's order shape
type wireFulfillmentOrder struct {
	SellerFulfillmentOrderID string `json:"sellerFulfillmentOrderId"`
	DisplayableOrderID       string `json:"displayableOrderId"`
	FulfillmentOrderStatus   string `json:"fulfillmentOrderStatus"`
	StatusUpdatedDate        string `json:"statusUpdatedDate"`
	ReceivedDate             string `json:"receivedDate"`
}

// wireShipmentPackage is one physical package in a shipment
type wireShipmentPackage struct {
	PackageNumber        int    `json:"packageNumber"`
	CarrierCode          string `json:"carrierCode"`
	TrackingNumber       string `json:"trackingNumber"`
	EstimatedArrivalDate string `json:"estimatedArrivalDate,omitempty"`
	ShippedDate          string `json:"shippedDate,omitempty"`
}

// wireShipment is one shipment of a fulfillment order
type wireShipment struct {
	ShipmentID                string                `json:"fulfillmentShipmentId"`
	FulfillmentShipmentStatus string                `json:"fulfillmentShipmentStatus"`
	EstimatedShipDate         string                `json:"estimatedShipDate,omitempty"`
	EstimatedArrivalDate      string                `json:"estimatedArrivalDate,omitempty"`
	Packages                  []wireShipmentPackage `json:"fulfillmentShipmentPackages"`
}

// getOrderPayload is the order detail payload
type getOrderPayload struct {
	FulfillmentOrder      *wireFulfillmentOrder `json:"fulfillmentOrder"`
	FulfillmentOrderItems []wireOrderItem       `json:"fulfillmentOrderItems"`
	FulfillmentShipments  []wireShipment        `json:"fulfillmentShipments"`
}

// getOrderResponse wraps the order detail payload
type getOrderResponse struct {
	Payload *getOrderPayload `json:"payload"`
}

// wireTrackingEvent is one tracking history entry
type wireTrackingEvent struct {
	EventDate        string `json:"eventDate"`
	EventCode        string `json:"eventCode"`
	EventDescription string `json:"eventDescription"`
	EventAddress     struct {
		City    string `json:"city"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"eventAddress"`
}

// packageTrackingPayload is the package tracking payload
type packageTrackingPayload struct {
	PackageNumber  int                 `json:"packageNumber"`
	TrackingNumber string              `json:"trackingNumber"`
	CarrierCode    string              `json:"carrierCode"`
	CarrierName    string              `json:"carrierName"`
	CurrentStatus  string              `json:"currentStatus"`
	TrackingEvents []wireTrackingEvent `json:"trackingEvents"`
}

// packageTrackingResponse wraps the package tracking payload
type packageTrackingResponse struct {
	Payload *packageTrackingPayload `json:"payload"`
}

// wireInventorySummary is the per-SKU stock shape
type wireInventorySummary struct {
	SellerSKU        string `json:"sellerSku"`
	InventoryDetails struct {
		FulfillableQuantity   int64 `json:"fulfillableQuantity"`
		ReservedQuantity      int64 `json:"reservedQuantity"`
		InboundQuantity       int64 `json:"inboundQuantity"`
		UnfulfillableQuantity int64 `json:"unfulfillableQuantity"`
	} `json:"inventoryDetails"`
	LastUpdatedTime string `json:"lastUpdatedTime"`
}

// inventoryPayload is the inventory summaries payload
type inventoryPayload struct {
	InventorySummaries []wireInventorySummary `json:"inventorySummaries"`
}

// inventoryResponse wraps the inventory payload
type inventoryResponse struct {
	Payload *inventoryPayload `json:"payload"`
}

// ---------------------------------------------------------------------------
// Conversions
// ---------------------------------------------------------------------------

// moneyToWire converts an optional decimal amount to the wire money shape
func moneyToWire(amount *decimal.Decimal, currency string) *wireMoney {
	if amount == nil {
		return nil
	}
	return &wireMoney{CurrencyCode: currency, Value: amount.String()}
}

// moneyFromWire converts wire money back to an optional decimal amount
func moneyFromWire(m *wireMoney) *decimal.Decimal {
	if m == nil {
		return nil
	}
	d, err := decimal.NewFromString(m.Value)
	if err != nil {
		return nil
	}
	return &d
}

// parseProviderTime parses the provider's RFC 3339 timestamps, tolerating
// absence
func parseProviderTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

// parseProviderTimePtr is parseProviderTime returning nil for absence
func parseProviderTimePtr(value string) *time.Time {
	t := parseProviderTime(value)
	if t.IsZero() {
		return nil
	}
	return &t
}

// mapOrderStatus maps the provider's order status string to the domain status
func mapOrderStatus(status string) fulfillment.OrderStatus {
	switch status {
	case "Received", "RECEIVED":
		return fulfillment.OrderStatusReceived
	case "Planning", "PLANNING":
		return fulfillment.OrderStatusPlanning
	case "Processing", "PROCESSING":
		return fulfillment.OrderStatusProcessing
	case "Complete", "COMPLETE", "CompletePartialled":
		return fulfillment.OrderStatusComplete
	case "Cancelled", "CANCELLED":
		return fulfillment.OrderStatusCancelled
	default:
		return fulfillment.OrderStatusUnfillable
	}
}

// convertOrderPayload converts the provider's order detail to the domain shape
func convertOrderPayload(p *getOrderPayload) *fulfillment.OrderDetail {
	detail := &fulfillment.OrderDetail{}

	if p.FulfillmentOrder != nil {
		detail.Order = fulfillment.Order{
			SellerFulfillmentOrderID: p.FulfillmentOrder.SellerFulfillmentOrderID,
			DisplayableOrderID:       p.FulfillmentOrder.DisplayableOrderID,
			Status:                   mapOrderStatus(p.FulfillmentOrder.FulfillmentOrderStatus),
			StatusUpdatedAt:          parseProviderTime(p.FulfillmentOrder.StatusUpdatedDate),
			ReceivedAt:               parseProviderTime(p.FulfillmentOrder.ReceivedDate),
		}
	}

	for _, item := range p.FulfillmentOrderItems {
		detail.Items = append(detail.Items, fulfillment.OrderItem{
			SellerSKU:                    item.SellerSKU,
			SellerFulfillmentOrderItemID: item.SellerFulfillmentOrderItemID,
			Quantity:                     item.Quantity,
			PerUnitPrice:                 moneyFromWire(item.PerUnitPrice),
			PerUnitTax:                   moneyFromWire(item.PerUnitTax),
			PerUnitDeclaredValue:         moneyFromWire(item.PerUnitDeclaredValue),
		})
	}

	for _, shipment := range p.FulfillmentShipments {
		converted := fulfillment.Shipment{
			ShipmentID:       shipment.ShipmentID,
			Status:           shipment.FulfillmentShipmentStatus,
			EstimatedShip:    parseProviderTimePtr(shipment.EstimatedShipDate),
			EstimatedArrival: parseProviderTimePtr(shipment.EstimatedArrivalDate),
		}
		for _, pkg := range shipment.Packages {
			converted.Packages = append(converted.Packages, fulfillment.ShipmentPackage{
				PackageNumber:  pkg.PackageNumber,
				CarrierCode:    pkg.CarrierCode,
				TrackingNumber: pkg.TrackingNumber,
				ShippedAt:      parseProviderTimePtr(pkg.ShippedDate),
			})
		}
		detail.Shipments = append(detail.Shipments, converted)
	}

	return detail
}

// convertTrackingPayload converts the provider's tracking detail to the
// domain shape
func convertTrackingPayload(p *packageTrackingPayload) *fulfillment.PackageTracking {
	tracking := &fulfillment.PackageTracking{
		PackageNumber:  p.PackageNumber,
		TrackingNumber: p.TrackingNumber,
		CarrierCode:    p.CarrierCode,
		CarrierName:    p.CarrierName,
		CurrentStatus:  p.CurrentStatus,
	}
	for _, event := range p.TrackingEvents {
		location := event.EventAddress.City
		if event.EventAddress.State != "" {
			location += ", " + event.EventAddress.State
		}
		if event.EventAddress.Country != "" {
			location += ", " + event.EventAddress.Country
		}
		tracking.Events = append(tracking.Events, fulfillment.TrackingEvent{
			EventAt:     parseProviderTime(event.EventDate),
			EventCode:   event.EventCode,
			Description: event.EventDescription,
			Location:    location,
		})
	}
	return tracking
}

// convertInventorySummaries converts the provider's stock report to the
// domain shape. SKUs the provider does not know are simply absent.
func convertInventorySummaries(p *inventoryPayload) []fulfillment.InventorySummary {
	summaries := make([]fulfillment.InventorySummary, 0, len(p.InventorySummaries))
	for _, s := range p.InventorySummaries {
		summaries = append(summaries, fulfillment.InventorySummary{
			SellerSKU:     s.SellerSKU,
			Fulfillable:   s.InventoryDetails.FulfillableQuantity,
			Reserved:      s.InventoryDetails.ReservedQuantity,
			Inbound:       s.InventoryDetails.InboundQuantity,
			Unfulfillable: s.InventoryDetails.UnfulfillableQuantity,
			AsOf:          parseProviderTime(s.LastUpdatedTime),
		})
	}
	return summaries
}
