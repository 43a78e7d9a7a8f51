package channelapi

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/orderbridge/backend/internal/domain/channel"
)

// apiResponse is the platform's common response envelope
type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// IsSuccess returns true when the platform reports success
func (r *apiResponse) IsSuccess() bool {
	return r.Code == 0
}

// wireAddress is the platform's address shape
type wireAddress struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Address1   string `json:"address_line1"`
	Address2   string `json:"address_line2"`
	City       string `json:"city"`
	Region     string `json:"region"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// wireLineItem is the platform's order line shape. Money fields arrive as
// strings and may be absent.
type wireLineItem struct {
	SKU           string `json:"sku"`
	Quantity      int    `json:"quantity"`
	UnitPrice     string `json:"unit_price,omitempty"`
	UnitTax       string `json:"unit_tax,omitempty"`
	DeclaredValue string `json:"declared_value,omitempty"`
	ProductName   string `json:"product_name"`
}

// wirePackage is the platform's package shape
type wirePackage struct {
	PackageID string `json:"package_id"`
	OrderID   string `json:"order_id"`
}

// wireOrder is the platform's order shape
type wireOrder struct {
	OrderID        string         `json:"order_id"`
	Status         string         `json:"status"`
	DeliveryOption string         `json:"delivery_option"`
	Recipient      wireAddress    `json:"recipient"`
	Items          []wireLineItem `json:"items"`
	Packages       []wirePackage  `json:"packages"`
	BuyerEmail     string         `json:"buyer_email"`
	CreateTime     int64          `json:"create_time"`
	UpdateTime     int64          `json:"update_time"`
}

// orderListData is the payload of the order list endpoint
type orderListData struct {
	Orders     []wireOrder `json:"orders"`
	NextCursor string      `json:"next_cursor"`
	HasMore    bool        `json:"has_more"`
}

// orderDetailData is the payload of the order detail endpoint
type orderDetailData struct {
	Order *wireOrder `json:"order"`
}

// trackingUpdateRequest is the tracking push body
type trackingUpdateRequest struct {
	TrackingNumber string `json:"tracking_number"`
	CarrierID      string `json:"carrier_id"`
	CarrierName    string `json:"carrier_name"`
}

// tokenRefreshRequest is the token endpoint body
type tokenRefreshRequest struct {
	AppKey       string `json:"app_key"`
	AppSecret    string `json:"app_secret"`
	RefreshToken string `json:"refresh_token"`
	GrantType    string `json:"grant_type"`
}

// tokenRefreshData is the token endpoint payload
type tokenRefreshData struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// mapChannelStatus maps a platform status string to the domain status
func mapChannelStatus(status string) channel.OrderStatus {
	switch status {
	case "awaiting_shipment":
		return channel.OrderStatusAwaitingShipment
	case "awaiting_collection":
		return channel.OrderStatusAwaitingCollection
	case "shipped":
		return channel.OrderStatusShipped
	case "completed":
		return channel.OrderStatusCompleted
	case "cancelled":
		return channel.OrderStatusCancelled
	default:
		return channel.OrderStatusUnknown
	}
}

// mapToChannelStatus maps a domain status to the platform's status string
func mapToChannelStatus(status channel.OrderStatus) string {
	switch status {
	case channel.OrderStatusAwaitingShipment:
		return "awaiting_shipment"
	case channel.OrderStatusAwaitingCollection:
		return "awaiting_collection"
	case channel.OrderStatusShipped:
		return "shipped"
	case channel.OrderStatusCompleted:
		return "completed"
	case channel.OrderStatusCancelled:
		return "cancelled"
	default:
		return ""
	}
}

// parseMoney converts an optional money string to a decimal pointer.
// Absent or unparseable values map to nil, never to zero.
func parseMoney(value string) *decimal.Decimal {
	if value == "" {
		return nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil
	}
	return &d
}

// convertWireOrder converts a platform order to the domain SourceOrder
func convertWireOrder(w *wireOrder) channel.SourceOrder {
	order := channel.SourceOrder{
		OrderID:        w.OrderID,
		Status:         mapChannelStatus(w.Status),
		DeliveryOption: w.DeliveryOption,
		Recipient: channel.RecipientAddress{
			Name:       w.Recipient.Name,
			Phone:      w.Recipient.Phone,
			AddressLn1: w.Recipient.Address1,
			AddressLn2: w.Recipient.Address2,
			City:       w.Recipient.City,
			Region:     w.Recipient.Region,
			PostalCode: w.Recipient.PostalCode,
			Country:    w.Recipient.Country,
		},
		BuyerEmail: w.BuyerEmail,
	}

	if w.CreateTime > 0 {
		order.CreatedAt = time.Unix(w.CreateTime, 0)
	}
	if w.UpdateTime > 0 {
		order.UpdatedAt = time.Unix(w.UpdateTime, 0)
	}

	for _, item := range w.Items {
		order.Items = append(order.Items, channel.LineItem{
			SKU:           item.SKU,
			Quantity:      item.Quantity,
			UnitPrice:     parseMoney(item.UnitPrice),
			UnitTax:       parseMoney(item.UnitTax),
			DeclaredValue: parseMoney(item.DeclaredValue),
			ProductName:   item.ProductName,
		})
	}

	for _, pkg := range w.Packages {
		order.Packages = append(order.Packages, channel.Package{
			PackageID: pkg.PackageID,
			OrderID:   pkg.OrderID,
		})
	}

	return order
}

// formatPageSize renders the page size query parameter
func formatPageSize(size int) string {
	return strconv.Itoa(size)
}
