package routing

import (
	"fmt"
	"strings"

	"github.com/orderbridge/backend/internal/domain/fulfillment"
	"github.com/orderbridge/backend/internal/domain/routing"
	"github.com/orderbridge/backend/internal/domain/shared"
)

// shippingSpeeds maps the platform's delivery-option labels to the provider's
// shipping-speed categories. Anything unlisted falls back to Standard; that
// is the only implicit default.
var shippingSpeeds = map[string]fulfillment.ShippingSpeed{
	"standard":  fulfillment.ShippingSpeedStandard,
	"economy":   fulfillment.ShippingSpeedStandard,
	"ground":    fulfillment.ShippingSpeedStandard,
	"express":   fulfillment.ShippingSpeedExpedited,
	"expedited": fulfillment.ShippingSpeedExpedited,
	"two_day":   fulfillment.ShippingSpeedExpedited,
	"priority":  fulfillment.ShippingSpeedPriority,
	"overnight": fulfillment.ShippingSpeedPriority,
	"next_day":  fulfillment.ShippingSpeedPriority,
}

// Transformer maps a validated source order into the fulfillment provider's
// order shape
type Transformer struct {
	skuMap        *routing.SkuMap
	orderIDPrefix string
}

// NewTransformer creates a transformer. The prefix derives the deterministic
// fulfillment-order ID, which doubles as the provider-side idempotency key.
func NewTransformer(skuMap *routing.SkuMap, orderIDPrefix string) *Transformer {
	return &Transformer{
		skuMap:        skuMap,
		orderIDPrefix: orderIDPrefix,
	}
}

// FulfillmentOrderID derives the provider-side order ID from the source
// order ID. Stable: the same source order always yields the same ID.
func (t *Transformer) FulfillmentOrderID(sourceOrderID string) string {
	return t.orderIDPrefix + sourceOrderID
}

// deriveShippingSpeed resolves the buyer's delivery option to a provider
// category
func deriveShippingSpeed(deliveryOption string) fulfillment.ShippingSpeed {
	key := strings.ToLower(strings.TrimSpace(deliveryOption))
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")
	if speed, ok := shippingSpeeds[key]; ok {
		return speed
	}
	return fulfillment.ShippingSpeedStandard
}

// Transform builds the immutable FulfillmentOrderRequest for a validated
// order. Money fields pass through only when present on the source order;
// absent amounts stay absent rather than being zero-filled.
func (t *Transformer) Transform(validated *ValidatedOrder) (*fulfillment.OrderRequest, error) {
	if validated == nil || validated.Order == nil {
		return nil, fmt.Errorf("%w: validated order is nil", shared.ErrInvalidInput)
	}
	order := validated.Order

	fulfillmentOrderID := t.FulfillmentOrderID(order.OrderID)

	items := make([]fulfillment.OrderItem, 0, len(order.Items))
	for i, item := range order.Items {
		fulfillmentSKU, ok := t.skuMap.ToFulfillment(item.SKU)
		if !ok {
			return nil, fmt.Errorf("%w: %s", shared.ErrSkuNotMapped, item.SKU)
		}
		items = append(items, fulfillment.OrderItem{
			SellerSKU:                    fulfillmentSKU,
			SellerFulfillmentOrderItemID: fmt.Sprintf("%s-%d", fulfillmentOrderID, i+1),
			Quantity:                     item.Quantity,
			PerUnitPrice:                 item.UnitPrice,
			PerUnitTax:                   item.UnitTax,
			PerUnitDeclaredValue:         item.DeclaredValue,
		})
	}

	req := &fulfillment.OrderRequest{
		SellerFulfillmentOrderID: fulfillmentOrderID,
		DisplayableOrderID:       order.OrderID,
		DisplayableOrderDate:     order.CreatedAt,
		DisplayableOrderComment:  "Thank you for your order",
		ShippingSpeedCategory:    deriveShippingSpeed(order.DeliveryOption),
		DestinationAddress: fulfillment.DestinationAddress{
			Name:          validated.Address.Name,
			AddressLine1:  validated.Address.AddressLine1,
			AddressLine2:  validated.Address.AddressLine2,
			City:          validated.Address.City,
			StateOrRegion: validated.Address.Region,
			PostalCode:    validated.Address.PostalCode,
			CountryCode:   validated.Address.CountryCode,
			Phone:         validated.Address.Phone,
		},
		Items: items,
	}

	if order.BuyerEmail != "" {
		req.NotificationEmails = []string{order.BuyerEmail}
	}

	return req, nil
}
