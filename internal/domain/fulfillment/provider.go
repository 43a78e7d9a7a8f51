package fulfillment

import (
	"context"
	"errors"
)

// Errors surfaced by Provider implementations
var (
	// ErrOrderAlreadyExists means the provider already holds a fulfillment
	// order for this idempotency key. Expected under idempotent retry and
	// treated as success-equivalent by the router.
	ErrOrderAlreadyExists = errors.New("fulfillment: order already exists")
	// ErrOrderNotFound means the provider does not know the order ID
	ErrOrderNotFound = errors.New("fulfillment: order not found")
	// ErrInvalidResponse means the provider returned an unparseable payload
	ErrInvalidResponse = errors.New("fulfillment: invalid provider response")
)

// Provider is the port to the third-party fulfillment platform.
// Implementations own token exchange, request signing and retry.
type Provider interface {
	// CreateFulfillmentOrder submits an order for fulfillment. Submitting the
	// same SellerFulfillmentOrderID twice returns ErrOrderAlreadyExists.
	CreateFulfillmentOrder(ctx context.Context, req *OrderRequest) error

	// GetFulfillmentOrder returns the order with its items and shipments
	GetFulfillmentOrder(ctx context.Context, sellerFulfillmentOrderID string) (*OrderDetail, error)

	// GetPackageTracking returns tracking detail for one package
	GetPackageTracking(ctx context.Context, packageNumber int) (*PackageTracking, error)

	// GetInventorySummaries returns stock summaries for the given SKUs.
	// SKUs unknown to the provider are absent from the result, not zeroed.
	GetInventorySummaries(ctx context.Context, skus []string) ([]InventorySummary, error)
}
