package channel

import (
	"context"
	"errors"
)

// Errors surfaced by SourcePlatform implementations
var (
	// ErrOrderNotFound means the platform does not know the order ID
	ErrOrderNotFound = errors.New("channel: order not found")
	// ErrPackageNotFound means the platform does not know the package ID
	ErrPackageNotFound = errors.New("channel: package not found")
	// ErrInvalidResponse means the platform returned an unparseable payload
	ErrInvalidResponse = errors.New("channel: invalid platform response")
)

// SourcePlatform is the port to the commerce platform where orders originate.
// Implementations own authentication, signing and retry; callers only see
// domain types and categorized errors.
type SourcePlatform interface {
	// ListPendingOrders returns one page of orders matching the filter
	ListPendingOrders(ctx context.Context, filter OrderFilter) (*OrderPage, error)

	// GetOrderDetail returns the full order, including items and packages
	GetOrderDetail(ctx context.Context, orderID string) (*SourceOrder, error)

	// UpdateTracking pushes carrier and tracking number for one package
	UpdateTracking(ctx context.Context, packageID string, info TrackingInfo) error
}
