package routing

import (
	"context"
	"time"
)

// TrackingRecord reconciles one provider-side package back to the source
// platform. Synced=true is terminal for a package; only the tracking sync
// service mutates these records.
type TrackingRecord struct {
	// OrderID is the source platform's order ID
	OrderID string
	// PackageID is the source platform's package identifier
	PackageID string
	// PackageNumber is the provider-side package number
	PackageNumber int
	// TrackingNumber from the carrier
	TrackingNumber string
	// CarrierCode identifies the carrier
	CarrierCode string
	// CarrierName is the carrier's display name
	CarrierName string
	// Synced is true once the tracking number was pushed to the source
	Synced bool
	// LastSyncAt is the last successful sync time
	LastSyncAt *time.Time
}

// TrackingRecordRepository persists tracking records
type TrackingRecordRepository interface {
	// Save creates or updates a record keyed by order and package number
	Save(ctx context.Context, record *TrackingRecord) error

	// FindByOrder returns all records for an order
	FindByOrder(ctx context.Context, orderID string) ([]TrackingRecord, error)

	// IsOrderSynced returns true when the order has at least one record and
	// every record is synced
	IsOrderSynced(ctx context.Context, orderID string) (bool, error)
}
