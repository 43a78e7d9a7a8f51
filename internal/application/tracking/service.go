package tracking

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/orderbridge/backend/internal/domain/channel"
	"github.com/orderbridge/backend/internal/domain/fulfillment"
	"github.com/orderbridge/backend/internal/domain/routing"
)

// OrderOutcome is what happened to one order during a sync cycle
type OrderOutcome string

const (
	OutcomeSynced        OrderOutcome = "SYNCED"
	OutcomeAlreadySynced OrderOutcome = "ALREADY_SYNCED"
	OutcomeNoTracking    OrderOutcome = "NO_TRACKING"
	OutcomeFailed        OrderOutcome = "FAILED"
)

// OrderSyncResult is the per-order outcome of one sync cycle
type OrderSyncResult struct {
	OrderID            string       `json:"order_id"`
	FulfillmentOrderID string       `json:"fulfillment_order_id"`
	Outcome            OrderOutcome `json:"outcome"`
	TrackingNumbers    []string     `json:"tracking_numbers,omitempty"`
	Error              string       `json:"error,omitempty"`
}

// SyncSummary aggregates one SyncAllTracking run
type SyncSummary struct {
	TotalOrders        int               `json:"total_orders"`
	SyncedCount        int               `json:"synced_count"`
	FailedCount        int               `json:"failed_count"`
	NoTrackingCount    int               `json:"no_tracking_count"`
	AlreadySyncedCount int               `json:"already_synced_count"`
	Results            []OrderSyncResult `json:"results"`
}

// Service reconciles provider-side shipment tracking back to the source
// platform. Synced=true is terminal per package; a failed push leaves the
// record unsynced so the next cycle retries it.
type Service struct {
	platform channel.SourcePlatform
	provider fulfillment.Provider
	results  routing.ResultRepository
	records  routing.TrackingRecordRepository
	logger   *zap.Logger
}

// NewService creates the tracking sync service
func NewService(
	platform channel.SourcePlatform,
	provider fulfillment.Provider,
	results routing.ResultRepository,
	records routing.TrackingRecordRepository,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		platform: platform,
		provider: provider,
		results:  results,
		records:  records,
		logger:   logger.Named("tracking"),
	}
}

// SyncAllTracking walks every previously-routed order and pushes any new
// tracking numbers to the source platform. Idempotent: orders whose packages
// are all synced are counted and skipped without touching either API's
// write path.
func (s *Service) SyncAllTracking(ctx context.Context) (*SyncSummary, error) {
	routed, err := s.results.ListRouted(ctx)
	if err != nil {
		return nil, fmt.Errorf("tracking: failed to list routed orders: %w", err)
	}

	summary := &SyncSummary{TotalOrders: len(routed)}

	for _, result := range routed {
		outcome := s.syncOrder(ctx, result.OrderID, result.FulfillmentOrderID)
		summary.Results = append(summary.Results, outcome)
		switch outcome.Outcome {
		case OutcomeSynced:
			summary.SyncedCount++
		case OutcomeAlreadySynced:
			summary.AlreadySyncedCount++
		case OutcomeNoTracking:
			summary.NoTrackingCount++
		case OutcomeFailed:
			summary.FailedCount++
		}
	}

	s.logger.Info("tracking sync finished",
		zap.Int("total", summary.TotalOrders),
		zap.Int("synced", summary.SyncedCount),
		zap.Int("failed", summary.FailedCount),
		zap.Int("no_tracking", summary.NoTrackingCount),
		zap.Int("already_synced", summary.AlreadySyncedCount),
	)

	return summary, nil
}

// syncOrder reconciles one order's packages
func (s *Service) syncOrder(ctx context.Context, orderID, fulfillmentOrderID string) OrderSyncResult {
	outcome := OrderSyncResult{OrderID: orderID, FulfillmentOrderID: fulfillmentOrderID}

	synced, err := s.records.IsOrderSynced(ctx, orderID)
	if err != nil {
		outcome.Outcome = OutcomeFailed
		outcome.Error = fmt.Sprintf("failed to read tracking records: %v", err)
		return outcome
	}
	if synced {
		outcome.Outcome = OutcomeAlreadySynced
		return outcome
	}

	detail, err := s.provider.GetFulfillmentOrder(ctx, fulfillmentOrderID)
	if err != nil {
		outcome.Outcome = OutcomeFailed
		outcome.Error = fmt.Sprintf("failed to fetch fulfillment order: %v", err)
		return outcome
	}

	packages := shippedPackages(detail)
	if len(packages) == 0 {
		// Fulfillment has not shipped yet; not an error
		outcome.Outcome = OutcomeNoTracking
		return outcome
	}

	order, err := s.platform.GetOrderDetail(ctx, orderID)
	if err != nil {
		outcome.Outcome = OutcomeFailed
		outcome.Error = fmt.Sprintf("failed to fetch source order: %v", err)
		return outcome
	}

	existing, err := s.records.FindByOrder(ctx, orderID)
	if err != nil {
		outcome.Outcome = OutcomeFailed
		outcome.Error = fmt.Sprintf("failed to read tracking records: %v", err)
		return outcome
	}
	syncedPackages := make(map[int]bool, len(existing))
	for _, record := range existing {
		if record.Synced {
			syncedPackages[record.PackageNumber] = true
		}
	}

	anyFailed := false
	anyPushed := false
	for i, pkg := range packages {
		if syncedPackages[pkg.PackageNumber] {
			continue
		}

		record := &routing.TrackingRecord{
			OrderID:        orderID,
			PackageID:      sourcePackageID(order, i),
			PackageNumber:  pkg.PackageNumber,
			TrackingNumber: pkg.TrackingNumber,
			CarrierCode:    pkg.CarrierCode,
			CarrierName:    pkg.CarrierCode,
		}

		if tracking, err := s.provider.GetPackageTracking(ctx, pkg.PackageNumber); err == nil && tracking.CarrierName != "" {
			record.CarrierName = tracking.CarrierName
		}

		err := s.platform.UpdateTracking(ctx, record.PackageID, channel.TrackingInfo{
			TrackingNumber: record.TrackingNumber,
			CarrierID:      record.CarrierCode,
			CarrierName:    record.CarrierName,
		})
		if err != nil {
			// Leave the record unsynced; the next cycle retries the push
			anyFailed = true
			outcome.Error = fmt.Sprintf("failed to push tracking for package %d: %v", pkg.PackageNumber, err)
			s.logger.Warn("tracking push failed",
				zap.String("order_id", orderID),
				zap.Int("package_number", pkg.PackageNumber),
				zap.Error(err),
			)
			if saveErr := s.records.Save(ctx, record); saveErr != nil {
				s.logger.Error("failed to save tracking record", zap.Error(saveErr))
			}
			continue
		}

		now := time.Now()
		record.Synced = true
		record.LastSyncAt = &now
		if err := s.records.Save(ctx, record); err != nil {
			s.logger.Error("failed to save tracking record", zap.Error(err))
		}
		anyPushed = true
		outcome.TrackingNumbers = append(outcome.TrackingNumbers, record.TrackingNumber)
	}

	switch {
	case anyFailed:
		outcome.Outcome = OutcomeFailed
	case anyPushed:
		outcome.Outcome = OutcomeSynced
	default:
		outcome.Outcome = OutcomeAlreadySynced
	}
	return outcome
}

// shippedPackages flattens an order's shipments into packages that carry a
// tracking number
func shippedPackages(detail *fulfillment.OrderDetail) []fulfillment.ShipmentPackage {
	var packages []fulfillment.ShipmentPackage
	for _, shipment := range detail.Shipments {
		for _, pkg := range shipment.Packages {
			if pkg.TrackingNumber != "" {
				packages = append(packages, pkg)
			}
		}
	}
	return packages
}

// sourcePackageID resolves the source platform's package identifier for the
// i-th provider package. Falls back to the first (or only) source package
// when the platform reports fewer splits than the provider shipped.
func sourcePackageID(order *channel.SourceOrder, index int) string {
	if index < len(order.Packages) {
		return order.Packages[index].PackageID
	}
	if len(order.Packages) > 0 {
		return order.Packages[0].PackageID
	}
	return order.OrderID
}
