package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/orderbridge/backend/internal/application/tracking"
	"github.com/orderbridge/backend/internal/domain/routing"
)

// OrderRouter routes every pending order in one pass
type OrderRouter interface {
	RoutePendingOrders(ctx context.Context) (*routing.BatchResult, error)
}

// TrackingSyncer reconciles tracking back to the source platform
type TrackingSyncer interface {
	SyncAllTracking(ctx context.Context) (*tracking.SyncSummary, error)
}

// CacheEvictor drops expired inventory cache entries
type CacheEvictor interface {
	ClearExpiredCache(ctx context.Context) (int, error)
}

// NewOrderRoutingRunner builds the periodic order-detection loop
func NewOrderRoutingRunner(router OrderRouter, interval time.Duration, logger *zap.Logger) *IntervalRunner {
	return NewIntervalRunner("order-routing", interval, func(ctx context.Context) error {
		batch, err := router.RoutePendingOrders(ctx)
		if err != nil {
			return err
		}
		if batch.TotalOrders > 0 && logger != nil {
			logger.Info("routing cycle complete",
				zap.Int("total", batch.TotalOrders),
				zap.Int("success", batch.SuccessCount),
				zap.Int("failed", batch.FailedCount),
				zap.Int("skipped", batch.SkippedCount),
			)
		}
		return nil
	}, logger)
}

// NewTrackingSyncRunner builds the periodic tracking reconciliation loop
func NewTrackingSyncRunner(syncer TrackingSyncer, interval time.Duration, logger *zap.Logger) *IntervalRunner {
	return NewIntervalRunner("tracking-sync", interval, func(ctx context.Context) error {
		summary, err := syncer.SyncAllTracking(ctx)
		if err != nil {
			return err
		}
		if summary.TotalOrders > 0 && logger != nil {
			logger.Info("tracking cycle complete",
				zap.Int("total", summary.TotalOrders),
				zap.Int("synced", summary.SyncedCount),
				zap.Int("failed", summary.FailedCount),
				zap.Int("no_tracking", summary.NoTrackingCount),
				zap.Int("already_synced", summary.AlreadySyncedCount),
			)
		}
		return nil
	}, logger)
}

// NewCacheEvictionRunner builds the periodic inventory cache sweep
func NewCacheEvictionRunner(evictor CacheEvictor, interval time.Duration, logger *zap.Logger) *IntervalRunner {
	return NewIntervalRunner("inventory-cache-eviction", interval, func(ctx context.Context) error {
		evicted, err := evictor.ClearExpiredCache(ctx)
		if err != nil {
			return err
		}
		if evicted > 0 && logger != nil {
			logger.Debug("evicted expired inventory entries", zap.Int("count", evicted))
		}
		return nil
	}, logger)
}
