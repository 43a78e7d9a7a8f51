package inventory

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/orderbridge/backend/internal/domain/fulfillment"
	"github.com/orderbridge/backend/internal/domain/shared"
	"github.com/orderbridge/backend/internal/infrastructure/cache"
	"github.com/orderbridge/backend/internal/infrastructure/config"
)

// CheckItem is one SKU/quantity pair to check
type CheckItem struct {
	SKU      string `json:"sku"`
	Quantity int64  `json:"quantity"`
}

// CheckResult answers "is this quantity available right now" for one SKU.
// Available already has the safety stock subtracted.
type CheckResult struct {
	SKU        string              `json:"sku"`
	Requested  int64               `json:"requested"`
	Available  int64               `json:"available"`
	Sufficient bool                `json:"sufficient"`
	LowStock   bool                `json:"low_stock"`
	Cached     bool                `json:"cached"`
	Err        *shared.DomainError `json:"error,omitempty"`
}

// BatchResult aggregates per-SKU check outcomes
type BatchResult struct {
	Total             int           `json:"total"`
	SufficientCount   int           `json:"sufficient_count"`
	InsufficientCount int           `json:"insufficient_count"`
	FailedCount       int           `json:"failed_count"`
	Results           []CheckResult `json:"results"`
}

// AllSufficient returns true when every checked SKU has enough stock
func (b *BatchResult) AllSufficient() bool {
	return b.FailedCount == 0 && b.InsufficientCount == 0
}

// Service answers inventory availability questions against the fulfillment
// provider, caching summaries with a TTL so routing does not hammer the
// provider on every order. When availability cannot be determined the check
// fails closed: overselling is worse than a false block.
type Service struct {
	provider fulfillment.Provider
	cache    cache.InventoryCache
	cfg      config.InventoryConfig
	logger   *zap.Logger
}

// NewService creates a new inventory service
func NewService(provider fulfillment.Provider, invCache cache.InventoryCache, cfg config.InventoryConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		provider: provider,
		cache:    invCache,
		cfg:      cfg,
		logger:   logger.Named("inventory"),
	}
}

// available subtracts the safety stock floor, never going negative
func (s *Service) available(summary fulfillment.InventorySummary) int64 {
	available := summary.Fulfillable - s.cfg.SafetyStock
	if available < 0 {
		available = 0
	}
	return available
}

// resultFor builds a CheckResult from a fetched or cached summary
func (s *Service) resultFor(sku string, requested int64, summary fulfillment.InventorySummary, cached bool) CheckResult {
	available := s.available(summary)
	return CheckResult{
		SKU:        sku,
		Requested:  requested,
		Available:  available,
		Sufficient: available >= requested,
		LowStock:   available <= s.cfg.LowStockThreshold,
		Cached:     cached,
	}
}

// failedResult builds a fail-closed CheckResult
func failedResult(sku string, requested int64, message string) CheckResult {
	return CheckResult{
		SKU:        sku,
		Requested:  requested,
		Sufficient: false,
		Err:        shared.NewRetryableError(shared.ErrCodeInventoryCheckFailed, message),
	}
}

// CheckInventory checks whether the requested quantity of one SKU is
// available. A cache hit within TTL returns immediately with Cached=true and
// issues no provider call.
func (s *Service) CheckInventory(ctx context.Context, sku string, requestedQty int64) (*CheckResult, error) {
	if entry, found, err := s.cache.Get(ctx, sku); err == nil && found {
		result := s.resultFor(sku, requestedQty, entry.Summary, true)
		return &result, nil
	}

	summaries, err := s.provider.GetInventorySummaries(ctx, []string{sku})
	if err != nil {
		s.logger.Warn("inventory fetch failed, failing closed",
			zap.String("sku", sku),
			zap.Error(err),
		)
		result := failedResult(sku, requestedQty, fmt.Sprintf("inventory fetch failed for %s", sku))
		return &result, fmt.Errorf("%w: %v", shared.ErrInventoryCheckFailed, err)
	}

	for _, summary := range summaries {
		if summary.SellerSKU == sku {
			s.store(ctx, summary)
			result := s.resultFor(sku, requestedQty, summary, false)
			return &result, nil
		}
	}

	// The provider does not know this SKU. That is a structured failure,
	// not zero stock.
	result := failedResult(sku, requestedQty, fmt.Sprintf("provider reported no inventory record for %s", sku))
	return &result, fmt.Errorf("%w: sku %s", shared.ErrInventoryCheckFailed, sku)
}

// CheckInventoryBatch checks many SKUs at once. Cached SKUs are answered
// locally; the rest are fetched in provider-call-sized chunks. Individual
// failures are reported per SKU and never abort the batch. Duplicate line
// items for one SKU are checked against their combined quantity, never each
// against the same stock.
func (s *Service) CheckInventoryBatch(ctx context.Context, items []CheckItem) (*BatchResult, error) {
	batch := &BatchResult{Total: len(items)}
	if len(items) == 0 {
		return batch, nil
	}

	totals := make(map[string]int64, len(items))
	skuOrder := make([]string, 0, len(items))
	for _, item := range items {
		if _, seen := totals[item.SKU]; !seen {
			skuOrder = append(skuOrder, item.SKU)
		}
		totals[item.SKU] += item.Quantity
	}

	results := make(map[string]CheckResult, len(totals))
	var uncached []string

	for _, sku := range skuOrder {
		if entry, found, err := s.cache.Get(ctx, sku); err == nil && found {
			results[sku] = s.resultFor(sku, totals[sku], entry.Summary, true)
			continue
		}
		uncached = append(uncached, sku)
	}

	batchSize := s.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}

	for start := 0; start < len(uncached); start += batchSize {
		end := start + batchSize
		if end > len(uncached) {
			end = len(uncached)
		}
		chunk := uncached[start:end]

		summaries, err := s.provider.GetInventorySummaries(ctx, chunk)
		if err != nil {
			s.logger.Warn("inventory chunk fetch failed, failing closed",
				zap.Int("skus", len(chunk)),
				zap.Error(err),
			)
			for _, sku := range chunk {
				results[sku] = failedResult(sku, totals[sku], "inventory fetch failed")
			}
			continue
		}

		bySKU := make(map[string]fulfillment.InventorySummary, len(summaries))
		for _, summary := range summaries {
			bySKU[summary.SellerSKU] = summary
			s.store(ctx, summary)
		}

		for _, sku := range chunk {
			summary, ok := bySKU[sku]
			if !ok {
				results[sku] = failedResult(sku, totals[sku],
					fmt.Sprintf("provider reported no inventory record for %s", sku))
				continue
			}
			results[sku] = s.resultFor(sku, totals[sku], summary, false)
		}
	}

	for _, item := range items {
		result := results[item.SKU]
		batch.Results = append(batch.Results, result)
		switch {
		case result.Err != nil:
			batch.FailedCount++
		case result.Sufficient:
			batch.SufficientCount++
		default:
			batch.InsufficientCount++
		}
	}

	return batch, nil
}

// RefreshInventory force-fetches the given SKUs, bypassing and repopulating
// the cache
func (s *Service) RefreshInventory(ctx context.Context, skus []string) error {
	if len(skus) == 0 {
		return nil
	}

	batchSize := s.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}

	for start := 0; start < len(skus); start += batchSize {
		end := start + batchSize
		if end > len(skus) {
			end = len(skus)
		}

		summaries, err := s.provider.GetInventorySummaries(ctx, skus[start:end])
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInventoryCheckFailed, err)
		}
		for _, summary := range summaries {
			s.store(ctx, summary)
		}
	}

	return nil
}

// ClearCache removes every cached inventory entry
func (s *Service) ClearCache(ctx context.Context) error {
	return s.cache.Clear(ctx)
}

// ClearExpiredCache removes only entries past their TTL
func (s *Service) ClearExpiredCache(ctx context.Context) (int, error) {
	return s.cache.EvictExpired(ctx)
}

// store caches one summary with the configured TTL. Cache write failures are
// logged, not surfaced; the check already has its answer.
func (s *Service) store(ctx context.Context, summary fulfillment.InventorySummary) {
	ttl := s.cfg.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if err := s.cache.Set(ctx, summary.SellerSKU, summary, ttl); err != nil {
		s.logger.Warn("failed to cache inventory summary",
			zap.String("sku", summary.SellerSKU),
			zap.Error(err),
		)
	}
}
