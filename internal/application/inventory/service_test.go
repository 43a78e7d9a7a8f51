package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderbridge/backend/internal/domain/fulfillment"
	"github.com/orderbridge/backend/internal/domain/shared"
	"github.com/orderbridge/backend/internal/infrastructure/cache"
	"github.com/orderbridge/backend/internal/infrastructure/config"
)

// fakeProvider serves canned inventory summaries and counts calls
type fakeProvider struct {
	fulfillment.Provider

	mu        sync.Mutex
	stock     map[string]int64
	calls     int
	callSizes []int
	err       error
}

func newFakeProvider(stock map[string]int64) *fakeProvider {
	return &fakeProvider{stock: stock}
}

func (p *fakeProvider) GetInventorySummaries(_ context.Context, skus []string) ([]fulfillment.InventorySummary, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.callSizes = append(p.callSizes, len(skus))

	if p.err != nil {
		return nil, p.err
	}

	var summaries []fulfillment.InventorySummary
	for _, sku := range skus {
		qty, ok := p.stock[sku]
		if !ok {
			continue // unknown SKUs are absent, not zeroed
		}
		summaries = append(summaries, fulfillment.InventorySummary{
			SellerSKU:   sku,
			Fulfillable: qty,
			AsOf:        time.Now(),
		})
	}
	return summaries, nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func newTestService(t *testing.T, provider fulfillment.Provider, cfg config.InventoryConfig) *Service {
	t.Helper()
	c := cache.NewInMemoryInventoryCache()
	t.Cleanup(func() { _ = c.Close() })
	return NewService(provider, c, cfg, nil)
}

func defaultConfig() config.InventoryConfig {
	return config.InventoryConfig{
		CacheTTL:          time.Minute,
		SafetyStock:       0,
		LowStockThreshold: 10,
		BatchSize:         50,
	}
}

func TestCheckInventory_Sufficient(t *testing.T) {
	provider := newFakeProvider(map[string]int64{"FUL-A": 5})
	svc := newTestService(t, provider, defaultConfig())

	result, err := svc.CheckInventory(context.Background(), "FUL-A", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), result.Available)
	assert.True(t, result.Sufficient)
	assert.True(t, result.LowStock) // 5 <= threshold 10
	assert.False(t, result.Cached)
}

func TestCheckInventory_SafetyStockFloor(t *testing.T) {
	cfg := defaultConfig()
	cfg.SafetyStock = 3
	provider := newFakeProvider(map[string]int64{"FUL-A": 5, "FUL-B": 2})
	svc := newTestService(t, provider, cfg)

	result, err := svc.CheckInventory(context.Background(), "FUL-A", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Available)
	assert.True(t, result.Sufficient)

	// Safety stock exceeding reported stock floors at zero, never negative
	result, err = svc.CheckInventory(context.Background(), "FUL-B", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Available)
	assert.False(t, result.Sufficient)
}

func TestCheckInventory_ZeroStockIsLowStock(t *testing.T) {
	provider := newFakeProvider(map[string]int64{"C": 0})
	svc := newTestService(t, provider, defaultConfig())

	result, err := svc.CheckInventory(context.Background(), "C", 1)
	require.NoError(t, err)
	assert.False(t, result.Sufficient)
	assert.True(t, result.LowStock)
}

func TestCheckInventory_CacheHitIssuesNoProviderCall(t *testing.T) {
	provider := newFakeProvider(map[string]int64{"FUL-A": 5})
	svc := newTestService(t, provider, defaultConfig())
	ctx := context.Background()

	first, err := svc.CheckInventory(ctx, "FUL-A", 1)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := svc.CheckInventory(ctx, "FUL-A", 1)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, 1, provider.callCount())
}

func TestCheckInventory_ExpiredCacheRefetches(t *testing.T) {
	cfg := defaultConfig()
	cfg.CacheTTL = time.Millisecond
	provider := newFakeProvider(map[string]int64{"FUL-A": 5})
	svc := newTestService(t, provider, cfg)
	ctx := context.Background()

	_, err := svc.CheckInventory(ctx, "FUL-A", 1)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	result, err := svc.CheckInventory(ctx, "FUL-A", 1)
	require.NoError(t, err)
	assert.False(t, result.Cached)
	assert.Equal(t, 2, provider.callCount())
}

func TestCheckInventory_FailsClosedOnProviderError(t *testing.T) {
	provider := newFakeProvider(nil)
	provider.err = errors.New("provider down")
	svc := newTestService(t, provider, defaultConfig())

	result, err := svc.CheckInventory(context.Background(), "FUL-A", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInventoryCheckFailed)
	assert.False(t, result.Sufficient)
	require.NotNil(t, result.Err)
	assert.Equal(t, shared.ErrCodeInventoryCheckFailed, result.Err.Code)
}

func TestCheckInventory_UnknownSKUIsStructuredFailure(t *testing.T) {
	provider := newFakeProvider(map[string]int64{})
	svc := newTestService(t, provider, defaultConfig())

	result, err := svc.CheckInventory(context.Background(), "GHOST", 1)
	require.Error(t, err)
	assert.False(t, result.Sufficient)
	require.NotNil(t, result.Err)
	assert.Equal(t, shared.ErrCodeInventoryCheckFailed, result.Err.Code)
}

func TestCheckInventoryBatch_MixedOutcomes(t *testing.T) {
	provider := newFakeProvider(map[string]int64{"FUL-A": 5, "FUL-B": 1})
	svc := newTestService(t, provider, defaultConfig())

	batch, err := svc.CheckInventoryBatch(context.Background(), []CheckItem{
		{SKU: "FUL-A", Quantity: 2},
		{SKU: "FUL-B", Quantity: 3},
		{SKU: "GHOST", Quantity: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, batch.Total)
	assert.Equal(t, 1, batch.SufficientCount)
	assert.Equal(t, 1, batch.InsufficientCount)
	assert.Equal(t, 1, batch.FailedCount)
	assert.False(t, batch.AllSufficient())
	require.Len(t, batch.Results, 3)
}

func TestCheckInventoryBatch_DuplicateSKUsCombineQuantities(t *testing.T) {
	provider := newFakeProvider(map[string]int64{"FUL-A": 5})
	svc := newTestService(t, provider, defaultConfig())

	// Two lines of the same SKU must be checked against their combined
	// quantity: 3+3 > 5 even though each line alone fits.
	batch, err := svc.CheckInventoryBatch(context.Background(), []CheckItem{
		{SKU: "FUL-A", Quantity: 3},
		{SKU: "FUL-A", Quantity: 3},
	})
	require.NoError(t, err)

	assert.False(t, batch.AllSufficient())
	assert.Equal(t, 2, batch.InsufficientCount)
	require.Len(t, batch.Results, 2)
	for _, result := range batch.Results {
		assert.False(t, result.Sufficient)
		assert.Equal(t, int64(6), result.Requested)
		assert.Equal(t, int64(5), result.Available)
	}

	// The duplicate SKU is fetched once
	assert.Equal(t, 1, provider.callCount())
	assert.Equal(t, []int{1}, provider.callSizes)
}

func TestCheckInventoryBatch_DuplicateDoesNotMaskLargerRequest(t *testing.T) {
	provider := newFakeProvider(map[string]int64{"FUL-A": 5})
	svc := newTestService(t, provider, defaultConfig())

	// A later, smaller line must never replace an earlier larger one
	batch, err := svc.CheckInventoryBatch(context.Background(), []CheckItem{
		{SKU: "FUL-A", Quantity: 10},
		{SKU: "FUL-A", Quantity: 1},
	})
	require.NoError(t, err)

	assert.False(t, batch.AllSufficient())
	require.Len(t, batch.Results, 2)
	for _, result := range batch.Results {
		assert.False(t, result.Sufficient)
		assert.Equal(t, int64(11), result.Requested)
	}
}

func TestCheckInventoryBatch_DuplicatesWithinStockPass(t *testing.T) {
	provider := newFakeProvider(map[string]int64{"FUL-A": 5})
	svc := newTestService(t, provider, defaultConfig())

	batch, err := svc.CheckInventoryBatch(context.Background(), []CheckItem{
		{SKU: "FUL-A", Quantity: 2},
		{SKU: "FUL-A", Quantity: 3},
	})
	require.NoError(t, err)

	assert.True(t, batch.AllSufficient())
	assert.Equal(t, 2, batch.SufficientCount)
}

func TestCheckInventoryBatch_ChunksProviderCalls(t *testing.T) {
	cfg := defaultConfig()
	cfg.BatchSize = 2
	stock := map[string]int64{"A": 1, "B": 2, "C": 3, "D": 4, "E": 5}
	provider := newFakeProvider(stock)
	svc := newTestService(t, provider, cfg)

	items := []CheckItem{
		{SKU: "A", Quantity: 1}, {SKU: "B", Quantity: 1}, {SKU: "C", Quantity: 1},
		{SKU: "D", Quantity: 1}, {SKU: "E", Quantity: 1},
	}
	batch, err := svc.CheckInventoryBatch(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, 5, batch.SufficientCount)

	assert.Equal(t, 3, provider.callCount())
	assert.Equal(t, []int{2, 2, 1}, provider.callSizes)
}

func TestCheckInventoryBatch_UsesCachedEntries(t *testing.T) {
	provider := newFakeProvider(map[string]int64{"FUL-A": 5, "FUL-B": 5})
	svc := newTestService(t, provider, defaultConfig())
	ctx := context.Background()

	_, err := svc.CheckInventory(ctx, "FUL-A", 1)
	require.NoError(t, err)

	batch, err := svc.CheckInventoryBatch(ctx, []CheckItem{
		{SKU: "FUL-A", Quantity: 1},
		{SKU: "FUL-B", Quantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, batch.SufficientCount)

	// Only FUL-B needed a fetch
	assert.Equal(t, 2, provider.callCount())
	assert.Equal(t, []int{1, 1}, provider.callSizes)

	for _, result := range batch.Results {
		if result.SKU == "FUL-A" {
			assert.True(t, result.Cached)
		} else {
			assert.False(t, result.Cached)
		}
	}
}

func TestCheckInventoryBatch_ChunkFailureFailsOnlyThatChunk(t *testing.T) {
	provider := newFakeProvider(nil)
	provider.err = errors.New("provider down")
	svc := newTestService(t, provider, defaultConfig())

	batch, err := svc.CheckInventoryBatch(context.Background(), []CheckItem{
		{SKU: "A", Quantity: 1},
		{SKU: "B", Quantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, batch.FailedCount)
	for _, result := range batch.Results {
		assert.False(t, result.Sufficient)
		require.NotNil(t, result.Err)
	}
}

func TestRefreshInventory_BypassesCache(t *testing.T) {
	provider := newFakeProvider(map[string]int64{"FUL-A": 5})
	svc := newTestService(t, provider, defaultConfig())
	ctx := context.Background()

	_, err := svc.CheckInventory(ctx, "FUL-A", 1)
	require.NoError(t, err)

	provider.mu.Lock()
	provider.stock["FUL-A"] = 9
	provider.mu.Unlock()

	require.NoError(t, svc.RefreshInventory(ctx, []string{"FUL-A"}))

	result, err := svc.CheckInventory(ctx, "FUL-A", 1)
	require.NoError(t, err)
	assert.True(t, result.Cached)
	assert.Equal(t, int64(9), result.Available)
	assert.Equal(t, 2, provider.callCount())
}

func TestClearCache(t *testing.T) {
	provider := newFakeProvider(map[string]int64{"FUL-A": 5})
	svc := newTestService(t, provider, defaultConfig())
	ctx := context.Background()

	_, err := svc.CheckInventory(ctx, "FUL-A", 1)
	require.NoError(t, err)
	require.NoError(t, svc.ClearCache(ctx))

	result, err := svc.CheckInventory(ctx, "FUL-A", 1)
	require.NoError(t, err)
	assert.False(t, result.Cached)
}
