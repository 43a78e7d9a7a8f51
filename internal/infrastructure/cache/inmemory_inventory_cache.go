package cache

import (
	"context"
	"sync"
	"time"

	"github.com/orderbridge/backend/internal/domain/fulfillment"
)

// InMemoryInventoryCache implements InventoryCache using an in-memory map.
// Suitable for single-instance deployments and testing.
type InMemoryInventoryCache struct {
	mu        sync.RWMutex
	entries   map[string]Entry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryInventoryCache creates a new in-memory inventory cache.
// It starts a background goroutine to clean up expired entries.
func NewInMemoryInventoryCache() *InMemoryInventoryCache {
	c := &InMemoryInventoryCache{
		entries:  make(map[string]Entry),
		stopChan: make(chan struct{}),
	}

	c.wg.Add(1)
	go c.cleanupLoop()

	return c
}

// Get returns the cached entry for a SKU. Expired entries are treated as
// misses and removed lazily on the next cleanup.
func (c *InMemoryInventoryCache) Get(ctx context.Context, sku string) (*Entry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.entries[sku]
	if !exists {
		return nil, false, nil
	}
	if e.Expired(time.Now()) {
		return nil, false, nil
	}

	entry := e
	return &entry, true, nil
}

// Set stores a summary with the given TTL, replacing any previous entry
func (c *InMemoryInventoryCache) Set(ctx context.Context, sku string, summary fulfillment.InventorySummary, ttl time.Duration) error {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[sku] = Entry{
		Summary:   summary,
		CachedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	return nil
}

// Delete removes the entry for a SKU if present
func (c *InMemoryInventoryCache) Delete(ctx context.Context, sku string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, sku)
	return nil
}

// EvictExpired removes only entries past their TTL
func (c *InMemoryInventoryCache) EvictExpired(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	evicted := 0
	for sku, e := range c.entries {
		if e.Expired(now) {
			delete(c.entries, sku)
			evicted++
		}
	}
	return evicted, nil
}

// Clear removes all entries
func (c *InMemoryInventoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (c *InMemoryInventoryCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

// Size returns the number of entries in the cache (for testing/monitoring)
func (c *InMemoryInventoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// cleanupLoop periodically removes expired entries
func (c *InMemoryInventoryCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			_, _ = c.EvictExpired(context.Background())
		}
	}
}

// Ensure InMemoryInventoryCache implements InventoryCache
var _ InventoryCache = (*InMemoryInventoryCache)(nil)
