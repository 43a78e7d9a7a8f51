package cache

import (
	"context"
	"time"

	"github.com/orderbridge/backend/internal/domain/fulfillment"
)

// Entry is one cached inventory summary. Entries are written whole by a
// successful fetch and never partially updated; an expired entry is never
// returned to callers.
type Entry struct {
	Summary   fulfillment.InventorySummary `json:"summary"`
	CachedAt  time.Time                    `json:"cached_at"`
	ExpiresAt time.Time                    `json:"expires_at"`
}

// Expired reports whether the entry is past its TTL at the given time
func (e *Entry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// InventoryCache is the narrow interface the inventory service reads and
// writes stock summaries through. TTL is the sole invalidation mechanism;
// no caller may mutate an entry in place.
type InventoryCache interface {
	// Get returns the entry for a SKU, or found=false on miss or expiry
	Get(ctx context.Context, sku string) (entry *Entry, found bool, err error)

	// Set stores a freshly fetched summary with the given TTL
	Set(ctx context.Context, sku string, summary fulfillment.InventorySummary, ttl time.Duration) error

	// Delete removes the entry for a SKU if present
	Delete(ctx context.Context, sku string) error

	// EvictExpired removes only entries past their TTL and returns the count
	EvictExpired(ctx context.Context) (int, error)

	// Clear removes all entries
	Clear(ctx context.Context) error

	// Close releases resources held by the cache
	Close() error
}
