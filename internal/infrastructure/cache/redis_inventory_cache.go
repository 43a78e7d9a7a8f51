package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/orderbridge/backend/internal/domain/fulfillment"
)

const defaultKeyPrefix = "inventory:summary:"

// RedisInventoryCache implements InventoryCache using Redis. Suitable for
// distributed deployments where multiple instances share the inventory view.
// Redis TTL enforces expiry, so EvictExpired is a no-op here.
type RedisInventoryCache struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisInventoryCache creates a new Redis-backed inventory cache
func NewRedisInventoryCache(cfg RedisConfig) (*RedisInventoryCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisInventoryCache{
		client:    client,
		keyPrefix: defaultKeyPrefix,
	}, nil
}

// NewRedisInventoryCacheWithClient creates a cache with an existing Redis
// client. Useful for testing or when sharing a client across components.
func NewRedisInventoryCacheWithClient(client *redis.Client, keyPrefix string) *RedisInventoryCache {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisInventoryCache{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (c *RedisInventoryCache) key(sku string) string {
	return c.keyPrefix + sku
}

// Get returns the cached entry for a SKU
func (c *RedisInventoryCache) Get(ctx context.Context, sku string) (*Entry, bool, error) {
	data, err := c.client.Get(ctx, c.key(sku)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis inventory cache get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false, fmt.Errorf("redis inventory cache decode: %w", err)
	}

	// Redis TTL should have removed it, but never hand back a stale entry
	if entry.Expired(time.Now()) {
		return nil, false, nil
	}
	return &entry, true, nil
}

// Set stores a summary with the given TTL
func (c *RedisInventoryCache) Set(ctx context.Context, sku string, summary fulfillment.InventorySummary, ttl time.Duration) error {
	now := time.Now()
	entry := Entry{
		Summary:   summary,
		CachedAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("redis inventory cache encode: %w", err)
	}

	if err := c.client.Set(ctx, c.key(sku), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis inventory cache set: %w", err)
	}
	return nil
}

// Delete removes the entry for a SKU if present
func (c *RedisInventoryCache) Delete(ctx context.Context, sku string) error {
	if err := c.client.Del(ctx, c.key(sku)).Err(); err != nil {
		return fmt.Errorf("redis inventory cache delete: %w", err)
	}
	return nil
}

// EvictExpired is a no-op: Redis expires keys on its own
func (c *RedisInventoryCache) EvictExpired(ctx context.Context) (int, error) {
	return 0, nil
}

// Clear removes all entries under the cache's key prefix
func (c *RedisInventoryCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis inventory cache clear: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis inventory cache scan: %w", err)
	}
	return nil
}

// Close closes the underlying Redis client
func (c *RedisInventoryCache) Close() error {
	return c.client.Close()
}

// Ensure RedisInventoryCache implements InventoryCache
var _ InventoryCache = (*RedisInventoryCache)(nil)
