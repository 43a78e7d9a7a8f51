package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/orderbridge/backend/internal/infrastructure/config"
)

// InventoryCacheFactory creates inventory caches based on configuration
type InventoryCacheFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// InventoryCacheFactoryOption is a functional option for configuring the factory
type InventoryCacheFactoryOption func(*InventoryCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) InventoryCacheFactoryOption {
	return func(f *InventoryCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory cache
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) InventoryCacheFactoryOption {
	return func(f *InventoryCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewInventoryCacheFactory creates a new factory
func NewInventoryCacheFactory(cfg config.RedisConfig, opts ...InventoryCacheFactoryOption) *InventoryCacheFactory {
	f := &InventoryCacheFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisCache creates a Redis-backed inventory cache
func (f *InventoryCacheFactory) CreateRedisCache() (InventoryCache, error) {
	cache, err := NewRedisInventoryCache(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis inventory cache: %w", err)
	}
	return cache, nil
}

// CreateInMemoryCache creates an in-memory inventory cache.
// WARNING: in-memory caches do not share state across process instances,
// so each instance re-fetches inventory independently.
func (f *InventoryCacheFactory) CreateInMemoryCache() InventoryCache {
	return NewInMemoryInventoryCache()
}

// CreateCache creates an inventory cache, trying Redis first and falling back
// to in-memory when Redis is unavailable and fallback is allowed.
func (f *InventoryCacheFactory) CreateCache() (InventoryCache, error) {
	cache, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("using Redis inventory cache")
		return cache, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for inventory cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory inventory cache",
		zap.Error(err),
	)
	return f.CreateInMemoryCache(), nil
}
