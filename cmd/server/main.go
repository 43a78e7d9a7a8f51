package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	inventoryapp "github.com/orderbridge/backend/internal/application/inventory"
	routingapp "github.com/orderbridge/backend/internal/application/routing"
	trackingapp "github.com/orderbridge/backend/internal/application/tracking"
	"github.com/orderbridge/backend/internal/domain/routing"
	"github.com/orderbridge/backend/internal/infrastructure/cache"
	"github.com/orderbridge/backend/internal/infrastructure/channelapi"
	"github.com/orderbridge/backend/internal/infrastructure/config"
	"github.com/orderbridge/backend/internal/infrastructure/fulfillmentapi"
	"github.com/orderbridge/backend/internal/infrastructure/logger"
	"github.com/orderbridge/backend/internal/infrastructure/persistence"
	"github.com/orderbridge/backend/internal/infrastructure/retry"
	"github.com/orderbridge/backend/internal/infrastructure/scheduler"
	"github.com/orderbridge/backend/internal/interfaces/http/handler"
	"github.com/orderbridge/backend/internal/interfaces/http/middleware"
	"github.com/orderbridge/backend/internal/interfaces/http/router"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting order routing service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.String("port", cfg.App.Port),
	)

	// Database with GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Repositories
	resultRepo := persistence.NewGormRoutingResultRepository(db.DB)
	trackingRepo := persistence.NewGormTrackingRecordRepository(db.DB)
	skuMappingRepo := persistence.NewGormSkuMappingRepository(db.DB)

	// SKU translation table, loaded from storage at startup
	skuMap := routing.NewSkuMap()
	mappings, err := skuMappingRepo.FindAll(context.Background())
	if err != nil {
		log.Fatal("Failed to load SKU mappings", zap.Error(err))
	}
	if err := skuMap.Load(mappings); err != nil {
		log.Fatal("Failed to build SKU map", zap.Error(err))
	}
	log.Info("SKU mappings loaded", zap.Int("count", skuMap.Len()))

	// Inventory cache, Redis with in-memory fallback
	cacheFactory := cache.NewInventoryCacheFactory(cfg.Redis, cache.WithLogger(log))
	invCache, err := cacheFactory.CreateCache()
	if err != nil {
		log.Fatal("Failed to create inventory cache", zap.Error(err))
	}

	retryCfg := retry.Config{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		MaxDelay:    cfg.Retry.MaxDelay,
	}

	// Source platform client
	platform, err := channelapi.NewClient(&channelapi.Config{
		AppKey:         cfg.Channel.AppKey,
		AppSecret:      cfg.Channel.AppSecret,
		AccessToken:    cfg.Channel.AccessToken,
		RefreshToken:   cfg.Channel.RefreshToken,
		ShopID:         cfg.Channel.ShopID,
		APIBaseURL:     cfg.Channel.APIBaseURL,
		TimeoutSeconds: cfg.Channel.TimeoutSeconds,
	}, retryCfg, log)
	if err != nil {
		log.Fatal("Failed to create source platform client", zap.Error(err))
	}

	// Fulfillment provider client
	provider, err := fulfillmentapi.NewClient(&fulfillmentapi.Config{
		ClientID:        cfg.Fulfillment.ClientID,
		ClientSecret:    cfg.Fulfillment.ClientSecret,
		RefreshToken:    cfg.Fulfillment.RefreshToken,
		AccessKeyID:     cfg.Fulfillment.AccessKeyID,
		SecretAccessKey: cfg.Fulfillment.SecretAccessKey,
		Region:          cfg.Fulfillment.Region,
		MarketplaceID:   cfg.Fulfillment.MarketplaceID,
		SellerID:        cfg.Fulfillment.SellerID,
		APIBaseURL:      cfg.Fulfillment.APIBaseURL,
		AuthBaseURL:     cfg.Fulfillment.AuthBaseURL,
		TimeoutSeconds:  cfg.Fulfillment.TimeoutSeconds,
	}, retryCfg, log)
	if err != nil {
		log.Fatal("Failed to create fulfillment provider client", zap.Error(err))
	}

	// Application services
	inventoryService := inventoryapp.NewService(provider, invCache, cfg.Inventory, log)
	orderRouter := routingapp.NewRouter(
		platform,
		provider,
		routingapp.NewValidator(skuMap),
		routingapp.NewTransformer(skuMap, cfg.Routing.OrderIDPrefix),
		inventoryService,
		resultRepo,
		cfg.Routing,
		log,
	)
	trackingService := trackingapp.NewService(platform, provider, resultRepo, trackingRepo, log)

	// Background loops
	if cfg.Scheduler.Enabled {
		runners := []*scheduler.IntervalRunner{
			scheduler.NewOrderRoutingRunner(orderRouter, cfg.Routing.PollInterval, log),
			scheduler.NewTrackingSyncRunner(trackingService, cfg.Tracking.SyncInterval, log),
			scheduler.NewCacheEvictionRunner(inventoryService, cfg.Inventory.CacheTTL, log),
		}
		for _, runner := range runners {
			if err := runner.Start(context.Background()); err != nil {
				log.Fatal("Failed to start scheduler", zap.Error(err))
			}
		}
		defer func() {
			for _, runner := range runners {
				runner.Stop()
			}
		}()
	}

	// HTTP handlers
	routingHandler := handler.NewRoutingHandler(orderRouter, resultRepo, log)
	trackingHandler := handler.NewTrackingHandler(trackingService, trackingRepo, log)
	inventoryHandler := handler.NewInventoryHandler(inventoryService, log)
	skuMappingHandler := handler.NewSkuMappingHandler(skuMappingRepo, skuMap, log)
	systemHandler := handler.NewSystemHandler(db, version)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig()))

	router.NewRouter(engine).
		Register(systemHandler).
		Register(routingHandler).
		Register(trackingHandler).
		Register(inventoryHandler).
		Register(skuMappingHandler).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
