package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Log         LogConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	HTTP        HTTPConfig
	Channel     ChannelConfig
	Fulfillment FulfillmentConfig
	Routing     RoutingConfig
	Inventory   InventoryConfig
	Tracking    TrackingConfig
	Retry       RetryConfig
	Scheduler   SchedulerConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	TrustedProxies []string
}

// ChannelConfig holds credentials and endpoints for the source commerce
// platform (the channel orders originate from)
type ChannelConfig struct {
	AppKey         string
	AppSecret      string
	AccessToken    string
	RefreshToken   string
	ShopID         string
	APIBaseURL     string
	TimeoutSeconds int
}

// FulfillmentConfig holds credentials and endpoints for the fulfillment
// provider. The provider uses OAuth2 token exchange plus AWS-style
// request signing, so both credential sets are required.
type FulfillmentConfig struct {
	ClientID        string
	ClientSecret    string
	RefreshToken    string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	MarketplaceID   string
	SellerID        string
	APIBaseURL      string
	AuthBaseURL     string
	TimeoutSeconds  int
}

// RoutingConfig holds order-routing knobs
type RoutingConfig struct {
	// PollInterval is how often pending orders are pulled from the channel
	PollInterval time.Duration
	// Concurrency bounds the fan-out within one RoutePendingOrders run
	Concurrency int
	// OrderIDPrefix derives the deterministic fulfillment-order id
	OrderIDPrefix string
	// PageSize is the channel list page size
	PageSize int
}

// InventoryConfig holds inventory-check knobs
type InventoryConfig struct {
	// CacheTTL is how long a fetched inventory summary stays valid
	CacheTTL time.Duration
	// SafetyStock is subtracted from reported fulfillable quantity
	SafetyStock int64
	// LowStockThreshold marks SKUs at or below it as low stock
	LowStockThreshold int64
	// BatchSize chunks provider inventory queries
	BatchSize int
}

// TrackingConfig holds tracking-sync knobs
type TrackingConfig struct {
	SyncInterval time.Duration
}

// RetryConfig holds HTTP retry/backoff knobs shared by both API clients
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// SchedulerConfig holds the polling loop configuration
type SchedulerConfig struct {
	Enabled bool
}

// Load loads configuration from TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with OBR_ prefix (e.g., OBR_CHANNEL_APP_SECRET)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("OBR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Channel: ChannelConfig{
			AppKey:         v.GetString("channel.app_key"),
			AppSecret:      v.GetString("channel.app_secret"),
			AccessToken:    v.GetString("channel.access_token"),
			RefreshToken:   v.GetString("channel.refresh_token"),
			ShopID:         v.GetString("channel.shop_id"),
			APIBaseURL:     v.GetString("channel.api_base_url"),
			TimeoutSeconds: v.GetInt("channel.timeout_seconds"),
		},
		Fulfillment: FulfillmentConfig{
			ClientID:        v.GetString("fulfillment.client_id"),
			ClientSecret:    v.GetString("fulfillment.client_secret"),
			RefreshToken:    v.GetString("fulfillment.refresh_token"),
			AccessKeyID:     v.GetString("fulfillment.access_key_id"),
			SecretAccessKey: v.GetString("fulfillment.secret_access_key"),
			Region:          v.GetString("fulfillment.region"),
			MarketplaceID:   v.GetString("fulfillment.marketplace_id"),
			SellerID:        v.GetString("fulfillment.seller_id"),
			APIBaseURL:      v.GetString("fulfillment.api_base_url"),
			AuthBaseURL:     v.GetString("fulfillment.auth_base_url"),
			TimeoutSeconds:  v.GetInt("fulfillment.timeout_seconds"),
		},
		Routing: RoutingConfig{
			PollInterval:  v.GetDuration("routing.poll_interval"),
			Concurrency:   v.GetInt("routing.concurrency"),
			OrderIDPrefix: v.GetString("routing.order_id_prefix"),
			PageSize:      v.GetInt("routing.page_size"),
		},
		Inventory: InventoryConfig{
			CacheTTL:          v.GetDuration("inventory.cache_ttl"),
			SafetyStock:       v.GetInt64("inventory.safety_stock"),
			LowStockThreshold: v.GetInt64("inventory.low_stock_threshold"),
			BatchSize:         v.GetInt("inventory.batch_size"),
		},
		Tracking: TrackingConfig{
			SyncInterval: v.GetDuration("tracking.sync_interval"),
		},
		Retry: RetryConfig{
			MaxAttempts: v.GetInt("retry.max_attempts"),
			BaseDelay:   v.GetDuration("retry.base_delay"),
			MaxDelay:    v.GetDuration("retry.max_delay"),
		},
		Scheduler: SchedulerConfig{
			Enabled: v.GetBool("scheduler.enabled"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "orderbridge"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "orderbridge"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.Channel.TimeoutSeconds == 0 {
		cfg.Channel.TimeoutSeconds = 30
	}
	if cfg.Fulfillment.TimeoutSeconds == 0 {
		cfg.Fulfillment.TimeoutSeconds = 30
	}
	if cfg.Fulfillment.Region == "" {
		cfg.Fulfillment.Region = "us-east-1"
	}
	if cfg.Routing.PollInterval == 0 {
		cfg.Routing.PollInterval = 5 * time.Minute
	}
	if cfg.Routing.Concurrency == 0 {
		cfg.Routing.Concurrency = 5
	}
	if cfg.Routing.OrderIDPrefix == "" {
		cfg.Routing.OrderIDPrefix = "MCF-"
	}
	if cfg.Routing.PageSize == 0 {
		cfg.Routing.PageSize = 50
	}
	if cfg.Inventory.CacheTTL == 0 {
		cfg.Inventory.CacheTTL = 5 * time.Minute
	}
	if cfg.Inventory.LowStockThreshold == 0 {
		cfg.Inventory.LowStockThreshold = 10
	}
	if cfg.Inventory.BatchSize == 0 {
		cfg.Inventory.BatchSize = 50
	}
	if cfg.Tracking.SyncInterval == 0 {
		cfg.Tracking.SyncInterval = 15 * time.Minute
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = 3
	}
	if cfg.Retry.BaseDelay == 0 {
		cfg.Retry.BaseDelay = 500 * time.Millisecond
	}
	if cfg.Retry.MaxDelay == 0 {
		cfg.Retry.MaxDelay = 30 * time.Second
	}
}

// validate performs validation on the configuration. Missing platform
// credentials fail fast here, before any polling begins.
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Inventory.SafetyStock < 0 {
		return fmt.Errorf("inventory.safety_stock cannot be negative")
	}
	if c.Retry.BaseDelay > c.Retry.MaxDelay {
		return fmt.Errorf("retry.base_delay (%v) cannot exceed retry.max_delay (%v)",
			c.Retry.BaseDelay, c.Retry.MaxDelay)
	}

	if c.App.Env == "production" {
		if c.Channel.AppKey == "" || c.Channel.AppSecret == "" {
			return fmt.Errorf("channel.app_key and channel.app_secret are required in production")
		}
		if c.Channel.AccessToken == "" && c.Channel.RefreshToken == "" {
			return fmt.Errorf("channel access or refresh token is required in production")
		}
		if c.Fulfillment.ClientID == "" || c.Fulfillment.ClientSecret == "" || c.Fulfillment.RefreshToken == "" {
			return fmt.Errorf("fulfillment client credentials and refresh token are required in production")
		}
		if c.Fulfillment.AccessKeyID == "" || c.Fulfillment.SecretAccessKey == "" {
			return fmt.Errorf("fulfillment signing keys are required in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
