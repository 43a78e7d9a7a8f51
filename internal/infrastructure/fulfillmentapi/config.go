package fulfillmentapi

import "errors"

// Config holds configuration for the fulfillment provider API
type Config struct {
	// ClientID identifies the application at the provider's auth server
	ClientID string
	// ClientSecret authenticates the application at the auth server
	ClientSecret string
	// RefreshToken exchanges for short-lived access tokens
	RefreshToken string
	// AccessKeyID is the signing key ID for request signatures
	AccessKeyID string
	// SecretAccessKey is the signing secret for request signatures
	SecretAccessKey string
	// Region is the provider region the requests are signed for
	Region string
	// MarketplaceID scopes fulfillment orders to one marketplace
	MarketplaceID string
	// SellerID is the seller account on the provider
	SellerID string
	// CurrencyCode is attached to money fields on outbound orders
	CurrencyCode string
	// APIBaseURL is the base URL for the provider API
	APIBaseURL string
	// AuthBaseURL is the base URL for the token endpoint
	AuthBaseURL string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// Errors for fulfillment configuration
var (
	ErrConfigMissingClientID     = errors.New("fulfillmentapi: client ID is required")
	ErrConfigMissingClientSecret = errors.New("fulfillmentapi: client secret is required")
	ErrConfigMissingRefreshToken = errors.New("fulfillmentapi: refresh token is required")
	ErrConfigMissingSigningKeys  = errors.New("fulfillmentapi: access key ID and secret access key are required")
	ErrConfigMissingBaseURL      = errors.New("fulfillmentapi: API base URL is required")
	ErrConfigMissingAuthURL      = errors.New("fulfillmentapi: auth base URL is required")
)

// Validate validates the configuration and applies defaults
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return ErrConfigMissingClientID
	}
	if c.ClientSecret == "" {
		return ErrConfigMissingClientSecret
	}
	if c.RefreshToken == "" {
		return ErrConfigMissingRefreshToken
	}
	if c.AccessKeyID == "" || c.SecretAccessKey == "" {
		return ErrConfigMissingSigningKeys
	}
	if c.APIBaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	if c.AuthBaseURL == "" {
		return ErrConfigMissingAuthURL
	}
	if c.Region == "" {
		c.Region = "us-east-1"
	}
	if c.CurrencyCode == "" {
		c.CurrencyCode = "USD"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}
