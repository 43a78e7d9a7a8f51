package channelapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"sort"
	"strings"
)

// Config holds configuration for the source commerce platform API
type Config struct {
	// AppKey is the application key from the platform's open platform
	AppKey string
	// AppSecret is the application secret used for request signing
	AppSecret string
	// AccessToken is the current access token; may start empty when a
	// refresh token is configured
	AccessToken string
	// RefreshToken exchanges for new access tokens at the token endpoint
	RefreshToken string
	// ShopID is the shop identifier on the platform
	ShopID string
	// APIBaseURL is the base URL for the platform API
	APIBaseURL string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// Errors for channel configuration
var (
	ErrConfigMissingAppKey    = errors.New("channelapi: app key is required")
	ErrConfigMissingAppSecret = errors.New("channelapi: app secret is required")
	ErrConfigMissingToken     = errors.New("channelapi: access or refresh token is required")
	ErrConfigMissingBaseURL   = errors.New("channelapi: API base URL is required")
)

// Validate validates the configuration and applies defaults
func (c *Config) Validate() error {
	if c.AppKey == "" {
		return ErrConfigMissingAppKey
	}
	if c.AppSecret == "" {
		return ErrConfigMissingAppSecret
	}
	if c.AccessToken == "" && c.RefreshToken == "" {
		return ErrConfigMissingToken
	}
	if c.APIBaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}

// Sign computes the request signature the platform verifies on every call.
// The canonical string is app_key, timestamp, request path, the sorted query
// string and the raw body joined by newlines; the signature is its
// HMAC-SHA256 under the app secret, hex encoded. Timestamp is part of the
// signed material, so the signature must be recomputed per request.
func (c *Config) Sign(timestamp, path string, query url.Values, body []byte) string {
	var builder strings.Builder
	builder.WriteString(c.AppKey)
	builder.WriteByte('\n')
	builder.WriteString(timestamp)
	builder.WriteByte('\n')
	builder.WriteString(path)
	builder.WriteByte('\n')
	builder.WriteString(canonicalQuery(query))
	builder.WriteByte('\n')
	builder.Write(body)

	h := hmac.New(sha256.New, []byte(c.AppSecret))
	h.Write([]byte(builder.String()))
	return hex.EncodeToString(h.Sum(nil))
}

// canonicalQuery renders query parameters sorted by key, then by value
func canonicalQuery(query url.Values) string {
	if len(query) == 0 {
		return ""
	}

	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		values := append([]string(nil), query[k]...)
		sort.Strings(values)
		for _, v := range values {
			parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(v))
		}
	}
	return strings.Join(parts, "&")
}
