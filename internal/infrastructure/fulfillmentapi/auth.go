package fulfillmentapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/orderbridge/backend/internal/domain/shared"
)

const (
	// tokenPath is the provider's OAuth2 token endpoint
	tokenPath = "/auth/o2/token"

	// tokenExpiryLeeway refreshes the access token before it actually expires
	tokenExpiryLeeway = 5 * time.Minute
)

// tokenResponse is the auth server's token payload
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// tokenErrorResponse is the auth server's error payload
type tokenErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

// tokenSource exchanges the long-lived refresh token for short-lived access
// tokens and caches them until they near expiry. Safe for concurrent use.
type tokenSource struct {
	cfg        *Config
	httpClient *http.Client

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

func newTokenSource(cfg *Config, httpClient *http.Client) *tokenSource {
	return &tokenSource{cfg: cfg, httpClient: httpClient}
}

// Token returns a valid access token, refreshing it when fewer than five
// minutes of validity remain
func (s *tokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accessToken != "" && time.Until(s.expiresAt) > tokenExpiryLeeway {
		return s.accessToken, nil
	}

	return s.refreshLocked(ctx)
}

// Invalidate drops the cached token after an observed authentication failure
func (s *tokenSource) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
	s.expiresAt = time.Time{}
}

func (s *tokenSource) refreshLocked(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", s.cfg.RefreshToken)
	form.Set("client_id", s.cfg.ClientID)
	form.Set("client_secret", s.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.AuthBaseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("fulfillmentapi: failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: token exchange: %v", shared.ErrNetworkError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("fulfillmentapi: failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var tokenErr tokenErrorResponse
		if json.Unmarshal(body, &tokenErr) == nil && tokenErr.Error != "" {
			return "", fmt.Errorf("%w: token exchange rejected: %s (%s)",
				shared.ErrAuthenticationFailed, tokenErr.Error, tokenErr.Description)
		}
		return "", fmt.Errorf("%w: token exchange returned HTTP %d", shared.ErrAuthenticationFailed, resp.StatusCode)
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil || token.AccessToken == "" {
		return "", fmt.Errorf("%w: token exchange payload invalid", shared.ErrAuthenticationFailed)
	}

	s.accessToken = token.AccessToken
	s.expiresAt = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	return s.accessToken, nil
}
