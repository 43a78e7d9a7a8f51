package channelapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/orderbridge/backend/internal/domain/channel"
	"github.com/orderbridge/backend/internal/domain/shared"
	"github.com/orderbridge/backend/internal/infrastructure/retry"
)

const (
	// maxResponseSize limits the response body size to prevent memory exhaustion
	maxResponseSize = 10 * 1024 * 1024 // 10MB max response

	// tokenExpiryLeeway refreshes the access token proactively before expiry
	tokenExpiryLeeway = 5 * time.Minute

	// tokenRefreshPath is the platform's token endpoint
	tokenRefreshPath = "/auth/token/refresh"
)

// Client is the signed, retrying HTTP client for the source commerce
// platform. It implements channel.SourcePlatform. Token state is owned by
// the client instance and refreshed on 401 or expiry proximity.
type Client struct {
	cfg        *Config
	httpClient *http.Client
	retryCfg   retry.Config
	logger     *zap.Logger

	mu             sync.Mutex
	accessToken    string
	tokenExpiresAt time.Time
}

// NewClient creates a new channel API client with the given configuration
func NewClient(cfg *Config, retryCfg retry.Config, logger *zap.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		retryCfg:    retryCfg,
		logger:      logger.Named("channelapi"),
		accessToken: cfg.AccessToken,
	}, nil
}

// ---------------------------------------------------------------------------
// Token Lifecycle
// ---------------------------------------------------------------------------

// ensureValidToken returns a usable access token, refreshing it when absent
// or within the expiry leeway. A token with unknown expiry is trusted until
// the platform rejects it with a 401.
func (c *Client) ensureValidToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" {
		if c.tokenExpiresAt.IsZero() || time.Until(c.tokenExpiresAt) > tokenExpiryLeeway {
			return c.accessToken, nil
		}
	}

	return c.refreshAccessTokenLocked(ctx)
}

// invalidateToken drops the cached token after an observed 401
func (c *Client) invalidateToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = ""
	c.tokenExpiresAt = time.Time{}
}

// refreshAccessTokenLocked exchanges the refresh token for a new access
// token. Callers must hold c.mu.
func (c *Client) refreshAccessTokenLocked(ctx context.Context) (string, error) {
	if c.cfg.RefreshToken == "" {
		return "", fmt.Errorf("%w: access token expired and no refresh token configured", shared.ErrAuthenticationFailed)
	}

	reqBody, err := json.Marshal(tokenRefreshRequest{
		AppKey:       c.cfg.AppKey,
		AppSecret:    c.cfg.AppSecret,
		RefreshToken: c.cfg.RefreshToken,
		GrantType:    "refresh_token",
	})
	if err != nil {
		return "", fmt.Errorf("channelapi: failed to marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIBaseURL+tokenRefreshPath, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("channelapi: failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: token refresh: %v", shared.ErrNetworkError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("channelapi: failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token refresh returned HTTP %d", shared.ErrAuthenticationFailed, resp.StatusCode)
	}

	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("channelapi: failed to parse token response: %w", err)
	}
	if !envelope.IsSuccess() {
		return "", fmt.Errorf("%w: token refresh rejected: %s", shared.ErrAuthenticationFailed, envelope.Message)
	}

	var data tokenRefreshData
	if err := json.Unmarshal(envelope.Data, &data); err != nil || data.AccessToken == "" {
		return "", fmt.Errorf("%w: token refresh payload invalid", channel.ErrInvalidResponse)
	}

	c.accessToken = data.AccessToken
	c.tokenExpiresAt = time.Now().Add(time.Duration(data.ExpiresIn) * time.Second)
	c.logger.Debug("refreshed channel access token",
		zap.Time("expires_at", c.tokenExpiresAt),
	)
	return c.accessToken, nil
}

// ---------------------------------------------------------------------------
// Request Plumbing
// ---------------------------------------------------------------------------

// send performs one signed HTTP exchange and returns the raw body and status
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, int, error) {
	token, err := c.ensureValidToken(ctx)
	if err != nil {
		return nil, 0, err
	}

	endpoint := c.cfg.APIBaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("channelapi: failed to create request: %w", err)
	}

	// Timestamp is signed material, so the signature is per-request
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-App-Key", c.cfg.AppKey)
	req.Header.Set("X-Timestamp", timestamp)
	req.Header.Set("X-Signature", c.cfg.Sign(timestamp, path, query, body))
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", shared.ErrNetworkError, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("channelapi: failed to read response: %w", err)
	}

	return respBody, resp.StatusCode, nil
}

// doRequest performs a signed request with retry. An observed 401 triggers
// one explicit token refresh and replay; it is never handled by the backoff
// loop.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("channelapi: failed to marshal request: %w", err)
		}
	}

	return retry.Do(ctx, c.retryCfg, func(ctx context.Context) ([]byte, error) {
		respBody, status, err := c.send(ctx, method, path, query, body)
		if err != nil {
			return nil, err
		}

		if status == http.StatusUnauthorized {
			c.invalidateToken()
			if _, refreshErr := c.ensureValidToken(ctx); refreshErr != nil {
				return nil, refreshErr
			}
			respBody, status, err = c.send(ctx, method, path, query, body)
			if err != nil {
				return nil, err
			}
		}

		if err := classifyStatus(status); err != nil {
			return nil, err
		}
		return respBody, nil
	}, shared.IsRetryable)
}

// classifyStatus maps an HTTP status to the error taxonomy. Authentication
// failures are never retried; rate limits and server errors are.
func classifyStatus(status int) error {
	switch {
	case status < 400:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d", shared.ErrAuthenticationFailed, status)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: HTTP %d", shared.ErrRateLimitExceeded, status)
	case status >= 500:
		return fmt.Errorf("%w: HTTP %d",
			shared.NewRetryableError(shared.ErrCodeProviderAPIError, "platform server error"), status)
	default:
		return fmt.Errorf("%w: HTTP %d",
			shared.NewDomainError(shared.ErrCodeProviderAPIError, "platform rejected request"), status)
	}
}

// parseEnvelope unmarshals the platform envelope and checks the result code
func parseEnvelope(body []byte) (*apiResponse, error) {
	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", channel.ErrInvalidResponse, err)
	}
	if !envelope.IsSuccess() {
		return nil, fmt.Errorf("channelapi: %d - %s", envelope.Code, envelope.Message)
	}
	return &envelope, nil
}

// ---------------------------------------------------------------------------
// SourcePlatform Operations
// ---------------------------------------------------------------------------

// ListPendingOrders returns one page of orders matching the filter
func (c *Client) ListPendingOrders(ctx context.Context, filter channel.OrderFilter) (*channel.OrderPage, error) {
	query := url.Values{}
	if filter.Status != nil {
		query.Set("status", mapToChannelStatus(*filter.Status))
	}
	if filter.Cursor != "" {
		query.Set("cursor", filter.Cursor)
	}
	if filter.PageSize > 0 {
		query.Set("page_size", formatPageSize(filter.PageSize))
	}

	body, err := c.doRequest(ctx, http.MethodGet, "/orders", query, nil)
	if err != nil {
		return nil, err
	}

	envelope, err := parseEnvelope(body)
	if err != nil {
		return nil, err
	}

	var data orderListData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", channel.ErrInvalidResponse, err)
	}

	page := &channel.OrderPage{
		Orders:     make([]channel.SourceOrder, 0, len(data.Orders)),
		NextCursor: data.NextCursor,
		HasMore:    data.HasMore,
	}
	for i := range data.Orders {
		page.Orders = append(page.Orders, convertWireOrder(&data.Orders[i]))
	}
	return page, nil
}

// GetOrderDetail returns the full order, including items and packages
func (c *Client) GetOrderDetail(ctx context.Context, orderID string) (*channel.SourceOrder, error) {
	if orderID == "" {
		return nil, channel.ErrOrderNotFound
	}

	body, err := c.doRequest(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), nil, nil)
	if err != nil {
		return nil, err
	}

	envelope, err := parseEnvelope(body)
	if err != nil {
		return nil, err
	}

	var data orderDetailData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", channel.ErrInvalidResponse, err)
	}
	if data.Order == nil {
		return nil, channel.ErrOrderNotFound
	}

	order := convertWireOrder(data.Order)
	return &order, nil
}

// UpdateTracking pushes carrier and tracking number for one package
func (c *Client) UpdateTracking(ctx context.Context, packageID string, info channel.TrackingInfo) error {
	if packageID == "" {
		return channel.ErrPackageNotFound
	}

	payload := trackingUpdateRequest{
		TrackingNumber: info.TrackingNumber,
		CarrierID:      info.CarrierID,
		CarrierName:    info.CarrierName,
	}

	body, err := c.doRequest(ctx, http.MethodPost, "/packages/"+url.PathEscape(packageID)+"/tracking", nil, payload)
	if err != nil {
		return err
	}

	if _, err := parseEnvelope(body); err != nil {
		return err
	}
	return nil
}

// Ensure Client implements channel.SourcePlatform
var _ channel.SourcePlatform = (*Client)(nil)
