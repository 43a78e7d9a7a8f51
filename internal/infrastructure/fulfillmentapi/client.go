package fulfillmentapi

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"go.uber.org/zap"

	"github.com/orderbridge/backend/internal/domain/fulfillment"
	"github.com/orderbridge/backend/internal/domain/shared"
	"github.com/orderbridge/backend/internal/infrastructure/retry"
)

const (
	// maxResponseSize limits the response body size to prevent memory exhaustion
	maxResponseSize = 10 * 1024 * 1024 // 10MB max response

	// signingService is the service name the SigV4 signature is scoped to
	signingService = "execute-api"
)

// Client is the signed, retrying HTTP client for the fulfillment provider.
// It implements fulfillment.Provider. Every request carries a short-lived
// access token and a SigV4 signature over the canonical request.
type Client struct {
	cfg        *Config
	httpClient *http.Client
	retryCfg   retry.Config
	logger     *zap.Logger
	signer     *v4.Signer
	creds      aws.CredentialsProvider
	tokens     *tokenSource
}

// NewClient creates a new fulfillment provider client with the given
// configuration
func NewClient(cfg *Config, retryCfg retry.Config, logger *zap.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := &http.Client{
		Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}

	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		retryCfg:   retryCfg,
		logger:     logger.Named("fulfillmentapi"),
		signer:     v4.NewSigner(),
		creds:      credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		tokens:     newTokenSource(cfg, httpClient),
	}, nil
}

// ---------------------------------------------------------------------------
// Request Plumbing
// ---------------------------------------------------------------------------

// send performs one token-bearing, signed HTTP exchange
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, int, error) {
	token, err := c.tokens.Token(ctx)
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
		return nil, 0, fmt.Errorf("fulfillmentapi: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Amz-Access-Token", token)

	// The signature covers the payload hash, so it is computed per request
	payloadHash := sha256.Sum256(body)
	creds, err := c.creds.Retrieve(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("fulfillmentapi: failed to resolve signing credentials: %w", err)
	}
	if err := c.signer.SignHTTP(ctx, creds, req, hex.EncodeToString(payloadHash[:]),
		signingService, c.cfg.Region, time.Now().UTC()); err != nil {
		return nil, 0, fmt.Errorf("fulfillmentapi: failed to sign request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", shared.ErrNetworkError, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("fulfillmentapi: failed to read response: %w", err)
	}

	return respBody, resp.StatusCode, nil
}

// doRequest performs a signed request with retry. An observed 401 drops the
// cached access token so the replay fetches a fresh one.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("fulfillmentapi: failed to marshal request: %w", err)
		}
	}

	return retry.Do(ctx, c.retryCfg, func(ctx context.Context) ([]byte, error) {
		respBody, status, err := c.send(ctx, method, path, query, body)
		if err != nil {
			return nil, err
		}

		if status == http.StatusUnauthorized {
			c.tokens.Invalidate()
			respBody, status, err = c.send(ctx, method, path, query, body)
			if err != nil {
				return nil, err
			}
		}

		if err := classifyProviderStatus(status, respBody); err != nil {
			return nil, err
		}
		return respBody, nil
	}, shared.IsRetryable)
}

// classifyProviderStatus maps an HTTP status to the error taxonomy
func classifyProviderStatus(status int, body []byte) error {
	switch {
	case status < 400:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d: %s", shared.ErrAuthenticationFailed, status, providerErrorSummary(body))
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: HTTP %d", shared.ErrRateLimitExceeded, status)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: HTTP %d", fulfillment.ErrOrderNotFound, status)
	case status == http.StatusConflict:
		return fmt.Errorf("%w: HTTP %d", fulfillment.ErrOrderAlreadyExists, status)
	case status >= 500:
		return fmt.Errorf("%w: HTTP %d: %s",
			shared.NewRetryableError(shared.ErrCodeProviderAPIError, "provider server error"), status, providerErrorSummary(body))
	default:
		if isDuplicateOrderError(body) {
			return fmt.Errorf("%w: HTTP %d", fulfillment.ErrOrderAlreadyExists, status)
		}
		return fmt.Errorf("%w: HTTP %d: %s",
			shared.NewDomainError(shared.ErrCodeProviderAPIError, "provider rejected request"), status, providerErrorSummary(body))
	}
}

// providerErrorSummary extracts a readable message from the error envelope
func providerErrorSummary(body []byte) string {
	var envelope errorResponse
	if json.Unmarshal(body, &envelope) != nil || len(envelope.Errors) == 0 {
		return "no error detail"
	}
	parts := make([]string, 0, len(envelope.Errors))
	for _, e := range envelope.Errors {
		parts = append(parts, e.Code+": "+e.Message)
	}
	return strings.Join(parts, "; ")
}

// isDuplicateOrderError reports whether the error envelope describes an
// idempotency-key collision
func isDuplicateOrderError(body []byte) bool {
	var envelope errorResponse
	if json.Unmarshal(body, &envelope) != nil {
		return false
	}
	for _, e := range envelope.Errors {
		if e.Code == "DuplicateRequest" || e.Code == "FulfillmentOrderAlreadyExists" {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Provider Operations
// ---------------------------------------------------------------------------

// CreateFulfillmentOrder submits an order for fulfillment. The provider
// treats the SellerFulfillmentOrderID as an idempotency key, so resubmitting
// the same order surfaces fulfillment.ErrOrderAlreadyExists.
func (c *Client) CreateFulfillmentOrder(ctx context.Context, req *fulfillment.OrderRequest) error {
	items := make([]wireOrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, wireOrderItem{
			SellerSKU:                    item.SellerSKU,
			SellerFulfillmentOrderItemID: item.SellerFulfillmentOrderItemID,
			Quantity:                     item.Quantity,
			PerUnitPrice:                 moneyToWire(item.PerUnitPrice, c.cfg.CurrencyCode),
			PerUnitTax:                   moneyToWire(item.PerUnitTax, c.cfg.CurrencyCode),
			PerUnitDeclaredValue:         moneyToWire(item.PerUnitDeclaredValue, c.cfg.CurrencyCode),
		})
	}

	payload := createOrderRequest{
		SellerFulfillmentOrderID: req.SellerFulfillmentOrderID,
		MarketplaceID:            c.cfg.MarketplaceID,
		DisplayableOrderID:       req.DisplayableOrderID,
		DisplayableOrderDate:     req.DisplayableOrderDate.UTC().Format(time.RFC3339),
		DisplayableOrderComment:  req.DisplayableOrderComment,
		ShippingSpeedCategory:    string(req.ShippingSpeedCategory),
		DestinationAddress: wireDestinationAddress{
			Name:          req.DestinationAddress.Name,
			AddressLine1:  req.DestinationAddress.AddressLine1,
			AddressLine2:  req.DestinationAddress.AddressLine2,
			City:          req.DestinationAddress.City,
			StateOrRegion: req.DestinationAddress.StateOrRegion,
			PostalCode:    req.DestinationAddress.PostalCode,
			CountryCode:   req.DestinationAddress.CountryCode,
			Phone:         req.DestinationAddress.Phone,
		},
		Items:              items,
		NotificationEmails: req.NotificationEmails,
	}

	_, err := c.doRequest(ctx, http.MethodPost, "/fba/outbound/fulfillmentOrders", nil, payload)
	return err
}

// GetFulfillmentOrder returns the order with its items and shipments
func (c *Client) GetFulfillmentOrder(ctx context.Context, sellerFulfillmentOrderID string) (*fulfillment.OrderDetail, error) {
	if sellerFulfillmentOrderID == "" {
		return nil, fulfillment.ErrOrderNotFound
	}

	body, err := c.doRequest(ctx, http.MethodGet,
		"/fba/outbound/fulfillmentOrders/"+url.PathEscape(sellerFulfillmentOrderID), nil, nil)
	if err != nil {
		return nil, err
	}

	var resp getOrderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", fulfillment.ErrInvalidResponse, err)
	}
	if resp.Payload == nil || resp.Payload.FulfillmentOrder == nil {
		return nil, fulfillment.ErrOrderNotFound
	}

	return convertOrderPayload(resp.Payload), nil
}

// GetPackageTracking returns tracking detail for one package
func (c *Client) GetPackageTracking(ctx context.Context, packageNumber int) (*fulfillment.PackageTracking, error) {
	query := url.Values{}
	query.Set("packageNumber", strconv.Itoa(packageNumber))

	body, err := c.doRequest(ctx, http.MethodGet, "/fba/outbound/tracking", query, nil)
	if err != nil {
		return nil, err
	}

	var resp packageTrackingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", fulfillment.ErrInvalidResponse, err)
	}
	if resp.Payload == nil {
		return nil, fmt.Errorf("%w: empty tracking payload", fulfillment.ErrInvalidResponse)
	}

	return convertTrackingPayload(resp.Payload), nil
}

// GetInventorySummaries returns stock summaries for the given SKUs. SKUs
// unknown to the provider are absent from the result.
func (c *Client) GetInventorySummaries(ctx context.Context, skus []string) ([]fulfillment.InventorySummary, error) {
	query := url.Values{}
	query.Set("marketplaceIds", c.cfg.MarketplaceID)
	query.Set("sellerSkus", strings.Join(skus, ","))

	body, err := c.doRequest(ctx, http.MethodGet, "/fba/inventory/summaries", query, nil)
	if err != nil {
		return nil, err
	}

	var resp inventoryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", fulfillment.ErrInvalidResponse, err)
	}
	if resp.Payload == nil {
		return nil, fmt.Errorf("%w: empty inventory payload", fulfillment.ErrInvalidResponse)
	}

	return convertInventorySummaries(resp.Payload), nil
}

// Ensure Client implements fulfillment.Provider
var _ fulfillment.Provider = (*Client)(nil)
