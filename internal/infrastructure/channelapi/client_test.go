package channelapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderbridge/backend/internal/domain/channel"
	"github.com/orderbridge/backend/internal/domain/shared"
	"github.com/orderbridge/backend/internal/infrastructure/retry"
)

func testRetryConfig() retry.Config {
	return retry.Config{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	}
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(&Config{
		AppKey:      "test-app-key",
		AppSecret:   "test-app-secret",
		AccessToken: "test-access-token",
		ShopID:      "shop-1",
		APIBaseURL:  baseURL,
	}, testRetryConfig(), nil)
	require.NoError(t, err)
	return client
}

func writeEnvelope(w http.ResponseWriter, data any) {
	raw, _ := json.Marshal(data)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code":    0,
		"message": "success",
		"data":    json.RawMessage(raw),
	})
}

func TestClient_ListPendingOrders(t *testing.T) {
	status := channel.OrderStatusAwaitingShipment

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders", r.URL.Path)
		assert.Equal(t, "awaiting_shipment", r.URL.Query().Get("status"))
		assert.Equal(t, "10", r.URL.Query().Get("page_size"))

		writeEnvelope(w, orderListData{
			Orders: []wireOrder{
				{
					OrderID:        "ORD-1001",
					Status:         "awaiting_shipment",
					DeliveryOption: "standard",
					Recipient:      wireAddress{Name: "Jane Doe", Country: "US"},
					Items: []wireLineItem{
						{SKU: "SRC-A", Quantity: 2, UnitPrice: "19.99", ProductName: "Widget"},
					},
					Packages:   []wirePackage{{PackageID: "PKG-1", OrderID: "ORD-1001"}},
					CreateTime: 1700000000,
				},
			},
			NextCursor: "cursor-2",
			HasMore:    true,
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	page, err := client.ListPendingOrders(context.Background(), channel.OrderFilter{
		Status:   &status,
		PageSize: 10,
	})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, "cursor-2", page.NextCursor)
	assert.True(t, page.HasMore)

	order := page.Orders[0]
	assert.Equal(t, "ORD-1001", order.OrderID)
	assert.Equal(t, channel.OrderStatusAwaitingShipment, order.Status)
	require.Len(t, order.Items, 1)
	require.NotNil(t, order.Items[0].UnitPrice)
	assert.Equal(t, "19.99", order.Items[0].UnitPrice.String())
	assert.Nil(t, order.Items[0].UnitTax)
	require.Len(t, order.Packages, 1)
	assert.Equal(t, "PKG-1", order.Packages[0].PackageID)
}

func TestClient_RequestsAreSigned(t *testing.T) {
	cfg := &Config{
		AppKey:      "test-app-key",
		AppSecret:   "test-app-secret",
		AccessToken: "test-access-token",
		APIBaseURL:  "placeholder",
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-app-key", r.Header.Get("X-App-Key"))
		assert.Equal(t, "Bearer test-access-token", r.Header.Get("Authorization"))

		timestamp := r.Header.Get("X-Timestamp")
		require.NotEmpty(t, timestamp)
		expected := cfg.Sign(timestamp, r.URL.Path, r.URL.Query(), nil)
		assert.Equal(t, expected, r.Header.Get("X-Signature"))

		writeEnvelope(w, orderListData{})
	}))
	defer server.Close()
	cfg.APIBaseURL = server.URL

	client, err := NewClient(cfg, testRetryConfig(), nil)
	require.NoError(t, err)

	_, err = client.ListPendingOrders(context.Background(), channel.OrderFilter{PageSize: 5})
	require.NoError(t, err)
}

func TestClient_GetOrderDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/ORD-1001", r.URL.Path)
		writeEnvelope(w, orderDetailData{
			Order: &wireOrder{
				OrderID: "ORD-1001",
				Status:  "awaiting_shipment",
			},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	order, err := client.GetOrderDetail(context.Background(), "ORD-1001")
	require.NoError(t, err)
	assert.Equal(t, "ORD-1001", order.OrderID)
}

func TestClient_GetOrderDetail_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, orderDetailData{Order: nil})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.GetOrderDetail(context.Background(), "MISSING")
	assert.ErrorIs(t, err, channel.ErrOrderNotFound)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeEnvelope(w, orderListData{})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.ListPendingOrders(context.Background(), channel.OrderFilter{})
	require.NoError(t, err)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestClient_DoesNotRetryForbidden(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.ListPendingOrders(context.Background(), channel.OrderFilter{})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrAuthenticationFailed)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestClient_RefreshesTokenOnUnauthorized(t *testing.T) {
	var refreshes atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc(tokenRefreshPath, func(w http.ResponseWriter, r *http.Request) {
		var req tokenRefreshRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "refresh_token", req.GrantType)
		assert.Equal(t, "test-refresh-token", req.RefreshToken)

		refreshes.Add(1)
		writeEnvelope(w, tokenRefreshData{AccessToken: "fresh-token", ExpiresIn: 3600})
	})
	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeEnvelope(w, orderListData{})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := NewClient(&Config{
		AppKey:       "test-app-key",
		AppSecret:    "test-app-secret",
		AccessToken:  "stale-token",
		RefreshToken: "test-refresh-token",
		APIBaseURL:   server.URL,
	}, testRetryConfig(), nil)
	require.NoError(t, err)

	_, err = client.ListPendingOrders(context.Background(), channel.OrderFilter{})
	require.NoError(t, err)
	assert.Equal(t, int32(1), refreshes.Load())
}

func TestClient_UnauthorizedWithoutRefreshTokenFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.ListPendingOrders(context.Background(), channel.OrderFilter{})
	assert.ErrorIs(t, err, shared.ErrAuthenticationFailed)
}

func TestClient_UpdateTracking(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/packages/PKG-1/tracking", r.URL.Path)

		var req trackingUpdateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "1Z999AA10123456784", req.TrackingNumber)
		assert.Equal(t, "ups", req.CarrierID)

		writeEnvelope(w, struct{}{})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	err := client.UpdateTracking(context.Background(), "PKG-1", channel.TrackingInfo{
		TrackingNumber: "1Z999AA10123456784",
		CarrierID:      "ups",
		CarrierName:    "UPS",
	})
	require.NoError(t, err)
}

func TestClient_PlatformErrorCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code":    40001,
			"message": "shop not authorized",
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.ListPendingOrders(context.Background(), channel.OrderFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shop not authorized")
}

func TestCanonicalQuery_SortsKeysAndValues(t *testing.T) {
	q := map[string][]string{
		"b": {"2"},
		"a": {"z", "a"},
	}
	assert.Equal(t, "a=a&a=z&b=2", canonicalQuery(q))
}
