package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orderbridge/backend/internal/domain/routing"
	"github.com/orderbridge/backend/internal/domain/shared"
	"github.com/orderbridge/backend/internal/interfaces/http/middleware"
)

type fakeOrderRouter struct {
	result *routing.Result
	batch  *routing.BatchResult
	err    error
}

func (f *fakeOrderRouter) RouteOrder(ctx context.Context, sourceOrderID string) (*routing.Result, error) {
	return f.result, f.err
}

func (f *fakeOrderRouter) RoutePendingOrders(ctx context.Context) (*routing.BatchResult, error) {
	return f.batch, f.err
}

type fakeResultRepo struct {
	attempts []routing.Result
	err      error
}

func (f *fakeResultRepo) Append(ctx context.Context, result *routing.Result) error { return nil }

func (f *fakeResultRepo) FindByOrder(ctx context.Context, orderID string) ([]routing.Result, error) {
	return f.attempts, f.err
}

func (f *fakeResultRepo) ListRouted(ctx context.Context) ([]routing.Result, error) {
	return nil, nil
}

func newRoutingTestRouter(h *RoutingHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(middleware.RequestID())
	h.RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func TestRouteOrder_ReturnsResult(t *testing.T) {
	result := routing.NewResult("ORD-1")
	result.MarkRouted("MCF-ORD-1")
	h := NewRoutingHandler(&fakeOrderRouter{result: result}, &fakeResultRepo{}, zap.NewNop())
	engine := newRoutingTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/ORD-1/route", nil)
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool                  `json:"success"`
		Data    RoutingResultResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "ROUTED", resp.Data.State)
	assert.Equal(t, "MCF-ORD-1", resp.Data.FulfillmentOrderID)
}

func TestRunBatch_ReportsCounts(t *testing.T) {
	ok := routing.NewResult("ORD-1")
	ok.MarkRouted("MCF-ORD-1")
	failed := routing.NewResult("ORD-2")
	failed.MarkFailed(routing.StateRejected, routing.StageValidate, shared.ErrCodeSkuNotMapped, "SKU A is not mapped")

	batch := &routing.BatchResult{
		TotalOrders:  2,
		SuccessCount: 1,
		FailedCount:  1,
		Results:      []routing.Result{*ok, *failed},
	}
	h := NewRoutingHandler(&fakeOrderRouter{batch: batch}, &fakeResultRepo{}, zap.NewNop())
	engine := newRoutingTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/routing/run", nil)
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data BatchResultResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Data.TotalOrders)
	assert.Equal(t, 1, resp.Data.SuccessCount)
	assert.Equal(t, 1, resp.Data.FailedCount)
	require.Len(t, resp.Data.Results, 2)
	require.NotNil(t, resp.Data.Results[1].Error)
	assert.Equal(t, "validate", resp.Data.Results[1].Error.Stage)
	assert.Equal(t, shared.ErrCodeSkuNotMapped, resp.Data.Results[1].Error.Code)
}

func TestRunBatch_PlatformFailureMapsToBadGateway(t *testing.T) {
	h := NewRoutingHandler(&fakeOrderRouter{err: shared.ErrNetworkError}, &fakeResultRepo{}, zap.NewNop())
	engine := newRoutingTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/routing/run", nil)
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadGateway, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Error   struct {
			Code      string `json:"code"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, shared.ErrCodeNetworkError, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.RequestID)
	assert.Equal(t, resp.Error.RequestID, w.Header().Get("X-Request-ID"))
}

func TestListResults_NewestFirst(t *testing.T) {
	first := routing.NewResult("ORD-1")
	first.MarkRouted("MCF-ORD-1")
	second := routing.NewResult("ORD-1")
	second.MarkFailed(routing.StateFailed, routing.StageSubmit, shared.ErrCodeProviderAPIError, "provider returned 500")

	repo := &fakeResultRepo{attempts: []routing.Result{*second, *first}}
	h := NewRoutingHandler(&fakeOrderRouter{}, repo, zap.NewNop())
	engine := newRoutingTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/ORD-1/results", nil)
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []RoutingResultResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "FAILED", resp.Data[0].State)
	assert.Equal(t, "ROUTED", resp.Data[1].State)
}
