package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orderbridge/backend/internal/application/inventory"
)

type fakeInventoryService struct {
	single    *inventory.CheckResult
	batch     *inventory.BatchResult
	err       error
	refreshed []string
	cleared   bool
}

func (f *fakeInventoryService) CheckInventory(ctx context.Context, sku string, requestedQty int64) (*inventory.CheckResult, error) {
	return f.single, f.err
}

func (f *fakeInventoryService) CheckInventoryBatch(ctx context.Context, items []inventory.CheckItem) (*inventory.BatchResult, error) {
	return f.batch, f.err
}

func (f *fakeInventoryService) RefreshInventory(ctx context.Context, skus []string) error {
	f.refreshed = skus
	return f.err
}

func (f *fakeInventoryService) ClearCache(ctx context.Context) error {
	f.cleared = true
	return f.err
}

func newInventoryTestRouter(svc InventoryService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	NewInventoryHandler(svc, zap.NewNop()).RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func TestCheckOne_ParsesQuantity(t *testing.T) {
	svc := &fakeInventoryService{
		single: &inventory.CheckResult{SKU: "FUL-A", Requested: 3, Available: 10, Sufficient: true},
	}
	engine := newInventoryTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/FUL-A?quantity=3", nil)
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data inventory.CheckResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "FUL-A", resp.Data.SKU)
	assert.True(t, resp.Data.Sufficient)
}

func TestCheckOne_RejectsBadQuantity(t *testing.T) {
	engine := newInventoryTestRouter(&fakeInventoryService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/FUL-A?quantity=zero", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckBatch_RejectsEmptyItems(t *testing.T) {
	engine := newInventoryTestRouter(&fakeInventoryService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/check", strings.NewReader(`{"items":[]}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckBatch_ReturnsCounts(t *testing.T) {
	svc := &fakeInventoryService{
		batch: &inventory.BatchResult{
			Total:             2,
			SufficientCount:   1,
			InsufficientCount: 1,
		},
	}
	engine := newInventoryTestRouter(svc)

	w := httptest.NewRecorder()
	body := `{"items":[{"sku":"FUL-A","quantity":1},{"sku":"FUL-B","quantity":99}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/check", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data inventory.BatchResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.InsufficientCount)
}

func TestRefresh_PassesSKUs(t *testing.T) {
	svc := &fakeInventoryService{}
	engine := newInventoryTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/refresh", strings.NewReader(`{"skus":["FUL-A","FUL-B"]}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"FUL-A", "FUL-B"}, svc.refreshed)
}

func TestClearCache(t *testing.T) {
	svc := &fakeInventoryService{}
	engine := newInventoryTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/inventory/cache", nil)
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, svc.cleared)
}
