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

	"github.com/orderbridge/backend/internal/domain/routing"
)

type fakeSkuMappingRepo struct {
	mappings map[string]string
}

func newFakeSkuMappingRepo() *fakeSkuMappingRepo {
	return &fakeSkuMappingRepo{mappings: make(map[string]string)}
}

func (f *fakeSkuMappingRepo) Upsert(ctx context.Context, mapping routing.SkuMapping) error {
	f.mappings[mapping.SourceSKU] = mapping.FulfillmentSKU
	return nil
}

func (f *fakeSkuMappingRepo) FindAll(ctx context.Context) ([]routing.SkuMapping, error) {
	out := make([]routing.SkuMapping, 0, len(f.mappings))
	for src, ful := range f.mappings {
		out = append(out, routing.SkuMapping{SourceSKU: src, FulfillmentSKU: ful})
	}
	return out, nil
}

func (f *fakeSkuMappingRepo) Delete(ctx context.Context, sourceSKU string) error {
	delete(f.mappings, sourceSKU)
	return nil
}

func newSkuMappingTestRouter(h *SkuMappingHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	h.RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func TestUpsertSkuMapping_ReloadsMap(t *testing.T) {
	repo := newFakeSkuMappingRepo()
	skuMap := routing.NewSkuMap()
	h := NewSkuMappingHandler(repo, skuMap, zap.NewNop())
	engine := newSkuMappingTestRouter(h)

	w := httptest.NewRecorder()
	body := `{"source_sku":"WIDGET-1","fulfillment_sku":"FUL-WIDGET-1"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/sku-mappings", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	mapped, ok := skuMap.ToFulfillment("WIDGET-1")
	require.True(t, ok)
	assert.Equal(t, "FUL-WIDGET-1", mapped)
}

func TestUpsertSkuMapping_RejectsMissingFields(t *testing.T) {
	h := NewSkuMappingHandler(newFakeSkuMappingRepo(), routing.NewSkuMap(), zap.NewNop())
	engine := newSkuMappingTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/sku-mappings", strings.NewReader(`{"source_sku":"WIDGET-1"}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteSkuMapping_RemovesFromMap(t *testing.T) {
	repo := newFakeSkuMappingRepo()
	repo.mappings["WIDGET-1"] = "FUL-WIDGET-1"
	skuMap := routing.NewSkuMap()
	require.NoError(t, skuMap.Add("WIDGET-1", "FUL-WIDGET-1"))

	h := NewSkuMappingHandler(repo, skuMap, zap.NewNop())
	engine := newSkuMappingTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/sku-mappings/WIDGET-1", nil)
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)

	_, ok := skuMap.ToFulfillment("WIDGET-1")
	assert.False(t, ok)
}

func TestListSkuMappings(t *testing.T) {
	repo := newFakeSkuMappingRepo()
	repo.mappings["WIDGET-1"] = "FUL-WIDGET-1"

	h := NewSkuMappingHandler(repo, routing.NewSkuMap(), zap.NewNop())
	engine := newSkuMappingTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sku-mappings", nil)
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []SkuMappingResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "FUL-WIDGET-1", resp.Data[0].FulfillmentSKU)
}
