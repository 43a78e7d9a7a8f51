package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/orderbridge/backend/internal/domain/routing"
)

// SkuMappingRequest is one source-to-fulfillment SKU translation
type SkuMappingRequest struct {
	SourceSKU      string `json:"source_sku" binding:"required"`
	FulfillmentSKU string `json:"fulfillment_sku" binding:"required"`
}

// SkuMappingResponse is the wire form of one stored mapping
type SkuMappingResponse struct {
	SourceSKU      string `json:"source_sku"`
	FulfillmentSKU string `json:"fulfillment_sku"`
}

// SkuMappingHandler manages the SKU translation table. Mutations write
// through to storage and reload the in-memory map the router validates
// against, so a new mapping takes effect on the next routing pass.
type SkuMappingHandler struct {
	BaseHandler
	repo   routing.SkuMappingRepository
	skuMap *routing.SkuMap
	logger *zap.Logger
}

// NewSkuMappingHandler creates a new SkuMappingHandler
func NewSkuMappingHandler(repo routing.SkuMappingRepository, skuMap *routing.SkuMap, logger *zap.Logger) *SkuMappingHandler {
	return &SkuMappingHandler{
		repo:   repo,
		skuMap: skuMap,
		logger: logger.Named("sku-mapping-handler"),
	}
}

// RegisterRoutes registers SKU mapping endpoints
func (h *SkuMappingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/sku-mappings", h.List)
	rg.PUT("/sku-mappings", h.Upsert)
	rg.DELETE("/sku-mappings/:sourceSku", h.Delete)
}

// List returns every stored mapping
func (h *SkuMappingHandler) List(c *gin.Context) {
	mappings, err := h.repo.FindAll(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list sku mappings", zap.Error(err))
		h.DomainError(c, err)
		return
	}

	responses := make([]SkuMappingResponse, 0, len(mappings))
	for _, m := range mappings {
		responses = append(responses, SkuMappingResponse{
			SourceSKU:      m.SourceSKU,
			FulfillmentSKU: m.FulfillmentSKU,
		})
	}
	h.Success(c, responses)
}

// Upsert creates or replaces one mapping
func (h *SkuMappingHandler) Upsert(c *gin.Context) {
	var req SkuMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	mapping := routing.SkuMapping{
		SourceSKU:      req.SourceSKU,
		FulfillmentSKU: req.FulfillmentSKU,
	}
	if err := h.repo.Upsert(c.Request.Context(), mapping); err != nil {
		h.logger.Error("failed to upsert sku mapping", zap.String("source_sku", req.SourceSKU), zap.Error(err))
		h.DomainError(c, err)
		return
	}

	if err := h.reload(c); err != nil {
		return
	}
	h.Success(c, SkuMappingResponse(req))
}

// Delete removes the mapping for a source SKU
func (h *SkuMappingHandler) Delete(c *gin.Context) {
	sourceSKU := c.Param("sourceSku")
	if sourceSKU == "" {
		h.BadRequest(c, "source SKU is required")
		return
	}

	if err := h.repo.Delete(c.Request.Context(), sourceSKU); err != nil {
		h.logger.Error("failed to delete sku mapping", zap.String("source_sku", sourceSKU), zap.Error(err))
		h.DomainError(c, err)
		return
	}

	if err := h.reload(c); err != nil {
		return
	}
	h.NoContent(c)
}

// reload replaces the in-memory table with the stored mappings
func (h *SkuMappingHandler) reload(c *gin.Context) error {
	mappings, err := h.repo.FindAll(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to reload sku map", zap.Error(err))
		h.DomainError(c, err)
		return err
	}
	if err := h.skuMap.Load(mappings); err != nil {
		h.logger.Error("failed to load sku map", zap.Error(err))
		h.DomainError(c, err)
		return err
	}
	return nil
}
