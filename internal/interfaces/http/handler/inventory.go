package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/orderbridge/backend/internal/application/inventory"
)

// InventoryService answers availability questions against the provider
type InventoryService interface {
	CheckInventory(ctx context.Context, sku string, requestedQty int64) (*inventory.CheckResult, error)
	CheckInventoryBatch(ctx context.Context, items []inventory.CheckItem) (*inventory.BatchResult, error)
	RefreshInventory(ctx context.Context, skus []string) error
	ClearCache(ctx context.Context) error
}

// CheckInventoryRequest is a batch availability query
type CheckInventoryRequest struct {
	Items []CheckInventoryItem `json:"items" binding:"required,min=1,dive"`
}

// CheckInventoryItem is one SKU and the quantity wanted
type CheckInventoryItem struct {
	SKU      string `json:"sku" binding:"required"`
	Quantity int64  `json:"quantity" binding:"required,min=1"`
}

// RefreshInventoryRequest names the SKUs to refetch from the provider
type RefreshInventoryRequest struct {
	SKUs []string `json:"skus" binding:"required,min=1"`
}

// InventoryHandler exposes inventory checks over HTTP
type InventoryHandler struct {
	BaseHandler
	service InventoryService
	logger  *zap.Logger
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(service InventoryService, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		service: service,
		logger:  logger.Named("inventory-handler"),
	}
}

// RegisterRoutes registers inventory endpoints
func (h *InventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/inventory/:sku", h.CheckOne)
	rg.POST("/inventory/check", h.CheckBatch)
	rg.POST("/inventory/refresh", h.Refresh)
	rg.DELETE("/inventory/cache", h.ClearCache)
}

// CheckOne checks availability for a single fulfillment SKU
func (h *InventoryHandler) CheckOne(c *gin.Context) {
	sku := c.Param("sku")
	if sku == "" {
		h.BadRequest(c, "SKU is required")
		return
	}

	quantity := int64(1)
	if raw := c.Query("quantity"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 1 {
			h.BadRequest(c, "quantity must be a positive integer")
			return
		}
		quantity = parsed
	}

	result, err := h.service.CheckInventory(c.Request.Context(), sku, quantity)
	if err != nil && result == nil {
		h.logger.Error("inventory check failed", zap.String("sku", sku), zap.Error(err))
		h.DomainError(c, err)
		return
	}
	h.Success(c, result)
}

// CheckBatch checks availability for several SKUs in one call
func (h *InventoryHandler) CheckBatch(c *gin.Context) {
	var req CheckInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	items := make([]inventory.CheckItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, inventory.CheckItem{SKU: item.SKU, Quantity: item.Quantity})
	}

	batch, err := h.service.CheckInventoryBatch(c.Request.Context(), items)
	if err != nil {
		h.logger.Error("batch inventory check failed", zap.Error(err))
		h.DomainError(c, err)
		return
	}
	h.Success(c, batch)
}

// Refresh forces a provider refetch for the named SKUs
func (h *InventoryHandler) Refresh(c *gin.Context) {
	var req RefreshInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.service.RefreshInventory(c.Request.Context(), req.SKUs); err != nil {
		h.logger.Error("inventory refresh failed", zap.Error(err))
		h.DomainError(c, err)
		return
	}
	h.NoContent(c)
}

// ClearCache drops every cached inventory entry
func (h *InventoryHandler) ClearCache(c *gin.Context) {
	if err := h.service.ClearCache(c.Request.Context()); err != nil {
		h.logger.Error("cache clear failed", zap.Error(err))
		h.DomainError(c, err)
		return
	}
	h.NoContent(c)
}
