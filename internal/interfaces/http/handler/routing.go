package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/orderbridge/backend/internal/domain/routing"
)

// OrderRouter runs the routing pipeline
type OrderRouter interface {
	RouteOrder(ctx context.Context, sourceOrderID string) (*routing.Result, error)
	RoutePendingOrders(ctx context.Context) (*routing.BatchResult, error)
}

// RoutingHandler exposes the order routing pipeline over HTTP
type RoutingHandler struct {
	BaseHandler
	router  OrderRouter
	results routing.ResultRepository
	logger  *zap.Logger
}

// NewRoutingHandler creates a new RoutingHandler
func NewRoutingHandler(router OrderRouter, results routing.ResultRepository, logger *zap.Logger) *RoutingHandler {
	return &RoutingHandler{
		router:  router,
		results: results,
		logger:  logger.Named("routing-handler"),
	}
}

// RegisterRoutes registers routing endpoints
func (h *RoutingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/routing/run", h.RunBatch)
	rg.POST("/orders/:id/route", h.RouteOrder)
	rg.GET("/orders/:id/results", h.ListResults)
}

// RunBatch routes every pending order in one pass
func (h *RoutingHandler) RunBatch(c *gin.Context) {
	batch, err := h.router.RoutePendingOrders(c.Request.Context())
	if err != nil {
		h.logger.Error("batch routing failed", zap.Error(err))
		h.DomainError(c, err)
		return
	}
	h.Success(c, toBatchResponse(batch))
}

// RouteOrder routes a single order by its source ID
func (h *RoutingHandler) RouteOrder(c *gin.Context) {
	orderID := c.Param("id")
	if orderID == "" {
		h.BadRequest(c, "order ID is required")
		return
	}

	result, err := h.router.RouteOrder(c.Request.Context(), orderID)
	if err != nil {
		h.logger.Error("order routing failed", zap.String("order_id", orderID), zap.Error(err))
		h.DomainError(c, err)
		return
	}
	h.Success(c, toResultResponse(result))
}

// ListResults returns all routing attempts for an order, newest first
func (h *RoutingHandler) ListResults(c *gin.Context) {
	orderID := c.Param("id")
	if orderID == "" {
		h.BadRequest(c, "order ID is required")
		return
	}

	attempts, err := h.results.FindByOrder(c.Request.Context(), orderID)
	if err != nil {
		h.logger.Error("failed to load routing results", zap.String("order_id", orderID), zap.Error(err))
		h.DomainError(c, err)
		return
	}

	responses := make([]RoutingResultResponse, 0, len(attempts))
	for i := range attempts {
		responses = append(responses, toResultResponse(&attempts[i]))
	}
	h.Success(c, responses)
}
