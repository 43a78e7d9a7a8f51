package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/orderbridge/backend/internal/application/tracking"
	"github.com/orderbridge/backend/internal/domain/routing"
)

// TrackingSyncer reconciles tracking numbers back to the source platform
type TrackingSyncer interface {
	SyncAllTracking(ctx context.Context) (*tracking.SyncSummary, error)
}

// TrackingRecordResponse is the wire form of one reconciled package
type TrackingRecordResponse struct {
	OrderID        string     `json:"order_id"`
	PackageID      string     `json:"package_id"`
	PackageNumber  int        `json:"package_number"`
	TrackingNumber string     `json:"tracking_number"`
	CarrierCode    string     `json:"carrier_code"`
	CarrierName    string     `json:"carrier_name,omitempty"`
	Synced         bool       `json:"synced"`
	LastSyncAt     *time.Time `json:"last_sync_at,omitempty"`
}

// TrackingHandler exposes tracking reconciliation over HTTP
type TrackingHandler struct {
	BaseHandler
	syncer  TrackingSyncer
	records routing.TrackingRecordRepository
	logger  *zap.Logger
}

// NewTrackingHandler creates a new TrackingHandler
func NewTrackingHandler(syncer TrackingSyncer, records routing.TrackingRecordRepository, logger *zap.Logger) *TrackingHandler {
	return &TrackingHandler{
		syncer:  syncer,
		records: records,
		logger:  logger.Named("tracking-handler"),
	}
}

// RegisterRoutes registers tracking endpoints
func (h *TrackingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/tracking/sync", h.SyncAll)
	rg.GET("/orders/:id/tracking", h.ListRecords)
}

// SyncAll runs one tracking reconciliation cycle across all routed orders
func (h *TrackingHandler) SyncAll(c *gin.Context) {
	summary, err := h.syncer.SyncAllTracking(c.Request.Context())
	if err != nil {
		h.logger.Error("tracking sync failed", zap.Error(err))
		h.DomainError(c, err)
		return
	}
	h.Success(c, summary)
}

// ListRecords returns the tracking records for one order
func (h *TrackingHandler) ListRecords(c *gin.Context) {
	orderID := c.Param("id")
	if orderID == "" {
		h.BadRequest(c, "order ID is required")
		return
	}

	records, err := h.records.FindByOrder(c.Request.Context(), orderID)
	if err != nil {
		h.logger.Error("failed to load tracking records", zap.String("order_id", orderID), zap.Error(err))
		h.DomainError(c, err)
		return
	}

	responses := make([]TrackingRecordResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, TrackingRecordResponse{
			OrderID:        record.OrderID,
			PackageID:      record.PackageID,
			PackageNumber:  record.PackageNumber,
			TrackingNumber: record.TrackingNumber,
			CarrierCode:    record.CarrierCode,
			CarrierName:    record.CarrierName,
			Synced:         record.Synced,
			LastSyncAt:     record.LastSyncAt,
		})
	}
	h.Success(c, responses)
}
