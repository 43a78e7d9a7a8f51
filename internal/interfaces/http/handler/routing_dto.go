package handler

import (
	"time"

	"github.com/orderbridge/backend/internal/domain/routing"
)

// StageErrorResponse is the wire form of a pipeline stage failure
type StageErrorResponse struct {
	Stage   string `json:"stage"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RoutingResultResponse is the wire form of one routing attempt
type RoutingResultResponse struct {
	ID                 string              `json:"id"`
	OrderID            string              `json:"order_id"`
	State              string              `json:"state"`
	Success            bool                `json:"success"`
	FulfillmentOrderID string              `json:"fulfillment_order_id,omitempty"`
	Warnings           []string            `json:"warnings,omitempty"`
	Error              *StageErrorResponse `json:"error,omitempty"`
	AttemptedAt        time.Time           `json:"attempted_at"`
}

// BatchResultResponse aggregates one routing run
type BatchResultResponse struct {
	TotalOrders  int                     `json:"total_orders"`
	SuccessCount int                     `json:"success_count"`
	FailedCount  int                     `json:"failed_count"`
	SkippedCount int                     `json:"skipped_count"`
	Results      []RoutingResultResponse `json:"results"`
}

func toResultResponse(result *routing.Result) RoutingResultResponse {
	resp := RoutingResultResponse{
		ID:                 result.ID.String(),
		OrderID:            result.OrderID,
		State:              string(result.State),
		Success:            result.Success,
		FulfillmentOrderID: result.FulfillmentOrderID,
		Warnings:           result.Warnings,
		AttemptedAt:        result.AttemptedAt,
	}
	if result.Error != nil {
		resp.Error = &StageErrorResponse{
			Stage:   string(result.Error.Stage),
			Code:    result.Error.Code,
			Message: result.Error.Message,
		}
	}
	return resp
}

func toBatchResponse(batch *routing.BatchResult) BatchResultResponse {
	resp := BatchResultResponse{
		TotalOrders:  batch.TotalOrders,
		SuccessCount: batch.SuccessCount,
		FailedCount:  batch.FailedCount,
		SkippedCount: batch.SkippedCount,
		Results:      make([]RoutingResultResponse, 0, len(batch.Results)),
	}
	for i := range batch.Results {
		resp.Results = append(resp.Results, toResultResponse(&batch.Results[i]))
	}
	return resp
}
