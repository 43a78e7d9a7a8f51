package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/orderbridge/backend/internal/domain/routing"
)

// RoutingResultModel is the persistence model for one routing attempt.
// Append-only; attempts are never updated after insert.
type RoutingResultModel struct {
	ID                 uuid.UUID `gorm:"type:uuid;primary_key"`
	OrderID            string    `gorm:"type:varchar(100);not null;index:idx_routing_results_order"`
	State              string    `gorm:"type:varchar(30);not null;index:idx_routing_results_state"`
	Success            bool      `gorm:"not null;default:false"`
	FulfillmentOrderID string    `gorm:"type:varchar(120);index:idx_routing_results_fulfillment_order"`
	WarningsJSON       string    `gorm:"type:text;column:warnings"`
	ErrorStage         string    `gorm:"type:varchar(20)"`
	ErrorCode          string    `gorm:"type:varchar(40)"`
	ErrorMessage       string    `gorm:"type:text"`
	AttemptedAt        time.Time `gorm:"not null;index:idx_routing_results_attempted_at"`
	CreatedAt          time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RoutingResultModel) TableName() string {
	return "routing_results"
}

// ToDomain converts the persistence model to a domain Result
func (m *RoutingResultModel) ToDomain() *routing.Result {
	result := &routing.Result{
		ID:                 m.ID,
		OrderID:            m.OrderID,
		State:              routing.State(m.State),
		Success:            m.Success,
		FulfillmentOrderID: m.FulfillmentOrderID,
		AttemptedAt:        m.AttemptedAt,
	}

	if m.WarningsJSON != "" {
		var warnings []string
		if err := json.Unmarshal([]byte(m.WarningsJSON), &warnings); err == nil {
			result.Warnings = warnings
		}
	}

	if m.ErrorStage != "" || m.ErrorCode != "" {
		result.Error = &routing.StageError{
			Stage:   routing.Stage(m.ErrorStage),
			Code:    m.ErrorCode,
			Message: m.ErrorMessage,
		}
	}

	return result
}

// FromDomain populates the persistence model from a domain Result
func (m *RoutingResultModel) FromDomain(r *routing.Result) {
	m.ID = r.ID
	m.OrderID = r.OrderID
	m.State = string(r.State)
	m.Success = r.Success
	m.FulfillmentOrderID = r.FulfillmentOrderID
	m.AttemptedAt = r.AttemptedAt

	if len(r.Warnings) > 0 {
		if raw, err := json.Marshal(r.Warnings); err == nil {
			m.WarningsJSON = string(raw)
		}
	} else {
		m.WarningsJSON = ""
	}

	if r.Error != nil {
		m.ErrorStage = string(r.Error.Stage)
		m.ErrorCode = r.Error.Code
		m.ErrorMessage = r.Error.Message
	} else {
		m.ErrorStage = ""
		m.ErrorCode = ""
		m.ErrorMessage = ""
	}
}

// TrackingRecordModel is the persistence model for one package's tracking
// reconciliation state, keyed by order and provider package number
type TrackingRecordModel struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	OrderID        string `gorm:"type:varchar(100);not null;uniqueIndex:idx_tracking_records_order_package,priority:1"`
	PackageID      string `gorm:"type:varchar(100);not null"`
	PackageNumber  int    `gorm:"not null;uniqueIndex:idx_tracking_records_order_package,priority:2"`
	TrackingNumber string `gorm:"type:varchar(100);not null"`
	CarrierCode    string `gorm:"type:varchar(40)"`
	CarrierName    string `gorm:"type:varchar(100)"`
	Synced         bool   `gorm:"not null;default:false;index:idx_tracking_records_synced"`
	LastSyncAt     *time.Time
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TrackingRecordModel) TableName() string {
	return "tracking_records"
}

// ToDomain converts the persistence model to a domain TrackingRecord
func (m *TrackingRecordModel) ToDomain() *routing.TrackingRecord {
	return &routing.TrackingRecord{
		OrderID:        m.OrderID,
		PackageID:      m.PackageID,
		PackageNumber:  m.PackageNumber,
		TrackingNumber: m.TrackingNumber,
		CarrierCode:    m.CarrierCode,
		CarrierName:    m.CarrierName,
		Synced:         m.Synced,
		LastSyncAt:     m.LastSyncAt,
	}
}

// FromDomain populates the persistence model from a domain TrackingRecord
func (m *TrackingRecordModel) FromDomain(r *routing.TrackingRecord) {
	m.OrderID = r.OrderID
	m.PackageID = r.PackageID
	m.PackageNumber = r.PackageNumber
	m.TrackingNumber = r.TrackingNumber
	m.CarrierCode = r.CarrierCode
	m.CarrierName = r.CarrierName
	m.Synced = r.Synced
	m.LastSyncAt = r.LastSyncAt
}

// SkuMappingModel is the persistence model for one source-SKU to
// fulfillment-SKU translation
type SkuMappingModel struct {
	SourceSKU      string    `gorm:"type:varchar(100);primaryKey"`
	FulfillmentSKU string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_sku_mappings_fulfillment_sku"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SkuMappingModel) TableName() string {
	return "sku_mappings"
}

// ToDomain converts the persistence model to a domain SkuMapping
func (m *SkuMappingModel) ToDomain() routing.SkuMapping {
	return routing.SkuMapping{
		SourceSKU:      m.SourceSKU,
		FulfillmentSKU: m.FulfillmentSKU,
	}
}

// FromDomain populates the persistence model from a domain SkuMapping
func (m *SkuMappingModel) FromDomain(mapping routing.SkuMapping) {
	m.SourceSKU = mapping.SourceSKU
	m.FulfillmentSKU = mapping.FulfillmentSKU
}
