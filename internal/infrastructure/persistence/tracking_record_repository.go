package persistence

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orderbridge/backend/internal/domain/routing"
	"github.com/orderbridge/backend/internal/infrastructure/persistence/models"
)

// GormTrackingRecordRepository implements routing.TrackingRecordRepository
// using GORM
type GormTrackingRecordRepository struct {
	db *gorm.DB
}

// NewGormTrackingRecordRepository creates a new GormTrackingRecordRepository
func NewGormTrackingRecordRepository(db *gorm.DB) *GormTrackingRecordRepository {
	return &GormTrackingRecordRepository{db: db}
}

// Save creates or updates a record keyed by order and package number
func (r *GormTrackingRecordRepository) Save(ctx context.Context, record *routing.TrackingRecord) error {
	var model models.TrackingRecordModel
	model.FromDomain(record)

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "order_id"}, {Name: "package_number"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"package_id", "tracking_number", "carrier_code", "carrier_name",
				"synced", "last_sync_at", "updated_at",
			}),
		}).
		Create(&model).Error
}

// FindByOrder returns all records for an order
func (r *GormTrackingRecordRepository) FindByOrder(ctx context.Context, orderID string) ([]routing.TrackingRecord, error) {
	var rows []models.TrackingRecordModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("package_number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]routing.TrackingRecord, 0, len(rows))
	for i := range rows {
		records = append(records, *rows[i].ToDomain())
	}
	return records, nil
}

// IsOrderSynced returns true when the order has at least one record and
// every record is synced
func (r *GormTrackingRecordRepository) IsOrderSynced(ctx context.Context, orderID string) (bool, error) {
	var total, synced int64
	if err := r.db.WithContext(ctx).
		Model(&models.TrackingRecordModel{}).
		Where("order_id = ?", orderID).
		Count(&total).Error; err != nil {
		return false, err
	}
	if total == 0 {
		return false, nil
	}
	if err := r.db.WithContext(ctx).
		Model(&models.TrackingRecordModel{}).
		Where("order_id = ? AND synced = ?", orderID, true).
		Count(&synced).Error; err != nil {
		return false, err
	}
	return synced == total, nil
}

// Ensure GormTrackingRecordRepository implements routing.TrackingRecordRepository
var _ routing.TrackingRecordRepository = (*GormTrackingRecordRepository)(nil)
