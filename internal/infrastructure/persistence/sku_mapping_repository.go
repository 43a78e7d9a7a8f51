package persistence

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orderbridge/backend/internal/domain/routing"
	"github.com/orderbridge/backend/internal/infrastructure/persistence/models"
)

// GormSkuMappingRepository implements routing.SkuMappingRepository using GORM
type GormSkuMappingRepository struct {
	db *gorm.DB
}

// NewGormSkuMappingRepository creates a new GormSkuMappingRepository
func NewGormSkuMappingRepository(db *gorm.DB) *GormSkuMappingRepository {
	return &GormSkuMappingRepository{db: db}
}

// Upsert creates or updates one mapping
func (r *GormSkuMappingRepository) Upsert(ctx context.Context, mapping routing.SkuMapping) error {
	var model models.SkuMappingModel
	model.FromDomain(mapping)

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source_sku"}},
			DoUpdates: clause.AssignmentColumns([]string{"fulfillment_sku", "updated_at"}),
		}).
		Create(&model).Error
}

// FindAll returns every stored mapping
func (r *GormSkuMappingRepository) FindAll(ctx context.Context) ([]routing.SkuMapping, error) {
	var rows []models.SkuMappingModel
	if err := r.db.WithContext(ctx).
		Order("source_sku ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	mappings := make([]routing.SkuMapping, 0, len(rows))
	for i := range rows {
		mappings = append(mappings, rows[i].ToDomain())
	}
	return mappings, nil
}

// Delete removes the mapping for a source SKU
func (r *GormSkuMappingRepository) Delete(ctx context.Context, sourceSKU string) error {
	return r.db.WithContext(ctx).
		Where("source_sku = ?", sourceSKU).
		Delete(&models.SkuMappingModel{}).Error
}

// Ensure GormSkuMappingRepository implements routing.SkuMappingRepository
var _ routing.SkuMappingRepository = (*GormSkuMappingRepository)(nil)
