package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/orderbridge/backend/internal/domain/routing"
	"github.com/orderbridge/backend/internal/infrastructure/persistence/models"
)

// GormRoutingResultRepository implements routing.ResultRepository using GORM.
// The table is an append-only audit trail.
type GormRoutingResultRepository struct {
	db *gorm.DB
}

// NewGormRoutingResultRepository creates a new GormRoutingResultRepository
func NewGormRoutingResultRepository(db *gorm.DB) *GormRoutingResultRepository {
	return &GormRoutingResultRepository{db: db}
}

// Append stores one immutable routing result
func (r *GormRoutingResultRepository) Append(ctx context.Context, result *routing.Result) error {
	var model models.RoutingResultModel
	model.FromDomain(result)
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindByOrder returns all attempts for an order, newest first
func (r *GormRoutingResultRepository) FindByOrder(ctx context.Context, orderID string) ([]routing.Result, error) {
	var rows []models.RoutingResultModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("attempted_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	results := make([]routing.Result, 0, len(rows))
	for i := range rows {
		results = append(results, *rows[i].ToDomain())
	}
	return results, nil
}

// ListRouted returns the latest successful attempt per routed order
func (r *GormRoutingResultRepository) ListRouted(ctx context.Context) ([]routing.Result, error) {
	var rows []models.RoutingResultModel
	if err := r.db.WithContext(ctx).
		Where("success = ?", true).
		Order("attempted_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(rows))
	results := make([]routing.Result, 0, len(rows))
	for i := range rows {
		if seen[rows[i].OrderID] {
			continue
		}
		seen[rows[i].OrderID] = true
		results = append(results, *rows[i].ToDomain())
	}
	return results, nil
}

// Ensure GormRoutingResultRepository implements routing.ResultRepository
var _ routing.ResultRepository = (*GormRoutingResultRepository)(nil)
