package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/domain/inventory"
	"github.com/stockledger/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormStockAdjustmentRepository implements StockAdjustmentRepository using GORM
type GormStockAdjustmentRepository struct {
	db *gorm.DB
}

// NewGormStockAdjustmentRepository creates a new GormStockAdjustmentRepository
func NewGormStockAdjustmentRepository(db *gorm.DB) *GormStockAdjustmentRepository {
	return &GormStockAdjustmentRepository{db: db}
}

// FindByID finds an adjustment by its ID
func (r *GormStockAdjustmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockAdjustment, error) {
	var adjustment inventory.StockAdjustment
	if err := r.db.WithContext(ctx).First(&adjustment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &adjustment, nil
}

// FindAll finds adjustments matching the filter
func (r *GormStockAdjustmentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.StockAdjustment, error) {
	var adjustments []inventory.StockAdjustment
	query := r.applyFilter(r.db.WithContext(ctx).Model(&inventory.StockAdjustment{}), filter)

	if err := query.Find(&adjustments).Error; err != nil {
		return nil, err
	}
	return adjustments, nil
}

// FindByStockItem finds adjustments for a stock item
func (r *GormStockAdjustmentRepository) FindByStockItem(ctx context.Context, stockItemID uuid.UUID, filter shared.Filter) ([]inventory.StockAdjustment, error) {
	var adjustments []inventory.StockAdjustment
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&inventory.StockAdjustment{}).
			Where("stock_item_id = ?", stockItemID),
		filter,
	)

	if err := query.Find(&adjustments).Error; err != nil {
		return nil, err
	}
	return adjustments, nil
}

// Count counts adjustments matching the filter
func (r *GormStockAdjustmentRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&inventory.StockAdjustment{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates an adjustment
func (r *GormStockAdjustmentRepository) Save(ctx context.Context, adjustment *inventory.StockAdjustment) error {
	return r.db.WithContext(ctx).Save(adjustment).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormStockAdjustmentRepository) SaveWithLock(ctx context.Context, adjustment *inventory.StockAdjustment) error {
	result := r.db.WithContext(ctx).
		Model(adjustment).
		Where("id = ? AND version = ?", adjustment.ID, adjustment.Version-1).
		Updates(map[string]interface{}{
			"status":          adjustment.Status,
			"before_quantity": adjustment.BeforeQuantity,
			"after_quantity":  adjustment.AfterQuantity,
			"reviewed_by":     adjustment.ReviewedBy,
			"reviewed_at":     adjustment.ReviewedAt,
			"review_note":     adjustment.ReviewNote,
			"version":         adjustment.Version,
			"updated_at":      adjustment.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Delete deletes an adjustment (only valid while pending)
func (r *GormStockAdjustmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&inventory.StockAdjustment{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// applyFilter applies filter options to the query
func (r *GormStockAdjustmentRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	return paginateAndOrder(r.applyFilterWithoutPagination(query, filter), filter)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormStockAdjustmentRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "stock_item_id":
			query = query.Where("stock_item_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "adjustment_type":
			query = query.Where("adjustment_type = ?", value)
		case "requested_by":
			query = query.Where("requested_by = ?", value)
		}
	}

	return query
}

// Ensure GormStockAdjustmentRepository implements StockAdjustmentRepository
var _ inventory.StockAdjustmentRepository = (*GormStockAdjustmentRepository)(nil)
