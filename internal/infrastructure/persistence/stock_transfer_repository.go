package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/domain/inventory"
	"github.com/stockledger/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormStockTransferRepository implements StockTransferRepository using GORM
type GormStockTransferRepository struct {
	db *gorm.DB
}

// NewGormStockTransferRepository creates a new GormStockTransferRepository
func NewGormStockTransferRepository(db *gorm.DB) *GormStockTransferRepository {
	return &GormStockTransferRepository{db: db}
}

// FindByID finds a transfer with its lines by ID
func (r *GormStockTransferRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockTransfer, error) {
	var transfer inventory.StockTransfer
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&transfer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &transfer, nil
}

// FindAll finds transfers matching the filter
func (r *GormStockTransferRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.StockTransfer, error) {
	var transfers []inventory.StockTransfer
	query := r.applyFilter(r.db.WithContext(ctx).Model(&inventory.StockTransfer{}), filter)

	if err := query.Preload("Lines").Find(&transfers).Error; err != nil {
		return nil, err
	}
	return transfers, nil
}

// FindByLocation finds transfers touching a location as source or destination
func (r *GormStockTransferRepository) FindByLocation(ctx context.Context, locationID uuid.UUID, filter shared.Filter) ([]inventory.StockTransfer, error) {
	var transfers []inventory.StockTransfer
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&inventory.StockTransfer{}).
			Where("from_location_id = ? OR to_location_id = ?", locationID, locationID),
		filter,
	)

	if err := query.Preload("Lines").Find(&transfers).Error; err != nil {
		return nil, err
	}
	return transfers, nil
}

// Count counts transfers matching the filter
func (r *GormStockTransferRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&inventory.StockTransfer{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a transfer and its lines
func (r *GormStockTransferRepository) Save(ctx context.Context, transfer *inventory.StockTransfer) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Lines").Save(transfer).Error; err != nil {
			return err
		}
		for i := range transfer.Lines {
			if err := tx.Save(&transfer.Lines[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveWithLock saves with optimistic locking (checks version). The header
// update is version-guarded; line updates ride the same transaction.
func (r *GormStockTransferRepository) SaveWithLock(ctx context.Context, transfer *inventory.StockTransfer) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&inventory.StockTransfer{}).
			Where("id = ? AND version = ?", transfer.ID, transfer.Version-1).
			Updates(map[string]interface{}{
				"status":        transfer.Status,
				"approved_by":   transfer.ApprovedBy,
				"shipped_at":    transfer.ShippedAt,
				"completed_at":  transfer.CompletedAt,
				"cancel_reason": transfer.CancelReason,
				"version":       transfer.Version,
				"updated_at":    transfer.UpdatedAt,
			})

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		for i := range transfer.Lines {
			if err := tx.Save(&transfer.Lines[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete deletes a transfer and its lines
func (r *GormStockTransferRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&inventory.TransferLine{}, "transfer_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&inventory.StockTransfer{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// applyFilter applies filter options to the query
func (r *GormStockTransferRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	return paginateAndOrder(r.applyFilterWithoutPagination(query, filter), filter)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormStockTransferRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "from_location_id":
			query = query.Where("from_location_id = ?", value)
		case "to_location_id":
			query = query.Where("to_location_id = ?", value)
		case "requested_by":
			query = query.Where("requested_by = ?", value)
		}
	}

	return query
}

// Ensure GormStockTransferRepository implements StockTransferRepository
var _ inventory.StockTransferRepository = (*GormStockTransferRepository)(nil)
