package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/inventory"
	"github.com/stockledger/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockItemRepository implements StockItemRepository using GORM.
//
// Quantity mutations go through single conditional UPDATE statements: the
// WHERE clause re-checks the balance guard inside the database, so two
// concurrent withdrawals can never both succeed against the same stock.
type GormStockItemRepository struct {
	db *gorm.DB
}

// NewGormStockItemRepository creates a new GormStockItemRepository
func NewGormStockItemRepository(db *gorm.DB) *GormStockItemRepository {
	return &GormStockItemRepository{db: db}
}

// FindByID finds a stock item by its ID
func (r *GormStockItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockItem, error) {
	var item inventory.StockItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindByLocationAndProduct finds stock by location-product combination
func (r *GormStockItemRepository) FindByLocationAndProduct(ctx context.Context, locationID, productID uuid.UUID) (*inventory.StockItem, error) {
	var item inventory.StockItem
	if err := r.db.WithContext(ctx).
		Where("location_id = ? AND product_id = ?", locationID, productID).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindByLocation finds all stock items at a location
func (r *GormStockItemRepository) FindByLocation(ctx context.Context, locationID uuid.UUID, filter shared.Filter) ([]inventory.StockItem, error) {
	var items []inventory.StockItem
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&inventory.StockItem{}).
			Where("location_id = ?", locationID),
		filter,
	)

	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindByProduct finds all stock items for a product across locations
func (r *GormStockItemRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]inventory.StockItem, error) {
	var items []inventory.StockItem
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&inventory.StockItem{}).
			Where("product_id = ?", productID),
		filter,
	)

	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindAll finds stock items matching the filter
func (r *GormStockItemRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.StockItem, error) {
	var items []inventory.StockItem
	query := r.applyFilter(r.db.WithContext(ctx).Model(&inventory.StockItem{}), filter)

	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindBelowMinimum finds items below their low-stock threshold
func (r *GormStockItemRepository) FindBelowMinimum(ctx context.Context, filter shared.Filter) ([]inventory.StockItem, error) {
	var items []inventory.StockItem
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&inventory.StockItem{}).
			Where("min_quantity > 0 AND quantity < min_quantity"),
		filter,
	)

	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Count counts stock items matching the filter
func (r *GormStockItemRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&inventory.StockItem{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByLocation counts stock items at a location
func (r *GormStockItemRepository) CountByLocation(ctx context.Context, locationID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&inventory.StockItem{}).
		Where("location_id = ?", locationID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GetOrCreate gets existing stock for a location-product pair or creates an
// empty record
func (r *GormStockItemRepository) GetOrCreate(ctx context.Context, locationID, productID uuid.UUID) (*inventory.StockItem, error) {
	item, err := r.FindByLocationAndProduct(ctx, locationID, productID)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	item, err = inventory.NewStockItem(locationID, productID)
	if err != nil {
		return nil, err
	}

	// ON CONFLICT handles the race where two workflows create the same pair
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "location_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Create(item).Error; err != nil {
		return nil, err
	}

	if item.ID == uuid.Nil {
		return r.FindByLocationAndProduct(ctx, locationID, productID)
	}

	return item, nil
}

// Save creates or updates a stock item
func (r *GormStockItemRepository) Save(ctx context.Context, item *inventory.StockItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormStockItemRepository) SaveWithLock(ctx context.Context, item *inventory.StockItem) error {
	result := r.db.WithContext(ctx).
		Model(item).
		Where("id = ? AND version = ?", item.ID, item.Version-1).
		Updates(map[string]interface{}{
			"quantity":           item.Quantity,
			"reserved_quantity":  item.ReservedQuantity,
			"available_quantity": item.AvailableQuantity,
			"min_quantity":       item.MinQuantity,
			"version":            item.Version,
			"updated_at":         item.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Delete deletes a stock item
func (r *GormStockItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&inventory.StockItem{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// TryWithdraw atomically removes unreserved on-hand stock
func (r *GormStockItemRepository) TryWithdraw(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) (*inventory.StockItem, error) {
	return r.conditionalUpdate(ctx, id, quantity,
		"available_quantity >= ?",
		map[string]interface{}{
			"quantity":           gorm.Expr("quantity - ?", quantity),
			"available_quantity": gorm.Expr("available_quantity - ?", quantity),
		})
}

// TryReserve atomically moves stock from available to reserved
func (r *GormStockItemRepository) TryReserve(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) (*inventory.StockItem, error) {
	return r.conditionalUpdate(ctx, id, quantity,
		"available_quantity >= ?",
		map[string]interface{}{
			"reserved_quantity":  gorm.Expr("reserved_quantity + ?", quantity),
			"available_quantity": gorm.Expr("available_quantity - ?", quantity),
		})
}

// Release atomically moves stock from reserved back to available
func (r *GormStockItemRepository) Release(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) (*inventory.StockItem, error) {
	return r.conditionalUpdate(ctx, id, quantity,
		"reserved_quantity >= ?",
		map[string]interface{}{
			"reserved_quantity":  gorm.Expr("reserved_quantity - ?", quantity),
			"available_quantity": gorm.Expr("available_quantity + ?", quantity),
		})
}

// ConsumeReserved atomically writes reserved stock off the on-hand total
func (r *GormStockItemRepository) ConsumeReserved(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) (*inventory.StockItem, error) {
	return r.conditionalUpdate(ctx, id, quantity,
		"reserved_quantity >= ?",
		map[string]interface{}{
			"quantity":          gorm.Expr("quantity - ?", quantity),
			"reserved_quantity": gorm.Expr("reserved_quantity - ?", quantity),
		})
}

// Deposit atomically adds on-hand stock
func (r *GormStockItemRepository) Deposit(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) (*inventory.StockItem, error) {
	return r.conditionalUpdate(ctx, id, quantity,
		"", // additions need no balance guard
		map[string]interface{}{
			"quantity":           gorm.Expr("quantity + ?", quantity),
			"available_quantity": gorm.Expr("available_quantity + ?", quantity),
		})
}

// conditionalUpdate runs a guarded single-statement quantity mutation and
// returns the refreshed row. A failed guard maps to ErrInsufficientStock, a
// missing row to ErrNotFound.
func (r *GormStockItemRepository) conditionalUpdate(ctx context.Context, id uuid.UUID, quantity decimal.Decimal, guard string, updates map[string]interface{}) (*inventory.StockItem, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	updates["version"] = gorm.Expr("version + 1")
	updates["updated_at"] = time.Now()

	query := r.db.WithContext(ctx).
		Model(&inventory.StockItem{}).
		Where("id = ?", id)
	if guard != "" {
		query = query.Where(guard, quantity)
	}

	result := query.Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		// Distinguish a missing row from a failed balance guard
		if _, err := r.FindByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, shared.ErrInsufficientStock
	}

	return r.FindByID(ctx, id)
}

// applyFilter applies filter options to the query
func (r *GormStockItemRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	return paginateAndOrder(r.applyFilterWithoutPagination(query, filter), filter)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormStockItemRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "location_id":
			query = query.Where("location_id = ?", value)
		case "product_id":
			query = query.Where("product_id = ?", value)
		case "below_minimum":
			if value == true {
				query = query.Where("min_quantity > 0 AND quantity < min_quantity")
			}
		case "has_stock":
			if value == true {
				query = query.Where("available_quantity > 0")
			}
		case "no_stock":
			if value == true {
				query = query.Where("quantity = 0 AND reserved_quantity = 0")
			}
		case "has_reservations":
			if value == true {
				query = query.Where("reserved_quantity > 0")
			}
		}
	}

	return query
}

// Ensure GormStockItemRepository implements StockItemRepository
var _ inventory.StockItemRepository = (*GormStockItemRepository)(nil)
