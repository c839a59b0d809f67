package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/domain/assignment"
	"github.com/stockledger/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormAssignmentRepository implements AssignmentRepository using GORM
type GormAssignmentRepository struct {
	db *gorm.DB
}

// NewGormAssignmentRepository creates a new GormAssignmentRepository
func NewGormAssignmentRepository(db *gorm.DB) *GormAssignmentRepository {
	return &GormAssignmentRepository{db: db}
}

// FindByID finds an assignment with its history by ID
func (r *GormAssignmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*assignment.Assignment, error) {
	var a assignment.Assignment
	if err := r.db.WithContext(ctx).
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&a, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// FindAll finds assignments matching the filter
func (r *GormAssignmentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]assignment.Assignment, error) {
	var assignments []assignment.Assignment
	query := r.applyFilter(r.db.WithContext(ctx).Model(&assignment.Assignment{}), filter)

	if err := query.Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

// FindByEmployee finds assignments held by an employee
func (r *GormAssignmentRepository) FindByEmployee(ctx context.Context, employeeID uuid.UUID, filter shared.Filter) ([]assignment.Assignment, error) {
	var assignments []assignment.Assignment
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&assignment.Assignment{}).
			Where("employee_id = ?", employeeID),
		filter,
	)

	if err := query.Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

// FindActiveByStockItem finds open assignments holding stock of an item
func (r *GormAssignmentRepository) FindActiveByStockItem(ctx context.Context, stockItemID uuid.UUID) ([]assignment.Assignment, error) {
	var assignments []assignment.Assignment
	if err := r.db.WithContext(ctx).
		Where("stock_item_id = ? AND status IN ?", stockItemID,
			[]assignment.AssignmentStatus{assignment.AssignmentStatusAssigned, assignment.AssignmentStatusInUse}).
		Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

// Count counts assignments matching the filter
func (r *GormAssignmentRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&assignment.Assignment{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates an assignment and its history entries
func (r *GormAssignmentRepository) Save(ctx context.Context, a *assignment.Assignment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("History").Save(a).Error; err != nil {
			return err
		}
		for i := range a.History {
			if err := tx.Save(&a.History[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormAssignmentRepository) SaveWithLock(ctx context.Context, a *assignment.Assignment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&assignment.Assignment{}).
			Where("id = ? AND version = ?", a.ID, a.Version-1).
			Updates(map[string]interface{}{
				"status":             a.Status,
				"returned_quantity":  a.ReturnedQuantity,
				"actual_return_date": a.ActualReturnDate,
				"version":            a.Version,
				"updated_at":         a.UpdatedAt,
			})

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		for i := range a.History {
			if err := tx.Save(&a.History[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// applyFilter applies filter options to the query
func (r *GormAssignmentRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	return paginateAndOrder(r.applyFilterWithoutPagination(query, filter), filter)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormAssignmentRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "employee_id":
			query = query.Where("employee_id = ?", value)
		case "stock_item_id":
			query = query.Where("stock_item_id = ?", value)
		case "active":
			if value == true {
				query = query.Where("status IN ?",
					[]assignment.AssignmentStatus{assignment.AssignmentStatusAssigned, assignment.AssignmentStatusInUse})
			}
		}
	}

	return query
}

// Ensure GormAssignmentRepository implements AssignmentRepository
var _ assignment.AssignmentRepository = (*GormAssignmentRepository)(nil)
