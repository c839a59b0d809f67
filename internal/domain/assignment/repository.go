package assignment

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/domain/shared"
)

// AssignmentRepository defines the interface for assignment persistence
type AssignmentRepository interface {
	// FindByID finds an assignment with its history by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Assignment, error)

	// FindAll finds assignments matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Assignment, error)

	// FindByEmployee finds assignments held by an employee
	FindByEmployee(ctx context.Context, employeeID uuid.UUID, filter shared.Filter) ([]Assignment, error)

	// FindActiveByStockItem finds open assignments holding stock of an item
	FindActiveByStockItem(ctx context.Context, stockItemID uuid.UUID) ([]Assignment, error)

	// Count counts assignments matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save creates or updates an assignment and its history entries
	Save(ctx context.Context, assignment *Assignment) error

	// SaveWithLock saves with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, assignment *Assignment) error
}
