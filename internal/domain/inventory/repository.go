package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
)

// StockItemRepository defines the interface for stock item persistence.
//
// The Try* / Release / ConsumeReserved / Deposit methods are the only
// sanctioned way to mutate stock quantities. Each is a single conditional
// UPDATE guarded by the relevant balance column, so concurrent workflows
// cannot lose updates or drive a quantity negative. Workflows must never
// read a quantity and write it back.
type StockItemRepository interface {
	// FindByID finds a stock item by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockItem, error)

	// FindByLocationAndProduct finds stock by location-product combination
	FindByLocationAndProduct(ctx context.Context, locationID, productID uuid.UUID) (*StockItem, error)

	// FindByLocation finds all stock items at a location
	FindByLocation(ctx context.Context, locationID uuid.UUID, filter shared.Filter) ([]StockItem, error)

	// FindByProduct finds all stock items for a product across locations
	FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]StockItem, error)

	// FindAll finds stock items matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]StockItem, error)

	// FindBelowMinimum finds items below their low-stock threshold
	FindBelowMinimum(ctx context.Context, filter shared.Filter) ([]StockItem, error)

	// Count counts stock items matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// CountByLocation counts stock items at a location
	CountByLocation(ctx context.Context, locationID uuid.UUID) (int64, error)

	// GetOrCreate gets the stock item for a location-product pair, creating
	// an empty one if none exists
	GetOrCreate(ctx context.Context, locationID, productID uuid.UUID) (*StockItem, error)

	// Save creates or updates a stock item
	Save(ctx context.Context, item *StockItem) error

	// SaveWithLock saves with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, item *StockItem) error

	// Delete deletes a stock item
	Delete(ctx context.Context, id uuid.UUID) error

	// TryWithdraw atomically decrements on-hand quantity if enough is
	// available. Returns ErrInsufficientStock without mutating anything
	// when the guard fails.
	TryWithdraw(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) (*StockItem, error)

	// TryReserve atomically moves quantity from available to reserved if
	// enough is available
	TryReserve(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) (*StockItem, error)

	// Release atomically moves quantity from reserved back to available
	Release(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) (*StockItem, error)

	// ConsumeReserved atomically removes reserved quantity from on-hand
	// stock (lost/damaged write-off)
	ConsumeReserved(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) (*StockItem, error)

	// Deposit atomically increments on-hand quantity
	Deposit(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) (*StockItem, error)
}

// MovementFilter narrows ledger queries
type MovementFilter struct {
	StockItemID  *uuid.UUID
	LocationID   *uuid.UUID
	ProductID    *uuid.UUID
	MovementType *MovementType
	StartDate    *time.Time
	EndDate      *time.Time
	Page         int
	PageSize     int
}

// StockMovementRepository defines the interface for ledger persistence.
// The ledger is append-only: there are deliberately no update or delete
// methods.
type StockMovementRepository interface {
	// Append writes one or more ledger entries
	Append(ctx context.Context, movements ...*StockMovement) error

	// FindByID finds a movement by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockMovement, error)

	// FindByFilter lists movements matching the filter, newest first
	FindByFilter(ctx context.Context, filter MovementFilter) ([]StockMovement, int64, error)

	// FindByReference lists movements produced by one workflow document
	FindByReference(ctx context.Context, ref Reference) ([]StockMovement, error)

	// SumOnHandDeltas sums the signed on-hand deltas for a stock item.
	// Reservation-only movement types contribute zero. The result must
	// equal the item's current on-hand quantity.
	SumOnHandDeltas(ctx context.Context, stockItemID uuid.UUID) (decimal.Decimal, error)
}

// StockAdjustmentRepository defines the interface for adjustment persistence
type StockAdjustmentRepository interface {
	// FindByID finds an adjustment by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockAdjustment, error)

	// FindAll finds adjustments matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]StockAdjustment, error)

	// FindByStockItem finds adjustments for a stock item
	FindByStockItem(ctx context.Context, stockItemID uuid.UUID, filter shared.Filter) ([]StockAdjustment, error)

	// Count counts adjustments matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save creates or updates an adjustment
	Save(ctx context.Context, adjustment *StockAdjustment) error

	// SaveWithLock saves with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, adjustment *StockAdjustment) error

	// Delete deletes an adjustment (only valid while pending)
	Delete(ctx context.Context, id uuid.UUID) error
}

// StockTransferRepository defines the interface for transfer persistence
type StockTransferRepository interface {
	// FindByID finds a transfer with its lines by ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockTransfer, error)

	// FindAll finds transfers matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]StockTransfer, error)

	// FindByLocation finds transfers touching a location as source or destination
	FindByLocation(ctx context.Context, locationID uuid.UUID, filter shared.Filter) ([]StockTransfer, error)

	// Count counts transfers matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save creates or updates a transfer and its lines
	Save(ctx context.Context, transfer *StockTransfer) error

	// SaveWithLock saves with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, transfer *StockTransfer) error

	// Delete deletes a transfer (only valid while draft)
	Delete(ctx context.Context, id uuid.UUID) error
}
