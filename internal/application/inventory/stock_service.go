package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/inventory"
	"github.com/stockledger/backend/internal/domain/shared"
)

// StockService exposes read and bookkeeping operations on the quantity
// store and the movement ledger. All quantity mutations happen in the
// workflow services; this service only queries and maintains thresholds.
type StockService struct {
	stockItemRepo  inventory.StockItemRepository
	movementRepo   inventory.StockMovementRepository
	eventPublisher shared.EventPublisher
}

// NewStockService creates a new StockService
func NewStockService(
	stockItemRepo inventory.StockItemRepository,
	movementRepo inventory.StockMovementRepository,
) *StockService {
	return &StockService{
		stockItemRepo: stockItemRepo,
		movementRepo:  movementRepo,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *StockService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// GetItem returns one stock item by ID
func (s *StockService) GetItem(ctx context.Context, id uuid.UUID) (*inventory.StockItem, error) {
	return s.stockItemRepo.FindByID(ctx, id)
}

// GetItemByLocationAndProduct returns the stock item for a location-product pair
func (s *StockService) GetItemByLocationAndProduct(ctx context.Context, locationID, productID uuid.UUID) (*inventory.StockItem, error) {
	return s.stockItemRepo.FindByLocationAndProduct(ctx, locationID, productID)
}

// ListItems returns stock items matching the filter with pagination
func (s *StockService) ListItems(ctx context.Context, filter shared.Filter) (*shared.Paginated[inventory.StockItem], error) {
	items, err := s.stockItemRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.stockItemRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}

// ListItemsByLocation returns stock items at one location
func (s *StockService) ListItemsByLocation(ctx context.Context, locationID uuid.UUID, filter shared.Filter) ([]inventory.StockItem, error) {
	return s.stockItemRepo.FindByLocation(ctx, locationID, filter)
}

// ListBelowMinimum returns items under their low-stock threshold
func (s *StockService) ListBelowMinimum(ctx context.Context, filter shared.Filter) ([]inventory.StockItem, error) {
	return s.stockItemRepo.FindBelowMinimum(ctx, filter)
}

// SetMinQuantity updates the low-stock threshold for an item
func (s *StockService) SetMinQuantity(ctx context.Context, id uuid.UUID, min decimal.Decimal) (*inventory.StockItem, error) {
	item, err := s.stockItemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := item.SetMinQuantity(min); err != nil {
		return nil, err
	}
	if err := s.stockItemRepo.SaveWithLock(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// CheckAvailability reports whether the requested quantity is currently available
func (s *StockService) CheckAvailability(ctx context.Context, locationID, productID uuid.UUID, quantity decimal.Decimal) (bool, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return false, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	item, err := s.stockItemRepo.FindByLocationAndProduct(ctx, locationID, productID)
	if err != nil {
		if err == shared.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return item.AvailableQuantity.GreaterThanOrEqual(quantity), nil
}

// ListMovements returns ledger rows matching the filter, newest first
func (s *StockService) ListMovements(ctx context.Context, filter inventory.MovementFilter) (*shared.Paginated[inventory.StockMovement], error) {
	movements, total, err := s.movementRepo.FindByFilter(ctx, filter)
	if err != nil {
		return nil, err
	}
	result := shared.NewPaginated(movements, total, filter.Page, filter.PageSize)
	return &result, nil
}

// ReconciliationReport compares an item's on-hand quantity with the sum of
// its ledger deltas
type ReconciliationReport struct {
	StockItemID uuid.UUID       `json:"stock_item_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	LedgerSum   decimal.Decimal `json:"ledger_sum"`
	Consistent  bool            `json:"consistent"`
}

// Reconcile verifies the ledger property: the sum of all on-hand movement
// deltas for an item must equal its current on-hand quantity.
func (s *StockService) Reconcile(ctx context.Context, stockItemID uuid.UUID) (*ReconciliationReport, error) {
	item, err := s.stockItemRepo.FindByID(ctx, stockItemID)
	if err != nil {
		return nil, err
	}
	sum, err := s.movementRepo.SumOnHandDeltas(ctx, stockItemID)
	if err != nil {
		return nil, err
	}
	return &ReconciliationReport{
		StockItemID: stockItemID,
		Quantity:    item.Quantity,
		LedgerSum:   sum,
		Consistent:  item.Quantity.Equal(sum),
	}, nil
}
