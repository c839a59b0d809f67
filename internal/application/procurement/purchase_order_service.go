package procurement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/inventory"
	"github.com/stockledger/backend/internal/domain/partner"
	"github.com/stockledger/backend/internal/domain/procurement"
	"github.com/stockledger/backend/internal/domain/shared"
)

// OrderLineInput is one product position for a new purchase order
type OrderLineInput struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// CreateOrderCommand carries the input for a new purchase order
type CreateOrderCommand struct {
	SupplierID uuid.UUID
	LocationID uuid.UUID
	Lines      []OrderLineInput
	Note       string
	Submit     bool
	ActorID    uuid.UUID
}

// ReceiveOrderLineInput is one received line in a receive batch
type ReceiveOrderLineInput struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
}

// PurchaseOrderService orchestrates the purchase order receipt workflow.
// Receiving runs in one transaction covering the order lines, the
// destination stock and the purchase ledger entries.
type PurchaseOrderService struct {
	orderRepo        procurement.PurchaseOrderRepository
	supplierRepo     partner.SupplierRepository
	locationRepo     partner.LocationRepository
	txScope          TransactionScope
	idempotencyStore shared.IdempotencyStore
	idempotencyTTL   time.Duration
	eventPublisher   shared.EventPublisher
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(
	orderRepo procurement.PurchaseOrderRepository,
	supplierRepo partner.SupplierRepository,
	locationRepo partner.LocationRepository,
	txScope TransactionScope,
) *PurchaseOrderService {
	return &PurchaseOrderService{
		orderRepo:      orderRepo,
		supplierRepo:   supplierRepo,
		locationRepo:   locationRepo,
		txScope:        txScope,
		idempotencyTTL: shared.DefaultIdempotencyConfig().TTL,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PurchaseOrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetIdempotencyStore enables replay protection for receive calls
func (s *PurchaseOrderService) SetIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) {
	s.idempotencyStore = store
	if ttl > 0 {
		s.idempotencyTTL = ttl
	}
}

// nextOrderNumber builds a unique business order number
func nextOrderNumber() string {
	return fmt.Sprintf("PO-%s-%s", time.Now().Format("20060102"), uuid.New().String()[:8])
}

// Create builds a draft order against an active supplier, optionally
// submitting it for approval in the same call
func (s *PurchaseOrderService) Create(ctx context.Context, cmd CreateOrderCommand) (*procurement.PurchaseOrder, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, cmd.SupplierID)
	if err != nil {
		return nil, err
	}
	if !supplier.IsActive {
		return nil, shared.NewDomainError("SUPPLIER_INACTIVE", "Supplier is not active")
	}

	location, err := s.locationRepo.FindByID(ctx, cmd.LocationID)
	if err != nil {
		return nil, err
	}
	if !location.IsActive {
		return nil, shared.NewDomainError("LOCATION_INACTIVE", "Delivery location is not active")
	}

	order, err := procurement.NewPurchaseOrder(nextOrderNumber(), cmd.SupplierID, cmd.LocationID, cmd.ActorID, cmd.Note)
	if err != nil {
		return nil, err
	}
	for _, line := range cmd.Lines {
		if err := order.AddLine(line.ProductID, line.Quantity, line.UnitPrice); err != nil {
			return nil, err
		}
	}
	if cmd.Submit {
		if err := order.Submit(); err != nil {
			return nil, err
		}
	}
	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Submit moves a draft order to pending
func (s *PurchaseOrderService) Submit(ctx context.Context, id uuid.UUID) (*procurement.PurchaseOrder, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := order.Submit(); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Approve authorizes a pending order
func (s *PurchaseOrderService) Approve(ctx context.Context, id, approverID uuid.UUID) (*procurement.PurchaseOrder, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := order.Approve(approverID); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, order)

	return order, nil
}

// Place marks an approved order as sent to the supplier
func (s *PurchaseOrderService) Place(ctx context.Context, id uuid.UUID) (*procurement.PurchaseOrder, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := order.Place(); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Receive records arrived goods. Each line re-verifies its
// remaining-to-receive balance before the stock deposit, so a replayed
// receipt cannot double-increment inventory; an optional idempotency key
// short-circuits exact replays before any work is done.
func (s *PurchaseOrderService) Receive(ctx context.Context, id uuid.UUID, lines []ReceiveOrderLineInput, actorID uuid.UUID, idempotencyKey string) (*procurement.PurchaseOrder, error) {
	if len(lines) == 0 {
		return nil, shared.NewDomainError("EMPTY_RECEIVE", "Receive batch has no lines")
	}

	storeKey := "po:receive:" + idempotencyKey
	if s.idempotencyStore != nil && idempotencyKey != "" {
		fresh, err := s.idempotencyStore.MarkProcessed(ctx, storeKey, s.idempotencyTTL)
		if err != nil {
			return nil, err
		}
		if !fresh {
			return nil, shared.ErrDuplicateReceipt
		}
	}

	var order *procurement.PurchaseOrder

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		order, err = repos.OrderRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}

		for _, line := range lines {
			if err := order.ReceiveLine(line.ProductID, line.Quantity); err != nil {
				return err
			}

			item, err := repos.StockItemRepo().GetOrCreate(ctx, order.LocationID, line.ProductID)
			if err != nil {
				return err
			}
			updated, err := repos.StockItemRepo().Deposit(ctx, item.ID, line.Quantity)
			if err != nil {
				return err
			}

			movement, err := inventory.NewStockMovement(
				updated,
				inventory.MovementPurchase,
				line.Quantity,
				updated.Quantity,
				inventory.PurchaseOrderRef(order.ID),
				actorID,
			)
			if err != nil {
				return err
			}
			if err := repos.MovementRepo().Append(ctx, movement); err != nil {
				return err
			}
		}

		if err := order.FinalizeReceive(); err != nil {
			return err
		}
		return repos.OrderRepo().SaveWithLock(ctx, order)
	})
	if err != nil {
		// Nothing was applied, so give the key back for a retry.
		if s.idempotencyStore != nil && idempotencyKey != "" {
			_ = s.idempotencyStore.Release(ctx, storeKey)
		}
		return nil, err
	}

	s.publishEvents(ctx, order)

	return order, nil
}

// Cancel aborts an order that has not received any goods
func (s *PurchaseOrderService) Cancel(ctx context.Context, id uuid.UUID, reason string) (*procurement.PurchaseOrder, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := order.Cancel(reason); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, order)

	return order, nil
}

// Get returns one order with its lines
func (s *PurchaseOrderService) Get(ctx context.Context, id uuid.UUID) (*procurement.PurchaseOrder, error) {
	return s.orderRepo.FindByID(ctx, id)
}

// List returns orders matching the filter with pagination
func (s *PurchaseOrderService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[procurement.PurchaseOrder], error) {
	orders, err := s.orderRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.orderRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	result := shared.NewPaginated(orders, total, filter.Page, filter.PageSize)
	return &result, nil
}

// Delete removes an order that is still a draft
func (s *PurchaseOrderService) Delete(ctx context.Context, id uuid.UUID) error {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !order.CanDelete() {
		return shared.ErrInvalidState
	}
	return s.orderRepo.Delete(ctx, id)
}

func (s *PurchaseOrderService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
	if s.eventPublisher == nil {
		return
	}
	events := aggregate.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	aggregate.ClearDomainEvents()
}
