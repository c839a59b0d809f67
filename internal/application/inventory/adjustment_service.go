package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/inventory"
	"github.com/stockledger/backend/internal/domain/shared"
)

// CreateAdjustmentCommand carries the input for a new adjustment proposal
type CreateAdjustmentCommand struct {
	StockItemID    uuid.UUID
	AdjustmentType inventory.AdjustmentType
	Quantity       decimal.Decimal
	Reason         string
	AutoApprove    bool
	ActorID        uuid.UUID
	ActorRole      string
}

// ReviewAdjustmentCommand carries the input for approving or rejecting
type ReviewAdjustmentCommand struct {
	AdjustmentID uuid.UUID
	ReviewerID   uuid.UUID
	Note         string
}

// AdjustmentService orchestrates the adjustment approval workflow. Stock is
// only touched at approval time, through the atomic conditional update
// entry points, inside one transaction with the adjustment row and the
// ledger entry.
type AdjustmentService struct {
	adjustmentRepo inventory.StockAdjustmentRepository
	stockItemRepo  inventory.StockItemRepository
	txScope        TransactionScope
	eventPublisher shared.EventPublisher
}

// NewAdjustmentService creates a new AdjustmentService
func NewAdjustmentService(
	adjustmentRepo inventory.StockAdjustmentRepository,
	stockItemRepo inventory.StockItemRepository,
	txScope TransactionScope,
) *AdjustmentService {
	return &AdjustmentService{
		adjustmentRepo: adjustmentRepo,
		stockItemRepo:  stockItemRepo,
		txScope:        txScope,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *AdjustmentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create proposes an adjustment. A decrease that could not possibly be
// applied is rejected up front, before any row is written; the
// authoritative guard still runs at approval time. An admin creator may
// auto-approve, collapsing creation and approval into one call.
func (s *AdjustmentService) Create(ctx context.Context, cmd CreateAdjustmentCommand) (*inventory.StockAdjustment, error) {
	item, err := s.stockItemRepo.FindByID(ctx, cmd.StockItemID)
	if err != nil {
		return nil, err
	}

	if cmd.AdjustmentType == inventory.AdjustmentDecrease && item.AvailableQuantity.LessThan(cmd.Quantity) {
		return nil, shared.ErrInsufficientStock
	}

	adj, err := inventory.NewStockAdjustment(item.ID, cmd.AdjustmentType, cmd.Quantity, cmd.Reason, cmd.ActorID)
	if err != nil {
		return nil, err
	}

	if cmd.AutoApprove {
		if cmd.ActorRole != shared.RoleAdmin {
			return nil, shared.ErrForbidden
		}
		if err := s.applyApproval(ctx, adj, cmd.ActorID, "auto-approved"); err != nil {
			return nil, err
		}
	} else {
		if err := s.adjustmentRepo.Save(ctx, adj); err != nil {
			return nil, err
		}
	}

	s.publishEvents(ctx, adj)

	return adj, nil
}

// Approve applies a pending adjustment to stock
func (s *AdjustmentService) Approve(ctx context.Context, cmd ReviewAdjustmentCommand) (*inventory.StockAdjustment, error) {
	adj, err := s.adjustmentRepo.FindByID(ctx, cmd.AdjustmentID)
	if err != nil {
		return nil, err
	}
	if !adj.Status.CanTransitionTo(inventory.AdjustmentStatusApproved) {
		return nil, shared.ErrInvalidState
	}

	if err := s.applyApproval(ctx, adj, cmd.ReviewerID, cmd.Note); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, adj)

	return adj, nil
}

// applyApproval applies the delta, writes the ledger entry and persists the
// adjustment, all in one transaction. The stock mutation is the atomic
// conditional update, so a concurrent withdrawal cannot be lost and a
// stale availability snapshot cannot drive stock negative.
func (s *AdjustmentService) applyApproval(ctx context.Context, adj *inventory.StockAdjustment, reviewerID uuid.UUID, note string) error {
	return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var (
			updated *inventory.StockItem
			err     error
		)
		if adj.AdjustmentType == inventory.AdjustmentDecrease {
			updated, err = repos.StockItemRepo().TryWithdraw(ctx, adj.StockItemID, adj.Quantity)
		} else {
			updated, err = repos.StockItemRepo().Deposit(ctx, adj.StockItemID, adj.Quantity)
		}
		if err != nil {
			return err
		}

		before := updated.Quantity.Sub(adj.SignedDelta())
		if err := adj.Approve(reviewerID, before, updated.Quantity, note); err != nil {
			return err
		}

		movement, err := inventory.NewStockMovement(
			updated,
			adj.MovementType(),
			adj.Quantity,
			updated.Quantity,
			inventory.AdjustmentRef(adj.ID),
			reviewerID,
		)
		if err != nil {
			return err
		}
		if err := repos.MovementRepo().Append(ctx, movement); err != nil {
			return err
		}

		return repos.AdjustmentRepo().Save(ctx, adj)
	})
}

// Reject declines a pending adjustment without touching stock
func (s *AdjustmentService) Reject(ctx context.Context, cmd ReviewAdjustmentCommand) (*inventory.StockAdjustment, error) {
	adj, err := s.adjustmentRepo.FindByID(ctx, cmd.AdjustmentID)
	if err != nil {
		return nil, err
	}
	if err := adj.Reject(cmd.ReviewerID, cmd.Note); err != nil {
		return nil, err
	}
	if err := s.adjustmentRepo.SaveWithLock(ctx, adj); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, adj)

	return adj, nil
}

// Delete removes an adjustment that is still pending
func (s *AdjustmentService) Delete(ctx context.Context, id uuid.UUID) error {
	adj, err := s.adjustmentRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !adj.CanDelete() {
		return shared.ErrInvalidState
	}
	return s.adjustmentRepo.Delete(ctx, id)
}

// Get returns one adjustment by ID
func (s *AdjustmentService) Get(ctx context.Context, id uuid.UUID) (*inventory.StockAdjustment, error) {
	return s.adjustmentRepo.FindByID(ctx, id)
}

// List returns adjustments matching the filter with pagination
func (s *AdjustmentService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[inventory.StockAdjustment], error) {
	adjustments, err := s.adjustmentRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.adjustmentRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	result := shared.NewPaginated(adjustments, total, filter.Page, filter.PageSize)
	return &result, nil
}

func (s *AdjustmentService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
	if s.eventPublisher == nil {
		return
	}
	events := aggregate.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	// Event delivery is best effort; the state change is already committed
	_ = s.eventPublisher.Publish(ctx, events...)
	aggregate.ClearDomainEvents()
}
