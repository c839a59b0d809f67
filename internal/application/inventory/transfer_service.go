package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/inventory"
	"github.com/stockledger/backend/internal/domain/shared"
)

// TransferLineInput is one product position for a new transfer
type TransferLineInput struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
}

// CreateTransferCommand carries the input for a new transfer
type CreateTransferCommand struct {
	FromLocationID uuid.UUID
	ToLocationID   uuid.UUID
	Lines          []TransferLineInput
	Note           string
	Submit         bool
	ActorID        uuid.UUID
}

// ReceiveTransferLineInput is one received line in a receive batch
type ReceiveTransferLineInput struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
}

// TransferService orchestrates the transfer workflow. Shipping and
// receiving each run inside one transaction scope covering every line, the
// stock mutations and the ledger entries, so a mid-batch failure leaves
// nothing half applied.
type TransferService struct {
	transferRepo     inventory.StockTransferRepository
	txScope          TransactionScope
	idempotencyStore shared.IdempotencyStore
	idempotencyTTL   time.Duration
	eventPublisher   shared.EventPublisher
}

// NewTransferService creates a new TransferService
func NewTransferService(
	transferRepo inventory.StockTransferRepository,
	txScope TransactionScope,
) *TransferService {
	return &TransferService{
		transferRepo:   transferRepo,
		txScope:        txScope,
		idempotencyTTL: shared.DefaultIdempotencyConfig().TTL,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *TransferService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetIdempotencyStore enables replay protection for receive calls
func (s *TransferService) SetIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) {
	s.idempotencyStore = store
	if ttl > 0 {
		s.idempotencyTTL = ttl
	}
}

// Create builds a draft transfer with its lines, optionally submitting it
// for approval in the same call
func (s *TransferService) Create(ctx context.Context, cmd CreateTransferCommand) (*inventory.StockTransfer, error) {
	transfer, err := inventory.NewStockTransfer(cmd.FromLocationID, cmd.ToLocationID, cmd.ActorID, cmd.Note)
	if err != nil {
		return nil, err
	}
	for _, line := range cmd.Lines {
		if err := transfer.AddLine(line.ProductID, line.Quantity); err != nil {
			return nil, err
		}
	}
	if cmd.Submit {
		if err := transfer.Submit(); err != nil {
			return nil, err
		}
	}
	if err := s.transferRepo.Save(ctx, transfer); err != nil {
		return nil, err
	}
	return transfer, nil
}

// Submit moves a draft transfer to pending
func (s *TransferService) Submit(ctx context.Context, id uuid.UUID) (*inventory.StockTransfer, error) {
	transfer, err := s.transferRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := transfer.Submit(); err != nil {
		return nil, err
	}
	if err := s.transferRepo.SaveWithLock(ctx, transfer); err != nil {
		return nil, err
	}
	return transfer, nil
}

// Approve authorizes a pending transfer. No stock moves.
func (s *TransferService) Approve(ctx context.Context, id, approverID uuid.UUID) (*inventory.StockTransfer, error) {
	transfer, err := s.transferRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := transfer.Approve(approverID); err != nil {
		return nil, err
	}
	if err := s.transferRepo.SaveWithLock(ctx, transfer); err != nil {
		return nil, err
	}
	return transfer, nil
}

// Ship withdraws every line from the source location and moves the
// transfer to in_transit. The whole batch runs in one transaction: if any
// line has insufficient stock the entire ship rolls back and the caller
// must retry after restocking.
func (s *TransferService) Ship(ctx context.Context, id, actorID uuid.UUID) (*inventory.StockTransfer, error) {
	var transfer *inventory.StockTransfer

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		transfer, err = repos.TransferRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !transfer.Status.CanTransitionTo(inventory.TransferStatusInTransit) {
			return shared.ErrInvalidState
		}

		for _, line := range transfer.Lines {
			item, err := repos.StockItemRepo().FindByLocationAndProduct(ctx, transfer.FromLocationID, line.ProductID)
			if err != nil {
				if err == shared.ErrNotFound {
					return shared.ErrInsufficientStock
				}
				return err
			}

			updated, err := repos.StockItemRepo().TryWithdraw(ctx, item.ID, line.QuantityRequested)
			if err != nil {
				return err
			}

			movement, err := inventory.NewStockMovement(
				updated,
				inventory.MovementTransferOut,
				line.QuantityRequested,
				updated.Quantity,
				inventory.TransferRef(transfer.ID),
				actorID,
			)
			if err != nil {
				return err
			}
			movement.WithLocations(&transfer.FromLocationID, &transfer.ToLocationID)
			if err := repos.MovementRepo().Append(ctx, movement); err != nil {
				return err
			}

			s.notifyLowStock(ctx, updated)
		}

		if err := transfer.MarkShipped(); err != nil {
			return err
		}
		return repos.TransferRepo().SaveWithLock(ctx, transfer)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, transfer)

	return transfer, nil
}

// Receive deposits arrived lines into the destination location. Accepted
// quantities are capped at each line's remaining-to-receive balance, and
// an optional idempotency key short-circuits exact replays of the same
// receive call.
func (s *TransferService) Receive(ctx context.Context, id uuid.UUID, lines []ReceiveTransferLineInput, actorID uuid.UUID, idempotencyKey string) (*inventory.StockTransfer, error) {
	if len(lines) == 0 {
		return nil, shared.NewDomainError("EMPTY_RECEIVE", "Receive batch has no lines")
	}

	storeKey := "transfer:receive:" + idempotencyKey
	if s.idempotencyStore != nil && idempotencyKey != "" {
		fresh, err := s.idempotencyStore.MarkProcessed(ctx, storeKey, s.idempotencyTTL)
		if err != nil {
			return nil, err
		}
		if !fresh {
			return nil, shared.ErrDuplicateReceipt
		}
	}

	var transfer *inventory.StockTransfer

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		transfer, err = repos.TransferRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}

		for _, line := range lines {
			accepted, err := transfer.ReceiveLine(line.ProductID, line.Quantity)
			if err != nil {
				return err
			}

			destItem, err := repos.StockItemRepo().GetOrCreate(ctx, transfer.ToLocationID, line.ProductID)
			if err != nil {
				return err
			}
			updated, err := repos.StockItemRepo().Deposit(ctx, destItem.ID, accepted)
			if err != nil {
				return err
			}

			movement, err := inventory.NewStockMovement(
				updated,
				inventory.MovementTransferIn,
				accepted,
				updated.Quantity,
				inventory.TransferRef(transfer.ID),
				actorID,
			)
			if err != nil {
				return err
			}
			movement.WithLocations(&transfer.FromLocationID, &transfer.ToLocationID)
			if err := repos.MovementRepo().Append(ctx, movement); err != nil {
				return err
			}
		}

		if err := transfer.FinalizeReceive(); err != nil {
			return err
		}
		return repos.TransferRepo().SaveWithLock(ctx, transfer)
	})
	if err != nil {
		// Nothing was applied, so give the key back for a retry.
		if s.idempotencyStore != nil && idempotencyKey != "" {
			_ = s.idempotencyStore.Release(ctx, storeKey)
		}
		return nil, err
	}

	s.publishEvents(ctx, transfer)

	return transfer, nil
}

// Cancel aborts a transfer. If goods are already in transit, the
// outstanding shipped quantities are deposited back into the source
// location with transfer_reversal ledger entries referencing this
// transfer, so the ledger stays reconcilable by reference.
func (s *TransferService) Cancel(ctx context.Context, id, actorID uuid.UUID, reason string) (*inventory.StockTransfer, error) {
	var transfer *inventory.StockTransfer

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		transfer, err = repos.TransferRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}

		shipped := transfer.ShippedAt != nil
		outstanding := transfer.OutstandingLines()

		if err := transfer.Cancel(reason); err != nil {
			return err
		}

		if shipped {
			for productID, quantity := range outstanding {
				srcItem, err := repos.StockItemRepo().GetOrCreate(ctx, transfer.FromLocationID, productID)
				if err != nil {
					return err
				}
				updated, err := repos.StockItemRepo().Deposit(ctx, srcItem.ID, quantity)
				if err != nil {
					return err
				}

				movement, err := inventory.NewStockMovement(
					updated,
					inventory.MovementTransferReversal,
					quantity,
					updated.Quantity,
					inventory.TransferRef(transfer.ID),
					actorID,
				)
				if err != nil {
					return err
				}
				movement.WithLocations(&transfer.ToLocationID, &transfer.FromLocationID)
				if err := repos.MovementRepo().Append(ctx, movement); err != nil {
					return err
				}
			}
		}

		return repos.TransferRepo().SaveWithLock(ctx, transfer)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, transfer)

	return transfer, nil
}

// Get returns one transfer with its lines
func (s *TransferService) Get(ctx context.Context, id uuid.UUID) (*inventory.StockTransfer, error) {
	return s.transferRepo.FindByID(ctx, id)
}

// List returns transfers matching the filter with pagination
func (s *TransferService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[inventory.StockTransfer], error) {
	transfers, err := s.transferRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.transferRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	result := shared.NewPaginated(transfers, total, filter.Page, filter.PageSize)
	return &result, nil
}

// Delete removes a transfer that is still a draft
func (s *TransferService) Delete(ctx context.Context, id uuid.UUID) error {
	transfer, err := s.transferRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if transfer.Status != inventory.TransferStatusDraft {
		return shared.ErrInvalidState
	}
	return s.transferRepo.Delete(ctx, id)
}

func (s *TransferService) notifyLowStock(ctx context.Context, item *inventory.StockItem) {
	if s.eventPublisher == nil || !item.IsBelowThreshold() {
		return
	}
	_ = s.eventPublisher.Publish(ctx, inventory.NewStockBelowThresholdEvent(item))
}

func (s *TransferService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
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
