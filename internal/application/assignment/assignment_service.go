package assignment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/assignment"
	"github.com/stockledger/backend/internal/domain/inventory"
	"github.com/stockledger/backend/internal/domain/shared"
)

// CreateAssignmentCommand carries the input for assigning stock to an employee
type CreateAssignmentCommand struct {
	StockItemID        uuid.UUID
	EmployeeID         uuid.UUID
	Quantity           decimal.Decimal
	Purpose            string
	ExpectedReturnDate *time.Time
	ActorID            uuid.UUID
}

// ReturnAssignmentCommand carries the input for a full or partial return
type ReturnAssignmentCommand struct {
	AssignmentID uuid.UUID
	Quantity     decimal.Decimal
	Note         string
	ActorID      uuid.UUID
}

// WriteOffAssignmentCommand carries the input for a lost/damaged report
type WriteOffAssignmentCommand struct {
	AssignmentID uuid.UUID
	Note         string
	ActorID      uuid.UUID
}

// AssignmentService orchestrates the assignment/return workflow. Creation
// reserves stock with a single atomic conditional update; two concurrent
// assignments can never both succeed on the last unit.
type AssignmentService struct {
	assignmentRepo assignment.AssignmentRepository
	txScope        TransactionScope
	eventPublisher shared.EventPublisher
}

// NewAssignmentService creates a new AssignmentService
func NewAssignmentService(
	assignmentRepo assignment.AssignmentRepository,
	txScope TransactionScope,
) *AssignmentService {
	return &AssignmentService{
		assignmentRepo: assignmentRepo,
		txScope:        txScope,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *AssignmentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create reserves the requested quantity and opens the assignment in one
// transaction. Fails with ErrInsufficientStock and no state change when
// availability is short.
func (s *AssignmentService) Create(ctx context.Context, cmd CreateAssignmentCommand) (*assignment.Assignment, error) {
	var created *assignment.Assignment

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		updated, err := repos.StockItemRepo().TryReserve(ctx, cmd.StockItemID, cmd.Quantity)
		if err != nil {
			return err
		}

		created, err = assignment.NewAssignment(cmd.StockItemID, cmd.EmployeeID, cmd.ActorID, cmd.Quantity, cmd.Purpose, cmd.ExpectedReturnDate)
		if err != nil {
			return err
		}

		movement, err := inventory.NewStockMovement(
			updated,
			inventory.MovementAssignment,
			cmd.Quantity,
			updated.AvailableQuantity,
			inventory.AssignmentRef(created.ID),
			cmd.ActorID,
		)
		if err != nil {
			return err
		}
		if err := repos.MovementRepo().Append(ctx, movement); err != nil {
			return err
		}

		return repos.AssignmentRepo().Save(ctx, created)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, created)

	return created, nil
}

// Acknowledge confirms the employee took the goods into use
func (s *AssignmentService) Acknowledge(ctx context.Context, id, actorID uuid.UUID) (*assignment.Assignment, error) {
	a, err := s.assignmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := a.Acknowledge(actorID); err != nil {
		return nil, err
	}
	if err := s.assignmentRepo.SaveWithLock(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Return releases the returned quantity back to availability. A full
// return closes the assignment and restores available stock to its
// pre-assignment level.
func (s *AssignmentService) Return(ctx context.Context, cmd ReturnAssignmentCommand) (*assignment.Assignment, error) {
	var a *assignment.Assignment

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		a, err = repos.AssignmentRepo().FindByID(ctx, cmd.AssignmentID)
		if err != nil {
			return err
		}

		if err := a.Return(cmd.ActorID, cmd.Quantity, cmd.Note); err != nil {
			return err
		}

		updated, err := repos.StockItemRepo().Release(ctx, a.StockItemID, cmd.Quantity)
		if err != nil {
			return err
		}

		movement, err := inventory.NewStockMovement(
			updated,
			inventory.MovementAssignmentReturn,
			cmd.Quantity,
			updated.AvailableQuantity,
			inventory.AssignmentRef(a.ID),
			cmd.ActorID,
		)
		if err != nil {
			return err
		}
		if err := repos.MovementRepo().Append(ctx, movement); err != nil {
			return err
		}

		return repos.AssignmentRepo().SaveWithLock(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, a)

	return a, nil
}

// MarkLost writes off the outstanding quantity as lost. The reserved
// stock is consumed, dropping on-hand, with a damage ledger entry.
func (s *AssignmentService) MarkLost(ctx context.Context, cmd WriteOffAssignmentCommand) (*assignment.Assignment, error) {
	return s.writeOff(ctx, cmd, func(a *assignment.Assignment) (decimal.Decimal, error) {
		return a.MarkLost(cmd.ActorID, cmd.Note)
	})
}

// MarkDamaged writes off the outstanding quantity as damaged
func (s *AssignmentService) MarkDamaged(ctx context.Context, cmd WriteOffAssignmentCommand) (*assignment.Assignment, error) {
	return s.writeOff(ctx, cmd, func(a *assignment.Assignment) (decimal.Decimal, error) {
		return a.MarkDamaged(cmd.ActorID, cmd.Note)
	})
}

func (s *AssignmentService) writeOff(ctx context.Context, cmd WriteOffAssignmentCommand, apply func(*assignment.Assignment) (decimal.Decimal, error)) (*assignment.Assignment, error) {
	var a *assignment.Assignment

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		a, err = repos.AssignmentRepo().FindByID(ctx, cmd.AssignmentID)
		if err != nil {
			return err
		}

		written, err := apply(a)
		if err != nil {
			return err
		}

		updated, err := repos.StockItemRepo().ConsumeReserved(ctx, a.StockItemID, written)
		if err != nil {
			return err
		}

		movement, err := inventory.NewStockMovement(
			updated,
			inventory.MovementDamage,
			written,
			updated.Quantity,
			inventory.AssignmentRef(a.ID),
			cmd.ActorID,
		)
		if err != nil {
			return err
		}
		movement.WithNote(cmd.Note)
		if err := repos.MovementRepo().Append(ctx, movement); err != nil {
			return err
		}

		return repos.AssignmentRepo().SaveWithLock(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, a)

	return a, nil
}

// Get returns one assignment with its history
func (s *AssignmentService) Get(ctx context.Context, id uuid.UUID) (*assignment.Assignment, error) {
	return s.assignmentRepo.FindByID(ctx, id)
}

// List returns assignments matching the filter with pagination
func (s *AssignmentService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[assignment.Assignment], error) {
	assignments, err := s.assignmentRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.assignmentRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	result := shared.NewPaginated(assignments, total, filter.Page, filter.PageSize)
	return &result, nil
}

// ListByEmployee returns assignments held by one employee
func (s *AssignmentService) ListByEmployee(ctx context.Context, employeeID uuid.UUID, filter shared.Filter) ([]assignment.Assignment, error) {
	return s.assignmentRepo.FindByEmployee(ctx, employeeID, filter)
}

func (s *AssignmentService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
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
