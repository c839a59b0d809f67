package assignment

import (
	"context"

	"github.com/stockledger/backend/internal/domain/assignment"
	"github.com/stockledger/backend/internal/domain/inventory"
)

// TransactionScope provides transactional access to the repositories the
// assignment workflow touches. The reservation mutation, the assignment
// row and the ledger entry commit or roll back together.
type TransactionScope interface {
	// Execute runs the given function within a database transaction
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the assignment-side
// repositories within a transaction
type TransactionalRepositories interface {
	// AssignmentRepo returns the assignment repository scoped to the current transaction
	AssignmentRepo() assignment.AssignmentRepository
	// StockItemRepo returns the stock item repository scoped to the current transaction
	StockItemRepo() inventory.StockItemRepository
	// MovementRepo returns the ledger repository scoped to the current transaction
	MovementRepo() inventory.StockMovementRepository
}

// NoOpTransactionScope runs the scope function without a real transaction
type NoOpTransactionScope struct {
	assignmentRepo assignment.AssignmentRepository
	stockItemRepo  inventory.StockItemRepository
	movementRepo   inventory.StockMovementRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(
	assignmentRepo assignment.AssignmentRepository,
	stockItemRepo inventory.StockItemRepository,
	movementRepo inventory.StockMovementRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		assignmentRepo: assignmentRepo,
		stockItemRepo:  stockItemRepo,
		movementRepo:   movementRepo,
	}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// AssignmentRepo returns the assignment repository
func (s *NoOpTransactionScope) AssignmentRepo() assignment.AssignmentRepository {
	return s.assignmentRepo
}

// StockItemRepo returns the stock item repository
func (s *NoOpTransactionScope) StockItemRepo() inventory.StockItemRepository {
	return s.stockItemRepo
}

// MovementRepo returns the ledger repository
func (s *NoOpTransactionScope) MovementRepo() inventory.StockMovementRepository {
	return s.movementRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
