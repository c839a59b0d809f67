package inventory

import (
	"context"

	"github.com/stockledger/backend/internal/domain/inventory"
)

// TransactionScope provides transactional access to the inventory
// repositories. Everything executed inside one scope commits or rolls back
// atomically: a mid-batch failure during a multi-line ship or receive must
// never leave half the lines applied.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the inventory repositories
// within a transaction. All repositories returned share the same underlying
// database transaction.
type TransactionalRepositories interface {
	// StockItemRepo returns the stock item repository scoped to the current transaction
	StockItemRepo() inventory.StockItemRepository
	// MovementRepo returns the ledger repository scoped to the current transaction
	MovementRepo() inventory.StockMovementRepository
	// AdjustmentRepo returns the adjustment repository scoped to the current transaction
	AdjustmentRepo() inventory.StockAdjustmentRepository
	// TransferRepo returns the transfer repository scoped to the current transaction
	TransferRepo() inventory.StockTransferRepository
}

// NoOpTransactionScope runs the scope function without a real transaction.
// Useful for unit tests with mocked repositories.
type NoOpTransactionScope struct {
	stockItemRepo  inventory.StockItemRepository
	movementRepo   inventory.StockMovementRepository
	adjustmentRepo inventory.StockAdjustmentRepository
	transferRepo   inventory.StockTransferRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(
	stockItemRepo inventory.StockItemRepository,
	movementRepo inventory.StockMovementRepository,
	adjustmentRepo inventory.StockAdjustmentRepository,
	transferRepo inventory.StockTransferRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		stockItemRepo:  stockItemRepo,
		movementRepo:   movementRepo,
		adjustmentRepo: adjustmentRepo,
		transferRepo:   transferRepo,
	}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// StockItemRepo returns the stock item repository
func (s *NoOpTransactionScope) StockItemRepo() inventory.StockItemRepository {
	return s.stockItemRepo
}

// MovementRepo returns the ledger repository
func (s *NoOpTransactionScope) MovementRepo() inventory.StockMovementRepository {
	return s.movementRepo
}

// AdjustmentRepo returns the adjustment repository
func (s *NoOpTransactionScope) AdjustmentRepo() inventory.StockAdjustmentRepository {
	return s.adjustmentRepo
}

// TransferRepo returns the transfer repository
func (s *NoOpTransactionScope) TransferRepo() inventory.StockTransferRepository {
	return s.transferRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
