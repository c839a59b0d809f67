package persistence

import (
	"context"

	appasg "github.com/stockledger/backend/internal/application/assignment"
	"github.com/stockledger/backend/internal/domain/assignment"
	"github.com/stockledger/backend/internal/domain/inventory"
	"gorm.io/gorm"
)

// GormAssignmentTransactionScope implements the assignment TransactionScope
// using GORM transactions. Creating, returning or writing off an assignment
// moves reservations and appends ledger entries in one commit.
type GormAssignmentTransactionScope struct {
	db *gorm.DB
}

// NewGormAssignmentTransactionScope creates a new GormAssignmentTransactionScope
func NewGormAssignmentTransactionScope(db *gorm.DB) *GormAssignmentTransactionScope {
	return &GormAssignmentTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormAssignmentTransactionScope) Execute(ctx context.Context, fn func(repos appasg.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormAssignmentRepositories{tx: tx})
	})
}

// gormAssignmentRepositories provides transaction-scoped assignment repositories
type gormAssignmentRepositories struct {
	tx *gorm.DB
}

func (r *gormAssignmentRepositories) AssignmentRepo() assignment.AssignmentRepository {
	return NewGormAssignmentRepository(r.tx)
}

func (r *gormAssignmentRepositories) StockItemRepo() inventory.StockItemRepository {
	return NewGormStockItemRepository(r.tx)
}

func (r *gormAssignmentRepositories) MovementRepo() inventory.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

var _ appasg.TransactionScope = (*GormAssignmentTransactionScope)(nil)
var _ appasg.TransactionalRepositories = (*gormAssignmentRepositories)(nil)
