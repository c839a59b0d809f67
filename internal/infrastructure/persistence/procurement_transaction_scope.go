package persistence

import (
	"context"

	approc "github.com/stockledger/backend/internal/application/procurement"
	"github.com/stockledger/backend/internal/domain/inventory"
	"github.com/stockledger/backend/internal/domain/procurement"
	"gorm.io/gorm"
)

// GormProcurementTransactionScope implements the procurement
// TransactionScope using GORM transactions. Receiving a purchase order
// updates line tallies, stock quantities and the ledger atomically.
type GormProcurementTransactionScope struct {
	db *gorm.DB
}

// NewGormProcurementTransactionScope creates a new GormProcurementTransactionScope
func NewGormProcurementTransactionScope(db *gorm.DB) *GormProcurementTransactionScope {
	return &GormProcurementTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormProcurementTransactionScope) Execute(ctx context.Context, fn func(repos approc.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormProcurementRepositories{tx: tx})
	})
}

// gormProcurementRepositories provides transaction-scoped procurement repositories
type gormProcurementRepositories struct {
	tx *gorm.DB
}

func (r *gormProcurementRepositories) OrderRepo() procurement.PurchaseOrderRepository {
	return NewGormPurchaseOrderRepository(r.tx)
}

func (r *gormProcurementRepositories) StockItemRepo() inventory.StockItemRepository {
	return NewGormStockItemRepository(r.tx)
}

func (r *gormProcurementRepositories) MovementRepo() inventory.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

var _ approc.TransactionScope = (*GormProcurementTransactionScope)(nil)
var _ approc.TransactionalRepositories = (*gormProcurementRepositories)(nil)
