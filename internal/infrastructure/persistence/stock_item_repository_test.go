package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockStockItemRepository creates a GormStockItemRepository with a mocked SQL connection
func newMockStockItemRepository(t *testing.T) (*GormStockItemRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormStockItemRepository(gormDB), mock, mockDB
}

func stockItemRows(id, locationID, productID uuid.UUID, quantity, reserved, available int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "location_id", "product_id",
		"quantity", "reserved_quantity", "available_quantity", "min_quantity", "version",
	}).AddRow(
		id, locationID, productID,
		decimal.NewFromInt(quantity), decimal.NewFromInt(reserved), decimal.NewFromInt(available),
		decimal.Zero, 1,
	)
}

func TestGormStockItemRepository_FindByID(t *testing.T) {
	t.Run("finds existing stock item", func(t *testing.T) {
		repo, mock, mockDB := newMockStockItemRepository(t)
		defer mockDB.Close()

		itemID := uuid.New()
		locationID := uuid.New()
		productID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "stock_items" WHERE id = \$1`).
			WithArgs(itemID, 1).
			WillReturnRows(stockItemRows(itemID, locationID, productID, 100, 10, 90))

		item, err := repo.FindByID(context.Background(), itemID)

		assert.NoError(t, err)
		require.NotNil(t, item)
		assert.Equal(t, itemID, item.ID)
		assert.Equal(t, locationID, item.LocationID)
		assert.True(t, item.AvailableQuantity.Equal(decimal.NewFromInt(90)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for missing item", func(t *testing.T) {
		repo, mock, mockDB := newMockStockItemRepository(t)
		defer mockDB.Close()

		itemID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "stock_items" WHERE id = \$1`).
			WithArgs(itemID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		item, err := repo.FindByID(context.Background(), itemID)

		assert.Nil(t, item)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockItemRepository_TryWithdraw(t *testing.T) {
	t.Run("withdraws when guard passes", func(t *testing.T) {
		repo, mock, mockDB := newMockStockItemRepository(t)
		defer mockDB.Close()

		itemID := uuid.New()
		locationID := uuid.New()
		productID := uuid.New()

		mock.ExpectExec(`UPDATE "stock_items" SET .* WHERE id = \$\d+ AND available_quantity >= \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		mock.ExpectQuery(`SELECT \* FROM "stock_items" WHERE id = \$1`).
			WithArgs(itemID, 1).
			WillReturnRows(stockItemRows(itemID, locationID, productID, 95, 10, 85))

		item, err := repo.TryWithdraw(context.Background(), itemID, decimal.NewFromInt(5))

		assert.NoError(t, err)
		require.NotNil(t, item)
		assert.True(t, item.Quantity.Equal(decimal.NewFromInt(95)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrInsufficientStock when guard fails on existing row", func(t *testing.T) {
		repo, mock, mockDB := newMockStockItemRepository(t)
		defer mockDB.Close()

		itemID := uuid.New()
		locationID := uuid.New()
		productID := uuid.New()

		// Guarded UPDATE touches no rows
		mock.ExpectExec(`UPDATE "stock_items" SET .* WHERE id = \$\d+ AND available_quantity >= \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		// Row exists, so the failure is the balance guard
		mock.ExpectQuery(`SELECT \* FROM "stock_items" WHERE id = \$1`).
			WithArgs(itemID, 1).
			WillReturnRows(stockItemRows(itemID, locationID, productID, 3, 0, 3))

		item, err := repo.TryWithdraw(context.Background(), itemID, decimal.NewFromInt(10))

		assert.Nil(t, item)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound when row does not exist", func(t *testing.T) {
		repo, mock, mockDB := newMockStockItemRepository(t)
		defer mockDB.Close()

		itemID := uuid.New()

		mock.ExpectExec(`UPDATE "stock_items" SET .* WHERE id = \$\d+ AND available_quantity >= \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		mock.ExpectQuery(`SELECT \* FROM "stock_items" WHERE id = \$1`).
			WithArgs(itemID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		item, err := repo.TryWithdraw(context.Background(), itemID, decimal.NewFromInt(10))

		assert.Nil(t, item)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects non-positive quantity without touching the database", func(t *testing.T) {
		repo, mock, mockDB := newMockStockItemRepository(t)
		defer mockDB.Close()

		item, err := repo.TryWithdraw(context.Background(), uuid.New(), decimal.Zero)

		assert.Nil(t, item)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockItemRepository_TryReserve(t *testing.T) {
	t.Run("moves stock from available to reserved", func(t *testing.T) {
		repo, mock, mockDB := newMockStockItemRepository(t)
		defer mockDB.Close()

		itemID := uuid.New()
		locationID := uuid.New()
		productID := uuid.New()

		mock.ExpectExec(`UPDATE "stock_items" SET .* WHERE id = \$\d+ AND available_quantity >= \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		mock.ExpectQuery(`SELECT \* FROM "stock_items" WHERE id = \$1`).
			WithArgs(itemID, 1).
			WillReturnRows(stockItemRows(itemID, locationID, productID, 100, 15, 85))

		item, err := repo.TryReserve(context.Background(), itemID, decimal.NewFromInt(5))

		assert.NoError(t, err)
		require.NotNil(t, item)
		// On-hand unchanged; reservation only shifts the split
		assert.True(t, item.Quantity.Equal(decimal.NewFromInt(100)))
		assert.True(t, item.ReservedQuantity.Equal(decimal.NewFromInt(15)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("fails when available is short", func(t *testing.T) {
		repo, mock, mockDB := newMockStockItemRepository(t)
		defer mockDB.Close()

		itemID := uuid.New()
		locationID := uuid.New()
		productID := uuid.New()

		mock.ExpectExec(`UPDATE "stock_items" SET .* WHERE id = \$\d+ AND available_quantity >= \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		mock.ExpectQuery(`SELECT \* FROM "stock_items" WHERE id = \$1`).
			WithArgs(itemID, 1).
			WillReturnRows(stockItemRows(itemID, locationID, productID, 10, 8, 2))

		item, err := repo.TryReserve(context.Background(), itemID, decimal.NewFromInt(5))

		assert.Nil(t, item)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockItemRepository_Release(t *testing.T) {
	t.Run("guards on reserved quantity", func(t *testing.T) {
		repo, mock, mockDB := newMockStockItemRepository(t)
		defer mockDB.Close()

		itemID := uuid.New()
		locationID := uuid.New()
		productID := uuid.New()

		mock.ExpectExec(`UPDATE "stock_items" SET .* WHERE id = \$\d+ AND reserved_quantity >= \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		mock.ExpectQuery(`SELECT \* FROM "stock_items" WHERE id = \$1`).
			WithArgs(itemID, 1).
			WillReturnRows(stockItemRows(itemID, locationID, productID, 100, 5, 95))

		item, err := repo.Release(context.Background(), itemID, decimal.NewFromInt(5))

		assert.NoError(t, err)
		require.NotNil(t, item)
		assert.True(t, item.ReservedQuantity.Equal(decimal.NewFromInt(5)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockItemRepository_ConsumeReserved(t *testing.T) {
	t.Run("writes reserved stock off the on-hand total", func(t *testing.T) {
		repo, mock, mockDB := newMockStockItemRepository(t)
		defer mockDB.Close()

		itemID := uuid.New()
		locationID := uuid.New()
		productID := uuid.New()

		mock.ExpectExec(`UPDATE "stock_items" SET .* WHERE id = \$\d+ AND reserved_quantity >= \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		mock.ExpectQuery(`SELECT \* FROM "stock_items" WHERE id = \$1`).
			WithArgs(itemID, 1).
			WillReturnRows(stockItemRows(itemID, locationID, productID, 97, 2, 95))

		item, err := repo.ConsumeReserved(context.Background(), itemID, decimal.NewFromInt(3))

		assert.NoError(t, err)
		require.NotNil(t, item)
		assert.True(t, item.Quantity.Equal(decimal.NewFromInt(97)))
		// Available untouched: the write-off only consumed held stock
		assert.True(t, item.AvailableQuantity.Equal(decimal.NewFromInt(95)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockItemRepository_Deposit(t *testing.T) {
	t.Run("adds on-hand stock without a guard", func(t *testing.T) {
		repo, mock, mockDB := newMockStockItemRepository(t)
		defer mockDB.Close()

		itemID := uuid.New()
		locationID := uuid.New()
		productID := uuid.New()

		mock.ExpectExec(`UPDATE "stock_items" SET .* WHERE id = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		mock.ExpectQuery(`SELECT \* FROM "stock_items" WHERE id = \$1`).
			WithArgs(itemID, 1).
			WillReturnRows(stockItemRows(itemID, locationID, productID, 110, 10, 100))

		item, err := repo.Deposit(context.Background(), itemID, decimal.NewFromInt(10))

		assert.NoError(t, err)
		require.NotNil(t, item)
		assert.True(t, item.Quantity.Equal(decimal.NewFromInt(110)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for missing item", func(t *testing.T) {
		repo, mock, mockDB := newMockStockItemRepository(t)
		defer mockDB.Close()

		itemID := uuid.New()

		mock.ExpectExec(`UPDATE "stock_items" SET .* WHERE id = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		mock.ExpectQuery(`SELECT \* FROM "stock_items" WHERE id = \$1`).
			WithArgs(itemID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		item, err := repo.Deposit(context.Background(), itemID, decimal.NewFromInt(10))

		assert.Nil(t, item)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockItemRepository_GetOrCreate(t *testing.T) {
	t.Run("returns existing row without creating", func(t *testing.T) {
		repo, mock, mockDB := newMockStockItemRepository(t)
		defer mockDB.Close()

		itemID := uuid.New()
		locationID := uuid.New()
		productID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "stock_items" WHERE location_id = \$1 AND product_id = \$2`).
			WithArgs(locationID, productID, 1).
			WillReturnRows(stockItemRows(itemID, locationID, productID, 50, 0, 50))

		item, err := repo.GetOrCreate(context.Background(), locationID, productID)

		assert.NoError(t, err)
		require.NotNil(t, item)
		assert.Equal(t, itemID, item.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("propagates unexpected lookup errors", func(t *testing.T) {
		repo, mock, mockDB := newMockStockItemRepository(t)
		defer mockDB.Close()

		locationID := uuid.New()
		productID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "stock_items" WHERE location_id = \$1 AND product_id = \$2`).
			WithArgs(locationID, productID, 1).
			WillReturnError(assert.AnError)

		item, err := repo.GetOrCreate(context.Background(), locationID, productID)

		assert.Nil(t, item)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
