package inventory

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStockItem(t *testing.T) *StockItem {
	t.Helper()
	item, err := NewStockItem(uuid.New(), uuid.New())
	require.NoError(t, err)
	return item
}

func TestNewStockItem(t *testing.T) {
	locationID := uuid.New()
	productID := uuid.New()

	t.Run("creates stock item successfully", func(t *testing.T) {
		item, err := NewStockItem(locationID, productID)

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, item.ID)
		assert.Equal(t, locationID, item.LocationID)
		assert.Equal(t, productID, item.ProductID)
		assert.True(t, item.Quantity.IsZero())
		assert.True(t, item.ReservedQuantity.IsZero())
		assert.True(t, item.AvailableQuantity.IsZero())
	})

	t.Run("fails with nil location ID", func(t *testing.T) {
		item, err := NewStockItem(uuid.Nil, productID)

		require.Error(t, err)
		assert.Nil(t, item)
		assert.Contains(t, err.Error(), "Location ID")
	})

	t.Run("fails with nil product ID", func(t *testing.T) {
		item, err := NewStockItem(locationID, uuid.Nil)

		require.Error(t, err)
		assert.Nil(t, item)
		assert.Contains(t, err.Error(), "Product ID")
	})
}

func TestStockItem_Receive(t *testing.T) {
	t.Run("increases on-hand and available", func(t *testing.T) {
		item := createTestStockItem(t)

		err := item.Receive(decimal.NewFromInt(10))

		require.NoError(t, err)
		assert.Equal(t, decimal.NewFromInt(10), item.Quantity)
		assert.Equal(t, decimal.NewFromInt(10), item.AvailableQuantity)
		assert.True(t, item.ReservedQuantity.IsZero())
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		item := createTestStockItem(t)

		err := item.Receive(decimal.Zero)

		require.Error(t, err)
		assert.True(t, item.Quantity.IsZero())
	})
}

func TestStockItem_Withdraw(t *testing.T) {
	t.Run("decreases on-hand and available", func(t *testing.T) {
		item := createTestStockItem(t)
		require.NoError(t, item.Receive(decimal.NewFromInt(10)))

		err := item.Withdraw(decimal.NewFromInt(4))

		require.NoError(t, err)
		assert.Equal(t, decimal.NewFromInt(6), item.Quantity)
		assert.Equal(t, decimal.NewFromInt(6), item.AvailableQuantity)
	})

	t.Run("fails with insufficient stock and leaves state unchanged", func(t *testing.T) {
		item := createTestStockItem(t)
		require.NoError(t, item.Receive(decimal.NewFromInt(10)))

		err := item.Withdraw(decimal.NewFromInt(15))

		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock) || err == shared.ErrInsufficientStock)
		assert.Equal(t, decimal.NewFromInt(10), item.Quantity)
	})

	t.Run("cannot withdraw reserved stock", func(t *testing.T) {
		item := createTestStockItem(t)
		require.NoError(t, item.Receive(decimal.NewFromInt(10)))
		require.NoError(t, item.Reserve(decimal.NewFromInt(8)))

		err := item.Withdraw(decimal.NewFromInt(5))

		require.Error(t, err)
		assert.Equal(t, decimal.NewFromInt(10), item.Quantity)
	})

	t.Run("emits low stock event below threshold", func(t *testing.T) {
		item := createTestStockItem(t)
		require.NoError(t, item.Receive(decimal.NewFromInt(10)))
		require.NoError(t, item.SetMinQuantity(decimal.NewFromInt(5)))
		item.ClearDomainEvents()

		require.NoError(t, item.Withdraw(decimal.NewFromInt(7)))

		events := item.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeStockBelowThreshold, events[0].EventType())
	})
}

func TestStockItem_ReserveAndRelease(t *testing.T) {
	t.Run("reserve moves quantity out of available only", func(t *testing.T) {
		item := createTestStockItem(t)
		require.NoError(t, item.Receive(decimal.NewFromInt(10)))

		err := item.Reserve(decimal.NewFromInt(3))

		require.NoError(t, err)
		assert.Equal(t, decimal.NewFromInt(10), item.Quantity)
		assert.Equal(t, decimal.NewFromInt(3), item.ReservedQuantity)
		assert.Equal(t, decimal.NewFromInt(7), item.AvailableQuantity)
	})

	t.Run("reserve fails beyond availability", func(t *testing.T) {
		item := createTestStockItem(t)
		require.NoError(t, item.Receive(decimal.NewFromInt(2)))

		err := item.Reserve(decimal.NewFromInt(3))

		require.Error(t, err)
		assert.True(t, item.ReservedQuantity.IsZero())
	})

	t.Run("release restores availability", func(t *testing.T) {
		item := createTestStockItem(t)
		require.NoError(t, item.Receive(decimal.NewFromInt(10)))
		require.NoError(t, item.Reserve(decimal.NewFromInt(3)))

		err := item.Release(decimal.NewFromInt(3))

		require.NoError(t, err)
		assert.Equal(t, decimal.NewFromInt(10), item.Quantity)
		assert.True(t, item.ReservedQuantity.IsZero())
		assert.Equal(t, decimal.NewFromInt(10), item.AvailableQuantity)
	})

	t.Run("release beyond reserved fails", func(t *testing.T) {
		item := createTestStockItem(t)
		require.NoError(t, item.Receive(decimal.NewFromInt(10)))
		require.NoError(t, item.Reserve(decimal.NewFromInt(2)))

		err := item.Release(decimal.NewFromInt(5))

		require.Error(t, err)
		assert.Equal(t, decimal.NewFromInt(2), item.ReservedQuantity)
	})
}

func TestStockItem_ConsumeReserved(t *testing.T) {
	t.Run("removes reserved quantity from on-hand", func(t *testing.T) {
		item := createTestStockItem(t)
		require.NoError(t, item.Receive(decimal.NewFromInt(10)))
		require.NoError(t, item.Reserve(decimal.NewFromInt(4)))

		err := item.ConsumeReserved(decimal.NewFromInt(4))

		require.NoError(t, err)
		assert.Equal(t, decimal.NewFromInt(6), item.Quantity)
		assert.True(t, item.ReservedQuantity.IsZero())
		assert.Equal(t, decimal.NewFromInt(6), item.AvailableQuantity)
	})

	t.Run("fails beyond reserved", func(t *testing.T) {
		item := createTestStockItem(t)
		require.NoError(t, item.Receive(decimal.NewFromInt(10)))
		require.NoError(t, item.Reserve(decimal.NewFromInt(2)))

		err := item.ConsumeReserved(decimal.NewFromInt(3))

		require.Error(t, err)
		assert.Equal(t, decimal.NewFromInt(10), item.Quantity)
	})
}

func TestStockItem_AvailableInvariant(t *testing.T) {
	// available must equal quantity minus reserved after any sequence
	item := createTestStockItem(t)
	require.NoError(t, item.Receive(decimal.NewFromInt(50)))
	require.NoError(t, item.Reserve(decimal.NewFromInt(15)))
	require.NoError(t, item.Withdraw(decimal.NewFromInt(10)))
	require.NoError(t, item.Release(decimal.NewFromInt(5)))
	require.NoError(t, item.ConsumeReserved(decimal.NewFromInt(10)))

	assert.Equal(t, item.Quantity.Sub(item.ReservedQuantity), item.AvailableQuantity)
	assert.False(t, item.Quantity.IsNegative())
	assert.False(t, item.ReservedQuantity.IsNegative())
	assert.False(t, item.AvailableQuantity.IsNegative())
}
