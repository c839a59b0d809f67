package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/inventory"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTransferFixture() (*TransferService, *MockStockTransferRepository, *MockStockItemRepository, *MockStockMovementRepository) {
	transferRepo := new(MockStockTransferRepository)
	stockItemRepo := new(MockStockItemRepository)
	movementRepo := new(MockStockMovementRepository)
	adjustmentRepo := new(MockStockAdjustmentRepository)

	scope := newTestScope(stockItemRepo, movementRepo, adjustmentRepo, transferRepo)
	service := NewTransferService(transferRepo, scope)

	return service, transferRepo, stockItemRepo, movementRepo
}

func createApprovedTransfer(t *testing.T, productID uuid.UUID, quantity decimal.Decimal) *inventory.StockTransfer {
	t.Helper()
	transfer, err := inventory.NewStockTransfer(uuid.New(), uuid.New(), uuid.New(), "restock")
	require.NoError(t, err)
	require.NoError(t, transfer.AddLine(productID, quantity))
	require.NoError(t, transfer.Submit())
	require.NoError(t, transfer.Approve(uuid.New()))
	return transfer
}

func createInTransitTransfer(t *testing.T, productID uuid.UUID, quantity decimal.Decimal) *inventory.StockTransfer {
	t.Helper()
	transfer := createApprovedTransfer(t, productID, quantity)
	require.NoError(t, transfer.MarkShipped())
	return transfer
}

func TestTransferService_Create(t *testing.T) {
	ctx := context.Background()
	service, transferRepo, _, _ := newTransferFixture()

	transferRepo.On("Save", ctx, mock.AnythingOfType("*inventory.StockTransfer")).Return(nil).Once()

	transfer, err := service.Create(ctx, CreateTransferCommand{
		FromLocationID: uuid.New(),
		ToLocationID:   uuid.New(),
		Lines:          []TransferLineInput{{ProductID: uuid.New(), Quantity: decimal.NewFromInt(5)}},
		Note:           "restock shelf A",
		Submit:         true,
		ActorID:        uuid.New(),
	})

	require.NoError(t, err)
	assert.Equal(t, inventory.TransferStatusPending, transfer.Status)
	assert.Len(t, transfer.Lines, 1)
	transferRepo.AssertExpectations(t)
}

func TestTransferService_Ship(t *testing.T) {
	ctx := context.Background()
	actorID := uuid.New()
	productID := uuid.New()

	t.Run("withdraws each line and moves to in_transit", func(t *testing.T) {
		service, transferRepo, stockItemRepo, movementRepo := newTransferFixture()

		transfer := createApprovedTransfer(t, productID, decimal.NewFromInt(5))
		sourceItem := createTestStockItem(decimal.NewFromInt(20), decimal.Zero)
		withdrawn := createTestStockItem(decimal.NewFromInt(15), decimal.Zero)
		withdrawn.ID = sourceItem.ID

		transferRepo.On("FindByID", ctx, transfer.ID).Return(transfer, nil).Once()
		stockItemRepo.On("FindByLocationAndProduct", ctx, transfer.FromLocationID, productID).Return(sourceItem, nil).Once()
		stockItemRepo.On("TryWithdraw", ctx, sourceItem.ID, decimal.NewFromInt(5)).Return(withdrawn, nil).Once()
		movementRepo.On("Append", ctx, mock.MatchedBy(func(m *inventory.StockMovement) bool {
			return m.MovementType == inventory.MovementTransferOut &&
				m.Quantity.Equal(decimal.NewFromInt(5)) &&
				m.BalanceAfter.Equal(decimal.NewFromInt(15)) &&
				m.FromLocationID != nil && *m.FromLocationID == transfer.FromLocationID &&
				m.ToLocationID != nil && *m.ToLocationID == transfer.ToLocationID
		})).Return(nil).Once()
		transferRepo.On("SaveWithLock", ctx, transfer).Return(nil).Once()

		result, err := service.Ship(ctx, transfer.ID, actorID)

		require.NoError(t, err)
		assert.Equal(t, inventory.TransferStatusInTransit, result.Status)
		assert.True(t, result.Lines[0].QuantitySent.Equal(decimal.NewFromInt(5)))
		movementRepo.AssertExpectations(t)
	})

	t.Run("insufficient stock aborts the whole batch", func(t *testing.T) {
		service, transferRepo, stockItemRepo, movementRepo := newTransferFixture()

		transfer := createApprovedTransfer(t, productID, decimal.NewFromInt(50))
		sourceItem := createTestStockItem(decimal.NewFromInt(20), decimal.Zero)

		transferRepo.On("FindByID", ctx, transfer.ID).Return(transfer, nil).Once()
		stockItemRepo.On("FindByLocationAndProduct", ctx, transfer.FromLocationID, productID).Return(sourceItem, nil).Once()
		stockItemRepo.On("TryWithdraw", ctx, sourceItem.ID, decimal.NewFromInt(50)).Return(nil, shared.ErrInsufficientStock).Once()

		result, err := service.Ship(ctx, transfer.ID, actorID)

		assert.Nil(t, result)
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		movementRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
		transferRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("missing source stock record means insufficient stock", func(t *testing.T) {
		service, transferRepo, stockItemRepo, _ := newTransferFixture()

		transfer := createApprovedTransfer(t, productID, decimal.NewFromInt(5))

		transferRepo.On("FindByID", ctx, transfer.ID).Return(transfer, nil).Once()
		stockItemRepo.On("FindByLocationAndProduct", ctx, transfer.FromLocationID, productID).Return(nil, shared.ErrNotFound).Once()

		_, err := service.Ship(ctx, transfer.ID, actorID)
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
	})

	t.Run("shipping a draft fails", func(t *testing.T) {
		service, transferRepo, _, _ := newTransferFixture()

		transfer, err := inventory.NewStockTransfer(uuid.New(), uuid.New(), uuid.New(), "")
		require.NoError(t, err)
		require.NoError(t, transfer.AddLine(productID, decimal.NewFromInt(5)))

		transferRepo.On("FindByID", ctx, transfer.ID).Return(transfer, nil).Once()

		_, err = service.Ship(ctx, transfer.ID, actorID)
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
	})
}

func TestTransferService_Receive(t *testing.T) {
	ctx := context.Background()
	actorID := uuid.New()
	productID := uuid.New()

	t.Run("full receive deposits into destination", func(t *testing.T) {
		service, transferRepo, stockItemRepo, movementRepo := newTransferFixture()

		transfer := createInTransitTransfer(t, productID, decimal.NewFromInt(5))
		destItem := createTestStockItem(decimal.Zero, decimal.Zero)
		deposited := createTestStockItem(decimal.NewFromInt(5), decimal.Zero)
		deposited.ID = destItem.ID

		transferRepo.On("FindByID", ctx, transfer.ID).Return(transfer, nil).Once()
		stockItemRepo.On("GetOrCreate", ctx, transfer.ToLocationID, productID).Return(destItem, nil).Once()
		stockItemRepo.On("Deposit", ctx, destItem.ID, decimal.NewFromInt(5)).Return(deposited, nil).Once()
		movementRepo.On("Append", ctx, mock.MatchedBy(func(m *inventory.StockMovement) bool {
			return m.MovementType == inventory.MovementTransferIn && m.Quantity.Equal(decimal.NewFromInt(5))
		})).Return(nil).Once()
		transferRepo.On("SaveWithLock", ctx, transfer).Return(nil).Once()

		result, err := service.Receive(ctx, transfer.ID, []ReceiveTransferLineInput{
			{ProductID: productID, Quantity: decimal.NewFromInt(5)},
		}, actorID, "")

		require.NoError(t, err)
		assert.Equal(t, inventory.TransferStatusReceived, result.Status)
		assert.NotNil(t, result.CompletedAt)
	})

	t.Run("partial receive leaves the transfer open", func(t *testing.T) {
		service, transferRepo, stockItemRepo, movementRepo := newTransferFixture()

		transfer := createInTransitTransfer(t, productID, decimal.NewFromInt(10))
		destItem := createTestStockItem(decimal.Zero, decimal.Zero)
		deposited := createTestStockItem(decimal.NewFromInt(4), decimal.Zero)
		deposited.ID = destItem.ID

		transferRepo.On("FindByID", ctx, transfer.ID).Return(transfer, nil).Once()
		stockItemRepo.On("GetOrCreate", ctx, transfer.ToLocationID, productID).Return(destItem, nil).Once()
		stockItemRepo.On("Deposit", ctx, destItem.ID, decimal.NewFromInt(4)).Return(deposited, nil).Once()
		movementRepo.On("Append", ctx, mock.AnythingOfType("*inventory.StockMovement")).Return(nil).Once()
		transferRepo.On("SaveWithLock", ctx, transfer).Return(nil).Once()

		result, err := service.Receive(ctx, transfer.ID, []ReceiveTransferLineInput{
			{ProductID: productID, Quantity: decimal.NewFromInt(4)},
		}, actorID, "")

		require.NoError(t, err)
		assert.Equal(t, inventory.TransferStatusPartiallyReceived, result.Status)
		assert.True(t, result.Lines[0].RemainingToReceive().Equal(decimal.NewFromInt(6)))
	})

	t.Run("over-receive is capped at the shipped quantity", func(t *testing.T) {
		service, transferRepo, stockItemRepo, movementRepo := newTransferFixture()

		transfer := createInTransitTransfer(t, productID, decimal.NewFromInt(5))
		destItem := createTestStockItem(decimal.Zero, decimal.Zero)
		deposited := createTestStockItem(decimal.NewFromInt(5), decimal.Zero)
		deposited.ID = destItem.ID

		transferRepo.On("FindByID", ctx, transfer.ID).Return(transfer, nil).Once()
		stockItemRepo.On("GetOrCreate", ctx, transfer.ToLocationID, productID).Return(destItem, nil).Once()
		// only the 5 actually shipped may be deposited
		stockItemRepo.On("Deposit", ctx, destItem.ID, decimal.NewFromInt(5)).Return(deposited, nil).Once()
		movementRepo.On("Append", ctx, mock.AnythingOfType("*inventory.StockMovement")).Return(nil).Once()
		transferRepo.On("SaveWithLock", ctx, transfer).Return(nil).Once()

		result, err := service.Receive(ctx, transfer.ID, []ReceiveTransferLineInput{
			{ProductID: productID, Quantity: decimal.NewFromInt(9)},
		}, actorID, "")

		require.NoError(t, err)
		assert.Equal(t, inventory.TransferStatusReceived, result.Status)
	})

	t.Run("replaying a settled line reports a duplicate receipt", func(t *testing.T) {
		service, transferRepo, stockItemRepo, _ := newTransferFixture()

		otherProductID := uuid.New()
		transfer, err := inventory.NewStockTransfer(uuid.New(), uuid.New(), uuid.New(), "")
		require.NoError(t, err)
		require.NoError(t, transfer.AddLine(productID, decimal.NewFromInt(5)))
		require.NoError(t, transfer.AddLine(otherProductID, decimal.NewFromInt(3)))
		require.NoError(t, transfer.Submit())
		require.NoError(t, transfer.Approve(uuid.New()))
		require.NoError(t, transfer.MarkShipped())

		// first line already fully received in an earlier batch
		_, err = transfer.ReceiveLine(productID, decimal.NewFromInt(5))
		require.NoError(t, err)
		require.NoError(t, transfer.FinalizeReceive())
		require.Equal(t, inventory.TransferStatusPartiallyReceived, transfer.Status)

		transferRepo.On("FindByID", ctx, transfer.ID).Return(transfer, nil).Once()

		result, err := service.Receive(ctx, transfer.ID, []ReceiveTransferLineInput{
			{ProductID: productID, Quantity: decimal.NewFromInt(5)},
		}, actorID, "")

		assert.Nil(t, result)
		assert.True(t, errors.Is(err, shared.ErrDuplicateReceipt))
		stockItemRepo.AssertNotCalled(t, "Deposit", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("idempotency key short-circuits replays", func(t *testing.T) {
		service, transferRepo, _, _ := newTransferFixture()

		store := new(MockIdempotencyStore)
		service.SetIdempotencyStore(store, time.Hour)

		store.On("MarkProcessed", ctx, "transfer:receive:req-42", time.Hour).Return(false, nil).Once()

		result, err := service.Receive(ctx, uuid.New(), []ReceiveTransferLineInput{
			{ProductID: productID, Quantity: decimal.NewFromInt(1)},
		}, actorID, "req-42")

		assert.Nil(t, result)
		assert.True(t, errors.Is(err, shared.ErrDuplicateReceipt))
		transferRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
		store.AssertExpectations(t)
	})

	t.Run("failed receive releases the key for a retry", func(t *testing.T) {
		service, transferRepo, _, _ := newTransferFixture()
		transfer := createApprovedTransfer(t, productID, decimal.NewFromInt(3))

		store := new(MockIdempotencyStore)
		service.SetIdempotencyStore(store, time.Hour)

		store.On("MarkProcessed", ctx, "transfer:receive:req-43", time.Hour).Return(true, nil).Once()
		// Receiving a transfer that was never shipped fails inside the
		// transaction; the key must not stay burned.
		transferRepo.On("FindByID", ctx, transfer.ID).Return(transfer, nil).Once()
		store.On("Release", ctx, "transfer:receive:req-43").Return(nil).Once()

		result, err := service.Receive(ctx, transfer.ID, []ReceiveTransferLineInput{
			{ProductID: productID, Quantity: decimal.NewFromInt(1)},
		}, actorID, "req-43")

		assert.Nil(t, result)
		require.Error(t, err)
		assert.False(t, errors.Is(err, shared.ErrDuplicateReceipt))
		store.AssertExpectations(t)
	})

	t.Run("empty batch is rejected", func(t *testing.T) {
		service, _, _, _ := newTransferFixture()

		_, err := service.Receive(ctx, uuid.New(), nil, actorID, "")
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "EMPTY_RECEIVE", domainErr.Code)
	})
}

func TestTransferService_Cancel(t *testing.T) {
	ctx := context.Background()
	actorID := uuid.New()
	productID := uuid.New()

	t.Run("cancel before shipping reverses nothing", func(t *testing.T) {
		service, transferRepo, stockItemRepo, movementRepo := newTransferFixture()

		transfer := createApprovedTransfer(t, productID, decimal.NewFromInt(5))

		transferRepo.On("FindByID", ctx, transfer.ID).Return(transfer, nil).Once()
		transferRepo.On("SaveWithLock", ctx, transfer).Return(nil).Once()

		result, err := service.Cancel(ctx, transfer.ID, actorID, "not needed")

		require.NoError(t, err)
		assert.Equal(t, inventory.TransferStatusCancelled, result.Status)
		stockItemRepo.AssertNotCalled(t, "Deposit", mock.Anything, mock.Anything, mock.Anything)
		movementRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("cancel in transit reverses outstanding stock into the source", func(t *testing.T) {
		service, transferRepo, stockItemRepo, movementRepo := newTransferFixture()

		transfer := createInTransitTransfer(t, productID, decimal.NewFromInt(8))
		// 3 of 8 already arrived; cancelling must bring 5 back
		_, err := transfer.ReceiveLine(productID, decimal.NewFromInt(3))
		require.NoError(t, err)

		sourceItem := createTestStockItem(decimal.NewFromInt(12), decimal.Zero)
		restored := createTestStockItem(decimal.NewFromInt(17), decimal.Zero)
		restored.ID = sourceItem.ID

		transferRepo.On("FindByID", ctx, transfer.ID).Return(transfer, nil).Once()
		stockItemRepo.On("GetOrCreate", ctx, transfer.FromLocationID, productID).Return(sourceItem, nil).Once()
		stockItemRepo.On("Deposit", ctx, sourceItem.ID, decimal.NewFromInt(5)).Return(restored, nil).Once()
		movementRepo.On("Append", ctx, mock.MatchedBy(func(m *inventory.StockMovement) bool {
			return m.MovementType == inventory.MovementTransferReversal &&
				m.Quantity.Equal(decimal.NewFromInt(5)) &&
				m.Reference.Type == inventory.ReferenceStockTransfer &&
				m.Reference.ID == transfer.ID &&
				m.FromLocationID != nil && *m.FromLocationID == transfer.ToLocationID &&
				m.ToLocationID != nil && *m.ToLocationID == transfer.FromLocationID
		})).Return(nil).Once()
		transferRepo.On("SaveWithLock", ctx, transfer).Return(nil).Once()

		result, err := service.Cancel(ctx, transfer.ID, actorID, "truck turned around")

		require.NoError(t, err)
		assert.Equal(t, inventory.TransferStatusCancelled, result.Status)
		movementRepo.AssertExpectations(t)
	})

	t.Run("received transfer cannot be cancelled", func(t *testing.T) {
		service, transferRepo, _, _ := newTransferFixture()

		transfer := createInTransitTransfer(t, productID, decimal.NewFromInt(5))
		_, err := transfer.ReceiveLine(productID, decimal.NewFromInt(5))
		require.NoError(t, err)
		require.NoError(t, transfer.FinalizeReceive())

		transferRepo.On("FindByID", ctx, transfer.ID).Return(transfer, nil).Once()

		_, err = service.Cancel(ctx, transfer.ID, actorID, "too late")
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
	})
}

func TestTransferService_Delete(t *testing.T) {
	ctx := context.Background()
	service, transferRepo, _, _ := newTransferFixture()

	transfer, err := inventory.NewStockTransfer(uuid.New(), uuid.New(), uuid.New(), "")
	require.NoError(t, err)
	require.NoError(t, transfer.AddLine(uuid.New(), decimal.NewFromInt(1)))
	require.NoError(t, transfer.Submit())

	transferRepo.On("FindByID", ctx, transfer.ID).Return(transfer, nil).Once()

	err = service.Delete(ctx, transfer.ID)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
	transferRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
