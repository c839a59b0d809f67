package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/inventory"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newAdjustmentFixture() (*AdjustmentService, *MockStockAdjustmentRepository, *MockStockItemRepository, *MockStockMovementRepository) {
	adjustmentRepo := new(MockStockAdjustmentRepository)
	stockItemRepo := new(MockStockItemRepository)
	movementRepo := new(MockStockMovementRepository)
	transferRepo := new(MockStockTransferRepository)

	scope := newTestScope(stockItemRepo, movementRepo, adjustmentRepo, transferRepo)
	service := NewAdjustmentService(adjustmentRepo, stockItemRepo, scope)

	return service, adjustmentRepo, stockItemRepo, movementRepo
}

func TestAdjustmentService_Create(t *testing.T) {
	ctx := context.Background()
	actorID := uuid.New()

	t.Run("pending proposal does not touch stock", func(t *testing.T) {
		service, adjustmentRepo, stockItemRepo, _ := newAdjustmentFixture()

		item := createTestStockItem(decimal.NewFromInt(10), decimal.Zero)
		stockItemRepo.On("FindByID", ctx, item.ID).Return(item, nil).Once()
		adjustmentRepo.On("Save", ctx, mock.AnythingOfType("*inventory.StockAdjustment")).Return(nil).Once()

		adj, err := service.Create(ctx, CreateAdjustmentCommand{
			StockItemID:    item.ID,
			AdjustmentType: inventory.AdjustmentDecrease,
			Quantity:       decimal.NewFromInt(4),
			Reason:         "cycle count variance",
			ActorID:        actorID,
		})

		require.NoError(t, err)
		assert.Equal(t, inventory.AdjustmentStatusPending, adj.Status)
		assert.Nil(t, adj.BeforeQuantity)
		stockItemRepo.AssertNotCalled(t, "TryWithdraw", mock.Anything, mock.Anything, mock.Anything)
		adjustmentRepo.AssertExpectations(t)
	})

	t.Run("decrease exceeding availability is rejected up front", func(t *testing.T) {
		service, adjustmentRepo, stockItemRepo, _ := newAdjustmentFixture()

		item := createTestStockItem(decimal.NewFromInt(10), decimal.Zero)
		stockItemRepo.On("FindByID", ctx, item.ID).Return(item, nil).Once()

		adj, err := service.Create(ctx, CreateAdjustmentCommand{
			StockItemID:    item.ID,
			AdjustmentType: inventory.AdjustmentDecrease,
			Quantity:       decimal.NewFromInt(15),
			Reason:         "shrinkage",
			ActorID:        actorID,
		})

		assert.Nil(t, adj)
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		adjustmentRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("reserved stock limits a decrease", func(t *testing.T) {
		service, _, stockItemRepo, _ := newAdjustmentFixture()

		// 10 on hand but 8 reserved leaves only 2 available
		item := createTestStockItem(decimal.NewFromInt(10), decimal.NewFromInt(8))
		stockItemRepo.On("FindByID", ctx, item.ID).Return(item, nil).Once()

		_, err := service.Create(ctx, CreateAdjustmentCommand{
			StockItemID:    item.ID,
			AdjustmentType: inventory.AdjustmentDecrease,
			Quantity:       decimal.NewFromInt(5),
			Reason:         "shrinkage",
			ActorID:        actorID,
		})

		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
	})

	t.Run("auto approve requires admin role", func(t *testing.T) {
		service, _, stockItemRepo, _ := newAdjustmentFixture()

		item := createTestStockItem(decimal.NewFromInt(10), decimal.Zero)
		stockItemRepo.On("FindByID", ctx, item.ID).Return(item, nil).Once()

		adj, err := service.Create(ctx, CreateAdjustmentCommand{
			StockItemID:    item.ID,
			AdjustmentType: inventory.AdjustmentIncrease,
			Quantity:       decimal.NewFromInt(3),
			Reason:         "found stock",
			AutoApprove:    true,
			ActorID:        actorID,
			ActorRole:      shared.RoleStaff,
		})

		assert.Nil(t, adj)
		assert.True(t, errors.Is(err, shared.ErrForbidden))
	})

	t.Run("admin auto approve applies the delta in one call", func(t *testing.T) {
		service, adjustmentRepo, stockItemRepo, movementRepo := newAdjustmentFixture()

		item := createTestStockItem(decimal.NewFromInt(10), decimal.Zero)
		updated := createTestStockItem(decimal.NewFromInt(13), decimal.Zero)
		updated.ID = item.ID

		stockItemRepo.On("FindByID", ctx, item.ID).Return(item, nil).Once()
		stockItemRepo.On("Deposit", ctx, item.ID, decimal.NewFromInt(3)).Return(updated, nil).Once()
		movementRepo.On("Append", ctx, mock.AnythingOfType("*inventory.StockMovement")).Return(nil).Once()
		adjustmentRepo.On("Save", ctx, mock.AnythingOfType("*inventory.StockAdjustment")).Return(nil).Once()

		adj, err := service.Create(ctx, CreateAdjustmentCommand{
			StockItemID:    item.ID,
			AdjustmentType: inventory.AdjustmentIncrease,
			Quantity:       decimal.NewFromInt(3),
			Reason:         "found stock",
			AutoApprove:    true,
			ActorID:        actorID,
			ActorRole:      shared.RoleAdmin,
		})

		require.NoError(t, err)
		assert.Equal(t, inventory.AdjustmentStatusApproved, adj.Status)
		require.NotNil(t, adj.BeforeQuantity)
		assert.True(t, adj.BeforeQuantity.Equal(decimal.NewFromInt(10)))
		assert.True(t, adj.AfterQuantity.Equal(decimal.NewFromInt(13)))
		adjustmentRepo.AssertExpectations(t)
		movementRepo.AssertExpectations(t)
	})
}

func TestAdjustmentService_Approve(t *testing.T) {
	ctx := context.Background()
	reviewerID := uuid.New()

	t.Run("approved decrease withdraws stock and writes the ledger", func(t *testing.T) {
		service, adjustmentRepo, stockItemRepo, movementRepo := newAdjustmentFixture()

		item := createTestStockItem(decimal.NewFromInt(10), decimal.Zero)
		adj, err := inventory.NewStockAdjustment(item.ID, inventory.AdjustmentDecrease, decimal.NewFromInt(4), "damaged in storage", uuid.New())
		require.NoError(t, err)

		updated := createTestStockItem(decimal.NewFromInt(6), decimal.Zero)
		updated.ID = item.ID

		adjustmentRepo.On("FindByID", ctx, adj.ID).Return(adj, nil).Once()
		stockItemRepo.On("TryWithdraw", ctx, item.ID, decimal.NewFromInt(4)).Return(updated, nil).Once()
		movementRepo.On("Append", ctx, mock.MatchedBy(func(m *inventory.StockMovement) bool {
			return m.MovementType == inventory.MovementAdjustmentDecrease &&
				m.Quantity.Equal(decimal.NewFromInt(4)) &&
				m.BalanceAfter.Equal(decimal.NewFromInt(6)) &&
				m.Reference.Type == inventory.ReferenceStockAdjustment &&
				m.Reference.ID == adj.ID
		})).Return(nil).Once()
		adjustmentRepo.On("Save", ctx, adj).Return(nil).Once()

		result, err := service.Approve(ctx, ReviewAdjustmentCommand{AdjustmentID: adj.ID, ReviewerID: reviewerID})

		require.NoError(t, err)
		assert.Equal(t, inventory.AdjustmentStatusApproved, result.Status)
		require.NotNil(t, result.BeforeQuantity)
		assert.True(t, result.BeforeQuantity.Equal(decimal.NewFromInt(10)))
		assert.True(t, result.AfterQuantity.Equal(decimal.NewFromInt(6)))
		movementRepo.AssertExpectations(t)
	})

	t.Run("insufficient stock at approval rolls back without state change", func(t *testing.T) {
		service, adjustmentRepo, stockItemRepo, movementRepo := newAdjustmentFixture()

		itemID := uuid.New()
		adj, err := inventory.NewStockAdjustment(itemID, inventory.AdjustmentDecrease, decimal.NewFromInt(15), "shrinkage", uuid.New())
		require.NoError(t, err)

		adjustmentRepo.On("FindByID", ctx, adj.ID).Return(adj, nil).Once()
		stockItemRepo.On("TryWithdraw", ctx, itemID, decimal.NewFromInt(15)).Return(nil, shared.ErrInsufficientStock).Once()

		result, err := service.Approve(ctx, ReviewAdjustmentCommand{AdjustmentID: adj.ID, ReviewerID: reviewerID})

		assert.Nil(t, result)
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		assert.Equal(t, inventory.AdjustmentStatusPending, adj.Status)
		movementRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("approving a reviewed adjustment fails", func(t *testing.T) {
		service, adjustmentRepo, _, _ := newAdjustmentFixture()

		adj, err := inventory.NewStockAdjustment(uuid.New(), inventory.AdjustmentIncrease, decimal.NewFromInt(1), "recount", uuid.New())
		require.NoError(t, err)
		require.NoError(t, adj.Reject(reviewerID, "not justified"))

		adjustmentRepo.On("FindByID", ctx, adj.ID).Return(adj, nil).Once()

		result, err := service.Approve(ctx, ReviewAdjustmentCommand{AdjustmentID: adj.ID, ReviewerID: reviewerID})

		assert.Nil(t, result)
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
	})
}

func TestAdjustmentService_Reject(t *testing.T) {
	ctx := context.Background()
	service, adjustmentRepo, stockItemRepo, _ := newAdjustmentFixture()

	adj, err := inventory.NewStockAdjustment(uuid.New(), inventory.AdjustmentDecrease, decimal.NewFromInt(5), "shrinkage", uuid.New())
	require.NoError(t, err)

	adjustmentRepo.On("FindByID", ctx, adj.ID).Return(adj, nil).Once()
	adjustmentRepo.On("SaveWithLock", ctx, adj).Return(nil).Once()

	result, err := service.Reject(ctx, ReviewAdjustmentCommand{AdjustmentID: adj.ID, ReviewerID: uuid.New(), Note: "no evidence"})

	require.NoError(t, err)
	assert.Equal(t, inventory.AdjustmentStatusRejected, result.Status)
	assert.Equal(t, "no evidence", result.ReviewNote)
	stockItemRepo.AssertNotCalled(t, "TryWithdraw", mock.Anything, mock.Anything, mock.Anything)
	stockItemRepo.AssertNotCalled(t, "Deposit", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdjustmentService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("pending adjustment can be deleted", func(t *testing.T) {
		service, adjustmentRepo, _, _ := newAdjustmentFixture()

		adj, err := inventory.NewStockAdjustment(uuid.New(), inventory.AdjustmentIncrease, decimal.NewFromInt(2), "recount", uuid.New())
		require.NoError(t, err)

		adjustmentRepo.On("FindByID", ctx, adj.ID).Return(adj, nil).Once()
		adjustmentRepo.On("Delete", ctx, adj.ID).Return(nil).Once()

		assert.NoError(t, service.Delete(ctx, adj.ID))
	})

	t.Run("reviewed adjustment is part of the audit trail", func(t *testing.T) {
		service, adjustmentRepo, _, _ := newAdjustmentFixture()

		adj, err := inventory.NewStockAdjustment(uuid.New(), inventory.AdjustmentIncrease, decimal.NewFromInt(2), "recount", uuid.New())
		require.NoError(t, err)
		require.NoError(t, adj.Reject(uuid.New(), "declined"))

		adjustmentRepo.On("FindByID", ctx, adj.ID).Return(adj, nil).Once()

		err = service.Delete(ctx, adj.ID)
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
		adjustmentRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestAdjustmentService_PublishesEvents(t *testing.T) {
	ctx := context.Background()
	service, adjustmentRepo, stockItemRepo, _ := newAdjustmentFixture()

	publisher := NewMockEventPublisher()
	service.SetEventPublisher(publisher)

	item := createTestStockItem(decimal.NewFromInt(10), decimal.Zero)
	stockItemRepo.On("FindByID", ctx, item.ID).Return(item, nil).Once()
	adjustmentRepo.On("Save", ctx, mock.AnythingOfType("*inventory.StockAdjustment")).Return(nil).Once()

	_, err := service.Create(ctx, CreateAdjustmentCommand{
		StockItemID:    item.ID,
		AdjustmentType: inventory.AdjustmentIncrease,
		Quantity:       decimal.NewFromInt(1),
		Reason:         "recount",
		ActorID:        uuid.New(),
	})
	require.NoError(t, err)

	assert.Len(t, publisher.GetEventsByType(inventory.EventTypeAdjustmentRequested), 1)
}
