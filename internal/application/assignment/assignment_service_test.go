package assignment

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/assignment"
	"github.com/stockledger/backend/internal/domain/inventory"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAssignmentRepository is a mock implementation of AssignmentRepository
type MockAssignmentRepository struct {
	mock.Mock
}

func (m *MockAssignmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*assignment.Assignment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assignment.Assignment), args.Error(1)
}

func (m *MockAssignmentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]assignment.Assignment, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]assignment.Assignment), args.Error(1)
}

func (m *MockAssignmentRepository) FindByEmployee(ctx context.Context, employeeID uuid.UUID, filter shared.Filter) ([]assignment.Assignment, error) {
	args := m.Called(ctx, employeeID, filter)
	return args.Get(0).([]assignment.Assignment), args.Error(1)
}

func (m *MockAssignmentRepository) FindActiveByStockItem(ctx context.Context, stockItemID uuid.UUID) ([]assignment.Assignment, error) {
	args := m.Called(ctx, stockItemID)
	return args.Get(0).([]assignment.Assignment), args.Error(1)
}

func (m *MockAssignmentRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAssignmentRepository) Save(ctx context.Context, a *assignment.Assignment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAssignmentRepository) SaveWithLock(ctx context.Context, a *assignment.Assignment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

// MockStockItemRepository is a mock implementation of inventory.StockItemRepository
type MockStockItemRepository struct {
	mock.Mock
}

func (m *MockStockItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StockItem), args.Error(1)
}

func (m *MockStockItemRepository) FindByLocationAndProduct(ctx context.Context, locationID, productID uuid.UUID) (*inventory.StockItem, error) {
	args := m.Called(ctx, locationID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StockItem), args.Error(1)
}

func (m *MockStockItemRepository) FindByLocation(ctx context.Context, locationID uuid.UUID, filter shared.Filter) ([]inventory.StockItem, error) {
	args := m.Called(ctx, locationID, filter)
	return args.Get(0).([]inventory.StockItem), args.Error(1)
}

func (m *MockStockItemRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]inventory.StockItem, error) {
	args := m.Called(ctx, productID, filter)
	return args.Get(0).([]inventory.StockItem), args.Error(1)
}

func (m *MockStockItemRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.StockItem, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]inventory.StockItem), args.Error(1)
}

func (m *MockStockItemRepository) FindBelowMinimum(ctx context.Context, filter shared.Filter) ([]inventory.StockItem, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]inventory.StockItem), args.Error(1)
}

func (m *MockStockItemRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStockItemRepository) CountByLocation(ctx context.Context, locationID uuid.UUID) (int64, error) {
	args := m.Called(ctx, locationID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStockItemRepository) GetOrCreate(ctx context.Context, locationID, productID uuid.UUID) (*inventory.StockItem, error) {
	args := m.Called(ctx, locationID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StockItem), args.Error(1)
}

func (m *MockStockItemRepository) Save(ctx context.Context, item *inventory.StockItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockStockItemRepository) SaveWithLock(ctx context.Context, item *inventory.StockItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockStockItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStockItemRepository) TryWithdraw(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) (*inventory.StockItem, error) {
	args := m.Called(ctx, id, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StockItem), args.Error(1)
}

func (m *MockStockItemRepository) TryReserve(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) (*inventory.StockItem, error) {
	args := m.Called(ctx, id, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StockItem), args.Error(1)
}

func (m *MockStockItemRepository) Release(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) (*inventory.StockItem, error) {
	args := m.Called(ctx, id, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StockItem), args.Error(1)
}

func (m *MockStockItemRepository) ConsumeReserved(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) (*inventory.StockItem, error) {
	args := m.Called(ctx, id, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StockItem), args.Error(1)
}

func (m *MockStockItemRepository) Deposit(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) (*inventory.StockItem, error) {
	args := m.Called(ctx, id, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StockItem), args.Error(1)
}

// MockStockMovementRepository is a mock implementation of inventory.StockMovementRepository
type MockStockMovementRepository struct {
	mock.Mock
}

func (m *MockStockMovementRepository) Append(ctx context.Context, movements ...*inventory.StockMovement) error {
	callArgs := make([]interface{}, 0, len(movements)+1)
	callArgs = append(callArgs, ctx)
	for _, mv := range movements {
		callArgs = append(callArgs, mv)
	}
	args := m.Called(callArgs...)
	return args.Error(0)
}

func (m *MockStockMovementRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockMovement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StockMovement), args.Error(1)
}

func (m *MockStockMovementRepository) FindByFilter(ctx context.Context, filter inventory.MovementFilter) ([]inventory.StockMovement, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]inventory.StockMovement), args.Get(1).(int64), args.Error(2)
}

func (m *MockStockMovementRepository) FindByReference(ctx context.Context, ref inventory.Reference) ([]inventory.StockMovement, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).([]inventory.StockMovement), args.Error(1)
}

func (m *MockStockMovementRepository) SumOnHandDeltas(ctx context.Context, stockItemID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, stockItemID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// Test helpers

func newAssignmentFixture() (*AssignmentService, *MockAssignmentRepository, *MockStockItemRepository, *MockStockMovementRepository) {
	assignmentRepo := new(MockAssignmentRepository)
	stockItemRepo := new(MockStockItemRepository)
	movementRepo := new(MockStockMovementRepository)

	scope := NewNoOpTransactionScope(assignmentRepo, stockItemRepo, movementRepo)
	service := NewAssignmentService(assignmentRepo, scope)

	return service, assignmentRepo, stockItemRepo, movementRepo
}

func createTestStockItem(quantity, reserved decimal.Decimal) *inventory.StockItem {
	item, _ := inventory.NewStockItem(uuid.New(), uuid.New())
	item.Quantity = quantity
	item.ReservedQuantity = reserved
	item.AvailableQuantity = quantity.Sub(reserved)
	return item
}

func createActiveAssignment(t *testing.T, stockItemID uuid.UUID, quantity decimal.Decimal) *assignment.Assignment {
	t.Helper()
	a, err := assignment.NewAssignment(stockItemID, uuid.New(), uuid.New(), quantity, "field laptop", nil)
	require.NoError(t, err)
	return a
}

func TestAssignmentService_Create(t *testing.T) {
	ctx := context.Background()
	actorID := uuid.New()

	t.Run("reserves stock and writes a reservation ledger entry", func(t *testing.T) {
		service, assignmentRepo, stockItemRepo, movementRepo := newAssignmentFixture()

		item := createTestStockItem(decimal.NewFromInt(10), decimal.Zero)
		reserved := createTestStockItem(decimal.NewFromInt(10), decimal.NewFromInt(2))
		reserved.ID = item.ID

		stockItemRepo.On("TryReserve", ctx, item.ID, decimal.NewFromInt(2)).Return(reserved, nil).Once()
		movementRepo.On("Append", ctx, mock.MatchedBy(func(m *inventory.StockMovement) bool {
			// reservation entries carry the available-after balance and no on-hand delta
			return m.MovementType == inventory.MovementAssignment &&
				m.Quantity.Equal(decimal.NewFromInt(2)) &&
				m.BalanceAfter.Equal(decimal.NewFromInt(8)) &&
				m.SignedDelta().IsZero() &&
				m.Reference.Type == inventory.ReferenceAssignment
		})).Return(nil).Once()
		assignmentRepo.On("Save", ctx, mock.AnythingOfType("*assignment.Assignment")).Return(nil).Once()

		a, err := service.Create(ctx, CreateAssignmentCommand{
			StockItemID: item.ID,
			EmployeeID:  uuid.New(),
			Quantity:    decimal.NewFromInt(2),
			Purpose:     "field laptop",
			ActorID:     actorID,
		})

		require.NoError(t, err)
		assert.Equal(t, assignment.AssignmentStatusAssigned, a.Status)
		assert.Len(t, a.History, 1)
		movementRepo.AssertExpectations(t)
	})

	t.Run("insufficient availability creates nothing", func(t *testing.T) {
		service, assignmentRepo, stockItemRepo, _ := newAssignmentFixture()

		itemID := uuid.New()
		stockItemRepo.On("TryReserve", ctx, itemID, decimal.NewFromInt(5)).Return(nil, shared.ErrInsufficientStock).Once()

		a, err := service.Create(ctx, CreateAssignmentCommand{
			StockItemID: itemID,
			EmployeeID:  uuid.New(),
			Quantity:    decimal.NewFromInt(5),
			ActorID:     actorID,
		})

		assert.Nil(t, a)
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		assignmentRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestAssignmentService_Acknowledge(t *testing.T) {
	ctx := context.Background()
	service, assignmentRepo, stockItemRepo, _ := newAssignmentFixture()

	a := createActiveAssignment(t, uuid.New(), decimal.NewFromInt(1))
	assignmentRepo.On("FindByID", ctx, a.ID).Return(a, nil).Once()
	assignmentRepo.On("SaveWithLock", ctx, a).Return(nil).Once()

	result, err := service.Acknowledge(ctx, a.ID, uuid.New())

	require.NoError(t, err)
	assert.Equal(t, assignment.AssignmentStatusInUse, result.Status)
	// acknowledging is a pure status change
	stockItemRepo.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
}

func TestAssignmentService_Return(t *testing.T) {
	ctx := context.Background()
	actorID := uuid.New()

	t.Run("partial return keeps the assignment active", func(t *testing.T) {
		service, assignmentRepo, stockItemRepo, movementRepo := newAssignmentFixture()

		itemID := uuid.New()
		a := createActiveAssignment(t, itemID, decimal.NewFromInt(5))
		released := createTestStockItem(decimal.NewFromInt(10), decimal.NewFromInt(3))

		assignmentRepo.On("FindByID", ctx, a.ID).Return(a, nil).Once()
		stockItemRepo.On("Release", ctx, itemID, decimal.NewFromInt(2)).Return(released, nil).Once()
		movementRepo.On("Append", ctx, mock.MatchedBy(func(m *inventory.StockMovement) bool {
			return m.MovementType == inventory.MovementAssignmentReturn && m.Quantity.Equal(decimal.NewFromInt(2))
		})).Return(nil).Once()
		assignmentRepo.On("SaveWithLock", ctx, a).Return(nil).Once()

		result, err := service.Return(ctx, ReturnAssignmentCommand{
			AssignmentID: a.ID,
			Quantity:     decimal.NewFromInt(2),
			ActorID:      actorID,
		})

		require.NoError(t, err)
		assert.Equal(t, assignment.AssignmentStatusAssigned, result.Status)
		assert.True(t, result.OutstandingQuantity().Equal(decimal.NewFromInt(3)))
		assert.Nil(t, result.ActualReturnDate)
	})

	t.Run("full return completes the assignment", func(t *testing.T) {
		service, assignmentRepo, stockItemRepo, movementRepo := newAssignmentFixture()

		itemID := uuid.New()
		a := createActiveAssignment(t, itemID, decimal.NewFromInt(5))
		released := createTestStockItem(decimal.NewFromInt(10), decimal.Zero)

		assignmentRepo.On("FindByID", ctx, a.ID).Return(a, nil).Once()
		stockItemRepo.On("Release", ctx, itemID, decimal.NewFromInt(5)).Return(released, nil).Once()
		movementRepo.On("Append", ctx, mock.AnythingOfType("*inventory.StockMovement")).Return(nil).Once()
		assignmentRepo.On("SaveWithLock", ctx, a).Return(nil).Once()

		result, err := service.Return(ctx, ReturnAssignmentCommand{
			AssignmentID: a.ID,
			Quantity:     decimal.NewFromInt(5),
			ActorID:      actorID,
		})

		require.NoError(t, err)
		assert.Equal(t, assignment.AssignmentStatusReturned, result.Status)
		assert.NotNil(t, result.ActualReturnDate)
	})

	t.Run("returning more than outstanding fails before touching stock", func(t *testing.T) {
		service, assignmentRepo, stockItemRepo, _ := newAssignmentFixture()

		a := createActiveAssignment(t, uuid.New(), decimal.NewFromInt(5))
		assignmentRepo.On("FindByID", ctx, a.ID).Return(a, nil).Once()

		_, err := service.Return(ctx, ReturnAssignmentCommand{
			AssignmentID: a.ID,
			Quantity:     decimal.NewFromInt(6),
			ActorID:      actorID,
		})

		require.Error(t, err)
		stockItemRepo.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAssignmentService_MarkLost(t *testing.T) {
	ctx := context.Background()
	actorID := uuid.New()

	service, assignmentRepo, stockItemRepo, movementRepo := newAssignmentFixture()

	itemID := uuid.New()
	a := createActiveAssignment(t, itemID, decimal.NewFromInt(3))
	// write-off drops on-hand: 10 -> 7 with the reservation consumed
	consumed := createTestStockItem(decimal.NewFromInt(7), decimal.Zero)

	assignmentRepo.On("FindByID", ctx, a.ID).Return(a, nil).Once()
	stockItemRepo.On("ConsumeReserved", ctx, itemID, decimal.NewFromInt(3)).Return(consumed, nil).Once()
	movementRepo.On("Append", ctx, mock.MatchedBy(func(m *inventory.StockMovement) bool {
		return m.MovementType == inventory.MovementDamage &&
			m.Quantity.Equal(decimal.NewFromInt(3)) &&
			m.BalanceAfter.Equal(decimal.NewFromInt(7)) &&
			m.SignedDelta().Equal(decimal.NewFromInt(-3))
	})).Return(nil).Once()
	assignmentRepo.On("SaveWithLock", ctx, a).Return(nil).Once()

	result, err := service.MarkLost(ctx, WriteOffAssignmentCommand{
		AssignmentID: a.ID,
		Note:         "left on the train",
		ActorID:      actorID,
	})

	require.NoError(t, err)
	assert.Equal(t, assignment.AssignmentStatusLost, result.Status)
	movementRepo.AssertExpectations(t)

	t.Run("terminal assignment cannot be written off again", func(t *testing.T) {
		assignmentRepo.On("FindByID", ctx, a.ID).Return(a, nil).Once()

		_, err := service.MarkDamaged(ctx, WriteOffAssignmentCommand{AssignmentID: a.ID, ActorID: actorID})
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
	})
}
