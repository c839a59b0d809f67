package assignment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
)

// AssignmentStatus represents the assignment lifecycle
type AssignmentStatus string

const (
	AssignmentStatusAssigned AssignmentStatus = "assigned"
	AssignmentStatusInUse    AssignmentStatus = "in_use"
	AssignmentStatusReturned AssignmentStatus = "returned"
	AssignmentStatusLost     AssignmentStatus = "lost"
	AssignmentStatusDamaged  AssignmentStatus = "damaged"
)

// assignmentTransitions is the authoritative transition table. Returned,
// lost and damaged are terminal.
var assignmentTransitions = map[AssignmentStatus][]AssignmentStatus{
	AssignmentStatusAssigned: {AssignmentStatusInUse, AssignmentStatusReturned, AssignmentStatusLost, AssignmentStatusDamaged},
	AssignmentStatusInUse:    {AssignmentStatusReturned, AssignmentStatusLost, AssignmentStatusDamaged},
	AssignmentStatusReturned: {},
	AssignmentStatusLost:     {},
	AssignmentStatusDamaged:  {},
}

// CanTransitionTo checks whether the status can move to the target status
func (s AssignmentStatus) CanTransitionTo(target AssignmentStatus) bool {
	for _, allowed := range assignmentTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is permitted
func (s AssignmentStatus) IsTerminal() bool {
	return len(assignmentTransitions[s]) == 0
}

// IsActive reports whether the assignment still holds a reservation
func (s AssignmentStatus) IsActive() bool {
	return s == AssignmentStatusAssigned || s == AssignmentStatusInUse
}

// HistoryEntry is an append-only record of one assignment action, scoped to
// a single assignment the way the movement ledger is scoped to an item
type HistoryEntry struct {
	shared.BaseEntity
	AssignmentID uuid.UUID        `gorm:"type:uuid;not null;index"`
	Action       string           `gorm:"type:varchar(32);not null"`
	Quantity     decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	Status       AssignmentStatus `gorm:"type:varchar(16);not null"`
	ActorID      uuid.UUID        `gorm:"type:uuid;not null"`
	Note         string           `gorm:"type:varchar(512)"`
}

// TableName returns the table name for GORM
func (HistoryEntry) TableName() string {
	return "assignment_history_entries"
}

// History actions
const (
	HistoryActionAssigned     = "assigned"
	HistoryActionAcknowledged = "acknowledged"
	HistoryActionReturned     = "returned"
	HistoryActionLost         = "lost"
	HistoryActionDamaged      = "damaged"
)

// Assignment hands a quantity of stock to an employee for the duration of
// the assignment. The quantity is reserved, not withdrawn: it leaves
// available_quantity but stays on-hand until returned or written off.
type Assignment struct {
	shared.BaseAggregateRoot
	StockItemID        uuid.UUID        `gorm:"type:uuid;not null;index"`
	EmployeeID         uuid.UUID        `gorm:"type:uuid;not null;index"`
	Quantity           decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	ReturnedQuantity   decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	Purpose            string           `gorm:"type:varchar(512)"`
	Status             AssignmentStatus `gorm:"type:varchar(16);not null;index"`
	AssignedBy         uuid.UUID        `gorm:"type:uuid;not null"`
	ExpectedReturnDate *time.Time
	ActualReturnDate   *time.Time
	History            []HistoryEntry `gorm:"foreignKey:AssignmentID;references:ID"`
}

// TableName returns the table name for GORM
func (Assignment) TableName() string {
	return "assignments"
}

// NewAssignment creates an assignment in the assigned state. The caller is
// responsible for reserving the stock atomically in the same transaction.
func NewAssignment(stockItemID, employeeID, assignedBy uuid.UUID, quantity decimal.Decimal, purpose string, expectedReturn *time.Time) (*Assignment, error) {
	if stockItemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_STOCK_ITEM", "Stock item ID cannot be empty")
	}
	if employeeID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_EMPLOYEE", "Employee ID cannot be empty")
	}
	if assignedBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Assigning user is required")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Assignment quantity must be positive")
	}

	a := &Assignment{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		StockItemID:        stockItemID,
		EmployeeID:         employeeID,
		Quantity:           quantity,
		ReturnedQuantity:   decimal.Zero,
		Purpose:            purpose,
		Status:             AssignmentStatusAssigned,
		AssignedBy:         assignedBy,
		ExpectedReturnDate: expectedReturn,
		History:            make([]HistoryEntry, 0),
	}
	a.appendHistory(HistoryActionAssigned, quantity, assignedBy, purpose)
	a.AddDomainEvent(NewAssignmentCreatedEvent(a))

	return a, nil
}

func (a *Assignment) appendHistory(action string, quantity decimal.Decimal, actorID uuid.UUID, note string) {
	a.History = append(a.History, HistoryEntry{
		BaseEntity:   shared.NewBaseEntity(),
		AssignmentID: a.ID,
		Action:       action,
		Quantity:     quantity,
		Status:       a.Status,
		ActorID:      actorID,
		Note:         note,
	})
}

// OutstandingQuantity returns the quantity still held by the employee
func (a *Assignment) OutstandingQuantity() decimal.Decimal {
	return a.Quantity.Sub(a.ReturnedQuantity)
}

// Acknowledge confirms the employee took the goods into use
func (a *Assignment) Acknowledge(actorID uuid.UUID) error {
	if !a.Status.CanTransitionTo(AssignmentStatusInUse) {
		return shared.ErrInvalidState
	}

	a.Status = AssignmentStatusInUse
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
	a.appendHistory(HistoryActionAcknowledged, decimal.Zero, actorID, "")

	return nil
}

// Return records goods coming back. A partial return keeps the assignment
// active; returning the full outstanding quantity completes it and sets
// the actual return date. The caller releases the reservation atomically
// in the same transaction.
func (a *Assignment) Return(actorID uuid.UUID, quantity decimal.Decimal, note string) error {
	if !a.Status.IsActive() {
		return shared.ErrInvalidState
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Return quantity must be positive")
	}
	if quantity.GreaterThan(a.OutstandingQuantity()) {
		return shared.NewDomainError("RETURN_EXCEEDS_OUTSTANDING", "Return exceeds outstanding assigned quantity")
	}

	now := time.Now()
	a.ReturnedQuantity = a.ReturnedQuantity.Add(quantity)
	if a.OutstandingQuantity().IsZero() {
		if !a.Status.CanTransitionTo(AssignmentStatusReturned) {
			return shared.ErrInvalidState
		}
		a.Status = AssignmentStatusReturned
		a.ActualReturnDate = &now
		a.AddDomainEvent(NewAssignmentReturnedEvent(a))
	}
	a.UpdatedAt = now
	a.IncrementVersion()
	a.appendHistory(HistoryActionReturned, quantity, actorID, note)

	return nil
}

// MarkLost writes off the outstanding quantity as lost. The caller
// consumes the reservation atomically in the same transaction.
func (a *Assignment) MarkLost(actorID uuid.UUID, note string) (decimal.Decimal, error) {
	return a.writeOff(AssignmentStatusLost, HistoryActionLost, actorID, note)
}

// MarkDamaged writes off the outstanding quantity as damaged
func (a *Assignment) MarkDamaged(actorID uuid.UUID, note string) (decimal.Decimal, error) {
	return a.writeOff(AssignmentStatusDamaged, HistoryActionDamaged, actorID, note)
}

func (a *Assignment) writeOff(target AssignmentStatus, action string, actorID uuid.UUID, note string) (decimal.Decimal, error) {
	if !a.Status.CanTransitionTo(target) {
		return decimal.Zero, shared.ErrInvalidState
	}
	outstanding := a.OutstandingQuantity()
	if outstanding.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, shared.ErrInvalidState
	}

	now := time.Now()
	a.Status = target
	a.ActualReturnDate = &now
	a.UpdatedAt = now
	a.IncrementVersion()
	a.appendHistory(action, outstanding, actorID, note)
	a.AddDomainEvent(NewAssignmentWrittenOffEvent(a, outstanding))

	return outstanding, nil
}
