package assignment

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeAssignment = "Assignment"

// Event type constants
const (
	EventTypeAssignmentCreated    = "AssignmentCreated"
	EventTypeAssignmentReturned   = "AssignmentReturned"
	EventTypeAssignmentWrittenOff = "AssignmentWrittenOff"
)

// AssignmentCreatedEvent is raised when stock is assigned to an employee
type AssignmentCreatedEvent struct {
	shared.BaseDomainEvent
	AssignmentID uuid.UUID       `json:"assignment_id"`
	StockItemID  uuid.UUID       `json:"stock_item_id"`
	EmployeeID   uuid.UUID       `json:"employee_id"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// NewAssignmentCreatedEvent creates a new AssignmentCreatedEvent
func NewAssignmentCreatedEvent(a *Assignment) *AssignmentCreatedEvent {
	return &AssignmentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAssignmentCreated, AggregateTypeAssignment, a.ID),
		AssignmentID:    a.ID,
		StockItemID:     a.StockItemID,
		EmployeeID:      a.EmployeeID,
		Quantity:        a.Quantity,
	}
}

// EventType returns the event type name
func (e *AssignmentCreatedEvent) EventType() string {
	return EventTypeAssignmentCreated
}

// AssignmentReturnedEvent is raised when the full quantity came back
type AssignmentReturnedEvent struct {
	shared.BaseDomainEvent
	AssignmentID uuid.UUID       `json:"assignment_id"`
	StockItemID  uuid.UUID       `json:"stock_item_id"`
	EmployeeID   uuid.UUID       `json:"employee_id"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// NewAssignmentReturnedEvent creates a new AssignmentReturnedEvent
func NewAssignmentReturnedEvent(a *Assignment) *AssignmentReturnedEvent {
	return &AssignmentReturnedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAssignmentReturned, AggregateTypeAssignment, a.ID),
		AssignmentID:    a.ID,
		StockItemID:     a.StockItemID,
		EmployeeID:      a.EmployeeID,
		Quantity:        a.Quantity,
	}
}

// EventType returns the event type name
func (e *AssignmentReturnedEvent) EventType() string {
	return EventTypeAssignmentReturned
}

// AssignmentWrittenOffEvent is raised when outstanding goods are reported
// lost or damaged
type AssignmentWrittenOffEvent struct {
	shared.BaseDomainEvent
	AssignmentID uuid.UUID        `json:"assignment_id"`
	StockItemID  uuid.UUID        `json:"stock_item_id"`
	Status       AssignmentStatus `json:"status"`
	Quantity     decimal.Decimal  `json:"quantity"`
}

// NewAssignmentWrittenOffEvent creates a new AssignmentWrittenOffEvent
func NewAssignmentWrittenOffEvent(a *Assignment, quantity decimal.Decimal) *AssignmentWrittenOffEvent {
	return &AssignmentWrittenOffEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAssignmentWrittenOff, AggregateTypeAssignment, a.ID),
		AssignmentID:    a.ID,
		StockItemID:     a.StockItemID,
		Status:          a.Status,
		Quantity:        quantity,
	}
}

// EventType returns the event type name
func (e *AssignmentWrittenOffEvent) EventType() string {
	return EventTypeAssignmentWrittenOff
}
