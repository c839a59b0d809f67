package inventory

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeStockItem       = "StockItem"
	AggregateTypeStockAdjustment = "StockAdjustment"
	AggregateTypeStockTransfer   = "StockTransfer"
)

// Event type constants
const (
	EventTypeStockBelowThreshold = "StockBelowThreshold"
	EventTypeAdjustmentRequested = "AdjustmentRequested"
	EventTypeAdjustmentApproved  = "AdjustmentApproved"
	EventTypeAdjustmentRejected  = "AdjustmentRejected"
	EventTypeTransferShipped     = "TransferShipped"
	EventTypeTransferReceived    = "TransferReceived"
	EventTypeTransferCancelled   = "TransferCancelled"
)

// StockBelowThresholdEvent is raised when on-hand stock drops below the
// configured minimum for an item
type StockBelowThresholdEvent struct {
	shared.BaseDomainEvent
	StockItemID uuid.UUID       `json:"stock_item_id"`
	LocationID  uuid.UUID       `json:"location_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	MinQuantity decimal.Decimal `json:"min_quantity"`
}

// NewStockBelowThresholdEvent creates a new StockBelowThresholdEvent
func NewStockBelowThresholdEvent(item *StockItem) *StockBelowThresholdEvent {
	return &StockBelowThresholdEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockBelowThreshold, AggregateTypeStockItem, item.ID),
		StockItemID:     item.ID,
		LocationID:      item.LocationID,
		ProductID:       item.ProductID,
		Quantity:        item.Quantity,
		MinQuantity:     item.MinQuantity,
	}
}

// EventType returns the event type name
func (e *StockBelowThresholdEvent) EventType() string {
	return EventTypeStockBelowThreshold
}

// AdjustmentRequestedEvent is raised when a new adjustment enters the
// approval queue
type AdjustmentRequestedEvent struct {
	shared.BaseDomainEvent
	AdjustmentID   uuid.UUID       `json:"adjustment_id"`
	StockItemID    uuid.UUID       `json:"stock_item_id"`
	AdjustmentType AdjustmentType  `json:"adjustment_type"`
	Quantity       decimal.Decimal `json:"quantity"`
	RequestedBy    uuid.UUID       `json:"requested_by"`
}

// NewAdjustmentRequestedEvent creates a new AdjustmentRequestedEvent
func NewAdjustmentRequestedEvent(adj *StockAdjustment) *AdjustmentRequestedEvent {
	return &AdjustmentRequestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAdjustmentRequested, AggregateTypeStockAdjustment, adj.ID),
		AdjustmentID:    adj.ID,
		StockItemID:     adj.StockItemID,
		AdjustmentType:  adj.AdjustmentType,
		Quantity:        adj.Quantity,
		RequestedBy:     adj.RequestedBy,
	}
}

// EventType returns the event type name
func (e *AdjustmentRequestedEvent) EventType() string {
	return EventTypeAdjustmentRequested
}

// AdjustmentApprovedEvent is raised when an adjustment is approved and its
// delta applied to stock
type AdjustmentApprovedEvent struct {
	shared.BaseDomainEvent
	AdjustmentID uuid.UUID       `json:"adjustment_id"`
	StockItemID  uuid.UUID       `json:"stock_item_id"`
	Delta        decimal.Decimal `json:"delta"`
	ReviewedBy   uuid.UUID       `json:"reviewed_by"`
}

// NewAdjustmentApprovedEvent creates a new AdjustmentApprovedEvent
func NewAdjustmentApprovedEvent(adj *StockAdjustment) *AdjustmentApprovedEvent {
	reviewer := uuid.Nil
	if adj.ReviewedBy != nil {
		reviewer = *adj.ReviewedBy
	}
	return &AdjustmentApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAdjustmentApproved, AggregateTypeStockAdjustment, adj.ID),
		AdjustmentID:    adj.ID,
		StockItemID:     adj.StockItemID,
		Delta:           adj.SignedDelta(),
		ReviewedBy:      reviewer,
	}
}

// EventType returns the event type name
func (e *AdjustmentApprovedEvent) EventType() string {
	return EventTypeAdjustmentApproved
}

// AdjustmentRejectedEvent is raised when an adjustment is rejected
type AdjustmentRejectedEvent struct {
	shared.BaseDomainEvent
	AdjustmentID uuid.UUID `json:"adjustment_id"`
	StockItemID  uuid.UUID `json:"stock_item_id"`
	ReviewedBy   uuid.UUID `json:"reviewed_by"`
}

// NewAdjustmentRejectedEvent creates a new AdjustmentRejectedEvent
func NewAdjustmentRejectedEvent(adj *StockAdjustment) *AdjustmentRejectedEvent {
	reviewer := uuid.Nil
	if adj.ReviewedBy != nil {
		reviewer = *adj.ReviewedBy
	}
	return &AdjustmentRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAdjustmentRejected, AggregateTypeStockAdjustment, adj.ID),
		AdjustmentID:    adj.ID,
		StockItemID:     adj.StockItemID,
		ReviewedBy:      reviewer,
	}
}

// EventType returns the event type name
func (e *AdjustmentRejectedEvent) EventType() string {
	return EventTypeAdjustmentRejected
}

// TransferShippedEvent is raised when a transfer leaves its source location
type TransferShippedEvent struct {
	shared.BaseDomainEvent
	TransferID     uuid.UUID `json:"transfer_id"`
	FromLocationID uuid.UUID `json:"from_location_id"`
	ToLocationID   uuid.UUID `json:"to_location_id"`
	LineCount      int       `json:"line_count"`
}

// NewTransferShippedEvent creates a new TransferShippedEvent
func NewTransferShippedEvent(t *StockTransfer) *TransferShippedEvent {
	return &TransferShippedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransferShipped, AggregateTypeStockTransfer, t.ID),
		TransferID:      t.ID,
		FromLocationID:  t.FromLocationID,
		ToLocationID:    t.ToLocationID,
		LineCount:       len(t.Lines),
	}
}

// EventType returns the event type name
func (e *TransferShippedEvent) EventType() string {
	return EventTypeTransferShipped
}

// TransferReceivedEvent is raised when every line of a transfer has arrived
type TransferReceivedEvent struct {
	shared.BaseDomainEvent
	TransferID   uuid.UUID `json:"transfer_id"`
	ToLocationID uuid.UUID `json:"to_location_id"`
}

// NewTransferReceivedEvent creates a new TransferReceivedEvent
func NewTransferReceivedEvent(t *StockTransfer) *TransferReceivedEvent {
	return &TransferReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransferReceived, AggregateTypeStockTransfer, t.ID),
		TransferID:      t.ID,
		ToLocationID:    t.ToLocationID,
	}
}

// EventType returns the event type name
func (e *TransferReceivedEvent) EventType() string {
	return EventTypeTransferReceived
}

// TransferCancelledEvent is raised when a transfer is aborted
type TransferCancelledEvent struct {
	shared.BaseDomainEvent
	TransferID uuid.UUID `json:"transfer_id"`
	Reason     string    `json:"reason"`
}

// NewTransferCancelledEvent creates a new TransferCancelledEvent
func NewTransferCancelledEvent(t *StockTransfer) *TransferCancelledEvent {
	return &TransferCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransferCancelled, AggregateTypeStockTransfer, t.ID),
		TransferID:      t.ID,
		Reason:          t.CancelReason,
	}
}

// EventType returns the event type name
func (e *TransferCancelledEvent) EventType() string {
	return EventTypeTransferCancelled
}
