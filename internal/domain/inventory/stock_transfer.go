package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
)

// TransferStatus represents the transfer lifecycle
type TransferStatus string

const (
	TransferStatusDraft             TransferStatus = "draft"
	TransferStatusPending           TransferStatus = "pending"
	TransferStatusApproved          TransferStatus = "approved"
	TransferStatusInTransit         TransferStatus = "in_transit"
	TransferStatusPartiallyReceived TransferStatus = "partially_received"
	TransferStatusReceived          TransferStatus = "received"
	TransferStatusCancelled         TransferStatus = "cancelled"
)

// transferTransitions is the authoritative transition table. Received and
// cancelled are terminal; everything else can be cancelled.
var transferTransitions = map[TransferStatus][]TransferStatus{
	TransferStatusDraft:             {TransferStatusPending, TransferStatusCancelled},
	TransferStatusPending:           {TransferStatusApproved, TransferStatusCancelled},
	TransferStatusApproved:          {TransferStatusInTransit, TransferStatusCancelled},
	TransferStatusInTransit:         {TransferStatusPartiallyReceived, TransferStatusReceived, TransferStatusCancelled},
	TransferStatusPartiallyReceived: {TransferStatusPartiallyReceived, TransferStatusReceived, TransferStatusCancelled},
	TransferStatusReceived:          {},
	TransferStatusCancelled:         {},
}

// CanTransitionTo checks whether the status can move to the target status
func (s TransferStatus) CanTransitionTo(target TransferStatus) bool {
	for _, allowed := range transferTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is permitted
func (s TransferStatus) IsTerminal() bool {
	return len(transferTransitions[s]) == 0
}

// TransferLine is one product position on a transfer
type TransferLine struct {
	shared.BaseEntity
	TransferID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null"`
	QuantityRequested decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	QuantitySent      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	QuantityReceived  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (TransferLine) TableName() string {
	return "stock_transfer_lines"
}

// RemainingToReceive returns the shipped quantity not yet received
func (l *TransferLine) RemainingToReceive() decimal.Decimal {
	return l.QuantitySent.Sub(l.QuantityReceived)
}

// FullyReceived reports whether everything shipped on this line arrived
func (l *TransferLine) FullyReceived() bool {
	return l.QuantityReceived.GreaterThanOrEqual(l.QuantitySent)
}

// StockTransfer moves stock between two locations. Shipping decrements the
// source location, receiving increments the destination; both sides write
// ledger entries referencing the transfer.
type StockTransfer struct {
	shared.BaseAggregateRoot
	FromLocationID uuid.UUID      `gorm:"type:uuid;not null;index"`
	ToLocationID   uuid.UUID      `gorm:"type:uuid;not null;index"`
	Status         TransferStatus `gorm:"type:varchar(24);not null;index"`
	Note           string         `gorm:"type:varchar(512)"`
	RequestedBy    uuid.UUID      `gorm:"type:uuid;not null"`
	ApprovedBy     *uuid.UUID     `gorm:"type:uuid"`
	ShippedAt      *time.Time
	CompletedAt    *time.Time
	CancelReason   string         `gorm:"type:varchar(512)"`
	Lines          []TransferLine `gorm:"foreignKey:TransferID;references:ID"`
}

// TableName returns the table name for GORM
func (StockTransfer) TableName() string {
	return "stock_transfers"
}

// NewStockTransfer creates a draft transfer with its lines
func NewStockTransfer(fromLocationID, toLocationID, requestedBy uuid.UUID, note string) (*StockTransfer, error) {
	if fromLocationID == uuid.Nil || toLocationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LOCATION", "Source and destination locations are required")
	}
	if fromLocationID == toLocationID {
		return nil, shared.NewDomainError("INVALID_LOCATION", "Source and destination must differ")
	}
	if requestedBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Requesting user is required")
	}

	return &StockTransfer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		FromLocationID:    fromLocationID,
		ToLocationID:      toLocationID,
		Status:            TransferStatusDraft,
		Note:              note,
		RequestedBy:       requestedBy,
		Lines:             make([]TransferLine, 0),
	}, nil
}

// AddLine adds a product position while the transfer is still a draft
func (t *StockTransfer) AddLine(productID uuid.UUID, quantity decimal.Decimal) error {
	if t.Status != TransferStatusDraft {
		return shared.ErrInvalidState
	}
	if productID == uuid.Nil {
		return shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Line quantity must be positive")
	}
	for _, line := range t.Lines {
		if line.ProductID == productID {
			return shared.NewDomainError("DUPLICATE_LINE", "Product already on this transfer")
		}
	}

	t.Lines = append(t.Lines, TransferLine{
		BaseEntity:        shared.NewBaseEntity(),
		TransferID:        t.ID,
		ProductID:         productID,
		QuantityRequested: quantity,
		QuantitySent:      decimal.Zero,
		QuantityReceived:  decimal.Zero,
	})
	t.UpdatedAt = time.Now()

	return nil
}

// Submit moves a draft with at least one line to pending
func (t *StockTransfer) Submit() error {
	if !t.Status.CanTransitionTo(TransferStatusPending) {
		return shared.ErrInvalidState
	}
	if len(t.Lines) == 0 {
		return shared.NewDomainError("EMPTY_TRANSFER", "Transfer has no lines")
	}

	t.Status = TransferStatusPending
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	return nil
}

// Approve authorizes the transfer. No stock moves yet.
func (t *StockTransfer) Approve(approverID uuid.UUID) error {
	if !t.Status.CanTransitionTo(TransferStatusApproved) {
		return shared.ErrInvalidState
	}

	t.Status = TransferStatusApproved
	t.ApprovedBy = &approverID
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	return nil
}

// MarkShipped records that all lines left the source location. The caller
// must have withdrawn the stock atomically in the same transaction.
func (t *StockTransfer) MarkShipped() error {
	if !t.Status.CanTransitionTo(TransferStatusInTransit) {
		return shared.ErrInvalidState
	}

	now := time.Now()
	for i := range t.Lines {
		t.Lines[i].QuantitySent = t.Lines[i].QuantityRequested
		t.Lines[i].UpdatedAt = now
	}
	t.Status = TransferStatusInTransit
	t.ShippedAt = &now
	t.UpdatedAt = now
	t.IncrementVersion()

	t.AddDomainEvent(NewTransferShippedEvent(t))

	return nil
}

// ReceiveLine records arrival of goods for one product and returns the
// quantity actually accepted. The accepted amount is capped at the line's
// remaining-to-receive balance, so replaying a receipt cannot
// double-increment the destination; a line with nothing outstanding
// reports a duplicate receipt.
func (t *StockTransfer) ReceiveLine(productID uuid.UUID, quantity decimal.Decimal) (decimal.Decimal, error) {
	if t.Status != TransferStatusInTransit && t.Status != TransferStatusPartiallyReceived {
		return decimal.Zero, shared.ErrInvalidState
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, shared.NewDomainError("INVALID_QUANTITY", "Received quantity must be positive")
	}

	for i := range t.Lines {
		if t.Lines[i].ProductID != productID {
			continue
		}
		remaining := t.Lines[i].RemainingToReceive()
		if remaining.LessThanOrEqual(decimal.Zero) {
			return decimal.Zero, shared.ErrDuplicateReceipt
		}
		accepted := quantity
		if accepted.GreaterThan(remaining) {
			accepted = remaining
		}
		t.Lines[i].QuantityReceived = t.Lines[i].QuantityReceived.Add(accepted)
		t.Lines[i].UpdatedAt = time.Now()
		return accepted, nil
	}

	return decimal.Zero, shared.NewDomainError("LINE_NOT_FOUND", "Product is not on this transfer")
}

// FinalizeReceive settles the status after a receive batch: received when
// every line is fully received, partially_received otherwise.
func (t *StockTransfer) FinalizeReceive() error {
	if t.Status != TransferStatusInTransit && t.Status != TransferStatusPartiallyReceived {
		return shared.ErrInvalidState
	}

	target := TransferStatusReceived
	for _, line := range t.Lines {
		if !line.FullyReceived() {
			target = TransferStatusPartiallyReceived
			break
		}
	}
	if !t.Status.CanTransitionTo(target) {
		return shared.ErrInvalidState
	}

	now := time.Now()
	t.Status = target
	if target == TransferStatusReceived {
		t.CompletedAt = &now
		t.AddDomainEvent(NewTransferReceivedEvent(t))
	}
	t.UpdatedAt = now
	t.IncrementVersion()

	return nil
}

// OutstandingLines returns the shipped-but-not-received quantity per line,
// which a cancellation must reverse back into the source location.
func (t *StockTransfer) OutstandingLines() map[uuid.UUID]decimal.Decimal {
	outstanding := make(map[uuid.UUID]decimal.Decimal)
	for _, line := range t.Lines {
		remaining := line.RemainingToReceive()
		if remaining.GreaterThan(decimal.Zero) {
			outstanding[line.ProductID] = remaining
		}
	}
	return outstanding
}

// Cancel aborts the transfer from any non-terminal state. For a transfer
// already in transit the caller must reverse the outstanding shipped
// quantities into the source location within the same transaction.
func (t *StockTransfer) Cancel(reason string) error {
	if !t.Status.CanTransitionTo(TransferStatusCancelled) {
		return shared.ErrInvalidState
	}

	now := time.Now()
	t.Status = TransferStatusCancelled
	t.CancelReason = reason
	t.CompletedAt = &now
	t.UpdatedAt = now
	t.IncrementVersion()

	t.AddDomainEvent(NewTransferCancelledEvent(t))

	return nil
}
