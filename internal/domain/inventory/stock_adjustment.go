package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
)

// AdjustmentType indicates the direction of a stock adjustment
type AdjustmentType string

const (
	AdjustmentIncrease AdjustmentType = "increase"
	AdjustmentDecrease AdjustmentType = "decrease"
)

// IsValid checks whether the adjustment type is known
func (t AdjustmentType) IsValid() bool {
	return t == AdjustmentIncrease || t == AdjustmentDecrease
}

// AdjustmentStatus represents the adjustment approval lifecycle
type AdjustmentStatus string

const (
	AdjustmentStatusPending  AdjustmentStatus = "pending"
	AdjustmentStatusApproved AdjustmentStatus = "approved"
	AdjustmentStatusRejected AdjustmentStatus = "rejected"
)

// adjustmentTransitions is the authoritative transition table. Approved and
// rejected are terminal.
var adjustmentTransitions = map[AdjustmentStatus][]AdjustmentStatus{
	AdjustmentStatusPending:  {AdjustmentStatusApproved, AdjustmentStatusRejected},
	AdjustmentStatusApproved: {},
	AdjustmentStatusRejected: {},
}

// CanTransitionTo checks whether the status can move to the target status
func (s AdjustmentStatus) CanTransitionTo(target AdjustmentStatus) bool {
	for _, allowed := range adjustmentTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is permitted
func (s AdjustmentStatus) IsTerminal() bool {
	return len(adjustmentTransitions[s]) == 0
}

// StockAdjustment proposes a manual correction to a stock item's on-hand
// quantity. The stock itself is only touched when the adjustment is
// approved; rejection leaves stock untouched.
type StockAdjustment struct {
	shared.BaseAggregateRoot
	StockItemID    uuid.UUID        `gorm:"type:uuid;not null;index"`
	AdjustmentType AdjustmentType   `gorm:"type:varchar(16);not null"`
	Quantity       decimal.Decimal  `gorm:"type:decimal(18,4);not null"` // Unsigned; direction comes from the type
	Reason         string           `gorm:"type:varchar(512);not null"`
	Status         AdjustmentStatus `gorm:"type:varchar(16);not null;index"`
	BeforeQuantity *decimal.Decimal `gorm:"type:decimal(18,4)"` // On-hand snapshot taken at application time
	AfterQuantity  *decimal.Decimal `gorm:"type:decimal(18,4)"`
	RequestedBy    uuid.UUID        `gorm:"type:uuid;not null"`
	ReviewedBy     *uuid.UUID       `gorm:"type:uuid"`
	ReviewedAt     *time.Time
	ReviewNote     string `gorm:"type:varchar(512)"`
}

// TableName returns the table name for GORM
func (StockAdjustment) TableName() string {
	return "stock_adjustments"
}

// NewStockAdjustment creates a pending adjustment proposal
func NewStockAdjustment(stockItemID uuid.UUID, adjustmentType AdjustmentType, quantity decimal.Decimal, reason string, requestedBy uuid.UUID) (*StockAdjustment, error) {
	if stockItemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_STOCK_ITEM", "Stock item ID cannot be empty")
	}
	if !adjustmentType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ADJUSTMENT_TYPE", "Adjustment type must be increase or decrease")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Adjustment quantity must be positive")
	}
	if reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Adjustment reason is required")
	}
	if requestedBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Requesting user is required")
	}

	adj := &StockAdjustment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		StockItemID:       stockItemID,
		AdjustmentType:    adjustmentType,
		Quantity:          quantity,
		Reason:            reason,
		Status:            AdjustmentStatusPending,
		RequestedBy:       requestedBy,
	}
	adj.AddDomainEvent(NewAdjustmentRequestedEvent(adj))

	return adj, nil
}

// MovementType returns the ledger entry type this adjustment produces
func (a *StockAdjustment) MovementType() MovementType {
	if a.AdjustmentType == AdjustmentIncrease {
		return MovementAdjustmentIncrease
	}
	return MovementAdjustmentDecrease
}

// Approve marks the adjustment approved and records the before/after
// snapshot of the stock item it was applied to. The caller is responsible
// for applying the delta to the stock item in the same transaction.
func (a *StockAdjustment) Approve(reviewerID uuid.UUID, before, after decimal.Decimal, note string) error {
	if !a.Status.CanTransitionTo(AdjustmentStatusApproved) {
		return shared.ErrInvalidState
	}
	if after.IsNegative() {
		return shared.ErrInsufficientStock
	}

	now := time.Now()
	a.Status = AdjustmentStatusApproved
	a.BeforeQuantity = &before
	a.AfterQuantity = &after
	a.ReviewedBy = &reviewerID
	a.ReviewedAt = &now
	a.ReviewNote = note
	a.UpdatedAt = now
	a.IncrementVersion()

	a.AddDomainEvent(NewAdjustmentApprovedEvent(a))

	return nil
}

// Reject marks the adjustment rejected without touching stock
func (a *StockAdjustment) Reject(reviewerID uuid.UUID, note string) error {
	if !a.Status.CanTransitionTo(AdjustmentStatusRejected) {
		return shared.ErrInvalidState
	}

	now := time.Now()
	a.Status = AdjustmentStatusRejected
	a.ReviewedBy = &reviewerID
	a.ReviewedAt = &now
	a.ReviewNote = note
	a.UpdatedAt = now
	a.IncrementVersion()

	a.AddDomainEvent(NewAdjustmentRejectedEvent(a))

	return nil
}

// CanDelete reports whether the adjustment may still be deleted.
// Only pending proposals can be removed; reviewed ones are part of the
// audit trail.
func (a *StockAdjustment) CanDelete() bool {
	return a.Status == AdjustmentStatusPending
}

// SignedDelta returns the net on-hand change this adjustment applies
func (a *StockAdjustment) SignedDelta() decimal.Decimal {
	if a.AdjustmentType == AdjustmentIncrease {
		return a.Quantity
	}
	return a.Quantity.Neg()
}
