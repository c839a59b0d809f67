package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
)

// MovementType classifies a ledger entry. The type determines the sign of
// the delta and whether the entry affects on-hand stock or only the
// reservation balance.
type MovementType string

const (
	MovementPurchase            MovementType = "purchase"
	MovementSale                MovementType = "sale"
	MovementTransferIn          MovementType = "transfer_in"
	MovementTransferOut         MovementType = "transfer_out"
	MovementTransferReversal    MovementType = "transfer_reversal"
	MovementAdjustmentIncrease  MovementType = "adjustment_increase"
	MovementAdjustmentDecrease  MovementType = "adjustment_decrease"
	MovementReturn              MovementType = "return"
	MovementDamage              MovementType = "damage"
	MovementExpired             MovementType = "expired"
	MovementAssignment          MovementType = "assignment"
	MovementAssignmentReturn    MovementType = "return_assignment"
)

// IsValid checks whether the movement type is one of the known values
func (t MovementType) IsValid() bool {
	switch t {
	case MovementPurchase, MovementSale, MovementTransferIn, MovementTransferOut,
		MovementTransferReversal, MovementAdjustmentIncrease, MovementAdjustmentDecrease,
		MovementReturn, MovementDamage, MovementExpired,
		MovementAssignment, MovementAssignmentReturn:
		return true
	}
	return false
}

// IsIncrease reports whether the movement adds stock
func (t MovementType) IsIncrease() bool {
	switch t {
	case MovementPurchase, MovementTransferIn, MovementTransferReversal,
		MovementAdjustmentIncrease, MovementReturn, MovementAssignmentReturn:
		return true
	}
	return false
}

// AffectsOnHand reports whether the movement changes the on-hand quantity.
// Assignment and return_assignment only move quantity between available and
// reserved, so they are excluded from on-hand ledger reconciliation.
func (t MovementType) AffectsOnHand() bool {
	switch t {
	case MovementAssignment, MovementAssignmentReturn:
		return false
	}
	return true
}

// ReferenceType identifies the workflow document a movement originates from
type ReferenceType string

const (
	ReferencePurchaseOrder   ReferenceType = "purchase_order"
	ReferenceStockTransfer   ReferenceType = "stock_transfer"
	ReferenceStockAdjustment ReferenceType = "stock_adjustment"
	ReferenceAssignment      ReferenceType = "assignment"
)

// IsValid checks whether the reference type is one of the known values
func (t ReferenceType) IsValid() bool {
	switch t {
	case ReferencePurchaseOrder, ReferenceStockTransfer, ReferenceStockAdjustment, ReferenceAssignment:
		return true
	}
	return false
}

// Reference points a movement back at its originating workflow document.
// Each variant constructor fixes the type, so a movement can never carry a
// mismatched type/ID pair.
type Reference struct {
	Type ReferenceType `gorm:"column:reference_type;type:varchar(32);not null;index" json:"type"`
	ID   uuid.UUID     `gorm:"column:reference_id;type:uuid;not null;index" json:"id"`
}

// PurchaseOrderRef builds a reference to a purchase order
func PurchaseOrderRef(id uuid.UUID) Reference {
	return Reference{Type: ReferencePurchaseOrder, ID: id}
}

// TransferRef builds a reference to a stock transfer
func TransferRef(id uuid.UUID) Reference {
	return Reference{Type: ReferenceStockTransfer, ID: id}
}

// AdjustmentRef builds a reference to a stock adjustment
func AdjustmentRef(id uuid.UUID) Reference {
	return Reference{Type: ReferenceStockAdjustment, ID: id}
}

// AssignmentRef builds a reference to an assignment
func AssignmentRef(id uuid.UUID) Reference {
	return Reference{Type: ReferenceAssignment, ID: id}
}

// StockMovement is one row of the append-only ledger. A row is written in
// the same transaction as the stock mutation it explains and is never
// updated or deleted afterwards.
type StockMovement struct {
	shared.BaseEntity
	StockItemID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	LocationID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	MovementType   MovementType    `gorm:"type:varchar(32);not null;index"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Always positive; direction comes from the type
	BalanceAfter   decimal.Decimal `gorm:"type:decimal(18,4);not null"` // On-hand after (available after, for reservation types)
	Reference      Reference       `gorm:"embedded"`
	FromLocationID *uuid.UUID      `gorm:"type:uuid"`
	ToLocationID   *uuid.UUID      `gorm:"type:uuid"`
	ActorID        uuid.UUID       `gorm:"type:uuid;not null"`
	Note           string          `gorm:"type:varchar(512)"`
	OccurredAt     time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement creates a ledger entry. Quantity must be positive; the
// signed delta is derived from the movement type.
func NewStockMovement(item *StockItem, movementType MovementType, quantity, balanceAfter decimal.Decimal, ref Reference, actorID uuid.UUID) (*StockMovement, error) {
	if !movementType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Unknown movement type")
	}
	if !ref.Type.IsValid() || ref.ID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Movement reference is incomplete")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Movement quantity must be positive")
	}
	if balanceAfter.IsNegative() {
		return nil, shared.NewDomainError("INVALID_BALANCE", "Balance after movement cannot be negative")
	}

	return &StockMovement{
		BaseEntity:   shared.NewBaseEntity(),
		StockItemID:  item.ID,
		LocationID:   item.LocationID,
		ProductID:    item.ProductID,
		MovementType: movementType,
		Quantity:     quantity,
		BalanceAfter: balanceAfter,
		Reference:    ref,
		ActorID:      actorID,
		OccurredAt:   time.Now(),
	}, nil
}

// SignedDelta returns the movement's contribution to the on-hand ledger:
// positive for increases, negative for decreases, zero for pure
// reservation movements.
func (m *StockMovement) SignedDelta() decimal.Decimal {
	if !m.MovementType.AffectsOnHand() {
		return decimal.Zero
	}
	if m.MovementType.IsIncrease() {
		return m.Quantity
	}
	return m.Quantity.Neg()
}

// WithLocations records the source and destination of a transfer movement
func (m *StockMovement) WithLocations(from, to *uuid.UUID) *StockMovement {
	m.FromLocationID = from
	m.ToLocationID = to
	return m
}

// WithNote attaches a free-text note
func (m *StockMovement) WithNote(note string) *StockMovement {
	m.Note = note
	return m
}
