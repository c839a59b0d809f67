package procurement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
)

// PurchaseOrderStatus represents the status of a purchase order
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft             PurchaseOrderStatus = "draft"
	PurchaseOrderStatusPending           PurchaseOrderStatus = "pending"
	PurchaseOrderStatusApproved          PurchaseOrderStatus = "approved"
	PurchaseOrderStatusOrdered           PurchaseOrderStatus = "ordered"
	PurchaseOrderStatusPartiallyReceived PurchaseOrderStatus = "partially_received"
	PurchaseOrderStatusReceived          PurchaseOrderStatus = "received"
	PurchaseOrderStatusCancelled         PurchaseOrderStatus = "cancelled"
)

// IsValid checks if the status is a known PurchaseOrderStatus
func (s PurchaseOrderStatus) IsValid() bool {
	switch s {
	case PurchaseOrderStatusDraft, PurchaseOrderStatusPending, PurchaseOrderStatusApproved,
		PurchaseOrderStatusOrdered, PurchaseOrderStatusPartiallyReceived,
		PurchaseOrderStatusReceived, PurchaseOrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation
func (s PurchaseOrderStatus) String() string {
	return string(s)
}

// purchaseOrderTransitions is the authoritative transition table. Received
// and cancelled are terminal.
var purchaseOrderTransitions = map[PurchaseOrderStatus][]PurchaseOrderStatus{
	PurchaseOrderStatusDraft:             {PurchaseOrderStatusPending, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusPending:           {PurchaseOrderStatusApproved, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusApproved:          {PurchaseOrderStatusOrdered, PurchaseOrderStatusPartiallyReceived, PurchaseOrderStatusReceived, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusOrdered:           {PurchaseOrderStatusPartiallyReceived, PurchaseOrderStatusReceived, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusPartiallyReceived: {PurchaseOrderStatusPartiallyReceived, PurchaseOrderStatusReceived},
	PurchaseOrderStatusReceived:          {},
	PurchaseOrderStatusCancelled:         {},
}

// CanTransitionTo checks whether the status can move to the target status
func (s PurchaseOrderStatus) CanTransitionTo(target PurchaseOrderStatus) bool {
	for _, allowed := range purchaseOrderTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// CanReceive returns true if receiving goods is allowed in this status
func (s PurchaseOrderStatus) CanReceive() bool {
	return s == PurchaseOrderStatusApproved || s == PurchaseOrderStatusOrdered || s == PurchaseOrderStatusPartiallyReceived
}

// IsTerminal reports whether no further transition is permitted
func (s PurchaseOrderStatus) IsTerminal() bool {
	return len(purchaseOrderTransitions[s]) == 0
}

// PurchaseOrderLine represents a line item in a purchase order
type PurchaseOrderLine struct {
	shared.BaseEntity
	OrderID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null"`
	QuantityOrdered  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	QuantityReceived decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Amount           decimal.Decimal `gorm:"type:decimal(18,4);not null"` // QuantityOrdered * UnitPrice
}

// TableName returns the table name for GORM
func (PurchaseOrderLine) TableName() string {
	return "purchase_order_lines"
}

// RemainingToReceive returns the ordered quantity not yet received
func (l *PurchaseOrderLine) RemainingToReceive() decimal.Decimal {
	return l.QuantityOrdered.Sub(l.QuantityReceived)
}

// FullyReceived reports whether the line is complete
func (l *PurchaseOrderLine) FullyReceived() bool {
	return l.QuantityReceived.GreaterThanOrEqual(l.QuantityOrdered)
}

// AddReceived records arrival of goods on the line. The quantity is
// re-verified against the remaining-to-receive balance so a replayed
// receipt cannot overshoot the ordered amount.
func (l *PurchaseOrderLine) AddReceived(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Received quantity must be positive")
	}
	remaining := l.RemainingToReceive()
	if remaining.LessThanOrEqual(decimal.Zero) {
		return shared.ErrDuplicateReceipt
	}
	if quantity.GreaterThan(remaining) {
		return shared.NewDomainError("RECEIVE_EXCEEDS_ORDERED", "Received quantity exceeds remaining ordered quantity")
	}

	l.QuantityReceived = l.QuantityReceived.Add(quantity)
	l.UpdatedAt = time.Now()

	return nil
}

// PurchaseOrder orders goods from a supplier for delivery into one
// location. Receiving a line increments that location's stock and appends
// a purchase ledger entry.
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	OrderNumber  string              `gorm:"type:varchar(32);not null;uniqueIndex"`
	SupplierID   uuid.UUID           `gorm:"type:uuid;not null;index"`
	LocationID   uuid.UUID           `gorm:"type:uuid;not null;index"` // Delivery destination
	Status       PurchaseOrderStatus `gorm:"type:varchar(24);not null;index"`
	Note         string              `gorm:"type:varchar(512)"`
	RequestedBy  uuid.UUID           `gorm:"type:uuid;not null"`
	ApprovedBy   *uuid.UUID          `gorm:"type:uuid"`
	OrderedAt    *time.Time
	CompletedAt  *time.Time
	CancelReason string              `gorm:"type:varchar(512)"`
	Lines        []PurchaseOrderLine `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// NewPurchaseOrder creates a draft order
func NewPurchaseOrder(orderNumber string, supplierID, locationID, requestedBy uuid.UUID, note string) (*PurchaseOrder, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID cannot be empty")
	}
	if locationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LOCATION", "Delivery location is required")
	}
	if requestedBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Requesting user is required")
	}

	return &PurchaseOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		SupplierID:        supplierID,
		LocationID:        locationID,
		Status:            PurchaseOrderStatusDraft,
		Note:              note,
		RequestedBy:       requestedBy,
		Lines:             make([]PurchaseOrderLine, 0),
	}, nil
}

// AddLine adds a product position while the order is still a draft
func (o *PurchaseOrder) AddLine(productID uuid.UUID, quantity, unitPrice decimal.Decimal) error {
	if o.Status != PurchaseOrderStatusDraft {
		return shared.ErrInvalidState
	}
	if productID == uuid.Nil {
		return shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Line quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	for _, line := range o.Lines {
		if line.ProductID == productID {
			return shared.NewDomainError("DUPLICATE_LINE", "Product already on this order")
		}
	}

	o.Lines = append(o.Lines, PurchaseOrderLine{
		BaseEntity:       shared.NewBaseEntity(),
		OrderID:          o.ID,
		ProductID:        productID,
		QuantityOrdered:  quantity,
		QuantityReceived: decimal.Zero,
		UnitPrice:        unitPrice,
		Amount:           quantity.Mul(unitPrice),
	})
	o.UpdatedAt = time.Now()

	return nil
}

// TotalAmount sums every line amount
func (o *PurchaseOrder) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, line := range o.Lines {
		total = total.Add(line.Amount)
	}
	return total
}

// Submit moves a draft with at least one line to pending
func (o *PurchaseOrder) Submit() error {
	if !o.Status.CanTransitionTo(PurchaseOrderStatusPending) {
		return shared.ErrInvalidState
	}
	if len(o.Lines) == 0 {
		return shared.NewDomainError("EMPTY_ORDER", "Order has no lines")
	}

	o.Status = PurchaseOrderStatusPending
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	return nil
}

// Approve authorizes a pending order
func (o *PurchaseOrder) Approve(approverID uuid.UUID) error {
	if !o.Status.CanTransitionTo(PurchaseOrderStatusApproved) {
		return shared.ErrInvalidState
	}

	o.Status = PurchaseOrderStatusApproved
	o.ApprovedBy = &approverID
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	o.AddDomainEvent(NewPurchaseOrderApprovedEvent(o))

	return nil
}

// Place marks the order as sent to the supplier
func (o *PurchaseOrder) Place() error {
	if !o.Status.CanTransitionTo(PurchaseOrderStatusOrdered) {
		return shared.ErrInvalidState
	}

	now := time.Now()
	o.Status = PurchaseOrderStatusOrdered
	o.OrderedAt = &now
	o.UpdatedAt = now
	o.IncrementVersion()

	return nil
}

// ReceiveLine records arrival of goods for one product
func (o *PurchaseOrder) ReceiveLine(productID uuid.UUID, quantity decimal.Decimal) error {
	if !o.Status.CanReceive() {
		return shared.ErrInvalidState
	}

	for i := range o.Lines {
		if o.Lines[i].ProductID == productID {
			return o.Lines[i].AddReceived(quantity)
		}
	}

	return shared.NewDomainError("LINE_NOT_FOUND", "Product is not on this order")
}

// FinalizeReceive settles the status after a receive batch: received when
// every line is fully received, partially_received otherwise.
func (o *PurchaseOrder) FinalizeReceive() error {
	if !o.Status.CanReceive() {
		return shared.ErrInvalidState
	}

	target := PurchaseOrderStatusReceived
	for _, line := range o.Lines {
		if !line.FullyReceived() {
			target = PurchaseOrderStatusPartiallyReceived
			break
		}
	}
	if !o.Status.CanTransitionTo(target) {
		return shared.ErrInvalidState
	}

	now := time.Now()
	o.Status = target
	if target == PurchaseOrderStatusReceived {
		o.CompletedAt = &now
		o.AddDomainEvent(NewPurchaseOrderReceivedEvent(o))
	}
	o.UpdatedAt = now
	o.IncrementVersion()

	return nil
}

// HasReceivedGoods reports whether any line has received stock
func (o *PurchaseOrder) HasReceivedGoods() bool {
	for _, line := range o.Lines {
		if line.QuantityReceived.GreaterThan(decimal.Zero) {
			return true
		}
	}
	return false
}

// Cancel aborts the order. Forbidden once any goods arrived, since the
// received stock would no longer trace back to an open order.
func (o *PurchaseOrder) Cancel(reason string) error {
	if !o.Status.CanTransitionTo(PurchaseOrderStatusCancelled) {
		return shared.ErrInvalidState
	}
	if o.HasReceivedGoods() {
		return shared.NewDomainError("ORDER_PARTIALLY_RECEIVED", "Cannot cancel an order with received goods")
	}

	now := time.Now()
	o.Status = PurchaseOrderStatusCancelled
	o.CancelReason = reason
	o.CompletedAt = &now
	o.UpdatedAt = now
	o.IncrementVersion()

	o.AddDomainEvent(NewPurchaseOrderCancelledEvent(o))

	return nil
}

// CanDelete reports whether the order may still be deleted
func (o *PurchaseOrder) CanDelete() bool {
	return o.Status == PurchaseOrderStatusDraft
}
