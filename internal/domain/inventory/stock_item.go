package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
)

// StockItem tracks the stock of one product at one location.
// It is the single source of truth for on-hand, reserved and available
// quantities; the composite identifier is LocationID + ProductID.
//
// Invariant: AvailableQuantity == Quantity - ReservedQuantity, and none of
// the three may ever go negative. Every mutator recomputes the derived
// column before returning.
type StockItem struct {
	shared.BaseAggregateRoot
	LocationID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_item_location_product,priority:1"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_item_location_product,priority:2"`
	Quantity          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // On-hand total
	ReservedQuantity  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Held by open assignments
	AvailableQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Quantity - ReservedQuantity
	MinQuantity       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Low-stock alert threshold
}

// TableName returns the table name for GORM
func (StockItem) TableName() string {
	return "stock_items"
}

// NewStockItem creates an empty stock record for a location-product combination
func NewStockItem(locationID, productID uuid.UUID) (*StockItem, error) {
	if locationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LOCATION", "Location ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}

	return &StockItem{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		LocationID:        locationID,
		ProductID:         productID,
		Quantity:          decimal.Zero,
		ReservedQuantity:  decimal.Zero,
		AvailableQuantity: decimal.Zero,
		MinQuantity:       decimal.Zero,
	}, nil
}

// recompute derives the available column and touches bookkeeping fields
func (i *StockItem) recompute() {
	i.AvailableQuantity = i.Quantity.Sub(i.ReservedQuantity)
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
}

// Receive increases on-hand stock, typically on purchase receipt or transfer-in
func (i *StockItem) Receive(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	i.Quantity = i.Quantity.Add(quantity)
	i.recompute()

	return nil
}

// Withdraw removes on-hand stock that is not reserved. Used by transfer
// shipping and approved decrease adjustments.
func (i *StockItem) Withdraw(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if i.AvailableQuantity.LessThan(quantity) {
		return shared.ErrInsufficientStock
	}

	i.Quantity = i.Quantity.Sub(quantity)
	i.recompute()

	if i.IsBelowThreshold() {
		i.AddDomainEvent(NewStockBelowThresholdEvent(i))
	}

	return nil
}

// Reserve withholds quantity from availability without removing it from
// on-hand stock. Used when a product is assigned to an employee.
func (i *StockItem) Reserve(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if i.AvailableQuantity.LessThan(quantity) {
		return shared.ErrInsufficientStock
	}

	i.ReservedQuantity = i.ReservedQuantity.Add(quantity)
	i.recompute()

	return nil
}

// Release returns previously reserved quantity to availability
func (i *StockItem) Release(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if i.ReservedQuantity.LessThan(quantity) {
		return shared.NewDomainError("INVALID_RELEASE", "Release exceeds reserved quantity")
	}

	i.ReservedQuantity = i.ReservedQuantity.Sub(quantity)
	i.recompute()

	return nil
}

// ConsumeReserved permanently removes reserved quantity from on-hand stock,
// e.g. when an assigned product is reported lost or damaged.
func (i *StockItem) ConsumeReserved(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if i.ReservedQuantity.LessThan(quantity) {
		return shared.NewDomainError("INVALID_RELEASE", "Consume exceeds reserved quantity")
	}

	i.ReservedQuantity = i.ReservedQuantity.Sub(quantity)
	i.Quantity = i.Quantity.Sub(quantity)
	i.recompute()

	if i.IsBelowThreshold() {
		i.AddDomainEvent(NewStockBelowThresholdEvent(i))
	}

	return nil
}

// SetMinQuantity updates the low-stock alert threshold
func (i *StockItem) SetMinQuantity(min decimal.Decimal) error {
	if min.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Threshold cannot be negative")
	}
	i.MinQuantity = min
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
	return nil
}

// IsBelowThreshold reports whether on-hand stock has dropped below the
// configured minimum. A zero threshold disables the check.
func (i *StockItem) IsBelowThreshold() bool {
	if i.MinQuantity.IsZero() {
		return false
	}
	return i.Quantity.LessThan(i.MinQuantity)
}
