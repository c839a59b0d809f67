package partner

import (
	"time"

	"github.com/stockledger/backend/internal/domain/shared"
)

// Location is a place that holds stock: a warehouse, room or site.
// Transfers move stock between two locations; purchase orders deliver
// into one.
type Location struct {
	shared.BaseAggregateRoot
	Code     string `gorm:"type:varchar(32);not null;uniqueIndex"`
	Name     string `gorm:"type:varchar(128);not null"`
	Address  string `gorm:"type:varchar(256)"`
	IsActive bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Location) TableName() string {
	return "locations"
}

// NewLocation creates an active location
func NewLocation(code, name, address string) (*Location, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Location code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Location name cannot be empty")
	}

	return &Location{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		Address:           address,
		IsActive:          true,
	}, nil
}

// Update changes the display fields
func (l *Location) Update(name, address string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Location name cannot be empty")
	}

	l.Name = name
	l.Address = address
	l.UpdatedAt = time.Now()
	l.IncrementVersion()

	return nil
}

// Activate enables the location for stock operations
func (l *Location) Activate() {
	l.IsActive = true
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
}

// Deactivate blocks new stock operations at the location. Existing stock
// records stay intact.
func (l *Location) Deactivate() {
	l.IsActive = false
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
}
