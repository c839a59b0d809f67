package partner

import (
	"time"

	"github.com/stockledger/backend/internal/domain/shared"
)

// Supplier is a vendor that purchase orders are placed with
type Supplier struct {
	shared.BaseAggregateRoot
	Code          string `gorm:"type:varchar(32);not null;uniqueIndex"`
	Name          string `gorm:"type:varchar(128);not null"`
	ContactPerson string `gorm:"type:varchar(64)"`
	Phone         string `gorm:"type:varchar(32)"`
	Email         string `gorm:"type:varchar(128)"`
	Address       string `gorm:"type:varchar(256)"`
	IsActive      bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Supplier) TableName() string {
	return "suppliers"
}

// NewSupplier creates an active supplier
func NewSupplier(code, name string) (*Supplier, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Supplier code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Supplier name cannot be empty")
	}

	return &Supplier{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		IsActive:          true,
	}, nil
}

// UpdateContact changes the supplier's contact details
func (s *Supplier) UpdateContact(contactPerson, phone, email, address string) {
	s.ContactPerson = contactPerson
	s.Phone = phone
	s.Email = email
	s.Address = address
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}

// Rename changes the supplier display name
func (s *Supplier) Rename(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Supplier name cannot be empty")
	}
	s.Name = name
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

// Activate enables the supplier for new orders
func (s *Supplier) Activate() {
	s.IsActive = true
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}

// Deactivate blocks new orders against the supplier
func (s *Supplier) Deactivate() {
	s.IsActive = false
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}
