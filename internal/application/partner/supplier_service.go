package partner

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/domain/partner"
	"github.com/stockledger/backend/internal/domain/shared"
)

// CreateSupplierCommand carries the input for creating a supplier
type CreateSupplierCommand struct {
	Code          string
	Name          string
	ContactPerson string
	Phone         string
	Email         string
	Address       string
}

// UpdateSupplierCommand carries the input for updating a supplier
type UpdateSupplierCommand struct {
	ID            uuid.UUID
	Name          string
	ContactPerson string
	Phone         string
	Email         string
	Address       string
}

// SupplierService manages suppliers
type SupplierService struct {
	supplierRepo partner.SupplierRepository
}

// NewSupplierService creates a new SupplierService
func NewSupplierService(supplierRepo partner.SupplierRepository) *SupplierService {
	return &SupplierService{supplierRepo: supplierRepo}
}

// Create creates an active supplier. Codes are unique.
func (s *SupplierService) Create(ctx context.Context, cmd CreateSupplierCommand) (*partner.Supplier, error) {
	if existing, err := s.supplierRepo.FindByCode(ctx, cmd.Code); err == nil && existing != nil {
		return nil, shared.NewDomainError("DUPLICATE_CODE", "Supplier code already exists")
	}

	supplier, err := partner.NewSupplier(cmd.Code, cmd.Name)
	if err != nil {
		return nil, err
	}
	supplier.UpdateContact(cmd.ContactPerson, cmd.Phone, cmd.Email, cmd.Address)

	if err := s.supplierRepo.Save(ctx, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

// Update changes the supplier's name and contact details
func (s *SupplierService) Update(ctx context.Context, cmd UpdateSupplierCommand) (*partner.Supplier, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}
	if err := supplier.Rename(cmd.Name); err != nil {
		return nil, err
	}
	supplier.UpdateContact(cmd.ContactPerson, cmd.Phone, cmd.Email, cmd.Address)

	if err := s.supplierRepo.Save(ctx, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

// Activate enables the supplier for new orders
func (s *SupplierService) Activate(ctx context.Context, id uuid.UUID) (*partner.Supplier, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	supplier.Activate()
	if err := s.supplierRepo.Save(ctx, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

// Deactivate blocks new orders against the supplier
func (s *SupplierService) Deactivate(ctx context.Context, id uuid.UUID) (*partner.Supplier, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	supplier.Deactivate()
	if err := s.supplierRepo.Save(ctx, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

// Delete removes a supplier
func (s *SupplierService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.supplierRepo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.supplierRepo.Delete(ctx, id)
}

// Get returns one supplier
func (s *SupplierService) Get(ctx context.Context, id uuid.UUID) (*partner.Supplier, error) {
	return s.supplierRepo.FindByID(ctx, id)
}

// List returns suppliers matching the filter with pagination
func (s *SupplierService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[partner.Supplier], error) {
	suppliers, err := s.supplierRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.supplierRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	result := shared.NewPaginated(suppliers, total, filter.Page, filter.PageSize)
	return &result, nil
}
