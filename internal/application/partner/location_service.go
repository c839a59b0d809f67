package partner

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/domain/inventory"
	"github.com/stockledger/backend/internal/domain/partner"
	"github.com/stockledger/backend/internal/domain/shared"
)

// CreateLocationCommand carries the input for creating a location
type CreateLocationCommand struct {
	Code    string
	Name    string
	Address string
}

// UpdateLocationCommand carries the input for updating a location
type UpdateLocationCommand struct {
	ID      uuid.UUID
	Name    string
	Address string
}

// LocationService manages warehouse locations
type LocationService struct {
	locationRepo  partner.LocationRepository
	stockItemRepo inventory.StockItemRepository
}

// NewLocationService creates a new LocationService
func NewLocationService(locationRepo partner.LocationRepository, stockItemRepo inventory.StockItemRepository) *LocationService {
	return &LocationService{
		locationRepo:  locationRepo,
		stockItemRepo: stockItemRepo,
	}
}

// Create creates an active location. Codes are unique.
func (s *LocationService) Create(ctx context.Context, cmd CreateLocationCommand) (*partner.Location, error) {
	if existing, err := s.locationRepo.FindByCode(ctx, cmd.Code); err == nil && existing != nil {
		return nil, shared.NewDomainError("DUPLICATE_CODE", "Location code already exists")
	}

	location, err := partner.NewLocation(cmd.Code, cmd.Name, cmd.Address)
	if err != nil {
		return nil, err
	}
	if err := s.locationRepo.Save(ctx, location); err != nil {
		return nil, err
	}
	return location, nil
}

// Update changes the location's display fields
func (s *LocationService) Update(ctx context.Context, cmd UpdateLocationCommand) (*partner.Location, error) {
	location, err := s.locationRepo.FindByID(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}
	if err := location.Update(cmd.Name, cmd.Address); err != nil {
		return nil, err
	}
	if err := s.locationRepo.Save(ctx, location); err != nil {
		return nil, err
	}
	return location, nil
}

// Activate enables the location for stock operations
func (s *LocationService) Activate(ctx context.Context, id uuid.UUID) (*partner.Location, error) {
	location, err := s.locationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	location.Activate()
	if err := s.locationRepo.Save(ctx, location); err != nil {
		return nil, err
	}
	return location, nil
}

// Deactivate blocks new stock operations at the location
func (s *LocationService) Deactivate(ctx context.Context, id uuid.UUID) (*partner.Location, error) {
	location, err := s.locationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	location.Deactivate()
	if err := s.locationRepo.Save(ctx, location); err != nil {
		return nil, err
	}
	return location, nil
}

// Delete removes a location. Fails while any stock item records exist at
// it, so the movement ledger keeps resolvable location references.
func (s *LocationService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.locationRepo.FindByID(ctx, id); err != nil {
		return err
	}

	count, err := s.stockItemRepo.CountByLocation(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return shared.NewDomainError("LOCATION_IN_USE", "Location still holds stock item records")
	}

	return s.locationRepo.Delete(ctx, id)
}

// Get returns one location
func (s *LocationService) Get(ctx context.Context, id uuid.UUID) (*partner.Location, error) {
	return s.locationRepo.FindByID(ctx, id)
}

// List returns locations matching the filter with pagination
func (s *LocationService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[partner.Location], error) {
	locations, err := s.locationRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.locationRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	result := shared.NewPaginated(locations, total, filter.Page, filter.PageSize)
	return &result, nil
}
