package service

import (
	"context"

	"github.com/planify/booking-service/internal/domain"
	"github.com/planify/booking-service/internal/repository"
	"github.com/planify/booking-service/pkg/telemetry"
)

// LocationService exposes the bookable location catalog
type LocationService interface {
	// GetLocation retrieves a location by id
	GetLocation(ctx context.Context, locationID string) (*domain.Location, error)

	// ListLocations returns all active locations
	ListLocations(ctx context.Context) ([]*domain.Location, error)
}

type locationService struct {
	locationRepo repository.LocationRepository
}

// NewLocationService creates a new location service
func NewLocationService(locationRepo repository.LocationRepository) LocationService {
	return &locationService{locationRepo: locationRepo}
}

func (s *locationService) GetLocation(ctx context.Context, locationID string) (*domain.Location, error) {
	ctx, span := telemetry.StartSpan(ctx, "LocationService.GetLocation")
	defer span.End()

	if locationID == "" {
		return nil, domain.ErrInvalidLocationID
	}
	return s.locationRepo.GetByID(ctx, locationID)
}

func (s *locationService) ListLocations(ctx context.Context) ([]*domain.Location, error) {
	ctx, span := telemetry.StartSpan(ctx, "LocationService.ListLocations")
	defer span.End()

	return s.locationRepo.ListActive(ctx)
}
