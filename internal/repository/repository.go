package repository

import (
	"context"
	"time"

	"github.com/planify/booking-service/internal/domain"
)

// BookingRepository defines the persistence contract for bookings.
//
// CreateIfAvailable is the atomic unit of work required by the booking core:
// the conflict check and the insert execute inside a single transaction at
// the store boundary, so two concurrent creations for overlapping windows
// can never both commit.
type BookingRepository interface {
	// CreateIfAvailable persists the booking unless a live booking overlaps
	// its window. On a conflict it returns the conflicting booking ids and
	// writes nothing. The booking id is assigned here on first save.
	CreateIfAvailable(ctx context.Context, booking *domain.Booking) (conflicts []string, err error)

	// GetByID retrieves a booking by its id
	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// UpdateStatus sets the booking status, refreshes updated_at and returns
	// the persisted row
	UpdateStatus(ctx context.Context, id string, status domain.BookingStatus, updatedAt time.Time) (*domain.Booking, error)

	// FindConflictingIDs returns ids of bookings for the location whose
	// half-open window overlaps [start, end) and whose status is in statuses
	FindConflictingIDs(ctx context.Context, locationID string, start, end time.Time, statuses []domain.BookingStatus) ([]string, error)
}

// LocationRepository exposes the read-only location catalog
type LocationRepository interface {
	// GetByID retrieves a location by its id
	GetByID(ctx context.Context, id string) (*domain.Location, error)

	// ListActive returns all active locations ordered by name
	ListActive(ctx context.Context) ([]*domain.Location, error)
}
