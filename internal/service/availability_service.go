package service

import (
	"context"
	"errors"
	"time"

	"github.com/planify/booking-service/internal/domain"
	"github.com/planify/booking-service/internal/metrics"
	"github.com/planify/booking-service/internal/repository"
	"github.com/planify/booking-service/internal/resilience"
	"github.com/planify/booking-service/pkg/logger"
	"github.com/planify/booking-service/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// AvailabilityService answers whether a location is free over a time window.
// Store access runs through the availability resilience policy; when the
// store cannot be consulted the service fails closed and reports the window
// as unavailable rather than guessing.
type AvailabilityService interface {
	// FindConflicts returns the ids of live bookings for the location whose
	// window overlaps [start, end). An empty slice means the window is free.
	FindConflicts(ctx context.Context, locationID string, start, end time.Time) ([]string, error)

	// IsAvailable reports whether the location is free over [start, end).
	// When the availability check itself cannot run it returns false.
	IsAvailable(ctx context.Context, locationID string, start, end time.Time) (bool, error)
}

type availabilityService struct {
	bookingRepo repository.BookingRepository
	policy      *resilience.Policy
	metrics     *metrics.Metrics
}

// NewAvailabilityService creates a new availability service
func NewAvailabilityService(
	bookingRepo repository.BookingRepository,
	policy *resilience.Policy,
	m *metrics.Metrics,
) AvailabilityService {
	return &availabilityService{
		bookingRepo: bookingRepo,
		policy:      policy,
		metrics:     m,
	}
}

func (s *availabilityService) FindConflicts(ctx context.Context, locationID string, start, end time.Time) ([]string, error) {
	ctx, span := telemetry.StartSpan(ctx, "AvailabilityService.FindConflicts")
	defer span.End()
	span.SetAttributes(attribute.String("location.id", locationID))

	if err := validateAvailabilityQuery(locationID, start, end); err != nil {
		return nil, err
	}

	var conflicts []string
	err := s.policy.Execute(ctx, func(ctx context.Context) error {
		ids, err := s.bookingRepo.FindConflictingIDs(ctx, locationID, start, end, domain.LiveStatuses())
		if err != nil {
			return err
		}
		conflicts = ids
		return nil
	})
	s.metrics.AvailabilityChecks.Add(ctx, 1)
	if err != nil {
		if resilience.IsUnavailable(err) {
			logger.Get().Warn("availability check unavailable, failing closed",
				zap.String("location_id", locationID),
				zap.Error(err),
			)
			s.metrics.RecordRejection(ctx, s.policy.Name(), rejectionComponent(err))
			return nil, domain.ErrAvailabilityUnavailable
		}
		return nil, err
	}

	if len(conflicts) > 0 {
		s.metrics.ConflictsDetected.Add(ctx, 1,
			attribute.String("operation", "availability_check"),
		)
	}
	return conflicts, nil
}

func (s *availabilityService) IsAvailable(ctx context.Context, locationID string, start, end time.Time) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "AvailabilityService.IsAvailable")
	defer span.End()

	conflicts, err := s.FindConflicts(ctx, locationID, start, end)
	if err != nil {
		if domain.IsTransientError(err) {
			// Unknown availability counts as not available.
			return false, nil
		}
		return false, err
	}
	return len(conflicts) == 0, nil
}

func validateAvailabilityQuery(locationID string, start, end time.Time) error {
	if locationID == "" {
		return domain.ErrInvalidLocationID
	}
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return domain.ErrInvalidTimeWindow
	}
	return nil
}

// rejectionComponent names the resilience leg that rejected the call, for
// metric labels.
func rejectionComponent(err error) string {
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "circuit_breaker"
	case errors.Is(err, resilience.ErrBulkheadFull):
		return "bulkhead"
	default:
		return "retry_exhausted"
	}
}
