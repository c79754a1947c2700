package service

import (
	"context"
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

// CreateBookingCommand carries the caller's intent to book a location for a
// half-open window [StartTime, EndTime).
type CreateBookingCommand struct {
	LocationID     string
	EventID        string
	OrganizationID string
	StartTime      time.Time
	EndTime        time.Time
	// Currency overrides the configured default when set
	Currency string
}

// CreateBookingResult is the outcome of a creation attempt. Exactly one of
// three shapes comes back: a persisted booking in PENDING_PAYMENT, a FAILED
// outcome with the conflicting booking ids, or a FAILED outcome with no
// conflicts when the store could not be reached.
type CreateBookingResult struct {
	Booking   *domain.Booking
	Status    domain.BookingStatus
	Available bool
	Conflicts []string
}

// BookingService owns the booking lifecycle: creation with its atomic
// conflict check, cancellation, and lookups. Every store access runs under a
// named resilience policy, and lifecycle events are published best-effort
// after the write commits.
type BookingService interface {
	// CreateBooking attempts to book the location for the command's window.
	// A window conflict or an unreachable store yields a FAILED result, not
	// an error; errors are reserved for invalid input and unknown locations.
	CreateBooking(ctx context.Context, cmd *CreateBookingCommand) (*CreateBookingResult, error)

	// CancelBooking cancels the booking. Cancelling an already cancelled
	// booking is a no-op that returns the booking unchanged.
	CancelBooking(ctx context.Context, bookingID string) (*domain.Booking, error)

	// GetBooking retrieves a booking by id
	GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error)
}

// BookingServiceConfig carries the tunables of the booking service
type BookingServiceConfig struct {
	DefaultCurrency string
}

type bookingService struct {
	bookingRepo    repository.BookingRepository
	locationRepo   repository.LocationRepository
	publisher      EventPublisher
	creationPolicy *resilience.Policy
	cancelPolicy   *resilience.Policy
	metrics        *metrics.Metrics
	config         BookingServiceConfig
}

// NewBookingService creates a new booking service
func NewBookingService(
	bookingRepo repository.BookingRepository,
	locationRepo repository.LocationRepository,
	publisher EventPublisher,
	creationPolicy *resilience.Policy,
	cancelPolicy *resilience.Policy,
	m *metrics.Metrics,
	config BookingServiceConfig,
) BookingService {
	if config.DefaultCurrency == "" {
		config.DefaultCurrency = "EUR"
	}
	return &bookingService{
		bookingRepo:    bookingRepo,
		locationRepo:   locationRepo,
		publisher:      publisher,
		creationPolicy: creationPolicy,
		cancelPolicy:   cancelPolicy,
		metrics:        m,
		config:         config,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, cmd *CreateBookingCommand) (*CreateBookingResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "BookingService.CreateBooking")
	defer span.End()
	span.SetAttributes(
		attribute.String("location.id", cmd.LocationID),
		attribute.String("event.id", cmd.EventID),
	)

	start := time.Now()
	defer func() {
		s.metrics.BookingDuration.Record(ctx, time.Since(start).Seconds())
	}()

	if err := s.validateCreate(cmd); err != nil {
		return nil, err
	}

	currency := cmd.Currency
	if currency == "" {
		currency = s.config.DefaultCurrency
	}

	var (
		booking   *domain.Booking
		conflicts []string
	)

	// The bulkhead and breaker guard the whole pipeline; the retry leg wraps
	// each store call individually so a retry never re-runs a step that has
	// already taken effect.
	err := s.creationPolicy.Guard(ctx, func(ctx context.Context) error {
		var location *domain.Location
		if err := s.creationPolicy.Retry(ctx, func(ctx context.Context) error {
			loc, err := s.locationRepo.GetByID(ctx, cmd.LocationID)
			if err != nil {
				if domain.IsNotFoundError(err) {
					return resilience.Permanent(err)
				}
				return err
			}
			location = loc
			return nil
		}); err != nil {
			return err
		}

		now := time.Now().UTC()
		candidate := &domain.Booking{
			LocationID:       cmd.LocationID,
			EventID:          cmd.EventID,
			OrganizationID:   cmd.OrganizationID,
			StartTime:        cmd.StartTime,
			EndTime:          cmd.EndTime,
			Status:           domain.BookingStatusPendingPayment,
			TotalAmountCents: domain.PriceFor(location, cmd.StartTime, cmd.EndTime),
			Currency:         currency,
			CreatedAt:        now,
			UpdatedAt:        now,
		}

		return s.creationPolicy.Retry(ctx, func(ctx context.Context) error {
			ids, err := s.bookingRepo.CreateIfAvailable(ctx, candidate)
			if err != nil {
				if domain.IsConflictError(err) {
					return resilience.Permanent(err)
				}
				return err
			}
			if len(ids) > 0 {
				conflicts = ids
				return nil
			}
			booking = candidate
			return nil
		})
	})

	if err != nil {
		switch {
		case domain.IsNotFoundError(err):
			return nil, err
		case domain.IsConflictError(err):
			// Lost race whose winners could not be re-read.
			s.metrics.ConflictsDetected.Add(ctx, 1,
				attribute.String("operation", "create_booking"),
			)
			return &CreateBookingResult{Status: domain.BookingStatusFailed}, nil
		default:
			logger.Get().Error("booking creation failed",
				zap.String("location_id", cmd.LocationID),
				zap.String("event_id", cmd.EventID),
				zap.Error(err),
			)
			if resilience.IsUnavailable(err) {
				s.metrics.RecordRejection(ctx, s.creationPolicy.Name(), rejectionComponent(err))
			}
			s.metrics.BookingsFailed.Add(ctx, 1)
			return &CreateBookingResult{Status: domain.BookingStatusFailed}, nil
		}
	}

	if len(conflicts) > 0 {
		s.metrics.ConflictsDetected.Add(ctx, 1,
			attribute.String("operation", "create_booking"),
		)
		return &CreateBookingResult{
			Status:    domain.BookingStatusFailed,
			Conflicts: conflicts,
		}, nil
	}

	s.metrics.BookingsCreated.Add(ctx, 1)
	span.SetAttributes(attribute.String("booking.id", booking.ID))

	s.publish(ctx, domain.BookingEventCreated, booking)

	return &CreateBookingResult{
		Booking:   booking,
		Status:    booking.Status,
		Available: true,
	}, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "BookingService.CancelBooking")
	defer span.End()
	span.SetAttributes(attribute.String("booking.id", bookingID))

	if bookingID == "" {
		return nil, domain.ErrInvalidBookingID
	}

	var (
		cancelled *domain.Booking
		changed   bool
	)

	err := s.cancelPolicy.Guard(ctx, func(ctx context.Context) error {
		var current *domain.Booking
		if err := s.cancelPolicy.Retry(ctx, func(ctx context.Context) error {
			b, err := s.bookingRepo.GetByID(ctx, bookingID)
			if err != nil {
				if domain.IsNotFoundError(err) {
					return resilience.Permanent(err)
				}
				return err
			}
			current = b
			return nil
		}); err != nil {
			return err
		}

		if current.IsCancelled() {
			cancelled = current
			return nil
		}

		return s.cancelPolicy.Retry(ctx, func(ctx context.Context) error {
			b, err := s.bookingRepo.UpdateStatus(ctx, bookingID, domain.BookingStatusCancelled, time.Now().UTC())
			if err != nil {
				if domain.IsNotFoundError(err) {
					return resilience.Permanent(err)
				}
				return err
			}
			cancelled = b
			changed = true
			return nil
		})
	})

	if err != nil {
		if domain.IsNotFoundError(err) {
			return nil, err
		}
		logger.Get().Error("booking cancellation failed",
			zap.String("booking_id", bookingID),
			zap.Error(err),
		)
		if resilience.IsUnavailable(err) {
			s.metrics.RecordRejection(ctx, s.cancelPolicy.Name(), rejectionComponent(err))
		}
		return nil, domain.ErrCancellationUnavailable
	}

	if changed {
		s.metrics.BookingsCancelled.Add(ctx, 1)
		s.publish(ctx, domain.BookingEventCancelled, cancelled)
	}

	return cancelled, nil
}

func (s *bookingService) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "BookingService.GetBooking")
	defer span.End()

	if bookingID == "" {
		return nil, domain.ErrInvalidBookingID
	}
	return s.bookingRepo.GetByID(ctx, bookingID)
}

// publish delivers a lifecycle event and swallows delivery failures. The
// booking row is the source of truth; a dropped event is logged and counted,
// never propagated.
func (s *bookingService) publish(ctx context.Context, eventType domain.BookingEventType, booking *domain.Booking) {
	var err error
	switch eventType {
	case domain.BookingEventCreated:
		err = s.publisher.PublishBookingCreated(ctx, booking)
	case domain.BookingEventCancelled:
		err = s.publisher.PublishBookingCancelled(ctx, booking)
	}
	if err != nil {
		logger.Get().Warn("failed to publish booking event",
			zap.String("event_type", string(eventType)),
			zap.String("booking_id", booking.ID),
			zap.Error(err),
		)
		s.metrics.EventsDropped.Add(ctx, 1,
			attribute.String("event_type", string(eventType)),
		)
		return
	}
	s.metrics.EventsPublished.Add(ctx, 1,
		attribute.String("event_type", string(eventType)),
	)
}

// validateCreate rejects missing identity fields and absent timestamps.
// Window ordering and currency format are transport-edge concerns: a
// degenerate window (end <= start) still persists here and bills the
// one-hour minimum, and the currency string passes through opaquely.
func (s *bookingService) validateCreate(cmd *CreateBookingCommand) error {
	if cmd.LocationID == "" {
		return domain.ErrInvalidLocationID
	}
	if cmd.EventID == "" {
		return domain.ErrInvalidEventID
	}
	if cmd.OrganizationID == "" {
		return domain.ErrInvalidOrganizationID
	}
	if cmd.StartTime.IsZero() || cmd.EndTime.IsZero() {
		return domain.ErrInvalidTimeWindow
	}
	return nil
}
