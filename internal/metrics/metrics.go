package metrics

import (
	"context"

	"github.com/planify/booking-service/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// Metrics holds the booking core's instrumentation counters and histograms.
type Metrics struct {
	BookingsCreated    *telemetry.Counter
	BookingsFailed     *telemetry.Counter
	BookingsCancelled  *telemetry.Counter
	ConflictsDetected  *telemetry.Counter
	AvailabilityChecks *telemetry.Counter
	PolicyRejections   *telemetry.Counter
	EventsPublished    *telemetry.Counter
	EventsDropped      *telemetry.Counter
	BookingDuration    *telemetry.Histogram
}

// New creates the metrics set for the booking service.
func New() *Metrics {
	return &Metrics{
		BookingsCreated: telemetry.NewCounter(telemetry.MetricOpts{
			Name:        "booking_created_total",
			Description: "Total number of bookings created",
		}),
		BookingsFailed: telemetry.NewCounter(telemetry.MetricOpts{
			Name:        "booking_failed_total",
			Description: "Total number of booking attempts that ended in FAILED",
		}),
		BookingsCancelled: telemetry.NewCounter(telemetry.MetricOpts{
			Name:        "booking_cancelled_total",
			Description: "Total number of bookings cancelled",
		}),
		ConflictsDetected: telemetry.NewCounter(telemetry.MetricOpts{
			Name:        "booking_conflicts_total",
			Description: "Total number of booking attempts rejected due to time conflicts",
		}),
		AvailabilityChecks: telemetry.NewCounter(telemetry.MetricOpts{
			Name:        "availability_checks_total",
			Description: "Total number of availability checks served",
		}),
		PolicyRejections: telemetry.NewCounter(telemetry.MetricOpts{
			Name:        "resilience_rejections_total",
			Description: "Total number of calls rejected by circuit breaker or bulkhead",
		}),
		EventsPublished: telemetry.NewCounter(telemetry.MetricOpts{
			Name:        "booking_events_published_total",
			Description: "Total number of booking events published",
		}),
		EventsDropped: telemetry.NewCounter(telemetry.MetricOpts{
			Name:        "booking_events_dropped_total",
			Description: "Total number of booking events that failed to publish",
		}),
		BookingDuration: telemetry.NewHistogram(telemetry.MetricOpts{
			Name:        "booking_create_duration_seconds",
			Description: "Duration of booking creation requests",
			Unit:        "s",
		}),
	}
}

// RecordRejection increments the policy rejection counter tagged with the
// policy name and the rejecting component (circuit_breaker or bulkhead).
func (m *Metrics) RecordRejection(ctx context.Context, policy, component string) {
	m.PolicyRejections.Add(ctx, 1,
		attribute.String("policy", policy),
		attribute.String("component", component),
	)
}
