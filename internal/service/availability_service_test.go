package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/planify/booking-service/internal/domain"
	"github.com/planify/booking-service/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAvailabilityFixture() (AvailabilityService, *MockBookingRepository) {
	repo := NewMockBookingRepository()
	svc := NewAvailabilityService(repo, testPolicy("availability"), metrics.New())
	return svc, repo
}

func availabilityWindow() (time.Time, time.Time) {
	start := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	return start, start.Add(2 * time.Hour)
}

func TestFindConflicts_EmptyWhenFree(t *testing.T) {
	svc, _ := newAvailabilityFixture()
	start, end := availabilityWindow()

	conflicts, err := svc.FindConflicts(context.Background(), "loc-1", start, end)

	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestFindConflicts_ReturnsLiveOverlaps(t *testing.T) {
	svc, repo := newAvailabilityFixture()
	start, end := availabilityWindow()

	repo.AddBooking(&domain.Booking{
		ID:         "live-1",
		LocationID: "loc-1",
		StartTime:  start.Add(30 * time.Minute),
		EndTime:    end.Add(time.Hour),
		Status:     domain.BookingStatusPendingPayment,
	})
	// Cancelled bookings no longer occupy their window.
	repo.AddBooking(&domain.Booking{
		ID:         "cancelled-1",
		LocationID: "loc-1",
		StartTime:  start,
		EndTime:    end,
		Status:     domain.BookingStatusCancelled,
	})
	// Other locations never conflict.
	repo.AddBooking(&domain.Booking{
		ID:         "other-loc",
		LocationID: "loc-2",
		StartTime:  start,
		EndTime:    end,
		Status:     domain.BookingStatusConfirmed,
	})

	conflicts, err := svc.FindConflicts(context.Background(), "loc-1", start, end)

	require.NoError(t, err)
	assert.Equal(t, []string{"live-1"}, conflicts)
}

func TestFindConflicts_StoreDownFailsClosed(t *testing.T) {
	svc, repo := newAvailabilityFixture()
	repo.findErr = errors.New("connection refused")
	start, end := availabilityWindow()

	_, err := svc.FindConflicts(context.Background(), "loc-1", start, end)

	assert.ErrorIs(t, err, domain.ErrAvailabilityUnavailable)
}

func TestFindConflicts_Validation(t *testing.T) {
	svc, _ := newAvailabilityFixture()
	start, end := availabilityWindow()

	_, err := svc.FindConflicts(context.Background(), "", start, end)
	assert.ErrorIs(t, err, domain.ErrInvalidLocationID)

	_, err = svc.FindConflicts(context.Background(), "loc-1", end, start)
	assert.ErrorIs(t, err, domain.ErrInvalidTimeWindow)

	_, err = svc.FindConflicts(context.Background(), "loc-1", start, start)
	assert.ErrorIs(t, err, domain.ErrInvalidTimeWindow)
}

func TestIsAvailable(t *testing.T) {
	svc, repo := newAvailabilityFixture()
	start, end := availabilityWindow()

	available, err := svc.IsAvailable(context.Background(), "loc-1", start, end)
	require.NoError(t, err)
	assert.True(t, available)

	repo.AddBooking(&domain.Booking{
		ID:         "live-1",
		LocationID: "loc-1",
		StartTime:  start,
		EndTime:    end,
		Status:     domain.BookingStatusConfirmed,
	})

	available, err = svc.IsAvailable(context.Background(), "loc-1", start, end)
	require.NoError(t, err)
	assert.False(t, available)
}

func TestIsAvailable_StoreDownReportsUnavailable(t *testing.T) {
	svc, repo := newAvailabilityFixture()
	repo.findErr = errors.New("connection refused")
	start, end := availabilityWindow()

	available, err := svc.IsAvailable(context.Background(), "loc-1", start, end)

	require.NoError(t, err)
	assert.False(t, available)
}

func TestIsAvailable_BreakerOpenFailsClosedWithoutStoreCall(t *testing.T) {
	repo := NewMockBookingRepository()
	svc := NewAvailabilityService(repo, trippablePolicy("availability"), metrics.New())
	start, end := availabilityWindow()

	repo.findErr = errors.New("connection refused")
	for i := 0; i < 2; i++ {
		_, err := svc.FindConflicts(context.Background(), "loc-1", start, end)
		require.ErrorIs(t, err, domain.ErrAvailabilityUnavailable)
	}

	// The store has recovered, but the open breaker keeps the check failing
	// closed without touching the repository.
	repo.findErr = nil
	callsBefore := repo.findCalls

	available, err := svc.IsAvailable(context.Background(), "loc-1", start, end)
	require.NoError(t, err)
	assert.False(t, available)
	assert.Equal(t, callsBefore, repo.findCalls)

	_, err = svc.FindConflicts(context.Background(), "loc-1", start, end)
	assert.ErrorIs(t, err, domain.ErrAvailabilityUnavailable)
}

func TestIsAvailable_ValidationErrorsPropagate(t *testing.T) {
	svc, _ := newAvailabilityFixture()
	start, end := availabilityWindow()

	_, err := svc.IsAvailable(context.Background(), "", start, end)
	assert.ErrorIs(t, err, domain.ErrInvalidLocationID)
}
