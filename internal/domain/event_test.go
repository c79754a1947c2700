package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewBookingEvent(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	booking := &Booking{
		ID:               "booking-1",
		LocationID:       "loc-1",
		EventID:          "event-1",
		OrganizationID:   "org-1",
		StartTime:        start,
		EndTime:          start.Add(2 * time.Hour),
		Status:           BookingStatusPendingPayment,
		TotalAmountCents: 10000,
		Currency:         "EUR",
	}

	event := NewBookingEvent(BookingEventCreated, booking, "evt-123")

	assert.Equal(t, "evt-123", event.EventID)
	assert.Equal(t, BookingEventCreated, event.EventType)
	assert.False(t, event.Timestamp.IsZero())
	assert.Equal(t, "booking-1", event.Booking.BookingID)
	assert.Equal(t, "loc-1", event.Booking.LocationID)
	assert.Equal(t, "PENDING_PAYMENT", event.Booking.Status)
	assert.Equal(t, int64(10000), event.Booking.TotalAmountCents)
}

func TestBookingEventKey(t *testing.T) {
	event := NewBookingEvent(BookingEventCancelled, &Booking{
		ID:         "booking-1",
		LocationID: "loc-1",
	}, "evt-1")
	assert.Equal(t, "loc-1", event.Key())

	// Without a location the booking id keeps the key stable.
	event = NewBookingEvent(BookingEventCancelled, &Booking{ID: "booking-2"}, "evt-2")
	assert.Equal(t, "booking-2", event.Key())
}
