package domain

import (
	"time"
)

// BookingEventType identifies a booking domain event
type BookingEventType string

const (
	BookingEventCreated   BookingEventType = "booking.created"
	BookingEventCancelled BookingEventType = "booking.cancelled"
)

// BookingEventPayload is the typed body shared by all booking events. It is
// serialized at the publish boundary; consumers see a flat JSON object.
type BookingEventPayload struct {
	BookingID        string    `json:"booking_id"`
	LocationID       string    `json:"location_id"`
	EventID          string    `json:"event_id,omitempty"`
	OrganizationID   string    `json:"organization_id,omitempty"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	Status           string    `json:"status"`
	TotalAmountCents int64     `json:"total_amount_cents"`
	Currency         string    `json:"currency"`
}

// BookingEvent is the envelope published to the event bus.
type BookingEvent struct {
	EventID   string              `json:"event_id"`
	EventType BookingEventType    `json:"event_type"`
	Timestamp time.Time           `json:"timestamp"`
	Booking   BookingEventPayload `json:"booking"`
}

// NewBookingEvent creates an event envelope for the given booking
func NewBookingEvent(eventType BookingEventType, booking *Booking, eventID string) *BookingEvent {
	return &BookingEvent{
		EventID:   eventID,
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Booking: BookingEventPayload{
			BookingID:        booking.ID,
			LocationID:       booking.LocationID,
			EventID:          booking.EventID,
			OrganizationID:   booking.OrganizationID,
			StartTime:        booking.StartTime,
			EndTime:          booking.EndTime,
			Status:           booking.Status.String(),
			TotalAmountCents: booking.TotalAmountCents,
			Currency:         booking.Currency,
		},
	}
}

// Key returns the partition key for the event. Events for the same location
// stay ordered relative to each other.
func (e *BookingEvent) Key() string {
	if e.Booking.LocationID != "" {
		return e.Booking.LocationID
	}
	return e.Booking.BookingID
}
