package domain

import (
	"time"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusPendingPayment BookingStatus = "PENDING_PAYMENT"
	BookingStatusConfirmed      BookingStatus = "CONFIRMED"
	BookingStatusCancelled      BookingStatus = "CANCELLED"

	// BookingStatusFailed describes a creation attempt that produced no row.
	// It is a result value only and is never persisted.
	BookingStatusFailed BookingStatus = "FAILED"
)

// IsValid checks if the status is a valid BookingStatus
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPendingPayment, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of BookingStatus
func (s BookingStatus) String() string {
	return string(s)
}

// IsLive reports whether a booking in this status occupies its time window
// and therefore counts toward conflicts.
func (s BookingStatus) IsLive() bool {
	return s == BookingStatusPendingPayment || s == BookingStatusConfirmed
}

// LiveStatuses returns the statuses that participate in conflict checks.
func LiveStatuses() []BookingStatus {
	return []BookingStatus{BookingStatusPendingPayment, BookingStatusConfirmed}
}

// Booking represents a reservation of a location for a half-open time
// interval [StartTime, EndTime).
type Booking struct {
	ID               string        `json:"id"`
	LocationID       string        `json:"location_id"`
	EventID          string        `json:"event_id"`
	OrganizationID   string        `json:"organization_id"`
	StartTime        time.Time     `json:"start_time"`
	EndTime          time.Time     `json:"end_time"`
	Status           BookingStatus `json:"status"`
	TotalAmountCents int64         `json:"total_amount_cents"`
	Currency         string        `json:"currency"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// IsCancelled reports whether the booking has been cancelled.
func (b *Booking) IsCancelled() bool {
	return b.Status == BookingStatusCancelled
}

// Cancel marks the booking cancelled. Setting the status twice is a no-op,
// cancellation is idempotent at the domain level.
func (b *Booking) Cancel(now time.Time) {
	b.Status = BookingStatusCancelled
	b.UpdatedAt = now
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) overlap. Back-to-back windows where one end equals the
// other start do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// BilledHours converts a booking window to billed hours. A started hour is
// billed as a full hour, and every window is billed at least one hour, even
// when end <= start.
func BilledHours(start, end time.Time) int64 {
	minutes := int64(end.Sub(start) / time.Minute)
	hours := (minutes + 59) / 60
	if hours < 1 {
		hours = 1
	}
	return hours
}

// PriceFor computes the total charge in cents for booking a location over
// the given window.
func PriceFor(loc *Location, start, end time.Time) int64 {
	return loc.PricePerHourCents * BilledHours(start, end)
}
