package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOverlaps(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	hour := func(n int) time.Time { return base.Add(time.Duration(n) * time.Hour) }

	tests := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     time.Time
		want                           bool
	}{
		{"identical windows", hour(0), hour(2), hour(0), hour(2), true},
		{"partial overlap", hour(0), hour(2), hour(1), hour(3), true},
		{"contained window", hour(0), hour(4), hour(1), hour(2), true},
		{"back to back, a before b", hour(0), hour(2), hour(2), hour(4), false},
		{"back to back, b before a", hour(2), hour(4), hour(0), hour(2), false},
		{"disjoint", hour(0), hour(1), hour(3), hour(4), false},
		{"one minute overlap", hour(0), hour(2).Add(time.Minute), hour(2), hour(4), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd))
		})
	}
}

func TestBilledHours(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		duration time.Duration
		want     int64
	}{
		{"exactly one hour", time.Hour, 1},
		{"ninety minutes rounds up", 90 * time.Minute, 2},
		{"one minute", time.Minute, 1},
		{"fifty nine minutes", 59 * time.Minute, 1},
		{"sixty one minutes", 61 * time.Minute, 2},
		{"two hours", 2 * time.Hour, 2},
		{"zero window still bills one hour", 0, 1},
		{"inverted window still bills one hour", -time.Hour, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BilledHours(base, base.Add(tt.duration)))
		})
	}
}

func TestPriceFor(t *testing.T) {
	loc := &Location{ID: "loc-1", PricePerHourCents: 5000}
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, int64(5000), PriceFor(loc, start, start.Add(time.Hour)))
	assert.Equal(t, int64(10000), PriceFor(loc, start, start.Add(90*time.Minute)))
	assert.Equal(t, int64(15000), PriceFor(loc, start, start.Add(3*time.Hour)))
}

func TestBookingStatusIsLive(t *testing.T) {
	assert.True(t, BookingStatusPendingPayment.IsLive())
	assert.True(t, BookingStatusConfirmed.IsLive())
	assert.False(t, BookingStatusCancelled.IsLive())
	assert.False(t, BookingStatusFailed.IsLive())
}

func TestBookingCancelIsIdempotent(t *testing.T) {
	b := &Booking{Status: BookingStatusPendingPayment}

	first := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b.Cancel(first)
	assert.True(t, b.IsCancelled())
	assert.Equal(t, first, b.UpdatedAt)

	second := first.Add(time.Hour)
	b.Cancel(second)
	assert.True(t, b.IsCancelled())
	assert.Equal(t, BookingStatusCancelled, b.Status)
}
