package domain

import "errors"

// Domain errors
var (
	// Lookup errors
	ErrBookingNotFound  = errors.New("booking not found")
	ErrLocationNotFound = errors.New("location not found")

	// Conflict errors
	ErrBookingConflict = errors.New("booking window conflicts with a live booking")

	// Transient errors surfaced by the resilience fallbacks
	ErrAvailabilityUnavailable = errors.New("availability check temporarily unavailable")
	ErrBookingUnavailable      = errors.New("booking creation temporarily unavailable")
	ErrCancellationUnavailable = errors.New("booking cancellation temporarily unavailable")

	// Validation errors
	ErrInvalidLocationID     = errors.New("invalid location id")
	ErrInvalidBookingID      = errors.New("invalid booking id")
	ErrInvalidEventID        = errors.New("invalid event id")
	ErrInvalidOrganizationID = errors.New("invalid organization id")
	ErrInvalidTimeWindow     = errors.New("invalid time window")
	ErrInvalidCurrency       = errors.New("invalid currency code")
)

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrBookingNotFound) ||
		errors.Is(err, ErrLocationNotFound)
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return errors.Is(err, ErrBookingConflict)
}

// IsTransientError checks if the error is one of the temporarily-unavailable
// errors produced when a resilience policy exhausts its budget or its
// breaker is open.
func IsTransientError(err error) bool {
	return errors.Is(err, ErrAvailabilityUnavailable) ||
		errors.Is(err, ErrBookingUnavailable) ||
		errors.Is(err, ErrCancellationUnavailable)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidLocationID) ||
		errors.Is(err, ErrInvalidBookingID) ||
		errors.Is(err, ErrInvalidEventID) ||
		errors.Is(err, ErrInvalidOrganizationID) ||
		errors.Is(err, ErrInvalidTimeWindow) ||
		errors.Is(err, ErrInvalidCurrency)
}
