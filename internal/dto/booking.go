package dto

import (
	"strings"
	"time"

	"github.com/planify/booking-service/internal/domain"
	"github.com/planify/booking-service/internal/service"
)

// CreateBookingRequest is the payload of POST /api/bookings. Times are epoch
// milliseconds UTC.
type CreateBookingRequest struct {
	LocationID     string `json:"location_id" binding:"required"`
	EventID        string `json:"event_id" binding:"required"`
	OrganizationID string `json:"organization_id" binding:"required"`
	StartTime      int64  `json:"start_time" binding:"required"`
	EndTime        int64  `json:"end_time" binding:"required"`
	Currency       string `json:"currency"`
}

// Validate applies the transport edge's window and currency rules. The
// booking core itself never order-checks the window or inspects the
// currency format, so the edge is where malformed requests stop.
func (r *CreateBookingRequest) Validate() error {
	if r.EndTime <= r.StartTime {
		return domain.ErrInvalidTimeWindow
	}
	if r.Currency != "" {
		if len(r.Currency) != 3 || strings.ToUpper(r.Currency) != r.Currency {
			return domain.ErrInvalidCurrency
		}
	}
	return nil
}

// ToCommand converts the request to a service command
func (r *CreateBookingRequest) ToCommand() *service.CreateBookingCommand {
	return &service.CreateBookingCommand{
		LocationID:     r.LocationID,
		EventID:        r.EventID,
		OrganizationID: r.OrganizationID,
		StartTime:      time.UnixMilli(r.StartTime).UTC(),
		EndTime:        time.UnixMilli(r.EndTime).UTC(),
		Currency:       r.Currency,
	}
}

// BookingResponse is the wire shape of a booking
type BookingResponse struct {
	ID               string `json:"id"`
	LocationID       string `json:"location_id"`
	EventID          string `json:"event_id"`
	OrganizationID   string `json:"organization_id"`
	StartTime        int64  `json:"start_time"`
	EndTime          int64  `json:"end_time"`
	Status           string `json:"status"`
	TotalAmountCents int64  `json:"total_amount_cents"`
	Currency         string `json:"currency"`
	CreatedAt        int64  `json:"created_at"`
	UpdatedAt        int64  `json:"updated_at"`
}

// NewBookingResponse converts a domain booking to its wire shape
func NewBookingResponse(b *domain.Booking) *BookingResponse {
	return &BookingResponse{
		ID:               b.ID,
		LocationID:       b.LocationID,
		EventID:          b.EventID,
		OrganizationID:   b.OrganizationID,
		StartTime:        b.StartTime.UnixMilli(),
		EndTime:          b.EndTime.UnixMilli(),
		Status:           b.Status.String(),
		TotalAmountCents: b.TotalAmountCents,
		Currency:         b.Currency,
		CreatedAt:        b.CreatedAt.UnixMilli(),
		UpdatedAt:        b.UpdatedAt.UnixMilli(),
	}
}

// CreateBookingResponse is the payload returned by POST /api/bookings
type CreateBookingResponse struct {
	Status    string           `json:"status"`
	Booking   *BookingResponse `json:"booking,omitempty"`
	Conflicts []string         `json:"conflicts,omitempty"`
}

// NewCreateBookingResponse converts a service result to its wire shape
func NewCreateBookingResponse(result *service.CreateBookingResult) *CreateBookingResponse {
	resp := &CreateBookingResponse{
		Status:    result.Status.String(),
		Conflicts: result.Conflicts,
	}
	if result.Booking != nil {
		resp.Booking = NewBookingResponse(result.Booking)
	}
	return resp
}

// AvailabilityResponse is the payload of the availability endpoint
type AvailabilityResponse struct {
	LocationID string   `json:"location_id"`
	StartTime  int64    `json:"start_time"`
	EndTime    int64    `json:"end_time"`
	Available  bool     `json:"available"`
	Conflicts  []string `json:"conflicts"`
}

// LocationResponse is the wire shape of a location
type LocationResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Address           string `json:"address"`
	Capacity          int    `json:"capacity"`
	PricePerHourCents int64  `json:"price_per_hour_cents"`
	Active            bool   `json:"active"`
}

// NewLocationResponse converts a domain location to its wire shape
func NewLocationResponse(l *domain.Location) *LocationResponse {
	return &LocationResponse{
		ID:                l.ID,
		Name:              l.Name,
		Address:           l.Address,
		Capacity:          l.Capacity,
		PricePerHourCents: l.PricePerHourCents,
		Active:            l.Active,
	}
}

// NewLocationListResponse converts a slice of domain locations
func NewLocationListResponse(locations []*domain.Location) []*LocationResponse {
	out := make([]*LocationResponse, 0, len(locations))
	for _, l := range locations {
		out = append(out, NewLocationResponse(l))
	}
	return out
}
