package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/planify/booking-service/internal/domain"
	"github.com/planify/booking-service/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockBookingService lets each test plug in just the behavior it needs
type mockBookingService struct {
	createFn func(ctx context.Context, cmd *service.CreateBookingCommand) (*service.CreateBookingResult, error)
	cancelFn func(ctx context.Context, bookingID string) (*domain.Booking, error)
	getFn    func(ctx context.Context, bookingID string) (*domain.Booking, error)
}

func (m *mockBookingService) CreateBooking(ctx context.Context, cmd *service.CreateBookingCommand) (*service.CreateBookingResult, error) {
	return m.createFn(ctx, cmd)
}

func (m *mockBookingService) CancelBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	return m.cancelFn(ctx, bookingID)
}

func (m *mockBookingService) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	return m.getFn(ctx, bookingID)
}

func setupBookingRouter(svc service.BookingService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewBookingHandler(svc)

	router := gin.New()
	router.POST("/api/bookings", h.Create)
	router.POST("/api/bookings/:id/cancel", h.Cancel)
	router.GET("/api/bookings/:id", h.Get)
	return router
}

func sampleBooking() *domain.Booking {
	start := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	return &domain.Booking{
		ID:               "booking-1",
		LocationID:       "loc-1",
		EventID:          "event-1",
		OrganizationID:   "org-1",
		StartTime:        start,
		EndTime:          start.Add(2 * time.Hour),
		Status:           domain.BookingStatusPendingPayment,
		TotalAmountCents: 10000,
		Currency:         "EUR",
	}
}

func createRequestBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"location_id":     "loc-1",
		"event_id":        "event-1",
		"organization_id": "org-1",
		"start_time":      time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC).UnixMilli(),
		"end_time":        time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC).UnixMilli(),
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestBookingHandler_Create_Success(t *testing.T) {
	booking := sampleBooking()
	router := setupBookingRouter(&mockBookingService{
		createFn: func(ctx context.Context, cmd *service.CreateBookingCommand) (*service.CreateBookingResult, error) {
			assert.Equal(t, "loc-1", cmd.LocationID)
			assert.Equal(t, booking.StartTime, cmd.StartTime)
			return &service.CreateBookingResult{
				Booking:   booking,
				Status:    domain.BookingStatusPendingPayment,
				Available: true,
			}, nil
		},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/bookings", createRequestBody(t))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "booking-1")
	assert.Contains(t, w.Body.String(), "PENDING_PAYMENT")
}

func TestBookingHandler_Create_Conflict(t *testing.T) {
	router := setupBookingRouter(&mockBookingService{
		createFn: func(ctx context.Context, cmd *service.CreateBookingCommand) (*service.CreateBookingResult, error) {
			return &service.CreateBookingResult{
				Status:    domain.BookingStatusFailed,
				Conflicts: []string{"existing-1"},
			}, nil
		},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/bookings", createRequestBody(t))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "existing-1")
}

func TestBookingHandler_Create_StoreUnavailable(t *testing.T) {
	router := setupBookingRouter(&mockBookingService{
		createFn: func(ctx context.Context, cmd *service.CreateBookingCommand) (*service.CreateBookingResult, error) {
			return &service.CreateBookingResult{Status: domain.BookingStatusFailed}, nil
		},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/bookings", createRequestBody(t))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestBookingHandler_Create_UnknownLocation(t *testing.T) {
	router := setupBookingRouter(&mockBookingService{
		createFn: func(ctx context.Context, cmd *service.CreateBookingCommand) (*service.CreateBookingResult, error) {
			return nil, domain.ErrLocationNotFound
		},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/bookings", createRequestBody(t))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookingHandler_Create_EdgeValidation(t *testing.T) {
	start := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	base := func() map[string]interface{} {
		return map[string]interface{}{
			"location_id":     "loc-1",
			"event_id":        "event-1",
			"organization_id": "org-1",
			"start_time":      start.UnixMilli(),
			"end_time":        start.Add(2 * time.Hour).UnixMilli(),
		}
	}

	tests := []struct {
		name   string
		mutate func(body map[string]interface{})
	}{
		{"end equals start", func(b map[string]interface{}) { b["end_time"] = b["start_time"] }},
		{"end before start", func(b map[string]interface{}) { b["end_time"] = start.Add(-time.Hour).UnixMilli() }},
		{"lowercase currency", func(b map[string]interface{}) { b["currency"] = "eur" }},
		{"long currency", func(b map[string]interface{}) { b["currency"] = "EURO" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Malformed requests stop at the edge; the service is never called.
			router := setupBookingRouter(&mockBookingService{
				createFn: func(ctx context.Context, cmd *service.CreateBookingCommand) (*service.CreateBookingResult, error) {
					t.Fatal("service must not be invoked for edge-rejected requests")
					return nil, nil
				},
			})

			payload := base()
			tt.mutate(payload)
			body, err := json.Marshal(payload)
			require.NoError(t, err)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/bookings", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestBookingHandler_Create_InvalidBody(t *testing.T) {
	router := setupBookingRouter(&mockBookingService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/bookings", bytes.NewBufferString(`{"location_id":"loc-1"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingHandler_Cancel_Success(t *testing.T) {
	booking := sampleBooking()
	booking.Status = domain.BookingStatusCancelled
	router := setupBookingRouter(&mockBookingService{
		cancelFn: func(ctx context.Context, bookingID string) (*domain.Booking, error) {
			assert.Equal(t, "booking-1", bookingID)
			return booking, nil
		},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/bookings/booking-1/cancel", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "CANCELLED")
}

func TestBookingHandler_Cancel_NotFound(t *testing.T) {
	router := setupBookingRouter(&mockBookingService{
		cancelFn: func(ctx context.Context, bookingID string) (*domain.Booking, error) {
			return nil, domain.ErrBookingNotFound
		},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/bookings/missing/cancel", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookingHandler_Cancel_Unavailable(t *testing.T) {
	router := setupBookingRouter(&mockBookingService{
		cancelFn: func(ctx context.Context, bookingID string) (*domain.Booking, error) {
			return nil, domain.ErrCancellationUnavailable
		},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/bookings/booking-1/cancel", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestBookingHandler_Get(t *testing.T) {
	booking := sampleBooking()
	router := setupBookingRouter(&mockBookingService{
		getFn: func(ctx context.Context, bookingID string) (*domain.Booking, error) {
			if bookingID == "booking-1" {
				return booking, nil
			}
			return nil, domain.ErrBookingNotFound
		},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/bookings/booking-1", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/bookings/missing", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
