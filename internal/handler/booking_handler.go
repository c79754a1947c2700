package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/planify/booking-service/internal/domain"
	"github.com/planify/booking-service/internal/dto"
	"github.com/planify/booking-service/internal/service"
	"github.com/planify/booking-service/pkg/logger"
	"github.com/planify/booking-service/pkg/response"
	"go.uber.org/zap"
)

// BookingHandler serves the booking lifecycle endpoints
type BookingHandler struct {
	bookingService service.BookingService
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookingService service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// Create handles POST /api/bookings
func (h *BookingHandler) Create(c *gin.Context) {
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.bookingService.CreateBooking(c.Request.Context(), req.ToCommand())
	if err != nil {
		switch {
		case domain.IsValidationError(err):
			response.BadRequest(c, err.Error())
		case domain.IsNotFoundError(err):
			response.NotFound(c, err.Error())
		default:
			logger.Get().Error("create booking failed", zap.Error(err))
			response.InternalError(c, err)
		}
		return
	}

	if result.Status == domain.BookingStatusFailed {
		if len(result.Conflicts) > 0 {
			response.Conflict(c, "requested window conflicts with existing bookings", dto.NewCreateBookingResponse(result))
			return
		}
		response.ServiceUnavailable(c, "booking could not be completed, please try again")
		return
	}

	response.Created(c, dto.NewCreateBookingResponse(result))
}

// Cancel handles POST /api/bookings/:id/cancel
func (h *BookingHandler) Cancel(c *gin.Context) {
	bookingID := c.Param("id")

	booking, err := h.bookingService.CancelBooking(c.Request.Context(), bookingID)
	if err != nil {
		switch {
		case domain.IsValidationError(err):
			response.BadRequest(c, err.Error())
		case domain.IsNotFoundError(err):
			response.NotFound(c, err.Error())
		case domain.IsTransientError(err):
			response.ServiceUnavailable(c, err.Error())
		default:
			logger.Get().Error("cancel booking failed",
				zap.String("booking_id", bookingID),
				zap.Error(err),
			)
			response.InternalError(c, err)
		}
		return
	}

	response.Success(c, dto.NewBookingResponse(booking))
}

// Get handles GET /api/bookings/:id
func (h *BookingHandler) Get(c *gin.Context) {
	bookingID := c.Param("id")

	booking, err := h.bookingService.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		switch {
		case domain.IsValidationError(err):
			response.BadRequest(c, err.Error())
		case domain.IsNotFoundError(err):
			response.NotFound(c, err.Error())
		default:
			logger.Get().Error("get booking failed",
				zap.String("booking_id", bookingID),
				zap.Error(err),
			)
			response.InternalError(c, err)
		}
		return
	}

	response.Success(c, dto.NewBookingResponse(booking))
}
