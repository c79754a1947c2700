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

// LocationHandler serves the location catalog endpoints
type LocationHandler struct {
	locationService service.LocationService
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(locationService service.LocationService) *LocationHandler {
	return &LocationHandler{locationService: locationService}
}

// List handles GET /api/locations
func (h *LocationHandler) List(c *gin.Context) {
	locations, err := h.locationService.ListLocations(c.Request.Context())
	if err != nil {
		logger.Get().Error("list locations failed", zap.Error(err))
		response.InternalError(c, err)
		return
	}

	response.Success(c, dto.NewLocationListResponse(locations))
}

// Get handles GET /api/locations/:id
func (h *LocationHandler) Get(c *gin.Context) {
	locationID := c.Param("id")

	location, err := h.locationService.GetLocation(c.Request.Context(), locationID)
	if err != nil {
		switch {
		case domain.IsValidationError(err):
			response.BadRequest(c, err.Error())
		case domain.IsNotFoundError(err):
			response.NotFound(c, err.Error())
		default:
			logger.Get().Error("get location failed",
				zap.String("location_id", locationID),
				zap.Error(err),
			)
			response.InternalError(c, err)
		}
		return
	}

	response.Success(c, dto.NewLocationResponse(location))
}
