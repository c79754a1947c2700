package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/planify/booking-service/internal/domain"
	"github.com/planify/booking-service/internal/dto"
	"github.com/planify/booking-service/internal/service"
	"github.com/planify/booking-service/pkg/logger"
	"github.com/planify/booking-service/pkg/response"
	"go.uber.org/zap"
)

// AvailabilityHandler serves the availability query endpoint
type AvailabilityHandler struct {
	availabilityService service.AvailabilityService
}

// NewAvailabilityHandler creates a new availability handler
func NewAvailabilityHandler(availabilityService service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availabilityService: availabilityService}
}

// Check handles GET /api/booking/:locationId/availability?start=<ms>&end=<ms>
func (h *AvailabilityHandler) Check(c *gin.Context) {
	locationID := c.Param("locationId")

	start, err := parseMillis(c.Query("start"))
	if err != nil {
		response.BadRequest(c, "start must be epoch milliseconds")
		return
	}
	end, err := parseMillis(c.Query("end"))
	if err != nil {
		response.BadRequest(c, "end must be epoch milliseconds")
		return
	}

	conflicts, err := h.availabilityService.FindConflicts(c.Request.Context(), locationID, start, end)
	if err != nil {
		switch {
		case domain.IsValidationError(err):
			response.BadRequest(c, err.Error())
		case domain.IsTransientError(err):
			response.ServiceUnavailable(c, err.Error())
		default:
			logger.Get().Error("availability check failed",
				zap.String("location_id", locationID),
				zap.Error(err),
			)
			response.InternalError(c, err)
		}
		return
	}

	if conflicts == nil {
		conflicts = []string{}
	}
	response.Success(c, &dto.AvailabilityResponse{
		LocationID: locationID,
		StartTime:  start.UnixMilli(),
		EndTime:    end.UnixMilli(),
		Available:  len(conflicts) == 0,
		Conflicts:  conflicts,
	})
}

func parseMillis(raw string) (time.Time, error) {
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}
