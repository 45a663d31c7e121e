package footprint

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"eco-voyage/travel-app/footprint-backend/internal/auth"
	"eco-voyage/travel-app/footprint-backend/internal/factors"
)

// Handler handles HTTP requests for footprint operations.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new footprint handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers footprint routes on an authenticated group.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	fp := router.Group("/footprint")
	{
		fp.POST("/activities", h.logActivity)
		fp.GET("/activities", h.getFootprints)
	}
}

// logActivity handles POST /footprint/activities
func (h *Handler) logActivity(c *gin.Context) {
	var req LogActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.LogActivity(c.Request.Context(), auth.UserID(c), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, factors.ErrUnavailable):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			h.logger.Error("Failed to log activity", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log activity"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"activityId":      result.ActivityID,
		"carbonFootprint": result.CarbonKg,
	})
}

// getFootprints handles GET /footprint/activities?startDate=...&endDate=...
func (h *Handler) getFootprints(c *gin.Context) {
	startDate := c.Query("startDate")
	endDate := c.Query("endDate")
	if startDate == "" || endDate == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "startDate and endDate are required"})
		return
	}

	footprints, err := h.service.GetFootprints(c.Request.Context(), auth.UserID(c), startDate, endDate)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to fetch footprints", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch footprints"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"footprints": footprints})
}
