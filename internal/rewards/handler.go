package rewards

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"eco-voyage/travel-app/footprint-backend/internal/auth"
)

// Handler handles HTTP requests for leaderboard operations.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new rewards handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers reward routes on an authenticated group.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/leaderboard", h.getLeaderboard)
}

// getLeaderboard handles GET /leaderboard?limit=20
func (h *Handler) getLeaderboard(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		limit = parsed
	}

	resp, err := h.service.GetLeaderboard(c.Request.Context(), auth.UserID(c), limit)
	if err != nil {
		h.logger.Error("Failed to fetch leaderboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch leaderboard"})
		return
	}

	c.JSON(http.StatusOK, resp)
}
