package handler

import (
	"github.com/gin-gonic/gin"

	"housingreview/internal/domain"
	"housingreview/internal/middleware"
	"housingreview/internal/service"
)

// StatsHandler handles stats endpoints.
type StatsHandler struct {
	statsService service.StatsService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(statsService service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// GetStats handles GET /api/v1/stats
// @Summary Get review statistics
// @Description Admins and viewers see totals; officers see their own submissions.
// @Tags stats
// @Produce json
// @Success 200 {object} Response{data=domain.ReviewStats}
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Security BearerAuth
// @Router /stats [get]
func (h *StatsHandler) GetStats(c *gin.Context) {
	stats, err := h.statsService.GetStats(c.Request.Context(), middleware.GetSubject(c), domain.Role(middleware.GetRole(c)))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, stats)
}
