package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/habitflow-sync-engine/internal/core/services"
)

type StatsHandler struct {
	svc *services.HabitService
}

func NewStatsHandler(svc *services.HabitService) *StatsHandler {
	return &StatsHandler{svc: svc}
}

func (h *StatsHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/stats", h.GetStats)
}

// GetStats godoc
// @Summary  Dashboard numbers: streak, weekly progress, completion rate
// @Tags     stats
// @Produce  json
// @Param    date query string false "YYYY-MM-DD, defaults to today"
// @Success  200 {object} domain.Stats
// @Failure  400 {object} errorResponse
// @Security BearerAuth
// @Router   /stats [get]
func (h *StatsHandler) GetStats(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := h.svc.GetStats(c.Request.Context(), userID, c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
