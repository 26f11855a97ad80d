package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/habitflow-sync-engine/internal/core/domain"
	"github.com/comitanigiacomo/habitflow-sync-engine/internal/core/services"
)

// SyncHandler exposes the whole tracking document.
type SyncHandler struct {
	svc *services.HabitService
}

func NewSyncHandler(svc *services.HabitService) *SyncHandler {
	return &SyncHandler{svc: svc}
}

func (h *SyncHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/snapshot", h.Export)
	r.PUT("/snapshot", h.Import)
	r.POST("/sync", h.Sync)
	r.DELETE("/data", h.Reset)
}

// Export godoc
// @Summary  Download the tracking document
// @Tags     sync
// @Produce  json
// @Success  200 {object} domain.Snapshot
// @Security BearerAuth
// @Router   /snapshot [get]
func (h *SyncHandler) Export(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	snap, err := h.svc.ExportSnapshot(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Import godoc
// @Summary  Replace the tracking document
// @Tags     sync
// @Accept   json
// @Produce  json
// @Param    body body domain.Snapshot true "document"
// @Success  200 {object} domain.Snapshot
// @Failure  400 {object} errorResponse
// @Security BearerAuth
// @Router   /snapshot [put]
func (h *SyncHandler) Import(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var snap domain.Snapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := h.svc.ImportSnapshot(c.Request.Context(), userID, &snap); err != nil {
		respondError(c, err)
		return
	}

	out, err := h.svc.ExportSnapshot(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Sync godoc
// @Summary  Save now instead of waiting for the background writer
// @Tags     sync
// @Produce  json
// @Success  200 {object} map[string]interface{}
// @Failure  500 {object} errorResponse
// @Security BearerAuth
// @Router   /sync [post]
func (h *SyncHandler) Sync(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.svc.Sync(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}

	snap, err := h.svc.ExportSnapshot(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"synced": true, "version": snap.Version})
}

// Reset godoc
// @Summary  Delete every habit, completion and activity day
// @Tags     sync
// @Success  204
// @Security BearerAuth
// @Router   /data [delete]
func (h *SyncHandler) Reset(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.svc.ResetData(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
