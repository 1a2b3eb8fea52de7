package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/cs2insight/impact-engine/internal/services"
	"github.com/cs2insight/impact-engine/pkg/utils"
)

type RefreshHandler struct {
	refresher *services.RefreshService
}

func NewRefreshHandler(refresher *services.RefreshService) *RefreshHandler {
	return &RefreshHandler{refresher: refresher}
}

// TriggerRefresh starts a refresh cycle unless one is already running.
func (h *RefreshHandler) TriggerRefresh(c *gin.Context) {
	if started := h.refresher.Refresh(c.Request.Context()); !started {
		utils.SendConflict(c, "Refresh already in progress")
		return
	}
	utils.SendSuccess(c, h.refresher.Status())
}

// GetStatus reports the scheduler state.
func (h *RefreshHandler) GetStatus(c *gin.Context) {
	utils.SendSuccess(c, h.refresher.Status())
}
