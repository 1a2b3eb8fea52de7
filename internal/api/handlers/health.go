package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cs2insight/impact-engine/internal/services"
	"github.com/cs2insight/impact-engine/pkg/database"
)

type HealthHandler struct {
	db        *database.DB
	refresher *services.RefreshService
}

func NewHealthHandler(db *database.DB, refresher *services.RefreshService) *HealthHandler {
	return &HealthHandler{
		db:        db,
		refresher: refresher,
	}
}

// GetHealth returns basic health status - always returns 200 if server is running
// This is used for basic liveness probes
func (h *HealthHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"service":   "impact-engine",
	})
}

// GetReady returns readiness status - only returns 200 when the database
// is reachable. Used for readiness probes in container orchestration.
func (h *HealthHandler) GetReady(c *gin.Context) {
	sqlDB, err := h.db.DB.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}

	status := gin.H{"status": "ready"}
	if h.refresher != nil {
		status["refresh"] = h.refresher.Status()
	}
	c.JSON(http.StatusOK, status)
}
