package api

import (
	"github.com/gin-gonic/gin"

	"github.com/cs2insight/impact-engine/internal/api/handlers"
	"github.com/cs2insight/impact-engine/internal/services"
	"github.com/cs2insight/impact-engine/pkg/config"
)

// SetupRoutes configures all API routes on the given router group
func SetupRoutes(group *gin.RouterGroup, cfg *config.Config, ratings *services.RatingsService, refresher *services.RefreshService) {
	ratingsHandler := handlers.NewRatingsHandler(ratings, cfg.Sample)
	refreshHandler := handlers.NewRefreshHandler(refresher)

	// Player rating endpoints
	group.GET("/players", ratingsHandler.GetPlayers)
	group.GET("/players/:id", ratingsHandler.GetPlayer)

	// Team rating endpoints
	group.GET("/teams", ratingsHandler.GetTeams)
	group.GET("/teams/:name", ratingsHandler.GetTeam)

	// Run metadata and recompute
	group.GET("/runs/latest", ratingsHandler.GetRun)
	group.POST("/runs/recompute", ratingsHandler.Recompute)

	// Refresh scheduler
	group.POST("/refresh", refreshHandler.TriggerRefresh)
	group.GET("/refresh/status", refreshHandler.GetStatus)
}
