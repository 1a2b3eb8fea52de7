package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/cs2insight/impact-engine/internal/api"
	"github.com/cs2insight/impact-engine/internal/api/handlers"
	"github.com/cs2insight/impact-engine/internal/api/middleware"
	"github.com/cs2insight/impact-engine/internal/engine"
	"github.com/cs2insight/impact-engine/internal/providers"
	"github.com/cs2insight/impact-engine/internal/services"
	"github.com/cs2insight/impact-engine/pkg/config"
	"github.com/cs2insight/impact-engine/pkg/database"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Setup logging
	if cfg.IsDevelopment() {
		logrus.SetLevel(logrus.DebugLevel)
		gin.SetMode(gin.DebugMode)
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		logrus.SetLevel(logrus.InfoLevel)
		gin.SetMode(gin.ReleaseMode)
	}
	logger := logrus.StandardLogger()

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		logrus.Fatalf("Failed to migrate database: %v", err)
	}

	// Connect to Redis. The cache is optional; everything falls back to
	// the database when disabled.
	var cacheService *services.CacheService
	if cfg.CacheEnabled {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logrus.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient := redis.NewClient(opt)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logrus.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		cacheService = services.NewCacheService(redisClient)
	}

	// Initialize the scoring stack
	eng := engine.New(logger, engine.WithWorkers(cfg.EngineWorkers))
	ratingsService := services.NewRatingsService(db.DB, cacheService, eng, cfg.CacheExpiration, logger)

	var statsAPI *providers.StatsAPIClient
	if cfg.StatsAPIURL != "" {
		statsAPI = providers.NewStatsAPIClient(cfg.StatsAPIURL, cfg.StatsAPIRate, logger)
	}

	refresher := services.NewRefreshService(db.DB, ratingsService, statsAPI, cfg.Sample, cfg.RefreshInterval, logger)
	if err := refresher.Start(); err != nil {
		logrus.Errorf("Failed to start refresh service: %v", err)
	}
	defer refresher.Stop()

	// Optional one-shot ingest from local sheets on boot
	if cfg.StatsCSVPath != "" {
		if err := ratingsService.IngestFromFiles(cfg.Sample, cfg.StatsCSVPath, cfg.RolesCSVPath); err != nil {
			logrus.Errorf("Failed to ingest local sheets: %v", err)
		} else if _, err := ratingsService.Recompute(context.Background(), cfg.Sample); err != nil {
			logrus.Errorf("Failed initial recompute: %v", err)
		}
	} else if cfg.RefreshOnStartup {
		go refresher.Refresh(context.Background())
	}

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.ErrorLogger(logger))
	router.Use(middleware.CORS(cfg.CorsOrigins))

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(db, refresher)
	router.GET("/health", healthHandler.GetHealth)
	router.GET("/ready", healthHandler.GetReady)

	// Setup API routes under /api/v1
	apiV1 := router.Group("/api/v1")
	api.SetupRoutes(apiV1, cfg, ratingsService, refresher)

	// Setup server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logrus.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}
