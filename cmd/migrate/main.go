package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/cs2insight/impact-engine/internal/engine"
	"github.com/cs2insight/impact-engine/internal/services"
	"github.com/cs2insight/impact-engine/pkg/config"
	"github.com/cs2insight/impact-engine/pkg/database"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate [up|down|seed]")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	command := os.Args[1]

	switch command {
	case "up":
		if err := runMigrations(db); err != nil {
			logrus.Fatalf("Failed to run migrations: %v", err)
		}
		logrus.Info("Migrations completed successfully")

	case "down":
		if err := dropTables(db); err != nil {
			logrus.Fatalf("Failed to drop tables: %v", err)
		}
		logrus.Info("Tables dropped successfully")

	case "seed":
		if err := seedData(db, cfg); err != nil {
			logrus.Fatalf("Failed to seed data: %v", err)
		}
		logrus.Info("Data seeded successfully")

	default:
		log.Fatalf("Unknown command: %s", command)
	}
}

func runMigrations(db *database.DB) error {
	// Enable UUID extension for PostgreSQL
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		return fmt.Errorf("failed to create UUID extension: %w", err)
	}

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	// Create indexes
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_player_stats_sample_team ON player_stats(sample, team)",
		"CREATE INDEX IF NOT EXISTS idx_player_ratings_run_piv ON player_ratings(run_id, piv DESC)",
		"CREATE INDEX IF NOT EXISTS idx_team_ratings_run_rank ON team_ratings(run_id, rank)",
		"CREATE INDEX IF NOT EXISTS idx_rating_runs_sample_created ON rating_runs(sample, created_at DESC)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

func dropTables(db *database.DB) error {
	// Drop tables in reverse order to handle foreign key constraints
	tables := []string{
		"team_ratings",
		"player_ratings",
		"rating_runs",
		"role_list_entries",
		"player_stats",
	}

	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)).Error; err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}

	return nil
}

// seedData loads the local stats and roles sheets named in the config
// so a fresh database has something to score.
func seedData(db *database.DB, cfg *config.Config) error {
	if cfg.StatsCSVPath == "" {
		return fmt.Errorf("STATS_CSV_PATH not set, nothing to seed")
	}

	logger := logrus.StandardLogger()
	eng := engine.New(logger, engine.WithWorkers(cfg.EngineWorkers))
	svc := services.NewRatingsService(db.DB, nil, eng, cfg.CacheExpiration, logger)

	if err := svc.IngestFromFiles(cfg.Sample, cfg.StatsCSVPath, cfg.RolesCSVPath); err != nil {
		return err
	}
	if _, err := svc.Recompute(context.Background(), cfg.Sample); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"sample": cfg.Sample,
		"stats":  cfg.StatsCSVPath,
		"roles":  cfg.RolesCSVPath,
	}).Info("Seeded and scored sample from local sheets")
	return nil
}
