package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/cs2insight/impact-engine/internal/models"
	"github.com/cs2insight/impact-engine/internal/providers"
)

// RefreshService re-pulls stats from the upstream API on a schedule and
// recomputes the sample's ratings. A mutex-guarded flag keeps refresh
// cycles from overlapping when upstream calls run long.
type RefreshService struct {
	db       *gorm.DB
	ratings  *RatingsService
	statsAPI *providers.StatsAPIClient
	logger   *logrus.Logger
	cron     *cron.Cron

	sample   string
	interval time.Duration

	mu           sync.Mutex
	isRunning    bool
	isRefreshing bool
	lastRefresh  time.Time
	lastError    string
}

// NewRefreshService creates a new refresh service. statsAPI may be nil;
// refresh cycles then recompute from already-ingested rows only.
func NewRefreshService(
	db *gorm.DB,
	ratings *RatingsService,
	statsAPI *providers.StatsAPIClient,
	sample string,
	interval time.Duration,
	logger *logrus.Logger,
) *RefreshService {
	return &RefreshService{
		db:       db,
		ratings:  ratings,
		statsAPI: statsAPI,
		logger:   logger,
		cron:     cron.New(),
		sample:   sample,
		interval: interval,
	}
}

// Start begins the scheduled refreshing
func (s *RefreshService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("refresh service is already running")
	}

	schedule := fmt.Sprintf("@every %s", s.interval.String())
	_, err := s.cron.AddFunc(schedule, func() { s.Refresh(context.Background()) })
	if err != nil {
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}

	// Daily cleanup of stale run snapshots
	_, err = s.cron.AddFunc("0 3 * * *", s.cleanupOldRuns)
	if err != nil {
		return fmt.Errorf("failed to schedule cleanup: %w", err)
	}

	s.cron.Start()
	s.isRunning = true

	s.logger.WithFields(logrus.Fields{
		"sample":   s.sample,
		"interval": s.interval.String(),
	}).Info("Refresh service started")
	return nil
}

// Stop halts the scheduled refreshing
func (s *RefreshService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.logger.Info("Refresh service stopped")
}

// Refresh runs one cycle: pull fresh stats when an upstream client is
// configured, then recompute ratings. Returns false when a cycle was
// already in flight.
func (s *RefreshService) Refresh(ctx context.Context) bool {
	s.mu.Lock()
	if s.isRefreshing {
		s.mu.Unlock()
		s.logger.Warn("Refresh already in progress, skipping cycle")
		return false
	}
	s.isRefreshing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isRefreshing = false
		s.lastRefresh = time.Now()
		s.mu.Unlock()
	}()

	s.logger.WithField("sample", s.sample).Info("Starting refresh cycle")

	if s.statsAPI != nil {
		stats, err := s.statsAPI.GetEventStats(ctx, s.sample)
		if err != nil {
			s.setError(fmt.Sprintf("stats fetch failed: %v", err))
			s.logger.WithError(err).Error("Failed to fetch stats from upstream, keeping previous run")
			return true
		}
		if err := s.ratings.IngestStats(s.sample, stats); err != nil {
			s.setError(fmt.Sprintf("stats ingest failed: %v", err))
			s.logger.WithError(err).Error("Failed to ingest refreshed stats")
			return true
		}
	}

	if _, err := s.ratings.Recompute(ctx, s.sample); err != nil {
		s.setError(fmt.Sprintf("recompute failed: %v", err))
		s.logger.WithError(err).Error("Failed to recompute ratings")
		return true
	}

	s.setError("")
	s.logger.WithField("sample", s.sample).Info("Refresh cycle completed")
	return true
}

// RefreshStatus is the reportable state of the scheduler.
type RefreshStatus struct {
	Sample       string    `json:"sample"`
	IsRunning    bool      `json:"is_running"`
	IsRefreshing bool      `json:"is_refreshing"`
	LastRefresh  time.Time `json:"last_refresh"`
	NextRefresh  time.Time `json:"next_refresh"`
	LastError    string    `json:"last_error,omitempty"`
}

// Status reports the scheduler state for the health surface.
func (s *RefreshService) Status() RefreshStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := RefreshStatus{
		Sample:       s.sample,
		IsRunning:    s.isRunning,
		IsRefreshing: s.isRefreshing,
		LastRefresh:  s.lastRefresh,
		LastError:    s.lastError,
	}
	if s.isRunning && !s.lastRefresh.IsZero() {
		status.NextRefresh = s.lastRefresh.Add(s.interval)
	}
	return status
}

func (s *RefreshService) setError(msg string) {
	s.mu.Lock()
	s.lastError = msg
	s.mu.Unlock()
}

// cleanupOldRuns keeps the most recent runs per sample and drops the
// rest along with their snapshots.
func (s *RefreshService) cleanupOldRuns() {
	const keep = 10

	var stale []models.RatingRun
	err := s.db.Where("sample = ?", s.sample).
		Order("created_at desc").
		Offset(keep).
		Find(&stale).Error
	if err != nil {
		s.logger.WithError(err).Error("Failed to list stale runs")
		return
	}
	if len(stale) == 0 {
		return
	}

	for _, run := range stale {
		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("run_id = ?", run.ID).Delete(&models.PlayerRating{}).Error; err != nil {
				return err
			}
			if err := tx.Where("run_id = ?", run.ID).Delete(&models.TeamRating{}).Error; err != nil {
				return err
			}
			return tx.Delete(&models.RatingRun{}, "id = ?", run.ID).Error
		})
		if err != nil {
			s.logger.WithError(err).WithField("run_id", run.ID).Error("Failed to delete stale run")
		}
	}

	s.logger.WithField("deleted", len(stale)).Info("Cleaned up stale rating runs")
}
