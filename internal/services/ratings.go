package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/cs2insight/impact-engine/internal/engine"
	"github.com/cs2insight/impact-engine/internal/models"
	"github.com/cs2insight/impact-engine/internal/providers"
)

// RatingsService owns the scoring lifecycle: ingesting raw stats and
// curated rosters, running the impact engine over a sample, persisting
// run snapshots and serving them back with a cache in front.
type RatingsService struct {
	db       *gorm.DB
	cache    *CacheService
	engine   *engine.Engine
	logger   *logrus.Logger
	cacheTTL time.Duration
}

// NewRatingsService creates a new ratings service. cache may be nil;
// every read then falls through to the database.
func NewRatingsService(db *gorm.DB, cache *CacheService, eng *engine.Engine, cacheTTL time.Duration, logger *logrus.Logger) *RatingsService {
	return &RatingsService{
		db:       db,
		cache:    cache,
		engine:   eng,
		logger:   logger,
		cacheTTL: cacheTTL,
	}
}

// RunSummary is the lightweight view of one completed scoring run.
type RunSummary struct {
	RunID       uuid.UUID `json:"run_id"`
	Sample      string    `json:"sample"`
	PlayerCount int       `json:"player_count"`
	TeamCount   int       `json:"team_count"`
	Warnings    int       `json:"warnings"`
	CreatedAt   time.Time `json:"created_at"`
}

// IngestStats replaces a sample's raw stat rows from parsed records.
func (s *RatingsService) IngestStats(sample string, stats []engine.RawPlayerStats) error {
	rows := make([]models.PlayerStat, 0, len(stats))
	for _, st := range stats {
		rows = append(rows, statToRow(st))
	}
	if err := models.ReplaceSampleStats(s.db, sample, rows); err != nil {
		return fmt.Errorf("failed to store stats for sample %s: %w", sample, err)
	}
	s.logger.WithFields(logrus.Fields{
		"sample":  sample,
		"players": len(rows),
	}).Info("Ingested player stats")
	return nil
}

// IngestRoles replaces the curated role list from parsed entries.
func (s *RatingsService) IngestRoles(entries []models.RoleListEntry) error {
	if err := models.ReplaceRoleList(s.db, entries); err != nil {
		return fmt.Errorf("failed to store role list: %w", err)
	}
	s.logger.WithField("entries", len(entries)).Info("Ingested role list")
	return nil
}

// IngestFromFiles loads the stats and roles sheets from disk and stores
// both. The roles path may be empty; scoring then runs without any
// leader or marksman designations.
func (s *RatingsService) IngestFromFiles(sample, statsPath, rolesPath string) error {
	stats, err := providers.NewCSVStatsProvider(s.logger).LoadFile(statsPath)
	if err != nil {
		return err
	}
	if err := s.IngestStats(sample, stats); err != nil {
		return err
	}

	if rolesPath == "" {
		return nil
	}
	entries, err := providers.NewCSVRolesProvider(s.logger).LoadFile(rolesPath)
	if err != nil {
		return err
	}
	return s.IngestRoles(entries)
}

// Recompute runs the engine over the stored sample and persists a new
// run snapshot. Readers keep seeing the previous run until the new one
// is fully written.
func (s *RatingsService) Recompute(ctx context.Context, sample string) (*RunSummary, error) {
	rows, err := models.GetStatsForSample(s.db, sample)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats for sample %s: %w", sample, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no stats ingested for sample %s", sample)
	}

	roleRows, err := models.GetRoleList(s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to load role list: %w", err)
	}
	lists := models.BuildAllowlists(roleRows)

	batch := make([]engine.RawPlayerStats, len(rows))
	for i := range rows {
		batch[i] = rows[i].ToEngine()
	}

	result := s.engine.Process(batch, lists)

	run := models.RatingRun{
		ID:          uuid.New(),
		Sample:      sample,
		PlayerCount: len(result.Players),
		TeamCount:   len(result.Teams),
		Warnings:    countWarnings(result.Integrity),
	}
	if len(result.Integrity) > 0 {
		run.Integrity, _ = json.Marshal(result.Integrity)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return err
		}
		for _, p := range result.Players {
			row := models.NewPlayerRating(run.ID, p)
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		for rank, t := range result.Teams {
			row := models.NewTeamRating(run.ID, rank+1, t)
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist run for sample %s: %w", sample, err)
	}

	s.cacheRun(ctx, sample, result)

	summary := &RunSummary{
		RunID:       run.ID,
		Sample:      sample,
		PlayerCount: run.PlayerCount,
		TeamCount:   run.TeamCount,
		Warnings:    run.Warnings,
		CreatedAt:   run.CreatedAt,
	}
	s.logger.WithFields(logrus.Fields{
		"sample":   sample,
		"run_id":   run.ID,
		"players":  run.PlayerCount,
		"teams":    run.TeamCount,
		"warnings": run.Warnings,
	}).Info("Rating run persisted")
	return summary, nil
}

// GetPlayerRatings returns the latest run's player snapshots for a
// sample, cache first.
func (s *RatingsService) GetPlayerRatings(ctx context.Context, sample string) ([]engine.PlayerScore, error) {
	if s.cache != nil {
		var cached []engine.PlayerScore
		if err := s.cache.Get(ctx, PlayerRatingsCacheKey(sample), &cached); err == nil {
			return cached, nil
		}
	}

	run, err := models.LatestRun(s.db, sample)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("no completed run for sample %s", sample)
	}

	rows, err := models.PlayerRatingsForRun(s.db, run.ID)
	if err != nil {
		return nil, err
	}

	out := make([]engine.PlayerScore, 0, len(rows))
	for _, row := range rows {
		out = append(out, ratingToScore(row))
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, PlayerRatingsCacheKey(sample), out, s.cacheTTL)
	}
	return out, nil
}

// GetTeamRatings returns the latest run's team snapshots for a sample,
// cache first, in rank order.
func (s *RatingsService) GetTeamRatings(ctx context.Context, sample string) ([]engine.TeamScore, error) {
	if s.cache != nil {
		var cached []engine.TeamScore
		if err := s.cache.Get(ctx, TeamRatingsCacheKey(sample), &cached); err == nil {
			return cached, nil
		}
	}

	run, err := models.LatestRun(s.db, sample)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("no completed run for sample %s", sample)
	}

	rows, err := models.TeamRatingsForRun(s.db, run.ID)
	if err != nil {
		return nil, err
	}

	out := make([]engine.TeamScore, 0, len(rows))
	for _, row := range rows {
		out = append(out, teamRatingToScore(row))
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, TeamRatingsCacheKey(sample), out, s.cacheTTL)
	}
	return out, nil
}

// GetRunSummary returns metadata and integrity entries for the latest
// run of a sample.
func (s *RatingsService) GetRunSummary(ctx context.Context, sample string) (*RunSummary, []engine.IntegrityEntry, error) {
	run, err := models.LatestRun(s.db, sample)
	if err != nil {
		return nil, nil, err
	}
	if run == nil {
		return nil, nil, fmt.Errorf("no completed run for sample %s", sample)
	}

	var integrity []engine.IntegrityEntry
	if len(run.Integrity) > 0 {
		if err := json.Unmarshal(run.Integrity, &integrity); err != nil {
			s.logger.WithError(err).Warn("Failed to decode stored integrity log")
		}
	}

	return &RunSummary{
		RunID:       run.ID,
		Sample:      run.Sample,
		PlayerCount: run.PlayerCount,
		TeamCount:   run.TeamCount,
		Warnings:    run.Warnings,
		CreatedAt:   run.CreatedAt,
	}, integrity, nil
}

func (s *RatingsService) cacheRun(ctx context.Context, sample string, result *engine.Result) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetWithRetry(ctx, PlayerRatingsCacheKey(sample), result.Players, s.cacheTTL, 3); err != nil {
		s.logger.WithError(err).Warn("Failed to cache player ratings")
	}
	if err := s.cache.SetWithRetry(ctx, TeamRatingsCacheKey(sample), result.Teams, s.cacheTTL, 3); err != nil {
		s.logger.WithError(err).Warn("Failed to cache team ratings")
	}
}

func countWarnings(entries []engine.IntegrityEntry) int {
	n := 0
	for _, e := range entries {
		if e.Severity == engine.SeverityWarning {
			n++
		}
	}
	return n
}

// statToRow converts a parsed record into its storage row. NaN counters
// store as zero and rely on the engine-side defaulting on the way back
// out; a NaN kd stores as the -1 sentinel.
func statToRow(s engine.RawPlayerStats) models.PlayerStat {
	row := models.PlayerStat{
		PlayerID: s.PlayerID,
		Name:     s.Name,
		Team:     s.Team,

		Kills:     toCount(s.Kills),
		Deaths:    toCount(s.Deaths),
		Assists:   toCount(s.Assists),
		Headshots: toCount(s.Headshots),

		WallbangKills:     toCount(s.WallbangKills),
		AssistedFlashes:   toCount(s.AssistedFlashes),
		NoScopeKills:      toCount(s.NoScopeKills),
		ThroughSmokeKills: toCount(s.ThroughSmokeKills),
		BlindKills:        toCount(s.BlindKills),
		VictimBlindKills:  toCount(s.VictimBlindKills),

		FirstKills:    toCount(s.FirstKills),
		FirstDeaths:   toCount(s.FirstDeaths),
		TFirstKills:   toCount(s.TFirstKills),
		TFirstDeaths:  toCount(s.TFirstDeaths),
		CTFirstKills:  toCount(s.CTFirstKills),
		CTFirstDeaths: toCount(s.CTFirstDeaths),

		RoundsWon:   toCount(s.RoundsWon),
		TRoundsWon:  toCount(s.TRoundsWon),
		CTRoundsWon: toCount(s.CTRoundsWon),

		FlashesThrown:    toCount(s.FlashesThrown),
		TFlashesThrown:   toCount(s.TFlashesThrown),
		CTFlashesThrown:  toCount(s.CTFlashesThrown),
		HEThrown:         toCount(s.HEThrown),
		THEThrown:        toCount(s.THEThrown),
		CTHEThrown:       toCount(s.CTHEThrown),
		InfernosThrown:   toCount(s.InfernosThrown),
		TInfernosThrown:  toCount(s.TInfernosThrown),
		CTInfernosThrown: toCount(s.CTInfernosThrown),
		SmokesThrown:     toCount(s.SmokesThrown),
		TSmokesThrown:    toCount(s.TSmokesThrown),
		CTSmokesThrown:   toCount(s.CTSmokesThrown),

		TotalUtilityThrown: toCount(s.TotalUtilityThrown),
		KD:                 -1,
	}
	if !isNaN(s.KD) && s.KD >= 0 {
		row.KD = s.KD
	}
	return row
}

func toCount(v float64) int {
	if isNaN(v) || v < 0 {
		return 0
	}
	return int(v)
}

func isNaN(v float64) bool {
	return v != v
}

func ratingToScore(row models.PlayerRating) engine.PlayerScore {
	score := engine.PlayerScore{
		PlayerID:      row.PlayerID,
		Name:          row.Name,
		Team:          row.Team,
		Role:          engine.RoleCategory(row.Role),
		SecondaryRole: engine.RoleCategory(row.SecondaryRole),
		IsLeader:      row.IsLeader,
		IsMarksman:    row.IsMarksman,
		KD:            row.KD,
		RCS:           row.RCS,
		ICF:           engine.ICF{Value: row.ICF},
		SC:            engine.SC{Value: row.SC, Metric: row.SCMetric},
		OSM:           row.OSM,
		PIV:           row.PIV,
	}
	if len(row.TopMetrics) > 0 {
		_ = json.Unmarshal(row.TopMetrics, &score.TopMetrics)
	}
	if len(row.SecondaryTopMetrics) > 0 {
		_ = json.Unmarshal(row.SecondaryTopMetrics, &score.SecondaryTopMetrics)
	}
	return score
}

func teamRatingToScore(row models.TeamRating) engine.TeamScore {
	return engine.TeamScore{
		Name:       row.Name,
		SumPIV:     row.SumPIV,
		AvgPIV:     row.AvgPIV,
		Synergy:    row.Synergy,
		SizeBonus:  row.SizeBonus,
		TIR:        row.TIR,
		Strengths:  []string(row.Strengths),
		Weaknesses: []string(row.Weaknesses),
		PlayerIDs:  []string(row.PlayerIDs),
	}
}
