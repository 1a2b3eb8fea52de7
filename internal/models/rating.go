package models

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/cs2insight/impact-engine/internal/engine"
)

// RatingRun records one complete engine pass over a sample. Player and
// team snapshots hang off the run so consumers always read a coherent
// set and historical runs remain queryable.
type RatingRun struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Sample      string    `gorm:"index;not null" json:"sample"`
	PlayerCount int       `json:"player_count"`
	TeamCount   int       `json:"team_count"`
	Warnings    int       `json:"warnings"`

	// Serialized []engine.IntegrityEntry for the whole run.
	Integrity []byte `gorm:"type:jsonb" json:"-"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (RatingRun) TableName() string {
	return "rating_runs"
}

// PlayerRating is the persisted per-player snapshot of a run.
type PlayerRating struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	RunID    uuid.UUID `gorm:"type:uuid;index;not null" json:"run_id"`
	PlayerID string    `gorm:"index;not null" json:"player_id"`
	Name     string    `json:"name"`
	Team     string    `gorm:"index" json:"team"`

	Role          string `json:"role"`
	SecondaryRole string `json:"secondary_role,omitempty"`
	IsLeader      bool   `json:"is_leader"`
	IsMarksman    bool   `json:"is_marksman"`

	KD       float64 `json:"kd"`
	RCS      float64 `json:"rcs"`
	ICF      float64 `json:"icf"`
	SC       float64 `json:"sc"`
	SCMetric string  `json:"sc_metric"`
	OSM      float64 `json:"osm"`
	PIV      float64 `json:"piv"`

	// Serialized []engine.MetricValue, kept as JSON because consumers
	// only ever read the list whole.
	TopMetrics          []byte `gorm:"type:jsonb" json:"-"`
	SecondaryTopMetrics []byte `gorm:"type:jsonb" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

func (PlayerRating) TableName() string {
	return "player_ratings"
}

// TeamRating is the persisted per-roster snapshot of a run.
type TeamRating struct {
	ID    uint      `gorm:"primaryKey" json:"id"`
	RunID uuid.UUID `gorm:"type:uuid;index;not null" json:"run_id"`
	Name  string    `gorm:"index;not null" json:"name"`

	SumPIV    float64 `json:"sum_piv"`
	AvgPIV    float64 `json:"avg_piv"`
	Synergy   float64 `json:"synergy"`
	SizeBonus float64 `json:"size_bonus"`
	TIR       float64 `json:"tir"`
	Rank      int     `json:"rank"`

	Strengths  pq.StringArray `gorm:"type:text[]" json:"strengths"`
	Weaknesses pq.StringArray `gorm:"type:text[]" json:"weaknesses"`
	PlayerIDs  pq.StringArray `gorm:"type:text[]" json:"player_ids"`

	CreatedAt time.Time `json:"created_at"`
}

func (TeamRating) TableName() string {
	return "team_ratings"
}

// NewPlayerRating flattens an engine score into its storage row.
func NewPlayerRating(runID uuid.UUID, p engine.PlayerScore) PlayerRating {
	top, _ := json.Marshal(p.TopMetrics)
	row := PlayerRating{
		RunID:         runID,
		PlayerID:      p.PlayerID,
		Name:          p.Name,
		Team:          p.Team,
		Role:          string(p.Role),
		SecondaryRole: string(p.SecondaryRole),
		IsLeader:      p.IsLeader,
		IsMarksman:    p.IsMarksman,
		KD:            p.KD,
		RCS:           p.RCS,
		ICF:           p.ICF.Value,
		SC:            p.SC.Value,
		SCMetric:      p.SC.Metric,
		OSM:           p.OSM,
		PIV:           p.PIV,
		TopMetrics:    top,
	}
	if len(p.SecondaryTopMetrics) > 0 {
		row.SecondaryTopMetrics, _ = json.Marshal(p.SecondaryTopMetrics)
	}
	return row
}

// NewTeamRating flattens an engine team result into its storage row.
// Rank is 1-based within the run's TIR ordering.
func NewTeamRating(runID uuid.UUID, rank int, t engine.TeamScore) TeamRating {
	return TeamRating{
		RunID:      runID,
		Name:       t.Name,
		SumPIV:     t.SumPIV,
		AvgPIV:     t.AvgPIV,
		Synergy:    t.Synergy,
		SizeBonus:  t.SizeBonus,
		TIR:        t.TIR,
		Rank:       rank,
		Strengths:  pq.StringArray(t.Strengths),
		Weaknesses: pq.StringArray(t.Weaknesses),
		PlayerIDs:  pq.StringArray(t.PlayerIDs),
	}
}

// LatestRun returns the most recent run for a sample, or nil when none
// has completed yet.
func LatestRun(db *gorm.DB, sample string) (*RatingRun, error) {
	var run RatingRun
	err := db.Where("sample = ?", sample).Order("created_at desc").First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// PlayerRatingsForRun loads a run's player snapshots ordered by PIV.
func PlayerRatingsForRun(db *gorm.DB, runID uuid.UUID) ([]PlayerRating, error) {
	var out []PlayerRating
	err := db.Where("run_id = ?", runID).Order("piv desc, player_id asc").Find(&out).Error
	return out, err
}

// TeamRatingsForRun loads a run's team snapshots in rank order.
func TeamRatingsForRun(db *gorm.DB, runID uuid.UUID) ([]TeamRating, error) {
	var out []TeamRating
	err := db.Where("run_id = ?", runID).Order("rank asc").Find(&out).Error
	return out, err
}
