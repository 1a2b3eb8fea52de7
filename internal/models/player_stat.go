package models

import (
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/cs2insight/impact-engine/internal/engine"
)

// PlayerStat is one ingested row of round-aggregated counters for a
// player within a competitive sample. Rows are immutable once written;
// a refresh cycle replaces the whole sample.
type PlayerStat struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Sample     string    `gorm:"uniqueIndex:idx_sample_player;not null" json:"sample"`
	PlayerID   string    `gorm:"uniqueIndex:idx_sample_player;not null" json:"player_id"`
	Name       string    `gorm:"not null" json:"name"`
	Team       string    `json:"team"`
	Kills      int       `json:"kills"`
	Deaths     int       `json:"deaths"`
	Assists    int       `json:"assists"`
	Headshots  int       `json:"headshots"`

	WallbangKills     int `json:"wallbang_kills"`
	AssistedFlashes   int `json:"assisted_flashes"`
	NoScopeKills      int `json:"no_scope_kills"`
	ThroughSmokeKills int `json:"through_smoke_kills"`
	BlindKills        int `json:"blind_kills"`
	VictimBlindKills  int `json:"victim_blind_kills"`

	FirstKills    int `json:"first_kills"`
	FirstDeaths   int `json:"first_deaths"`
	TFirstKills   int `json:"t_first_kills"`
	TFirstDeaths  int `json:"t_first_deaths"`
	CTFirstKills  int `json:"ct_first_kills"`
	CTFirstDeaths int `json:"ct_first_deaths"`

	RoundsWon   int `json:"rounds_won"`
	TRoundsWon  int `json:"t_rounds_won"`
	CTRoundsWon int `json:"ct_rounds_won"`

	FlashesThrown    int `json:"flashes_thrown"`
	TFlashesThrown   int `json:"t_flashes_thrown"`
	CTFlashesThrown  int `json:"ct_flashes_thrown"`
	HEThrown         int `json:"he_thrown"`
	THEThrown        int `json:"t_he_thrown"`
	CTHEThrown       int `json:"ct_he_thrown"`
	InfernosThrown   int `json:"infernos_thrown"`
	TInfernosThrown  int `json:"t_infernos_thrown"`
	CTInfernosThrown int `json:"ct_infernos_thrown"`
	SmokesThrown     int `json:"smokes_thrown"`
	TSmokesThrown    int `json:"t_smokes_thrown"`
	CTSmokesThrown   int `json:"ct_smokes_thrown"`

	TotalUtilityThrown int `json:"total_utility_thrown"`

	// Negative means "not supplied by the source"; the engine normalizer
	// substitutes the neutral 1.0 default.
	KD float64 `gorm:"default:-1" json:"kd"`

	CreatedAt time.Time `json:"created_at"`
}

func (PlayerStat) TableName() string {
	return "player_stats"
}

// ToEngine converts the stored row into the engine's value type.
func (p *PlayerStat) ToEngine() engine.RawPlayerStats {
	kd := p.KD
	if kd < 0 {
		kd = math.NaN()
	}
	return engine.RawPlayerStats{
		PlayerID: p.PlayerID,
		Name:     p.Name,
		Team:     p.Team,

		Kills:     float64(p.Kills),
		Deaths:    float64(p.Deaths),
		Assists:   float64(p.Assists),
		Headshots: float64(p.Headshots),

		WallbangKills:     float64(p.WallbangKills),
		AssistedFlashes:   float64(p.AssistedFlashes),
		NoScopeKills:      float64(p.NoScopeKills),
		ThroughSmokeKills: float64(p.ThroughSmokeKills),
		BlindKills:        float64(p.BlindKills),
		VictimBlindKills:  float64(p.VictimBlindKills),

		FirstKills:    float64(p.FirstKills),
		FirstDeaths:   float64(p.FirstDeaths),
		TFirstKills:   float64(p.TFirstKills),
		TFirstDeaths:  float64(p.TFirstDeaths),
		CTFirstKills:  float64(p.CTFirstKills),
		CTFirstDeaths: float64(p.CTFirstDeaths),

		RoundsWon:   float64(p.RoundsWon),
		TRoundsWon:  float64(p.TRoundsWon),
		CTRoundsWon: float64(p.CTRoundsWon),

		FlashesThrown:    float64(p.FlashesThrown),
		TFlashesThrown:   float64(p.TFlashesThrown),
		CTFlashesThrown:  float64(p.CTFlashesThrown),
		HEThrown:         float64(p.HEThrown),
		THEThrown:        float64(p.THEThrown),
		CTHEThrown:       float64(p.CTHEThrown),
		InfernosThrown:   float64(p.InfernosThrown),
		TInfernosThrown:  float64(p.TInfernosThrown),
		CTInfernosThrown: float64(p.CTInfernosThrown),
		SmokesThrown:     float64(p.SmokesThrown),
		TSmokesThrown:    float64(p.TSmokesThrown),
		CTSmokesThrown:   float64(p.CTSmokesThrown),

		TotalUtilityThrown: float64(p.TotalUtilityThrown),
		KD:                 kd,
	}
}

// GetStatsForSample loads every stat row of one sample in insertion order.
func GetStatsForSample(db *gorm.DB, sample string) ([]PlayerStat, error) {
	var stats []PlayerStat
	err := db.Where("sample = ?", sample).Order("id asc").Find(&stats).Error
	return stats, err
}

// ReplaceSampleStats swaps out all stat rows for one sample atomically.
func ReplaceSampleStats(db *gorm.DB, sample string, stats []PlayerStat) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sample = ?", sample).Delete(&PlayerStat{}).Error; err != nil {
			return err
		}
		for i := range stats {
			stats[i].Sample = sample
		}
		if len(stats) == 0 {
			return nil
		}
		return tx.Create(&stats).Error
	})
}
