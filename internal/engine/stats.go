package engine

import (
	"fmt"
	"math"
)

// RawPlayerStats holds the round-aggregated counters for one player in a
// competitive sample (a match, a tournament, or an amalgamation across
// events). Counters use float64 so that missing values can travel as NaN
// from the ingestion layer until Normalize substitutes defaults.
type RawPlayerStats struct {
	PlayerID string
	Name     string
	Team     string

	Kills     float64
	Deaths    float64
	Assists   float64
	Headshots float64

	WallbangKills     float64
	AssistedFlashes   float64
	NoScopeKills      float64
	ThroughSmokeKills float64
	BlindKills        float64
	VictimBlindKills  float64

	FirstKills    float64
	FirstDeaths   float64
	TFirstKills   float64
	TFirstDeaths  float64
	CTFirstKills  float64
	CTFirstDeaths float64

	RoundsWon   float64
	TRoundsWon  float64
	CTRoundsWon float64

	FlashesThrown   float64
	TFlashesThrown  float64
	CTFlashesThrown float64
	HEThrown        float64
	THEThrown       float64
	CTHEThrown      float64
	InfernosThrown  float64
	TInfernosThrown float64
	CTInfernosThrown float64
	SmokesThrown    float64
	TSmokesThrown   float64
	CTSmokesThrown  float64

	TotalUtilityThrown float64

	// Pre-computed kill/death ratio from the source data. Defaults to 1.0
	// rather than 0 so consistency math stays neutral for unknown players.
	KD float64
}

// Severity levels for integrity log entries.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
)

// IntegrityEntry records a single data anomaly observed while preparing a
// batch. Anomalies never fail the batch; dropped records are the only loss.
type IntegrityEntry struct {
	PlayerID string `json:"player_id"`
	Field    string `json:"field"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// IntegrityLog accumulates entries across all phases of a run.
type IntegrityLog struct {
	Entries []IntegrityEntry
}

func (l *IntegrityLog) add(playerID, field, severity, message string) {
	l.Entries = append(l.Entries, IntegrityEntry{
		PlayerID: playerID,
		Field:    field,
		Severity: severity,
		Message:  message,
	})
}

// Warnings returns only the warning-severity entries.
func (l *IntegrityLog) Warnings() []IntegrityEntry {
	var out []IntegrityEntry
	for _, e := range l.Entries {
		if e.Severity == SeverityWarning {
			out = append(out, e)
		}
	}
	return out
}

// Normalize returns a fully-populated copy of the record. Every counter
// that is missing (NaN), infinite, or negative becomes 0; the kd ratio
// becomes 1.0 under the same conditions. A record without a player ID is
// unrecoverable: ok is false and the caller must drop it.
func Normalize(s RawPlayerStats, log *IntegrityLog) (RawPlayerStats, bool) {
	if s.PlayerID == "" {
		log.add("", "playerId", SeverityWarning, "record missing player identifier, dropped")
		return s, false
	}

	if s.Name == "" {
		s.Name = s.PlayerID
		log.add(s.PlayerID, "displayName", SeverityInfo, "missing display name, substituted player id")
	}
	// Empty team names are a valid terminal state for partial rosters; the
	// record stays but is grouped under the empty roster key.

	counters := []struct {
		name string
		v    *float64
	}{
		{"kills", &s.Kills},
		{"deaths", &s.Deaths},
		{"assists", &s.Assists},
		{"headshots", &s.Headshots},
		{"wallbangKills", &s.WallbangKills},
		{"assistedFlashes", &s.AssistedFlashes},
		{"noScopeKills", &s.NoScopeKills},
		{"throughSmokeKills", &s.ThroughSmokeKills},
		{"blindKills", &s.BlindKills},
		{"victimBlindKills", &s.VictimBlindKills},
		{"firstKills", &s.FirstKills},
		{"firstDeaths", &s.FirstDeaths},
		{"tFirstKills", &s.TFirstKills},
		{"tFirstDeaths", &s.TFirstDeaths},
		{"ctFirstKills", &s.CTFirstKills},
		{"ctFirstDeaths", &s.CTFirstDeaths},
		{"roundsWon", &s.RoundsWon},
		{"tRoundsWon", &s.TRoundsWon},
		{"ctRoundsWon", &s.CTRoundsWon},
		{"flashesThrown", &s.FlashesThrown},
		{"tFlashesThrown", &s.TFlashesThrown},
		{"ctFlashesThrown", &s.CTFlashesThrown},
		{"heThrown", &s.HEThrown},
		{"tHeThrown", &s.THEThrown},
		{"ctHeThrown", &s.CTHEThrown},
		{"infernosThrown", &s.InfernosThrown},
		{"tInfernosThrown", &s.TInfernosThrown},
		{"ctInfernosThrown", &s.CTInfernosThrown},
		{"smokesThrown", &s.SmokesThrown},
		{"tSmokesThrown", &s.TSmokesThrown},
		{"ctSmokesThrown", &s.CTSmokesThrown},
		{"totalUtilityThrown", &s.TotalUtilityThrown},
	}

	for _, c := range counters {
		if !isFiniteNonNegative(*c.v) {
			log.add(s.PlayerID, c.name, SeverityInfo,
				fmt.Sprintf("invalid value %v, defaulted to 0", *c.v))
			*c.v = 0
		}
	}

	if !isFiniteNonNegative(s.KD) {
		log.add(s.PlayerID, "kd", SeverityInfo,
			fmt.Sprintf("invalid value %v, defaulted to 1.0", s.KD))
		s.KD = 1.0
	}

	return s, true
}

func isFiniteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// maxf floors a denominator so ratio math never divides by zero.
func maxf(v, floor float64) float64 {
	if v > floor {
		return v
	}
	return floor
}
