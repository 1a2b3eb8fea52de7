package engine

import (
	"math"
	"sort"
)

// ICF is the Individual Consistency Factor: a K/D-deviation stability
// score with a star-player bonus for high-fragging non-leaders.
type ICF struct {
	Value float64 `json:"value"`
	Sigma float64 `json:"sigma"`
}

// SC is the Synergy Contribution: a single role-dependent proxy metric,
// labeled so consumers can explain which proxy was used.
type SC struct {
	Value  float64 `json:"value"`
	Metric string  `json:"metric"`
}

// MetricValue is a named metric carried for explainability.
type MetricValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// PlayerScore is the finished per-player result of a scoring run.
type PlayerScore struct {
	PlayerID      string       `json:"player_id"`
	Name          string       `json:"name"`
	Team          string       `json:"team"`
	Role          RoleCategory `json:"role"`
	SecondaryRole RoleCategory `json:"secondary_role,omitempty"`
	IsLeader      bool         `json:"is_leader"`
	IsMarksman    bool         `json:"is_marksman"`
	KD            float64      `json:"kd"`

	RCS        float64            `json:"rcs"`
	RCSMetrics map[string]float64 `json:"rcs_metrics"`
	ICF        ICF                `json:"icf"`
	SC         SC                 `json:"sc"`
	OSM        float64            `json:"osm"`
	PIV        float64            `json:"piv"`

	// Top contributing metrics for the primary role (population-scaled)
	// and, when a secondary role exists, a best-effort raw top-3 for it.
	TopMetrics          []MetricValue `json:"top_metrics"`
	SecondaryTopMetrics []MetricValue `json:"secondary_top_metrics,omitempty"`
}

// ICF tuning. The bonus deliberately rewards high-fragging specialists
// more than leaders, whose value shows up elsewhere.
const (
	icfBonusFloor = 1.3
	icfBonusRate  = 0.2
	icfBonusCap   = 0.9
)

// Star K/D multiplier on the final PIV, non-leaders only.
const (
	starBonusFloor = 1.5
	starBonusRate  = 0.15
)

// ComputeICF derives the consistency factor from the player's kill/death
// ratio. Base value is 1/(1+sigma) with sigma = |1-kd|*2; non-leaders
// with kd above 1.3 earn a bonus capped so the result never exceeds 0.9.
func ComputeICF(kd float64, isLeader bool) ICF {
	sigma := math.Abs(1-kd) * 2
	value := 1 / (1 + sigma)
	if !isLeader && kd > icfBonusFloor {
		value = math.Min(value+(kd-icfBonusFloor)*icfBonusRate, icfBonusCap)
	}
	return ICF{Value: value, Sigma: sigma}
}

// ComputeSC picks the role's synergy proxy. Each coefficient sits in the
// 0.5-0.9 band so no single role's SC can dominate PIV on its own.
func ComputeSC(role RoleCategory, s RawPlayerStats) SC {
	switch role {
	case RoleAWPer:
		return SC{Value: s.AssistedFlashes / maxf(s.TotalUtilityThrown, 1) * 0.8, Metric: "Flash Assist Synergy"}
	case RoleIGL:
		return SC{Value: s.Assists / maxf(s.Kills, 1) * 0.6, Metric: "In-game Impact Rating"}
	case RoleSpacetaker:
		return SC{Value: s.AssistedFlashes / maxf(s.Kills, 1) * 0.7, Metric: "Entry Utility Synergy"}
	case RoleLurker:
		return SC{Value: s.ThroughSmokeKills / maxf(s.Kills, 1) * 0.5, Metric: "Information & Smoke Rating"}
	case RoleAnchor:
		return SC{Value: s.CTRoundsWon / maxf(s.RoundsWon, 1) * 0.6, Metric: "Site Hold Effectiveness"}
	default:
		return SC{Value: s.AssistedFlashes / maxf(s.TotalUtilityThrown, 1) * 0.9, Metric: "Utility Contribution Score"}
	}
}

// ComputeOSM is the opponent strength multiplier. Constant for now, but
// kept as an explicit multiplicative term so opponent-aware weighting can
// slot in without touching the PIV formula.
func ComputeOSM(RawPlayerStats) float64 {
	return 1.0
}

// ScorePlayer runs the full composite calculation for one player against
// the batch population. Pure: safe to call concurrently across players.
func ScorePlayer(s RawPlayerStats, assignment RoleAssignment, pop *Population) PlayerScore {
	raw := RoleMetrics(assignment.Primary, s)

	scaled := make(map[string]float64, len(raw))
	keys := make([]string, 0, len(raw))
	for key, v := range raw {
		scaled[key] = pop.Scale(key, v)
		keys = append(keys, key)
	}
	sort.Strings(keys)

	// RCS: unweighted mean of the scaled sub-metrics, summed in key order
	// so repeated runs produce identical floats.
	var rcs float64
	for _, key := range keys {
		rcs += scaled[key]
	}
	if len(keys) > 0 {
		rcs /= float64(len(keys))
	}

	icf := ComputeICF(s.KD, assignment.IsLeader)
	sc := ComputeSC(assignment.Primary, s)
	osm := ComputeOSM(s)

	piv := (rcs*icf.Value + sc.Value) * osm
	if assignment.Primary != RoleIGL && s.KD > starBonusFloor {
		piv *= 1 + (s.KD-starBonusFloor)*starBonusRate
	}

	score := PlayerScore{
		PlayerID:      s.PlayerID,
		Name:          s.Name,
		Team:          s.Team,
		Role:          assignment.Primary,
		SecondaryRole: assignment.Secondary,
		IsLeader:      assignment.IsLeader,
		IsMarksman:    assignment.IsPrimaryMarksman,
		KD:            s.KD,
		RCS:           rcs,
		RCSMetrics:    scaled,
		ICF:           icf,
		SC:            sc,
		OSM:           osm,
		PIV:           piv,
		TopMetrics:    topMetrics(scaled, 3),
	}

	if assignment.Secondary != "" && assignment.Secondary != assignment.Primary {
		// Best-effort explainability only: secondary metrics are raw, not
		// population-scaled, because the population was collected for
		// primary roles.
		score.SecondaryTopMetrics = topMetrics(RoleMetrics(assignment.Secondary, s), 3)
	}

	return score
}

func topMetrics(metrics map[string]float64, n int) []MetricValue {
	out := make([]MetricValue, 0, len(metrics))
	for name, v := range metrics {
		out = append(out, MetricValue{Name: name, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
