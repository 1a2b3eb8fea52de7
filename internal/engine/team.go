package engine

import (
	"gonum.org/v1/gonum/stat"
)

// TeamScore is the finished per-roster result of a scoring run.
type TeamScore struct {
	Name       string               `json:"name"`
	SumPIV     float64              `json:"sum_piv"`
	AvgPIV     float64              `json:"avg_piv"`
	Synergy    float64              `json:"synergy"`
	SizeBonus  float64              `json:"size_bonus"`
	TIR        float64              `json:"tir"`
	RoleCounts map[RoleCategory]int `json:"role_counts"`
	Strengths  []string             `json:"strengths"`
	Weaknesses []string             `json:"weaknesses"`
	PlayerIDs  []string             `json:"player_ids"`
}

// Synergy and size-bonus tuning.
const (
	synergyBase    = 0.85
	synergyMin     = 0.70
	synergyMax     = 0.95
	sizeBonusBase  = 0.90
	sizeBonusStep  = 0.05
	sizeBonusCeil  = 1.15
	degenerateTIRm = 1.05
)

// AggregateTeam folds the finished member scores for one roster into the
// team-level result. A tighter PIV spread reads as better-coordinated
// play, so synergy shrinks with the population standard deviation of
// member PIVs and stays clamped to [0.70, 0.95].
func AggregateTeam(name string, members []PlayerScore) TeamScore {
	t := TeamScore{
		Name:       name,
		RoleCounts: make(map[RoleCategory]int),
	}

	if len(members) == 0 {
		// Degenerate roster: nothing resolved. The simpler fallback
		// formula only applies here.
		t.Synergy = synergyBase
		t.SizeBonus = sizeBonusBase
		t.TIR = t.AvgPIV * degenerateTIRm
		t.Strengths = []string{"Roster pending resolution"}
		t.Weaknesses = []string{"No resolved players"}
		return t
	}

	pivs := make([]float64, len(members))
	for i, m := range members {
		pivs[i] = m.PIV
		t.SumPIV += m.PIV
		t.RoleCounts[m.Role]++
		if m.SecondaryRole != "" {
			t.RoleCounts[m.SecondaryRole]++
		}
		t.PlayerIDs = append(t.PlayerIDs, m.PlayerID)
	}
	t.AvgPIV = t.SumPIV / float64(len(members))

	t.Synergy = synergyBase
	if len(members) >= 2 {
		spread := stat.PopStdDev(pivs, nil)
		t.Synergy = clamp(synergyBase*(1-spread/2), synergyMin, synergyMax)
	}

	t.SizeBonus = sizeBonusBase + sizeBonusStep*float64(len(members))
	if t.SizeBonus > sizeBonusCeil {
		t.SizeBonus = sizeBonusCeil
	}

	t.TIR = t.AvgPIV * t.Synergy * t.SizeBonus

	t.Strengths, t.Weaknesses = teamTags(members, t.RoleCounts)
	return t
}

// teamTags derives 1-3 qualitative strengths and weaknesses from role
// diversity, marksman presence and leadership presence. Neither list is
// ever empty; a generic filler covers rosters with nothing specific.
func teamTags(members []PlayerScore, counts map[RoleCategory]int) (strengths, weaknesses []string) {
	distinct := 0
	for _, c := range counts {
		if c > 0 {
			distinct++
		}
	}

	if distinct >= 5 {
		strengths = append(strengths, "Balanced roster with diverse roles")
	} else if distinct <= 3 {
		weaknesses = append(weaknesses, "Limited role diversity")
	}

	hasMarksman := false
	hasLeader := false
	for _, m := range members {
		if m.IsMarksman {
			hasMarksman = true
		}
		if m.IsLeader {
			hasLeader = true
		}
	}

	if hasMarksman {
		strengths = append(strengths, "Strong AWP presence")
	} else {
		weaknesses = append(weaknesses, "Lack of dedicated AWPer")
	}

	if hasLeader {
		strengths = append(strengths, "Established in-game leadership")
	} else {
		weaknesses = append(weaknesses, "Needs dedicated IGL")
	}

	if len(strengths) == 0 {
		strengths = append(strengths, "Serviceable all-around roster")
	}
	if len(weaknesses) == 0 {
		weaknesses = append(weaknesses, "No glaring weaknesses")
	}
	if len(strengths) > 3 {
		strengths = strengths[:3]
	}
	if len(weaknesses) > 3 {
		weaknesses = weaknesses[:3]
	}
	return strengths, weaknesses
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
