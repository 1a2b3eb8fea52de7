package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeICFNeutralKD(t *testing.T) {
	// kd exactly 1.0 (the missing-kd default) is perfectly consistent.
	icf := ComputeICF(1.0, false)
	assert.Equal(t, 0.0, icf.Sigma)
	assert.Equal(t, 1.0, icf.Value)
}

func TestComputeICFStarBonus(t *testing.T) {
	base := 1 / (1 + math.Abs(1-2.0)*2)
	icf := ComputeICF(2.0, false)

	assert.Greater(t, icf.Value, base)
	assert.InDelta(t, base+(2.0-1.3)*0.2, icf.Value, 1e-12)
	assert.LessOrEqual(t, icf.Value, 0.9)
}

func TestComputeICFBonusCap(t *testing.T) {
	icf := ComputeICF(6.0, false)
	assert.Equal(t, 0.9, icf.Value)
}

func TestComputeICFLeaderGetsNoBonus(t *testing.T) {
	leader := ComputeICF(2.0, true)
	fragger := ComputeICF(2.0, false)
	assert.Less(t, leader.Value, fragger.Value)
}

func TestComputeSCLabelsAndCoefficients(t *testing.T) {
	stats := RawPlayerStats{
		Kills:              20,
		Assists:            10,
		AssistedFlashes:    5,
		ThroughSmokeKills:  4,
		CTRoundsWon:        8,
		RoundsWon:          16,
		TotalUtilityThrown: 20,
	}

	tests := []struct {
		role   RoleCategory
		metric string
		value  float64
	}{
		{RoleAWPer, "Flash Assist Synergy", 5.0 / 20 * 0.8},
		{RoleIGL, "In-game Impact Rating", 10.0 / 20 * 0.6},
		{RoleSpacetaker, "Entry Utility Synergy", 5.0 / 20 * 0.7},
		{RoleLurker, "Information & Smoke Rating", 4.0 / 20 * 0.5},
		{RoleAnchor, "Site Hold Effectiveness", 8.0 / 16 * 0.6},
		{RoleSupport, "Utility Contribution Score", 5.0 / 20 * 0.9},
	}

	for _, tt := range tests {
		sc := ComputeSC(tt.role, stats)
		assert.Equal(t, tt.metric, sc.Metric, string(tt.role))
		assert.InDelta(t, tt.value, sc.Value, 1e-12, string(tt.role))
	}
}

func TestScorePlayerStarBonusMonotonic(t *testing.T) {
	pop := CollectPopulation(nil) // every metric scales to 0.5

	base := RawPlayerStats{
		PlayerID: "p", Name: "p", Team: "t",
		Kills: 20, Deaths: 10, FirstKills: 8, FirstDeaths: 2,
		AssistedFlashes: 5, TotalUtilityThrown: 20,
		KD: 1.5,
	}
	assignment := RoleAssignment{Primary: RoleSpacetaker}

	at15 := ScorePlayer(base, assignment, pop)
	assert.InDelta(t, at15.RCS*at15.ICF.Value+at15.SC.Value, at15.PIV, 1e-12,
		"kd exactly 1.5 earns no star bonus")

	boosted := base
	boosted.KD = 2.0
	at20 := ScorePlayer(boosted, assignment, pop)
	unmultiplied := at20.RCS*at20.ICF.Value + at20.SC.Value
	assert.InDelta(t, unmultiplied*1.075, at20.PIV, 1e-12)

	// The star multiplier strictly grows with kd above the 1.5 floor.
	prev := 0.0
	for _, kd := range []float64{1.6, 1.8, 2.0, 2.5} {
		p := base
		p.KD = kd
		s := ScorePlayer(p, assignment, pop)
		multiplier := s.PIV / (s.RCS*s.ICF.Value + s.SC.Value)
		assert.Greater(t, multiplier, prev)
		prev = multiplier
	}
}

func TestScorePlayerLeaderGetsNoStarBonus(t *testing.T) {
	pop := CollectPopulation(nil)
	stats := RawPlayerStats{PlayerID: "l", Name: "l", Team: "t", Kills: 20, Deaths: 10, KD: 2.0}

	score := ScorePlayer(stats, RoleAssignment{Primary: RoleIGL, IsLeader: true}, pop)
	expected := (score.RCS*score.ICF.Value + score.SC.Value) * score.OSM
	assert.InDelta(t, expected, score.PIV, 1e-12)
}

func TestScorePlayerFiniteForExtremeInputs(t *testing.T) {
	pop := CollectPopulation(nil)
	extremes := []RawPlayerStats{
		{PlayerID: "zero", Name: "zero", Team: "t", KD: 1.0},
		{PlayerID: "huge", Name: "huge", Team: "t", Kills: 1e6, Deaths: 1, FirstKills: 1e5, KD: 1e4},
		{PlayerID: "deaths", Name: "deaths", Team: "t", Deaths: 500, KD: 0},
	}

	for _, s := range extremes {
		for _, role := range AllRoles {
			score := ScorePlayer(s, RoleAssignment{Primary: role}, pop)
			assert.False(t, math.IsNaN(score.PIV), "%s/%s", s.PlayerID, role)
			assert.False(t, math.IsInf(score.PIV, 0), "%s/%s", s.PlayerID, role)
			assert.GreaterOrEqual(t, score.PIV, 0.0, "%s/%s", s.PlayerID, role)
		}
	}
}

func TestScorePlayerTopMetrics(t *testing.T) {
	raw := []map[string]float64{}
	for _, kd := range []float64{0.8, 1.0, 1.4} {
		s := RawPlayerStats{Kills: 20 * kd, Deaths: 20, FirstKills: 6, FirstDeaths: 4, KD: kd}
		raw = append(raw, RoleMetrics(RoleSpacetaker, s))
	}
	pop := CollectPopulation(raw)

	stats := RawPlayerStats{
		PlayerID: "p", Name: "p", Team: "t",
		Kills: 28, Deaths: 20, FirstKills: 6, FirstDeaths: 4, KD: 1.4,
	}
	score := ScorePlayer(stats, RoleAssignment{Primary: RoleSpacetaker, Secondary: RoleSupport}, pop)

	require.Len(t, score.TopMetrics, 3)
	for i := 1; i < len(score.TopMetrics); i++ {
		assert.GreaterOrEqual(t, score.TopMetrics[i-1].Value, score.TopMetrics[i].Value)
	}
	assert.NotEmpty(t, score.SecondaryTopMetrics)
}
