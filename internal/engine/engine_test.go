package engine

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngine() *Engine {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return New(logger, WithWorkers(4))
}

func sampleBatch() []RawPlayerStats {
	mk := func(id, team string, kills, deaths, fk, fd, af, util float64, kd float64) RawPlayerStats {
		return RawPlayerStats{
			PlayerID: id, Name: id, Team: team,
			Kills: kills, Deaths: deaths,
			FirstKills: fk, FirstDeaths: fd,
			TFirstKills: fk / 2, TFirstDeaths: fd / 2,
			CTFirstKills: fk / 2, CTFirstDeaths: fd / 2,
			AssistedFlashes: af, TotalUtilityThrown: util,
			FlashesThrown: util / 2, SmokesThrown: util / 4,
			RoundsWon: 16, TRoundsWon: 8, CTRoundsWon: 8,
			Assists: kills / 3,
			KD:      kd,
		}
	}
	return []RawPlayerStats{
		mk("alpha", "Aurora", 20, 10, 8, 2, 5, 20, 2.0),
		mk("bravo", "Aurora", 15, 15, 4, 5, 12, 40, 1.0),
		mk("charlie", "Aurora", 12, 18, 2, 8, 8, 30, 0.67),
		mk("delta", "Aurora", 18, 14, 6, 4, 3, 15, 1.29),
		mk("echo", "Aurora", 14, 16, 3, 6, 6, 25, 0.88),
		mk("foxtrot", "Borealis", 22, 12, 9, 3, 4, 18, 1.83),
		mk("golf", "Borealis", 13, 17, 3, 7, 10, 35, 0.76),
		mk("hotel", "Borealis", 16, 14, 5, 5, 7, 28, 1.14),
		mk("india", "Borealis", 11, 19, 2, 9, 9, 32, 0.58),
		mk("juliet", "Borealis", 17, 13, 6, 4, 5, 22, 1.31),
	}
}

func TestProcessDeterministic(t *testing.T) {
	e := testEngine()
	lists := NewAllowlists([]string{"bravo", "golf"}, []string{"delta"})

	first := e.Process(sampleBatch(), lists)
	second := e.Process(sampleBatch(), lists)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b), "identical batches must produce byte-identical results")
}

func TestProcessRoleUniquenessPerTeam(t *testing.T) {
	e := testEngine()
	lists := NewAllowlists([]string{"bravo", "golf"}, []string{"delta", "foxtrot"})

	result := e.Process(sampleBatch(), lists)

	byTeam := map[string]map[RoleCategory]int{}
	for _, p := range result.Players {
		if byTeam[p.Team] == nil {
			byTeam[p.Team] = map[RoleCategory]int{}
		}
		byTeam[p.Team][p.Role]++
	}
	for team, counts := range byTeam {
		assert.LessOrEqual(t, counts[RoleIGL], 1, team)
		assert.LessOrEqual(t, counts[RoleAWPer], 1, team)
	}
}

func TestProcessNormalizedMetricsBounded(t *testing.T) {
	e := testEngine()
	result := e.Process(sampleBatch(), NewAllowlists(nil, nil))

	for _, p := range result.Players {
		for key, v := range p.RCSMetrics {
			assert.GreaterOrEqual(t, v, 0.0, "%s %s", p.PlayerID, key)
			assert.LessOrEqual(t, v, 1.0, "%s %s", p.PlayerID, key)
		}
		assert.False(t, math.IsNaN(p.PIV))
		assert.GreaterOrEqual(t, p.PIV, 0.0)
	}
}

func TestProcessStarFraggerScenario(t *testing.T) {
	e := testEngine()
	result := e.Process(sampleBatch(), NewAllowlists([]string{"bravo"}, nil))

	var alpha *PlayerScore
	for i := range result.Players {
		if result.Players[i].PlayerID == "alpha" {
			alpha = &result.Players[i]
		}
	}
	require.NotNil(t, alpha)

	// 20/10 with a dominant opening record: Spacetaker-leaning, ICF above
	// the plain base, and the 1.075 star multiplier applied.
	assert.Equal(t, RoleSpacetaker, alpha.Role)
	assert.Greater(t, alpha.ICF.Value, 1/(1+alpha.ICF.Sigma))
	unmultiplied := alpha.RCS*alpha.ICF.Value + alpha.SC.Value
	assert.InDelta(t, unmultiplied*1.075, alpha.PIV, 1e-12)
}

func TestProcessDropsUnidentifiedRecords(t *testing.T) {
	e := testEngine()
	batch := sampleBatch()
	batch = append(batch, RawPlayerStats{Name: "nobody", Team: "Aurora", KD: 1.0})

	result := e.Process(batch, NewAllowlists(nil, nil))

	assert.Len(t, result.Players, 10)
	warned := false
	for _, entry := range result.Integrity {
		if entry.Field == "playerId" && entry.Severity == SeverityWarning {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestProcessLeaderAssignment(t *testing.T) {
	e := testEngine()
	result := e.Process(sampleBatch(), NewAllowlists([]string{"bravo"}, nil))

	for _, p := range result.Players {
		if p.PlayerID == "bravo" {
			assert.Equal(t, RoleIGL, p.Role)
			assert.True(t, p.IsLeader)
		} else {
			assert.NotEqual(t, RoleIGL, p.Role)
		}
	}
}

func TestProcessTeamsSortedByTIR(t *testing.T) {
	e := testEngine()
	result := e.Process(sampleBatch(), NewAllowlists([]string{"bravo", "golf"}, nil))

	require.Len(t, result.Teams, 2)
	assert.GreaterOrEqual(t, result.Teams[0].TIR, result.Teams[1].TIR)
	for _, team := range result.Teams {
		assert.GreaterOrEqual(t, team.Synergy, 0.70)
		assert.LessOrEqual(t, team.Synergy, 0.95)
		assert.Len(t, team.PlayerIDs, 5)
	}
}

func TestProcessEmptyBatch(t *testing.T) {
	e := testEngine()
	result := e.Process(nil, NewAllowlists(nil, nil))

	assert.Empty(t, result.Players)
	assert.Empty(t, result.Teams)
}
