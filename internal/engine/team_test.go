package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func member(id string, piv float64, role RoleCategory) PlayerScore {
	return PlayerScore{PlayerID: id, Name: id, Team: "T", Role: role, PIV: piv}
}

func TestAggregateTeamSinglePlayer(t *testing.T) {
	team := AggregateTeam("Solo", []PlayerScore{member("a", 1.2, RoleSupport)})

	assert.Equal(t, 1.2, team.SumPIV)
	assert.Equal(t, 1.2, team.AvgPIV)
	// One resolved member: synergy stays at the unadjusted base and the
	// size bonus is 0.90 + 0.05*1.
	assert.Equal(t, 0.85, team.Synergy)
	assert.InDelta(t, 0.95, team.SizeBonus, 1e-12)
	assert.InDelta(t, 1.2*0.85*0.95, team.TIR, 1e-12)
}

func TestAggregateTeamSynergyBounds(t *testing.T) {
	// Wildly spread PIVs clamp at the floor; identical PIVs sit at base.
	spread := AggregateTeam("Spread", []PlayerScore{
		member("a", 0.1, RoleSupport),
		member("b", 3.0, RoleSpacetaker),
		member("c", 0.2, RoleLurker),
	})
	assert.GreaterOrEqual(t, spread.Synergy, 0.70)
	assert.LessOrEqual(t, spread.Synergy, 0.95)
	assert.Equal(t, 0.70, spread.Synergy)

	tight := AggregateTeam("Tight", []PlayerScore{
		member("a", 1.0, RoleSupport),
		member("b", 1.0, RoleSpacetaker),
	})
	assert.Equal(t, 0.85, tight.Synergy)
}

func TestAggregateTeamSizeBonusCeiling(t *testing.T) {
	members := make([]PlayerScore, 6)
	for i := range members {
		members[i] = member(string(rune('a'+i)), 1.0, RoleSupport)
	}
	team := AggregateTeam("Big", members)
	assert.Equal(t, 1.15, team.SizeBonus)
}

func TestAggregateTeamDegenerateRoster(t *testing.T) {
	team := AggregateTeam("Empty", nil)

	assert.Equal(t, 0.0, team.TIR)
	require.NotEmpty(t, team.Strengths)
	require.NotEmpty(t, team.Weaknesses)
}

func TestAggregateTeamTags(t *testing.T) {
	diverse := []PlayerScore{
		{PlayerID: "1", Team: "T", Role: RoleIGL, IsLeader: true, PIV: 1.0},
		{PlayerID: "2", Team: "T", Role: RoleAWPer, IsMarksman: true, PIV: 1.0},
		{PlayerID: "3", Team: "T", Role: RoleSpacetaker, PIV: 1.0},
		{PlayerID: "4", Team: "T", Role: RoleLurker, PIV: 1.0},
		{PlayerID: "5", Team: "T", Role: RoleAnchor, PIV: 1.0},
	}
	team := AggregateTeam("Diverse", diverse)

	assert.Contains(t, team.Strengths, "Balanced roster with diverse roles")
	assert.Contains(t, team.Strengths, "Strong AWP presence")
	assert.Contains(t, team.Strengths, "Established in-game leadership")
	assert.Contains(t, team.Weaknesses, "No glaring weaknesses")
	assert.LessOrEqual(t, len(team.Strengths), 3)

	thin := []PlayerScore{
		{PlayerID: "1", Team: "T", Role: RoleSupport, PIV: 1.0},
		{PlayerID: "2", Team: "T", Role: RoleSupport, PIV: 1.0},
	}
	team = AggregateTeam("Thin", thin)

	assert.Contains(t, team.Weaknesses, "Limited role diversity")
	assert.Contains(t, team.Weaknesses, "Lack of dedicated AWPer")
	assert.Contains(t, team.Weaknesses, "Needs dedicated IGL")
	assert.Contains(t, team.Strengths, "Serviceable all-around roster")
	assert.LessOrEqual(t, len(team.Weaknesses), 3)
}

func TestAggregateTeamCountsSecondaryRoles(t *testing.T) {
	team := AggregateTeam("T", []PlayerScore{
		{PlayerID: "1", Team: "T", Role: RoleIGL, SecondaryRole: RoleAWPer, IsLeader: true, IsMarksman: true, PIV: 1.0},
	})
	assert.Equal(t, 1, team.RoleCounts[RoleIGL])
	assert.Equal(t, 1, team.RoleCounts[RoleAWPer])
}
