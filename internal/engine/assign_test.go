package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rosterMember(id string, candidates []RoleCandidate, leader, marksman bool) RoleInput {
	return RoleInput{
		Stats:         RawPlayerStats{PlayerID: id, Name: id, Team: "T", KD: 1.0},
		Candidates:    candidates,
		KnownLeader:   leader,
		KnownMarksman: marksman,
	}
}

func TestAssignTeamRolesLeaderGetsIGLWithStatisticalSecondary(t *testing.T) {
	log := &IntegrityLog{}
	players := []RoleInput{
		rosterMember("igl", []RoleCandidate{
			{Role: RoleIGL, Score: 1.2},
			{Role: RoleAnchor, Score: 0.8},
			{Role: RoleSupport, Score: 0.5},
		}, true, false),
		rosterMember("frag", []RoleCandidate{
			{Role: RoleSpacetaker, Score: 1.5},
			{Role: RoleSupport, Score: 0.4},
		}, false, false),
	}

	out := AssignTeamRoles("T", players, log)

	assert.Equal(t, RoleIGL, out[0].Primary)
	assert.Equal(t, RoleAnchor, out[0].Secondary)
	assert.True(t, out[0].IsLeader)
	assert.Equal(t, RoleSpacetaker, out[1].Primary)
	assert.Empty(t, log.Warnings())
}

func TestAssignTeamRolesMultipleLeaderFlagsWarnFirstWins(t *testing.T) {
	log := &IntegrityLog{}
	players := []RoleInput{
		rosterMember("first", []RoleCandidate{{Role: RoleIGL, Score: 1.0}, {Role: RoleSupport, Score: 0.5}}, true, false),
		rosterMember("second", []RoleCandidate{{Role: RoleIGL, Score: 1.3}, {Role: RoleSupport, Score: 0.6}}, true, false),
	}

	out := AssignTeamRoles("T", players, log)

	assert.True(t, out[0].IsLeader)
	assert.False(t, out[1].IsLeader)
	assert.NotEqual(t, RoleIGL, out[1].Primary)
	require.Len(t, log.Warnings(), 1)
	assert.Equal(t, "second", log.Warnings()[0].PlayerID)
}

func TestAssignTeamRolesAllowlistedMarksmanOutranksStatisticalProxy(t *testing.T) {
	log := &IntegrityLog{}
	players := []RoleInput{
		rosterMember("statsawp", []RoleCandidate{{Role: RoleAWPer, Score: 0.9}, {Role: RoleSupport, Score: 0.3}}, false, false),
		rosterMember("listed", []RoleCandidate{{Role: RoleSupport, Score: 0.4}}, false, true),
	}

	out := AssignTeamRoles("T", players, log)

	assert.Equal(t, RoleAWPer, out[1].Primary)
	assert.True(t, out[1].IsPrimaryMarksman)
	assert.NotEqual(t, RoleAWPer, out[0].Primary)
}

func TestAssignTeamRolesHybridLeaderMarksman(t *testing.T) {
	log := &IntegrityLog{}
	players := []RoleInput{
		rosterMember("hybrid", []RoleCandidate{{Role: RoleIGL, Score: 1.0}, {Role: RoleAWPer, Score: 0.9}}, true, true),
		rosterMember("mate", []RoleCandidate{{Role: RoleSupport, Score: 0.5}}, false, false),
	}

	out := AssignTeamRoles("T", players, log)

	assert.Equal(t, RoleIGL, out[0].Primary)
	assert.Equal(t, RoleAWPer, out[0].Secondary)
	assert.True(t, out[0].IsPrimaryMarksman)
	// No duplicate primary AWPer entry for the rest of the roster.
	assert.NotEqual(t, RoleAWPer, out[1].Primary)
}

func TestAssignTeamRolesNoLeaderNoMarksmanIsValid(t *testing.T) {
	log := &IntegrityLog{}
	players := []RoleInput{
		rosterMember("a", []RoleCandidate{{Role: RoleLurker, Score: 0.7}, {Role: RoleSupport, Score: 0.4}}, false, false),
		rosterMember("b", []RoleCandidate{{Role: RoleSupport, Score: 0.6}}, false, false),
	}

	out := AssignTeamRoles("T", players, log)

	for _, a := range out {
		assert.NotEqual(t, RoleIGL, a.Primary)
		assert.NotEqual(t, RoleAWPer, a.Primary)
	}
	assert.Equal(t, RoleLurker, out[0].Primary)
	assert.Equal(t, RoleSupport, out[1].Primary)
}

func TestAssignTeamRolesUniqueness(t *testing.T) {
	log := &IntegrityLog{}
	awpCandidates := []RoleCandidate{{Role: RoleAWPer, Score: 1.1}, {Role: RoleSupport, Score: 0.3}}
	players := []RoleInput{
		rosterMember("awp1", awpCandidates, false, false),
		rosterMember("awp2", awpCandidates, false, false),
		rosterMember("lead1", []RoleCandidate{{Role: RoleIGL, Score: 1.0}, {Role: RoleSupport, Score: 0.2}}, true, false),
	}

	out := AssignTeamRoles("T", players, log)

	igls, awpers := 0, 0
	for _, a := range out {
		if a.Primary == RoleIGL {
			igls++
		}
		if a.Primary == RoleAWPer {
			awpers++
		}
	}
	assert.Equal(t, 1, igls)
	assert.Equal(t, 1, awpers)
}
