package providers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cs2insight/impact-engine/internal/models"
)

func TestParseRolesCSV(t *testing.T) {
	csv := "Team,Previous team,Player,In-Game Leader?,T Role,CT Role\n" +
		"Vitality,,apEX,Yes,Support,Rotator\n" +
		"Vitality,,ZywOo,No,AWP,AWP\n" +
		"Vitality,,flameZ,No,Spacetaker,Anchor\n" +
		",,stray row,No,Support,Support\n"

	entries, err := NewCSVRolesProvider(testLogger()).Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "apEX", entries[0].Player)
	assert.True(t, entries[0].IsIGL)
	assert.False(t, entries[1].IsIGL)
	assert.Equal(t, "AWP", entries[1].TRole)
	assert.Equal(t, "Anchor", entries[2].CTRole)
}

func TestParseRolesCSVStripsParentheticals(t *testing.T) {
	csv := "Team,Player,In-Game Leader?,T Role,CT Role\n" +
		"G2,Snax (benched),Yes,Support,Support\n"

	entries, err := NewCSVRolesProvider(testLogger()).Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Snax", entries[0].Player)
}

func TestParseRolesCSVUnknownRoleDefaultsToSupport(t *testing.T) {
	csv := "Team,Player,In-Game Leader?,T Role,CT Role\n" +
		"NAVI,b1t,No,Rifler,Anchor\n"

	entries, err := NewCSVRolesProvider(testLogger()).Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Support", entries[0].TRole)
}

func TestBuildAllowlistsFromEntries(t *testing.T) {
	entries := []models.RoleListEntry{
		{Team: "Vitality", Player: "apEX", IsIGL: true, TRole: "Support", CTRole: "Rotator"},
		{Team: "Vitality", Player: "ZywOo", TRole: "AWP", CTRole: "AWP"},
		{Team: "Vitality", Player: "flameZ", TRole: "Spacetaker", CTRole: "Anchor"},
	}

	lists := models.BuildAllowlists(entries)
	assert.True(t, lists.IsLeader("apEX"))
	assert.True(t, lists.IsLeader("APEX"))
	assert.False(t, lists.IsLeader("ZywOo"))
	assert.True(t, lists.IsMarksman("zywoo"))
	assert.False(t, lists.IsMarksman("flameZ"))
}
