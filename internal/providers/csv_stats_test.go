package providers

import (
	"math"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

const statsHeader = "steam_id,user_name,team_clan_name,kills,deaths,assists,headshots," +
	"wallbang_kills,assisted_flashes,no_scope,through_smoke,blind_kills,victim_blind_kills," +
	"first_kills,first_deaths,T_first_kills,T_first_deaths,CT_first_kills,CT_first_deaths," +
	"total_rounds_won,t_rounds_won,ct_rounds_won," +
	"flahes_thrown,T_flahes_thrown,CT_flahes_thrown,he_thrown,smokes_thrown,total_util_thrown,kd"

func TestParseStatsCSV(t *testing.T) {
	csv := statsHeader + "\n" +
		"7656119,s1mple,Aurora,25,14,4,12,1,5,0,2,1,0,6,3,4,2,2,1,16,9,7,18,10,8,12,20,55,\"1,79\"\n"

	stats, err := NewCSVStatsProvider(testLogger()).Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, stats, 1)

	s := stats[0]
	assert.Equal(t, "7656119", s.PlayerID)
	assert.Equal(t, "s1mple", s.Name)
	assert.Equal(t, "Aurora", s.Team)
	assert.Equal(t, 25.0, s.Kills)
	assert.Equal(t, 14.0, s.Deaths)
	assert.Equal(t, 6.0, s.FirstKills)
	assert.Equal(t, 4.0, s.TFirstKills)
	assert.Equal(t, 18.0, s.FlashesThrown)
	assert.Equal(t, 55.0, s.TotalUtilityThrown)
	// Comma decimal separator in the kd column.
	assert.InDelta(t, 1.79, s.KD, 1e-9)
}

func TestParseStatsCSVMissingCellsBecomeNaN(t *testing.T) {
	csv := "steam_id,user_name,team_clan_name,kills,kd\n" +
		"111,device,Astralis,,abc\n"

	stats, err := NewCSVStatsProvider(testLogger()).Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, stats, 1)

	assert.True(t, math.IsNaN(stats[0].Kills))
	assert.True(t, math.IsNaN(stats[0].KD))
	// Columns absent from the sheet entirely are missing too.
	assert.True(t, math.IsNaN(stats[0].Deaths))
}

func TestParseStatsCSVFlashColumnTypoAlias(t *testing.T) {
	// Corrected spelling must also be accepted.
	csv := "steam_id,user_name,team_clan_name,flashes_thrown\n" +
		"222,ropz,Faze,21\n"

	stats, err := NewCSVStatsProvider(testLogger()).Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 21.0, stats[0].FlashesThrown)
}

func TestParseStatsCSVEmptyStream(t *testing.T) {
	stats, err := NewCSVStatsProvider(testLogger()).Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, stats)
}
