package providers

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/cs2insight/impact-engine/internal/engine"
)

// CSVStatsProvider reads round-aggregated player statistics from the
// exported match-data sheets. Column names follow the export tool's
// headers verbatim, including its "flahes_thrown" misspelling.
type CSVStatsProvider struct {
	logger *logrus.Logger
}

// NewCSVStatsProvider creates a new CSV stats provider
func NewCSVStatsProvider(logger *logrus.Logger) *CSVStatsProvider {
	return &CSVStatsProvider{logger: logger}
}

// LoadFile parses one stats CSV from disk.
func (p *CSVStatsProvider) LoadFile(path string) ([]engine.RawPlayerStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open stats file: %w", err)
	}
	defer f.Close()

	stats, err := p.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return stats, nil
}

// Parse reads the CSV stream. Missing or unparseable numeric cells
// become NaN so the scoring engine can apply its own defaults; rows are
// never rejected here.
func (p *CSVStatsProvider) Parse(r io.Reader) ([]engine.RawPlayerStats, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	// Export sheets occasionally carry ragged trailing columns.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}

	var out []engine.RawPlayerStats
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}

		cell := func(names ...string) string {
			for _, name := range names {
				if i, ok := cols[name]; ok && i < len(record) {
					return strings.TrimSpace(record[i])
				}
			}
			return ""
		}
		num := func(names ...string) float64 {
			return parseStatValue(cell(names...))
		}

		s := engine.RawPlayerStats{
			PlayerID: cell("steam_id"),
			Name:     cell("user_name"),
			Team:     cell("team_clan_name"),

			Kills:     num("kills"),
			Deaths:    num("deaths"),
			Assists:   num("assists"),
			Headshots: num("headshots"),

			WallbangKills:     num("wallbang_kills"),
			AssistedFlashes:   num("assisted_flashes"),
			NoScopeKills:      num("no_scope"),
			ThroughSmokeKills: num("through_smoke"),
			BlindKills:        num("blind_kills"),
			VictimBlindKills:  num("victim_blind_kills"),

			FirstKills:    num("first_kills"),
			FirstDeaths:   num("first_deaths"),
			TFirstKills:   num("T_first_kills"),
			TFirstDeaths:  num("T_first_deaths"),
			CTFirstKills:  num("CT_first_kills"),
			CTFirstDeaths: num("CT_first_deaths"),

			RoundsWon:   num("total_rounds_won"),
			TRoundsWon:  num("t_rounds_won"),
			CTRoundsWon: num("ct_rounds_won"),

			// The exporter misspells every flash column; accept the
			// corrected spelling too in case the sheet ever gets fixed.
			FlashesThrown:   num("flahes_thrown", "flashes_thrown"),
			TFlashesThrown:  num("T_flahes_thrown", "T_flashes_thrown"),
			CTFlashesThrown: num("CT_flahes_thrown", "CT_flashes_thrown"),

			HEThrown:         num("he_thrown"),
			THEThrown:        num("T_he_thrown"),
			CTHEThrown:       num("CT_he_thrown"),
			InfernosThrown:   num("infernos_thrown"),
			TInfernosThrown:  num("T_infernos_thrown"),
			CTInfernosThrown: num("CT_infernos_thrown"),
			SmokesThrown:     num("smokes_thrown"),
			TSmokesThrown:    num("T_smokes_thrown"),
			CTSmokesThrown:   num("CT_smokes_thrown"),

			TotalUtilityThrown: num("total_util_thrown"),
			KD:                 num("kd"),
		}

		out = append(out, s)
	}

	p.logger.WithField("players", len(out)).Info("Parsed player stats CSV")
	return out, nil
}

// parseStatValue converts one numeric cell. European sheets use a comma
// decimal separator for the kd column.
func parseStatValue(v string) float64 {
	if v == "" {
		return math.NaN()
	}
	v = strings.ReplaceAll(v, ",", ".")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
