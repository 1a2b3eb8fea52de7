package providers

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/cs2insight/impact-engine/internal/models"
)

// CSVRolesProvider reads the hand-curated teams-and-roles sheet: one row
// per player with the team, the in-game-leader flag, and the expected
// role on each side.
type CSVRolesProvider struct {
	logger *logrus.Logger
}

// NewCSVRolesProvider creates a new CSV roles provider
func NewCSVRolesProvider(logger *logrus.Logger) *CSVRolesProvider {
	return &CSVRolesProvider{logger: logger}
}

var parenthetical = regexp.MustCompile(`\s*\([^)]*\)\s*`)

// LoadFile parses one roles CSV from disk.
func (p *CSVRolesProvider) LoadFile(path string) ([]models.RoleListEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roles file: %w", err)
	}
	defer f.Close()

	entries, err := p.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return entries, nil
}

// Parse reads the CSV stream. Rows without both a team and a player
// name are skipped; curation sheets carry section separators and blank
// rows between teams.
func (p *CSVRolesProvider) Parse(r io.Reader) ([]models.RoleListEntry, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
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

	var entries []models.RoleListEntry
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}

		cell := func(name string) string {
			if i, ok := cols[name]; ok && i < len(record) {
				return strings.TrimSpace(record[i])
			}
			return ""
		}

		team := cell("Team")
		player := cleanPlayerName(cell("Player"))
		if team == "" || player == "" {
			continue
		}

		entries = append(entries, models.RoleListEntry{
			Team:   team,
			Player: player,
			IsIGL:  cell("In-Game Leader?") == "Yes",
			TRole:  p.normalizeRole(cell("T Role")),
			CTRole: p.normalizeRole(cell("CT Role")),
		})
	}

	p.logger.WithField("entries", len(entries)).Info("Parsed team roles CSV")
	return entries, nil
}

// cleanPlayerName strips parenthetical additions so names match the
// stats export, which carries bare handles.
func cleanPlayerName(name string) string {
	return strings.TrimSpace(parenthetical.ReplaceAllString(name, " "))
}

// normalizeRole maps the sheet's role spellings onto the canonical set.
// Unknown values fall back to Support rather than failing the roster.
func (p *CSVRolesProvider) normalizeRole(role string) string {
	switch strings.TrimSpace(role) {
	case "AWP", "AWPer":
		return "AWP"
	case "Lurker", "Spacetaker", "Support", "Anchor", "Rotator":
		return strings.TrimSpace(role)
	case "":
		return ""
	default:
		p.logger.WithField("role", role).Warn("Unknown role in sheet, defaulting to Support")
		return "Support"
	}
}
