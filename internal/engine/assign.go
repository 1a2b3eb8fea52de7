package engine

import "strings"

// Allowlists carries the externally curated ground truth that statistics
// cannot infer: which players are designated in-game leaders and which are
// their team's primary marksman. Lookups are case-insensitive on display
// name, matching how the curated sheets identify players.
type Allowlists struct {
	leaders  map[string]struct{}
	marksmen map[string]struct{}
}

// NewAllowlists builds the lookup sets from flat name lists.
func NewAllowlists(leaders, marksmen []string) Allowlists {
	a := Allowlists{
		leaders:  make(map[string]struct{}, len(leaders)),
		marksmen: make(map[string]struct{}, len(marksmen)),
	}
	for _, n := range leaders {
		a.leaders[strings.ToLower(strings.TrimSpace(n))] = struct{}{}
	}
	for _, n := range marksmen {
		a.marksmen[strings.ToLower(strings.TrimSpace(n))] = struct{}{}
	}
	return a
}

func (a Allowlists) IsLeader(name string) bool {
	_, ok := a.leaders[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

func (a Allowlists) IsMarksman(name string) bool {
	_, ok := a.marksmen[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// RoleInput is one roster member entering team-level role resolution.
type RoleInput struct {
	Stats         RawPlayerStats
	Candidates    []RoleCandidate
	KnownLeader   bool
	KnownMarksman bool
}

// RoleAssignment is the resolved primary role plus an optional secondary.
type RoleAssignment struct {
	Primary           RoleCategory
	Secondary         RoleCategory
	IsLeader          bool
	IsPrimaryMarksman bool
}

// Affinity pinned onto allow-listed marksmen so the curated designation
// always outranks any statistical proxy.
const pinnedMarksmanAffinity = 1000.0

// AssignTeamRoles resolves the constrained assignment for one roster:
// at most one IGL, at most one primary AWPer, best-fit for everyone else.
// The result slice is index-aligned with players. A roster with no
// leader-flagged member simply gets no IGL, and one with no marksman
// affinity gets no dedicated AWPer; both are valid terminal states.
func AssignTeamRoles(team string, players []RoleInput, log *IntegrityLog) []RoleAssignment {
	out := make([]RoleAssignment, len(players))

	// Leader selection. First flagged player in input order wins; extra
	// flags are a curation problem worth surfacing, not an error.
	leaderIdx := -1
	for i, p := range players {
		if !p.KnownLeader {
			continue
		}
		if leaderIdx == -1 {
			leaderIdx = i
			continue
		}
		log.add(p.Stats.PlayerID, "leaderFlag", SeverityWarning,
			"multiple leader-flagged players on team "+team+", first in input order kept")
	}
	if leaderIdx >= 0 {
		out[leaderIdx] = RoleAssignment{Primary: RoleIGL, IsLeader: true}
		if top := topStatisticalRole(players[leaderIdx].Candidates); top != "" && top != RoleIGL {
			out[leaderIdx].Secondary = top
		}
	}

	// Marksman selection. The leader stays in the pool: a leader who is
	// also the team's best marksman becomes a hybrid rather than freeing
	// the slot for a weaker candidate.
	marksmanIdx := -1
	bestAffinity := 0.0
	for i, p := range players {
		aff := marksmanAffinity(p)
		if aff > bestAffinity {
			bestAffinity = aff
			marksmanIdx = i
		}
	}

	claimed := map[RoleCategory]bool{RoleIGL: true}
	if marksmanIdx >= 0 {
		claimed[RoleAWPer] = true
		if marksmanIdx == leaderIdx {
			out[leaderIdx].Secondary = RoleAWPer
			out[leaderIdx].IsPrimaryMarksman = true
		} else {
			out[marksmanIdx] = RoleAssignment{Primary: RoleAWPer, IsPrimaryMarksman: true}
			if sec := secondaryFor(players[marksmanIdx].Candidates, RoleAWPer, claimed); sec != "" {
				out[marksmanIdx].Secondary = sec
			}
		}
	}

	// Everyone else takes their own top unclaimed candidate.
	for i, p := range players {
		if i == leaderIdx || (i == marksmanIdx && marksmanIdx != leaderIdx) {
			continue
		}
		primary := RoleSupport
		for _, c := range p.Candidates {
			if claimed[c.Role] {
				continue
			}
			primary = c.Role
			break
		}
		out[i] = RoleAssignment{Primary: primary}
		if sec := secondaryFor(p.Candidates, primary, claimed); sec != "" {
			out[i].Secondary = sec
		}
	}

	return out
}

// marksmanAffinity ranks a player's claim on the dedicated AWPer slot.
// Allow-listed names are pinned above every statistical proxy; otherwise a
// player only qualifies when AWPer is their strongest statistical profile.
func marksmanAffinity(p RoleInput) float64 {
	if p.KnownMarksman {
		return pinnedMarksmanAffinity
	}
	if len(p.Candidates) > 0 && p.Candidates[0].Role == RoleAWPer {
		return p.Candidates[0].Score
	}
	return 0
}

func topStatisticalRole(candidates []RoleCandidate) RoleCategory {
	for _, c := range candidates {
		if c.Role != RoleIGL {
			return c.Role
		}
	}
	return ""
}

func secondaryFor(candidates []RoleCandidate, primary RoleCategory, claimed map[RoleCategory]bool) RoleCategory {
	for _, c := range candidates {
		if c.Role == primary || c.Role == RoleIGL {
			continue
		}
		if c.Role == RoleAWPer && claimed[RoleAWPer] {
			continue
		}
		return c.Role
	}
	return ""
}
