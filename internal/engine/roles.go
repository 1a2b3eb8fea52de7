package engine

import (
	"math"
	"sort"
)

// RoleCategory is the closed set of tactical roles the engine assigns.
type RoleCategory string

const (
	RoleIGL        RoleCategory = "IGL"
	RoleAWPer      RoleCategory = "AWPer"
	RoleSpacetaker RoleCategory = "Spacetaker"
	RoleLurker     RoleCategory = "Lurker"
	RoleAnchor     RoleCategory = "Anchor"
	RoleSupport    RoleCategory = "Support"
)

// AllRoles lists every category in display order.
var AllRoles = []RoleCategory{
	RoleIGL, RoleAWPer, RoleSpacetaker, RoleLurker, RoleAnchor, RoleSupport,
}

// RoleCandidate pairs a plausible role with its heuristic score.
type RoleCandidate struct {
	Role  RoleCategory `json:"role"`
	Score float64      `json:"score"`
}

// Inclusion thresholds per role. Support has no threshold: it is the
// guaranteed fallback and is always kept.
const (
	awperThreshold      = 0.40
	spacetakerThreshold = 0.50
	lurkerThreshold     = 0.35
	anchorThreshold     = 0.55
)

// kdFraggerBonus rewards high-impact fraggers in the Spacetaker heuristic
// even when their opening-duel profile alone would not qualify them.
const kdFraggerFloor = 1.2

// EvaluateRoleCandidates ranks the plausible roles for one normalized
// player. The returned list is ordered by descending score (ties keep the
// evaluation order) and always contains at least Support. The IGL role is
// never inferred from statistics alone: it is only scored when the player
// appears on the curated leader list.
func EvaluateRoleCandidates(s RawPlayerStats, knownLeader bool) []RoleCandidate {
	var candidates []RoleCandidate

	if knownLeader {
		// Utility coordination is the closest statistical proxy for calling,
		// but the flag is what puts the role on the table.
		score := 1.0 + s.AssistedFlashes/maxf(s.TotalUtilityThrown, 1)
		candidates = append(candidates, RoleCandidate{Role: RoleIGL, Score: score})
	}

	if awp := awperScore(s); awp > awperThreshold || s.NoScopeKills > 0 {
		candidates = append(candidates, RoleCandidate{Role: RoleAWPer, Score: awp})
	}

	if st := spacetakerScore(s, knownLeader); st > spacetakerThreshold {
		candidates = append(candidates, RoleCandidate{Role: RoleSpacetaker, Score: st})
	}

	if lk := lurkerScore(s); lk > lurkerThreshold {
		candidates = append(candidates, RoleCandidate{Role: RoleLurker, Score: lk})
	}

	if an := anchorScore(s); an > anchorThreshold {
		candidates = append(candidates, RoleCandidate{Role: RoleAnchor, Score: an})
	}

	candidates = append(candidates, RoleCandidate{Role: RoleSupport, Score: supportScore(s)})

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

func awperScore(s RawPlayerStats) float64 {
	openingKillRate := s.FirstKills / maxf(s.Deaths, 1)
	return openingKillRate + s.NoScopeKills*0.05
}

func spacetakerScore(s RawPlayerStats, knownLeader bool) float64 {
	score := s.TFirstKills * 0.05
	openRatio := s.FirstKills / maxf(s.FirstDeaths, 1)
	if openRatio > 1 {
		score += (openRatio - 1) * 0.4
	}
	if !knownLeader && s.KD > kdFraggerFloor {
		score += (s.KD - kdFraggerFloor) * 0.5
	}
	return score
}

func lurkerScore(s RawPlayerStats) float64 {
	smokeKillRate := s.ThroughSmokeKills / maxf(s.Kills, 1)
	openingDeathRate := s.FirstDeaths / maxf(s.Deaths, 1)
	return smokeKillRate*2 + (1 - openingDeathRate)*0.4
}

func anchorScore(s RawPlayerStats) float64 {
	winShare := s.CTRoundsWon / maxf(s.RoundsWon, 1)
	return s.CTFirstKills*0.05 + winShare*0.6
}

func supportScore(s RawPlayerStats) float64 {
	// Both components capped at 1 so sparse utility data cannot inflate
	// the fallback above the specialist profiles.
	flashAssistRate := math.Min(s.AssistedFlashes/maxf(s.FlashesThrown, 1), 1)
	assistRatio := math.Min(s.Assists/maxf(s.Kills, 1), 1)
	return flashAssistRate + assistRatio*0.5
}
