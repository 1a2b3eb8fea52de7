package engine

// RoleMetrics computes the role-specific raw sub-metrics used for
// population-relative scoring. Each role carries its own closed metric-key
// schema; every denominator is floored so the values stay finite for any
// non-negative input. Keys are the display names the production ratings
// sheets use.
func RoleMetrics(role RoleCategory, s RawPlayerStats) map[string]float64 {
	switch role {
	case RoleAWPer:
		return map[string]float64{
			"Opening Pick Success Rate": s.FirstKills / maxf(s.FirstKills+s.FirstDeaths, 1),
			"Multi Kill Conversion":     s.Kills / maxf(s.RoundsWon, 1),
			"Utility Punish Rate":       s.ThroughSmokeKills / maxf(s.Kills, 1),
			"AWPer Flash Assistance":    s.AssistedFlashes / maxf(s.FlashesThrown, 1),
		}

	case RoleIGL:
		return map[string]float64{
			"Utility Setup Optimization": (s.AssistedFlashes + s.HEThrown + s.InfernosThrown) / maxf(s.TotalUtilityThrown, 1),
			"Opening Play Success Rate":  s.TRoundsWon / maxf(s.RoundsWon, 1),
			"Kill Participation Index":   (s.Kills + s.Assists) / maxf(s.Kills, 1),
			"Team Economy Preservation":  1 - s.Deaths/maxf(s.Kills+s.Deaths, 1),
		}

	case RoleSpacetaker:
		return map[string]float64{
			"Opening Duel Success Rate":   s.TFirstKills / maxf(s.TFirstKills+s.TFirstDeaths, 1),
			"Aggression Efficiency Index": (s.Kills - s.Deaths) / maxf(s.FirstKills+s.FirstDeaths, 1),
			"First Blood Impact":          s.FirstKills / maxf(s.Kills, 1),
			"Space Creation Index":        s.TRoundsWon / maxf(s.RoundsWon, 1),
		}

	case RoleLurker:
		return map[string]float64{
			"Flank Success Rate":               s.ThroughSmokeKills / maxf(s.Kills, 1),
			"Zone Influence Stability":         (s.Kills - s.TFirstKills) / maxf(s.Kills, 1),
			"Information Gathering Efficiency": 1 - s.TFirstDeaths/maxf(s.Deaths, 1),
			"Clutch Conversion Rate":           s.BlindKills / maxf(s.Kills, 1),
		}

	case RoleAnchor:
		return map[string]float64{
			"Site Hold Success Rate":        s.CTRoundsWon / maxf(s.RoundsWon, 1),
			"Opponent Entry Denial Rate":    s.CTFirstKills / maxf(s.CTFirstKills+s.CTFirstDeaths, 1),
			"Survival Rate Post-Engagement": 1 - s.CTFirstDeaths/maxf(s.Deaths, 1),
			"Multi-Kill Defense Ratio":      s.CTFirstKills / maxf(s.FirstKills, 1),
		}

	default: // RoleSupport and any future fallback
		return map[string]float64{
			"Support Flash Assist":     s.AssistedFlashes / maxf(s.FlashesThrown, 1),
			"Utility Setup Efficiency": s.AssistedFlashes / maxf(s.TotalUtilityThrown, 1),
			"Post-Plant Aid Ratio":     s.Assists / maxf(s.Kills, 1),
			"Teammate Save Ratio":      s.SmokesThrown / maxf(s.TotalUtilityThrown, 1),
		}
	}
}
