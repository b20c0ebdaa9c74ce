package bots

import "Omnitrade/internal/domain/models"

// permitByDefault is the fail-open policy for kinds with no gating rule.
const permitByDefault = true

// IsPermitted reports whether the permission matrix lets a bot of the given
// kind consider its trigger under snapshot.
func IsPermitted(kind models.BotKind, s models.ScannerSnapshot) bool {
	switch kind {
	case models.KindGuardian:
		return true
	case models.KindMeanReversion:
		return s.Trend == models.TrendNeutral && s.Volatility == models.VolatilityLow
	case models.KindVolatilityBreakout:
		// Eligible while the regime is quiet, and on the cycle it expands out of quiet.
		return s.Volatility == models.VolatilityLow || priorVolatility(s) == models.VolatilityLow
	case models.KindTrendPullback:
		return s.Trend == models.TrendUp && s.Phase == models.PhaseExpansion
	case models.KindRangeScalper:
		return s.Phase == models.PhaseAccumulation && s.Volatility == models.VolatilityLow
	default:
		return permitByDefault
	}
}

func priorVolatility(s models.ScannerSnapshot) models.Volatility {
	if s.PriorVolatility == "" {
		return models.VolatilityLow
	}
	return s.PriorVolatility
}
