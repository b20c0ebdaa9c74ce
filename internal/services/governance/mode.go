package governance

import "Omnitrade/internal/domain/models"

const (
	stopBelow        = 40
	defensiveBelow   = 60
	fullAbove        = 80
	spikeSizeCutback = 0.5
)

// ModeFor maps a health score onto the governance mode. No hysteresis.
func ModeFor(health int) models.Mode {
	switch {
	case health > fullAbove:
		return models.ModeFull
	case health >= defensiveBelow:
		return models.ModeReduced
	case health >= stopBelow:
		return models.ModeDefensive
	default:
		return models.ModeStop
	}
}

// ApplyAutoRules computes advisory remedial actions. Rules apply in order and
// the last matching status wins, so HIGH uncertainty overrides ALL_OFF.
func ApplyAutoRules(health int, correlationSpike bool, u models.Uncertainty) models.AutoRuleResult {
	res := models.AutoRuleResult{BotStatus: models.BotStatusActive}
	if health < stopBelow {
		res.BotStatus = models.BotStatusAllOff
	}
	if correlationSpike {
		res.SizeReduction = spikeSizeCutback
	}
	if u == models.UncertaintyHigh {
		res.BotStatus = models.BotStatusPaused
	}
	return res
}
