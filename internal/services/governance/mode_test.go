package governance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"Omnitrade/internal/domain/models"
)

func TestModeFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		health int
		want   models.Mode
	}{
		{100, models.ModeFull},
		{81, models.ModeFull},
		{80, models.ModeReduced},
		{60, models.ModeReduced},
		{59, models.ModeDefensive},
		{40, models.ModeDefensive},
		{39, models.ModeStop},
		{0, models.ModeStop},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ModeFor(tt.health), "health %d", tt.health)
	}
}

func TestApplyAutoRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		health int
		spike  bool
		u      models.Uncertainty
		want   models.AutoRuleResult
	}{
		{"healthy", 90, false, models.UncertaintyLow, models.AutoRuleResult{BotStatus: models.BotStatusActive}},
		{"critical health", 39, false, models.UncertaintyLow, models.AutoRuleResult{BotStatus: models.BotStatusAllOff}},
		{"spike", 90, true, models.UncertaintyLow, models.AutoRuleResult{BotStatus: models.BotStatusActive, SizeReduction: 0.5}},
		{"spike while off", 10, true, models.UncertaintyLow, models.AutoRuleResult{BotStatus: models.BotStatusAllOff, SizeReduction: 0.5}},
		{"high uncertainty", 90, false, models.UncertaintyHigh, models.AutoRuleResult{BotStatus: models.BotStatusPaused}},
		{"pause overrides all off", 20, false, models.UncertaintyHigh, models.AutoRuleResult{BotStatus: models.BotStatusPaused}},
		{"critical uncertainty does not pause", 90, false, models.UncertaintyCritical, models.AutoRuleResult{BotStatus: models.BotStatusActive}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ApplyAutoRules(tt.health, tt.spike, tt.u))
		})
	}
}

func TestEndToEndHealthAndMode(t *testing.T) {
	t.Parallel()

	h, err := ScoreHealth(models.RiskMetrics{}, models.UncertaintyLow, 0)
	assert.NoError(t, err)
	assert.Equal(t, 100, h)
	assert.Equal(t, models.ModeFull, ModeFor(h))
}
