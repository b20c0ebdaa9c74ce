package governance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Omnitrade/internal/domain/models"
)

func TestScoreHealth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		m      models.RiskMetrics
		u      models.Uncertainty
		streak int
		want   int
	}{
		{"pristine", models.RiskMetrics{}, models.UncertaintyLow, 0, 100},
		{"seed metrics", models.RiskMetrics{Drawdown: 0.42, CorrelationStress: 0.08, Exposure: 12.5}, models.UncertaintyLow, 0, 97},
		{"high penalty", models.RiskMetrics{}, models.UncertaintyHigh, 0, 80},
		{"critical penalty", models.RiskMetrics{}, models.UncertaintyCritical, 0, 60},
		{"loss streak", models.RiskMetrics{}, models.UncertaintyLow, 3, 70},
		{"full stress", models.RiskMetrics{CorrelationStress: 1}, models.UncertaintyLow, 0, 85},
		{"truncates", models.RiskMetrics{Drawdown: 5.9}, models.UncertaintyLow, 0, 88},
		{"clamps low", models.RiskMetrics{Drawdown: 30}, models.UncertaintyCritical, 4, 0},
		{"exposure ignored", models.RiskMetrics{Exposure: 1e6}, models.UncertaintyLow, 0, 100},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ScoreHealth(tt.m, tt.u, tt.streak)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScoreHealth_InvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		m      models.RiskMetrics
		u      models.Uncertainty
		streak int
	}{
		{"unknown uncertainty", models.RiskMetrics{}, "MEDIUM", 0},
		{"negative streak", models.RiskMetrics{}, models.UncertaintyLow, -1},
		{"negative drawdown", models.RiskMetrics{Drawdown: -1}, models.UncertaintyLow, 0},
		{"stress above one", models.RiskMetrics{CorrelationStress: 1.5}, models.UncertaintyLow, 0},
		{"nan drawdown", models.RiskMetrics{Drawdown: math.NaN()}, models.UncertaintyLow, 0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ScoreHealth(tt.m, tt.u, tt.streak)
			assert.ErrorIs(t, err, models.ErrInvalidInput)
		})
	}
}

func TestLossStreak(t *testing.T) {
	t.Parallel()

	e := models.ActionRecord{Bot: "x", Status: models.StatusError}
	ok := models.ActionRecord{Bot: "x", Status: models.StatusSuccess}

	assert.Equal(t, 0, LossStreak(nil))
	assert.Equal(t, 0, LossStreak([]models.ActionRecord{ok, e, e}))
	assert.Equal(t, 2, LossStreak([]models.ActionRecord{e, e, ok, e}))
}
