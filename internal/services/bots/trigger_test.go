package bots

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Omnitrade/internal/domain/models"
)

// fixedRand returns the same draw every time and counts calls.
type fixedRand struct {
	v     float64
	calls int
}

func (f *fixedRand) Float64() float64 {
	f.calls++
	return f.v
}

func intPtr(v int) *int { return &v }

func onlyActive(ids ...string) []models.BotDefinition {
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	bots := DefaultCatalog()
	for i := range bots {
		bots[i].Active = want[bots[i].ID]
	}
	return bots
}

func TestEvaluate_EndToEndBreakout(t *testing.T) {
	t.Parallel()

	s := models.ScannerSnapshot{
		Volatility:  models.VolatilityHigh,
		Trend:       models.TrendNeutral,
		Phase:       models.PhaseAccumulation,
		Clock:       models.ClockNY,
		Cycle:       models.CycleMid,
		Uncertainty: models.UncertaintyLow,
		Health:      intPtr(90),
	}

	got, err := NewEvaluator(&fixedRand{v: 0}).Evaluate(s, onlyActive("2"))
	require.NoError(t, err)
	assert.Equal(t, []models.ActionRecord{
		{Bot: "Volatility Expansion", Action: ActionBreakout, Status: models.StatusSuccess},
	}, got)
}

func TestEvaluate_GuardianShortCircuit(t *testing.T) {
	t.Parallel()

	s := models.ScannerSnapshot{
		Volatility:  models.VolatilityHigh,
		Trend:       models.TrendNeutral,
		Phase:       models.PhaseAccumulation,
		Clock:       models.ClockLondon,
		Cycle:       models.CycleEarly,
		Uncertainty: models.UncertaintyLow,
		Health:      intPtr(39),
	}
	rng := &fixedRand{v: 0}

	got, err := NewEvaluator(rng).Evaluate(s, onlyActive("1", "2", "6", "10"))
	require.NoError(t, err)
	assert.Equal(t, []models.ActionRecord{
		{Bot: GuardianName, Action: ActionHalt, Status: models.StatusWarning},
	}, got)
	assert.Zero(t, rng.calls)
}

func TestEvaluate_GuardianIgnoredWhenInactiveOrHealthy(t *testing.T) {
	t.Parallel()

	s := models.ScannerSnapshot{
		Volatility:  models.VolatilityHigh,
		Trend:       models.TrendDown,
		Phase:       models.PhaseReset,
		Clock:       models.ClockLondon,
		Cycle:       models.CycleEarly,
		Uncertainty: models.UncertaintyHigh,
		Health:      intPtr(39),
	}
	e := NewEvaluator(&fixedRand{v: 0})

	got, err := e.Evaluate(s, onlyActive("6"))
	require.NoError(t, err)
	assert.Equal(t, []models.ActionRecord{{Bot: "Session Open Alpha", Action: ActionOpenRangeBreak, Status: models.StatusSuccess}}, got)

	s.Health = intPtr(40)
	got, err = e.Evaluate(s, onlyActive("6", "10"))
	require.NoError(t, err)
	assert.Len(t, got, 1)

	s.Health = nil
	got, err = e.Evaluate(s, onlyActive("6", "10"))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestEvaluate_SessionOpenAlpha(t *testing.T) {
	t.Parallel()

	tests := []struct {
		clock models.Clock
		cycle models.Cycle
		fires bool
	}{
		{models.ClockLondon, models.CycleEarly, true},
		{models.ClockNY, models.CycleEarly, true},
		{models.ClockAsia, models.CycleEarly, false},
		{models.ClockNY, models.CycleMid, false},
		{models.ClockLondon, models.CycleLate, false},
	}
	e := NewEvaluator(&fixedRand{v: 1})
	for _, tt := range tests {
		s := snap(models.VolatilityLow, models.TrendDown, models.PhaseReset)
		s.Clock, s.Cycle = tt.clock, tt.cycle
		got, err := e.Evaluate(s, onlyActive("6"))
		require.NoError(t, err)
		assert.Equal(t, tt.fires, len(got) == 1, "%s/%s", tt.clock, tt.cycle)
	}
}

func TestEvaluate_MeanReversionUsesInjectedSource(t *testing.T) {
	t.Parallel()

	s := snap(models.VolatilityLow, models.TrendNeutral, models.PhaseReset)

	got, err := NewEvaluator(&fixedRand{v: 0.01}).Evaluate(s, onlyActive("1"))
	require.NoError(t, err)
	assert.Equal(t, []models.ActionRecord{{Bot: "VWAP Mean Reversion", Action: ActionMeanReversion, Status: models.StatusSuccess}}, got)

	got, err = NewEvaluator(&fixedRand{v: 0.05}).Evaluate(s, onlyActive("1"))
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = NewEvaluator(&fixedRand{v: 0.3}, WithMeanReversionProbability(0.5)).Evaluate(s, onlyActive("1"))
	require.NoError(t, err)
	assert.Len(t, got, 1)

	rng := &fixedRand{v: 0}
	s.Uncertainty = models.UncertaintyHigh
	got, err = NewEvaluator(rng).Evaluate(s, onlyActive("1"))
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, rng.calls)
}

func TestEvaluate_MeanReversionNeverFiresTrendingUp(t *testing.T) {
	t.Parallel()

	e := NewEvaluator(&fixedRand{v: 0})
	for _, v := range []models.Volatility{models.VolatilityLow, models.VolatilityHigh} {
		got, err := e.Evaluate(snap(v, models.TrendUp, models.PhaseAccumulation), onlyActive("1"))
		require.NoError(t, err)
		assert.Empty(t, got)
	}
}

func TestEvaluate_RegistryOrderAndInactiveSkipped(t *testing.T) {
	t.Parallel()

	s := models.ScannerSnapshot{
		Volatility:  models.VolatilityHigh,
		Trend:       models.TrendNeutral,
		Phase:       models.PhaseExpansion,
		Clock:       models.ClockNY,
		Cycle:       models.CycleEarly,
		Uncertainty: models.UncertaintyLow,
	}
	e := NewEvaluator(&fixedRand{v: 0})

	got, err := e.Evaluate(s, DefaultCatalog())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Volatility Expansion", got[0].Bot)
	assert.Equal(t, "Session Open Alpha", got[1].Bot)

	got, err = e.Evaluate(s, onlyActive())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEvaluate_SustainedHighVolatilityDoesNotRefire(t *testing.T) {
	t.Parallel()

	s := snap(models.VolatilityHigh, models.TrendDown, models.PhaseReset)
	s.PriorVolatility = models.VolatilityHigh

	got, err := NewEvaluator(&fixedRand{v: 1}).Evaluate(s, onlyActive("2"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEvaluate_RejectsInvalidSnapshot(t *testing.T) {
	t.Parallel()

	s := snap(models.VolatilityLow, models.TrendNeutral, models.PhaseReset)
	s.Clock = "TOKYO"
	_, err := NewEvaluator(&fixedRand{}).Evaluate(s, DefaultCatalog())
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	s = snap(models.VolatilityLow, models.TrendNeutral, models.PhaseReset)
	s.Health = intPtr(101)
	_, err = NewEvaluator(&fixedRand{}).Evaluate(s, DefaultCatalog())
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}
