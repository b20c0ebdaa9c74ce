package scanners

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Omnitrade/internal/domain/models"
)

func at(hour int) func() time.Time {
	return func() time.Time { return time.Date(2026, 3, 2, hour, 30, 0, 0, time.UTC) }
}

func TestSessionFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		hour  int
		clock models.Clock
		cycle models.Cycle
	}{
		{0, models.ClockAsia, models.CycleEarly},
		{1, models.ClockAsia, models.CycleEarly},
		{2, models.ClockAsia, models.CycleMid},
		{7, models.ClockAsia, models.CycleLate},
		{8, models.ClockLondon, models.CycleEarly},
		{15, models.ClockLondon, models.CycleLate},
		{16, models.ClockNY, models.CycleEarly},
		{20, models.ClockNY, models.CycleMid},
		{23, models.ClockNY, models.CycleLate},
	}
	for _, tt := range tests {
		clock, cycle := SessionFor(at(tt.hour)())
		assert.Equal(t, tt.clock, clock, "hour %d", tt.hour)
		assert.Equal(t, tt.cycle, cycle, "hour %d", tt.hour)
	}
}

func TestUncertaintyFromLogs(t *testing.T) {
	t.Parallel()

	errs := func(n, ok int) []models.ActionRecord {
		var out []models.ActionRecord
		for i := 0; i < n; i++ {
			out = append(out, models.ActionRecord{Bot: "b", Status: models.StatusError})
		}
		for i := 0; i < ok; i++ {
			out = append(out, models.ActionRecord{Bot: "b", Status: models.StatusSuccess})
		}
		return out
	}

	assert.Equal(t, models.UncertaintyLow, UncertaintyFromLogs(nil))
	assert.Equal(t, models.UncertaintyLow, UncertaintyFromLogs(errs(1, 5)))
	assert.Equal(t, models.UncertaintyHigh, UncertaintyFromLogs(errs(2, 0)))
	assert.Equal(t, models.UncertaintyHigh, UncertaintyFromLogs(errs(3, 2)))
	assert.Equal(t, models.UncertaintyCritical, UncertaintyFromLogs(errs(4, 0)))
}

func TestMockSource_ProducesValidScan(t *testing.T) {
	t.Parallel()

	src := NewMockSource(WithSeed(42), WithClock(at(9)))
	for i := 0; i < 50; i++ {
		scan, err := src.Scan(context.Background(), nil)
		require.NoError(t, err)

		require.NoError(t, scan.Snapshot("", nil).Validate())
		assert.Equal(t, models.ClockLondon, scan.Clock)
		assert.Equal(t, models.CycleEarly, scan.Cycle)
		assert.Equal(t, models.UncertaintyLow, scan.Uncertainty)
		assert.Nil(t, scan.Health)

		require.Len(t, scan.Rotation, len(rotationTickers))
		assert.True(t, sort.SliceIsSorted(scan.Rotation, func(i, j int) bool {
			return scan.Rotation[i].Strength > scan.Rotation[j].Strength
		}))
		for _, r := range scan.Rotation {
			assert.GreaterOrEqual(t, r.Strength, -5.0)
			assert.LessOrEqual(t, r.Strength, 10.0)
		}
		assert.Equal(t, []string{"SOL", "AVAX", "EGLD"}, scan.Correlation.ClusterA)
		assert.GreaterOrEqual(t, scan.Correlation.StressIndex, 0.0)
		assert.LessOrEqual(t, scan.Correlation.StressIndex, 1.0)
	}
}

func TestMockSource_SeedIsReproducible(t *testing.T) {
	t.Parallel()

	a := NewMockSource(WithSeed(7), WithClock(at(3)))
	b := NewMockSource(WithSeed(7), WithClock(at(3)))
	for i := 0; i < 5; i++ {
		sa, err := a.Scan(context.Background(), nil)
		require.NoError(t, err)
		sb, err := b.Scan(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, sa, sb)
	}
}
