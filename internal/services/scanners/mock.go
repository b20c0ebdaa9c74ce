package scanners

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"Omnitrade/internal/domain/models"
	"Omnitrade/internal/domain/service"
)

var (
	rotationTickers = []string{"SOL", "ETH", "AVAX", "LINK", "EGLD", "MATIC", "DOT"}
	clusterA        = []string{"SOL", "AVAX", "EGLD"}
	clusterB        = []string{"ETH", "OP", "ARB"}

	trends = []models.Trend{models.TrendUp, models.TrendDown, models.TrendNeutral}
	phases = []models.Phase{models.PhaseAccumulation, models.PhaseExpansion, models.PhaseDistribution, models.PhaseReset}
)

const (
	highVolatilityAbove = 0.7
	nextPhaseAbove      = 0.8
)

type MockOption func(*MockSource)

// WithSeed makes the generated market reproducible.
func WithSeed(seed int64) MockOption {
	return func(m *MockSource) { m.rng = rand.New(rand.NewSource(seed)) }
}

func WithClock(now func() time.Time) MockOption {
	return func(m *MockSource) { m.now = now }
}

// MockSource simulates the market scanners. Uncertainty is derived from the
// action log it is handed.
type MockSource struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

func NewMockSource(opts ...MockOption) *MockSource {
	m := &MockSource{now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return m
}

var _ service.ScannerSource = (*MockSource)(nil)

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) Scan(_ context.Context, logs []models.ActionRecord) (models.Scan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.marketState()
	s.Clock, s.Cycle = SessionFor(m.now())
	s.Uncertainty = UncertaintyFromLogs(logs)
	s.Rotation = m.rotation()
	s.Correlation = m.correlation()
	return s, nil
}

func (m *MockSource) marketState() models.Scan {
	vol := models.VolatilityLow
	if m.rng.Float64() > highVolatilityAbove {
		vol = models.VolatilityHigh
	}
	return models.Scan{
		Volatility: vol,
		Trend:      trends[m.rng.Intn(len(trends))],
		Phase:      phases[m.rng.Intn(len(phases))],
	}
}

func (m *MockSource) rotation() []models.TokenRotation {
	out := make([]models.TokenRotation, 0, len(rotationTickers))
	for _, t := range rotationTickers {
		status := models.RotationTopPhase
		strength := round2(-5 + 15*m.rng.Float64())
		if m.rng.Float64() > nextPhaseAbove {
			status = models.RotationNextPhase
		}
		out = append(out, models.TokenRotation{Ticker: t, Strength: strength, Status: status})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Strength > out[j].Strength })
	return out
}

func (m *MockSource) correlation() models.Correlation {
	return models.Correlation{
		ClusterA:    append([]string(nil), clusterA...),
		ClusterB:    append([]string(nil), clusterB...),
		StressIndex: round2(m.rng.Float64()),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
