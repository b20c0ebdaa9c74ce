package models

type RotationStatus string

const (
	RotationTopPhase  RotationStatus = "TOP_PHASE"
	RotationNextPhase RotationStatus = "NEXT_PHASE"
)

// TokenRotation is relative strength of one ticker against BTC.
type TokenRotation struct {
	Ticker   string         `json:"ticker"`
	Strength float64        `json:"strength"`
	Status   RotationStatus `json:"status"`
}

type Correlation struct {
	ClusterA    []string `json:"cluster_a"`
	ClusterB    []string `json:"cluster_b"`
	StressIndex float64  `json:"stress_index"`
}

// Scan is everything the scanner stage produced for one cycle.
type Scan struct {
	Volatility  Volatility      `json:"volatility"`
	Trend       Trend           `json:"trend"`
	Phase       Phase           `json:"phase"`
	Clock       Clock           `json:"clock"`
	Cycle       Cycle           `json:"cycle"`
	Uncertainty Uncertainty     `json:"uncertainty"`
	Rotation    []TokenRotation `json:"rotation"`
	Correlation Correlation     `json:"correlation"`

	// Health is set only by sources that carry their own health reading.
	Health *int `json:"-"`
}

// Snapshot projects the scan onto the evaluator's input.
func (s Scan) Snapshot(prior Volatility, health *int) ScannerSnapshot {
	return ScannerSnapshot{
		Volatility:      s.Volatility,
		Trend:           s.Trend,
		Phase:           s.Phase,
		Clock:           s.Clock,
		Cycle:           s.Cycle,
		Uncertainty:     s.Uncertainty,
		Health:          health,
		PriorVolatility: prior,
	}
}

// Payload is the per-cycle frame pushed to stream clients and served by the
// governance endpoint.
type Payload struct {
	Scanners  Scan            `json:"scanners"`
	Bots      []BotDefinition `json:"bots"`
	Health    int             `json:"health"`
	Mode      Mode            `json:"mode"`
	AutoRules AutoRuleResult  `json:"autoRules"`
	Metrics   RiskMetrics     `json:"metrics"`
	Logs      []ActionRecord  `json:"logs"`
	Timestamp string          `json:"timestamp"`
}
