package models

// EvaluateRequest is a hypothetical cycle posted to the what-if endpoint.
// Metrics default to the stored risk metrics and StressIndex to their
// correlation stress.
type EvaluateRequest struct {
	Volatility      string       `json:"volatility" validate:"required,oneof=LOW HIGH"`
	Trend           string       `json:"trend" validate:"required,oneof=UP DOWN NEUTRAL"`
	Phase           string       `json:"phase" validate:"required,oneof=ACCUMULATION EXPANSION DISTRIBUTION RESET"`
	Clock           string       `json:"clock" validate:"required,oneof=ASIA LONDON NY"`
	Cycle           string       `json:"cycle" validate:"required,oneof=EARLY MID LATE"`
	Uncertainty     string       `json:"uncertainty" default:"LOW" validate:"oneof=LOW HIGH CRITICAL"`
	PriorVolatility string       `json:"priorVolatility" validate:"omitempty,oneof=LOW HIGH"`
	Health          *int         `json:"health" validate:"omitempty,gte=0,lte=100"`
	Metrics         *RiskMetrics `json:"metrics"`
	LossStreak      int          `json:"lossStreak" validate:"gte=0"`
	StressIndex     *float64     `json:"stressIndex" validate:"omitempty,gte=0,lte=1"`
}

func (r EvaluateRequest) Snapshot() ScannerSnapshot {
	return ScannerSnapshot{
		Volatility:      Volatility(r.Volatility),
		Trend:           Trend(r.Trend),
		Phase:           Phase(r.Phase),
		Clock:           Clock(r.Clock),
		Cycle:           Cycle(r.Cycle),
		Uncertainty:     Uncertainty(r.Uncertainty),
		Health:          r.Health,
		PriorVolatility: Volatility(r.PriorVolatility),
	}
}
