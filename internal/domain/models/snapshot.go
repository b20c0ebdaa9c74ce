package models

import (
	"fmt"
	"strings"
)

type Volatility string

const (
	VolatilityLow  Volatility = "LOW"
	VolatilityHigh Volatility = "HIGH"
)

func (v Volatility) Valid() bool { return v == VolatilityLow || v == VolatilityHigh }

type Trend string

const (
	TrendUp      Trend = "UP"
	TrendDown    Trend = "DOWN"
	TrendNeutral Trend = "NEUTRAL"
)

func (t Trend) Valid() bool { return t == TrendUp || t == TrendDown || t == TrendNeutral }

type Phase string

const (
	PhaseAccumulation Phase = "ACCUMULATION"
	PhaseExpansion    Phase = "EXPANSION"
	PhaseDistribution Phase = "DISTRIBUTION"
	PhaseReset        Phase = "RESET"
)

func (p Phase) Valid() bool {
	switch p {
	case PhaseAccumulation, PhaseExpansion, PhaseDistribution, PhaseReset:
		return true
	default:
		return false
	}
}

type Clock string

const (
	ClockAsia   Clock = "ASIA"
	ClockLondon Clock = "LONDON"
	ClockNY     Clock = "NY"
)

func (c Clock) Valid() bool { return c == ClockAsia || c == ClockLondon || c == ClockNY }

type Cycle string

const (
	CycleEarly Cycle = "EARLY"
	CycleMid   Cycle = "MID"
	CycleLate  Cycle = "LATE"
)

func (c Cycle) Valid() bool { return c == CycleEarly || c == CycleMid || c == CycleLate }

type Uncertainty string

const (
	UncertaintyLow      Uncertainty = "LOW"
	UncertaintyHigh     Uncertainty = "HIGH"
	UncertaintyCritical Uncertainty = "CRITICAL"
)

func (u Uncertainty) Valid() bool {
	return u == UncertaintyLow || u == UncertaintyHigh || u == UncertaintyCritical
}

// ScannerSnapshot is one cycle's indicator set. It is never mutated by the core.
//
// PriorVolatility is the volatility regime of the previous cycle, supplied by
// the driver when known. Health is an optional override; absent means 100.
type ScannerSnapshot struct {
	Volatility      Volatility  `json:"volatility"`
	Trend           Trend       `json:"trend"`
	Phase           Phase       `json:"phase"`
	Clock           Clock       `json:"clock"`
	Cycle           Cycle       `json:"cycle"`
	Uncertainty     Uncertainty `json:"uncertainty"`
	Health          *int        `json:"health,omitempty"`
	PriorVolatility Volatility  `json:"priorVolatility,omitempty"`
}

// EffectiveHealth returns the health override or 100 when none was supplied.
func (s ScannerSnapshot) EffectiveHealth() int {
	if s.Health == nil {
		return 100
	}
	return *s.Health
}

// Validate rejects unrecognised enum values instead of letting them fall
// through to default-allow rules.
func (s ScannerSnapshot) Validate() error {
	switch {
	case !s.Volatility.Valid():
		return invalidField("volatility", string(s.Volatility))
	case !s.Trend.Valid():
		return invalidField("trend", string(s.Trend))
	case !s.Phase.Valid():
		return invalidField("phase", string(s.Phase))
	case !s.Clock.Valid():
		return invalidField("clock", string(s.Clock))
	case !s.Cycle.Valid():
		return invalidField("cycle", string(s.Cycle))
	case !s.Uncertainty.Valid():
		return invalidField("uncertainty", string(s.Uncertainty))
	case s.PriorVolatility != "" && !s.PriorVolatility.Valid():
		return invalidField("priorVolatility", string(s.PriorVolatility))
	}
	if s.Health != nil && (*s.Health < 0 || *s.Health > 100) {
		return fmt.Errorf("%w: health %d outside 0-100", ErrInvalidInput, *s.Health)
	}
	return nil
}

func invalidField(field, value string) error {
	return fmt.Errorf("%w: %s %q", ErrInvalidInput, field, value)
}

func normalize(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

func ParseVolatility(s string) (Volatility, error) {
	v := Volatility(normalize(s))
	if !v.Valid() {
		return "", invalidField("volatility", s)
	}
	return v, nil
}

func ParseTrend(s string) (Trend, error) {
	t := Trend(normalize(s))
	if !t.Valid() {
		return "", invalidField("trend", s)
	}
	return t, nil
}

func ParsePhase(s string) (Phase, error) {
	p := Phase(normalize(s))
	if !p.Valid() {
		return "", invalidField("phase", s)
	}
	return p, nil
}

func ParseClock(s string) (Clock, error) {
	c := Clock(normalize(s))
	if !c.Valid() {
		return "", invalidField("clock", s)
	}
	return c, nil
}

func ParseCycle(s string) (Cycle, error) {
	c := Cycle(normalize(s))
	if !c.Valid() {
		return "", invalidField("cycle", s)
	}
	return c, nil
}

func ParseUncertainty(s string) (Uncertainty, error) {
	u := Uncertainty(normalize(s))
	if !u.Valid() {
		return "", invalidField("uncertainty", s)
	}
	return u, nil
}
