package bots

import (
	"fmt"
	"math/rand"

	"Omnitrade/internal/domain/models"
)

const (
	ActionHalt            = "HALT TRADING - HEALTH CRITICAL"
	ActionBreakout        = "Breakout Confirmed"
	ActionOpenRangeBreak  = "Open Range Break"
	ActionMeanReversion   = "Mean Reversion Entry"
	guardianHealthFloor   = 40
	DefaultMeanReversionP = 0.05
)

// RandomSource feeds the stochastic mean-reversion trigger.
type RandomSource interface {
	Float64() float64
}

type Evaluator struct {
	rng         RandomSource
	probability float64
}

type EvaluatorOption func(*Evaluator)

func WithMeanReversionProbability(p float64) EvaluatorOption {
	return func(e *Evaluator) {
		if p >= 0 && p <= 1 {
			e.probability = p
		}
	}
}

// globalRand is the package-level math/rand source, safe for concurrent use.
type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// NewEvaluator builds an evaluator. A nil rng falls back to the global source.
// A caller-supplied rng must be safe for the caller's concurrency.
func NewEvaluator(rng RandomSource, opts ...EvaluatorOption) *Evaluator {
	if rng == nil {
		rng = globalRand{}
	}
	e := &Evaluator{rng: rng, probability: DefaultMeanReversionP}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate returns the actions fired this cycle in registry order. Records
// carry no id or timestamp.
func (e *Evaluator) Evaluate(s models.ScannerSnapshot, bots []models.BotDefinition) ([]models.ActionRecord, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	if g, ok := activeGuardian(bots); ok && s.EffectiveHealth() < guardianHealthFloor {
		return []models.ActionRecord{{Bot: g.Name, Action: ActionHalt, Status: models.StatusWarning}}, nil
	}

	var out []models.ActionRecord
	for _, b := range bots {
		if !b.Active || !IsPermitted(b.Kind, s) {
			continue
		}
		if action, ok := e.fire(b.Kind, s); ok {
			out = append(out, models.ActionRecord{Bot: b.Name, Action: action, Status: models.StatusSuccess})
		}
	}
	return out, nil
}

func (e *Evaluator) fire(kind models.BotKind, s models.ScannerSnapshot) (string, bool) {
	switch kind {
	case models.KindVolatilityBreakout:
		return ActionBreakout, s.Volatility == models.VolatilityHigh
	case models.KindSessionOpenAlpha:
		open := s.Clock == models.ClockLondon || s.Clock == models.ClockNY
		return ActionOpenRangeBreak, open && s.Cycle == models.CycleEarly
	case models.KindMeanReversion:
		if s.Uncertainty != models.UncertaintyLow {
			return "", false
		}
		return ActionMeanReversion, e.rng.Float64() < e.probability
	default:
		return "", false
	}
}

func activeGuardian(bots []models.BotDefinition) (models.BotDefinition, bool) {
	for _, b := range bots {
		if b.IsGuardian && b.Active {
			return b, true
		}
	}
	return models.BotDefinition{}, false
}
