package governance

import (
	"fmt"
	"math"

	"Omnitrade/internal/domain/models"
)

const (
	drawdownWeight   = 2.0
	lossStreakWeight = 10.0
	stressWeight     = 15.0
)

var uncertaintyPenalty = map[models.Uncertainty]float64{
	models.UncertaintyLow:      0,
	models.UncertaintyHigh:     20,
	models.UncertaintyCritical: 40,
}

// ScoreHealth computes the 0-100 system health score:
//
//	100 - 2*drawdown - 10*lossStreak - 15*correlationStress - penalty(uncertainty)
//
// truncated toward zero and clamped.
func ScoreHealth(m models.RiskMetrics, u models.Uncertainty, lossStreak int) (int, error) {
	if err := m.Validate(); err != nil {
		return 0, fmt.Errorf("score health: %w", err)
	}
	penalty, ok := uncertaintyPenalty[u]
	if !ok {
		return 0, fmt.Errorf("score health: %w: uncertainty %q", models.ErrInvalidInput, u)
	}
	if lossStreak < 0 {
		return 0, fmt.Errorf("score health: %w: loss streak %d", models.ErrInvalidInput, lossStreak)
	}

	h := 100 - drawdownWeight*m.Drawdown - lossStreakWeight*float64(lossStreak) - stressWeight*m.CorrelationStress - penalty
	return clamp(int(math.Trunc(h))), nil
}

func clamp(h int) int {
	switch {
	case h < 0:
		return 0
	case h > 100:
		return 100
	default:
		return h
	}
}

// LossStreak counts consecutive ERROR records at the head of a newest-first log.
func LossStreak(logs []models.ActionRecord) int {
	n := 0
	for _, r := range logs {
		if r.Status != models.StatusError {
			break
		}
		n++
	}
	return n
}
