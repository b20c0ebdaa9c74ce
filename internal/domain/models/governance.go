package models

import (
	"fmt"
	"math"
)

// RiskMetrics is supplied by the driver each cycle. Exposure is informational.
type RiskMetrics struct {
	Drawdown          float64 `json:"drawdown" validate:"gte=0"`
	CorrelationStress float64 `json:"correlationStress" validate:"gte=0,lte=1"`
	Exposure          float64 `json:"exposure"`
}

func (m RiskMetrics) Validate() error {
	if math.IsNaN(m.Drawdown) || math.IsInf(m.Drawdown, 0) || m.Drawdown < 0 {
		return fmt.Errorf("%w: drawdown %v", ErrInvalidInput, m.Drawdown)
	}
	if math.IsNaN(m.CorrelationStress) || m.CorrelationStress < 0 || m.CorrelationStress > 1 {
		return fmt.Errorf("%w: correlationStress %v outside 0-1", ErrInvalidInput, m.CorrelationStress)
	}
	return nil
}

type Mode string

const (
	ModeFull      Mode = "FULL"
	ModeReduced   Mode = "REDUCED"
	ModeDefensive Mode = "DEFENSIVE"
	ModeStop      Mode = "STOP"
)

type BotStatus string

const (
	BotStatusActive BotStatus = "ACTIVE"
	BotStatusAllOff BotStatus = "ALL_OFF"
	BotStatusPaused BotStatus = "PAUSED"
)

// AutoRuleResult is advisory output for the driver; it never touches the registry.
type AutoRuleResult struct {
	BotStatus     BotStatus `json:"botStatus"`
	SizeReduction float64   `json:"sizeReduction"`
}

// GovernanceState is recomputed every cycle and never carried forward.
type GovernanceState struct {
	Health int  `json:"health"`
	Mode   Mode `json:"mode"`
}
