package models

// BotKind is the stable tag rules dispatch on. Display names may change freely.
type BotKind string

const (
	KindMeanReversion      BotKind = "MEAN_REVERSION"
	KindVolatilityBreakout BotKind = "VOLATILITY_BREAKOUT"
	KindTrendPullback      BotKind = "TREND_PULLBACK"
	KindRangeScalper       BotKind = "RANGE_SCALPER"
	KindLiquiditySweep     BotKind = "LIQUIDITY_SWEEP"
	KindSessionOpenAlpha   BotKind = "SESSION_OPEN_ALPHA"
	KindFundingArbitrage   BotKind = "FUNDING_ARBITRAGE"
	KindCorrelationBreak   BotKind = "CORRELATION_BREAK"
	KindMomentumMicro      BotKind = "MOMENTUM_MICRO"
	KindGuardian           BotKind = "GUARDIAN"
)

// Valid reports whether k is one of the known kinds.
func (k BotKind) Valid() bool {
	switch k {
	case KindMeanReversion, KindVolatilityBreakout, KindTrendPullback, KindRangeScalper,
		KindLiquiditySweep, KindSessionOpenAlpha, KindFundingArbitrage, KindCorrelationBreak,
		KindMomentumMicro, KindGuardian:
		return true
	default:
		return false
	}
}

type RiskTier string

const (
	RiskLow    RiskTier = "LOW"
	RiskMedium RiskTier = "MEDIUM"
	RiskHigh   RiskTier = "HIGH"
)

// BotDefinition is one catalog entry. Only Active changes after start-up.
type BotDefinition struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Kind        BotKind  `json:"kind"`
	Trigger     string   `json:"trigger"`
	Description string   `json:"description"`
	Risk        RiskTier `json:"risk"`
	IsGuardian  bool     `json:"isGuardian"`
	Active      bool     `json:"active"`
}
