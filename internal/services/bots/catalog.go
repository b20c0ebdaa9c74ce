package bots

import "Omnitrade/internal/domain/models"

// GuardianName is the display name of the circuit-breaker bot.
const GuardianName = "NO-TRADE GUARDIAN"

// DefaultCatalog returns a fresh copy of the built-in bot definitions in
// catalog order.
func DefaultCatalog() []models.BotDefinition {
	return []models.BotDefinition{
		{ID: "1", Name: "VWAP Mean Reversion", Kind: models.KindMeanReversion, Trigger: "Price ±2σ from VWAP", Description: "Institutional mean reversion for high-liquidity pairings.", Risk: models.RiskLow, Active: true},
		{ID: "2", Name: "Volatility Expansion", Kind: models.KindVolatilityBreakout, Trigger: "BB Squeeze + Vol Expansion", Description: "Breakout capture for regime shifts in major assets.", Risk: models.RiskMedium, Active: true},
		{ID: "3", Name: "Trend Liquidity", Kind: models.KindTrendPullback, Trigger: "0.5 - 0.618 Fib Retrace", Description: "Captures quality pullbacks in established trend cycles.", Risk: models.RiskLow},
		{ID: "4", Name: "Horizontal Scalper", Kind: models.KindRangeScalper, Trigger: "Session Range Extremes", Description: "Micro-range execution within session boundaries.", Risk: models.RiskMedium},
		{ID: "5", Name: "Liquidity Sweep", Kind: models.KindLiquiditySweep, Trigger: "Equal H/L + RSI Div", Description: "Fades false liquidity grabs at structural extremes.", Risk: models.RiskMedium, Active: true},
		{ID: "6", Name: "Session Open Alpha", Kind: models.KindSessionOpenAlpha, Trigger: "Volatility Spike at Open", Description: "Regime-based momentum at major market session starts.", Risk: models.RiskHigh, Active: true},
		{ID: "7", Name: "Funding Arbitrage", Kind: models.KindFundingArbitrage, Trigger: "Extreme Rates + Price Stall", Description: "Counter-trend capture of over-leveraged positioning.", Risk: models.RiskHigh},
		{ID: "8", Name: "Cross-Asset Divergence", Kind: models.KindCorrelationBreak, Trigger: "ETH/BTC Decoupling", Description: "Inter-market divergence strategy for major alts.", Risk: models.RiskLow},
		{ID: "9", Name: "Momentum Scalpel", Kind: models.KindMomentumMicro, Trigger: "5m / 15m Alignment", Description: "Low timeframe momentum tracking for agile exposure.", Risk: models.RiskHigh, Active: true},
		{ID: "10", Name: GuardianName, Kind: models.KindGuardian, Trigger: "GOVERNANCE LOCK", Description: "Total system circuit breaker. Overrides all execution logic.", Risk: models.RiskHigh, IsGuardian: true},
	}
}
