package models

import "time"

// PositionSizeTier is the tiered sizing multiplier Trader applies
// based on analysis.riskScore (spec §4.8 step 4).
type PositionSizeTier string

const (
	SizeSkip    PositionSizeTier = "SKIP"
	SizeQuarter PositionSizeTier = "QUARTER" // x0.25
	SizeHalf    PositionSizeTier = "HALF"    // x0.5
	SizeFull    PositionSizeTier = "FULL"    // x1.0
)

// Multiplier returns the position-size multiplier for the tier.
func (t PositionSizeTier) Multiplier() float64 {
	switch t {
	case SizeQuarter:
		return 0.25
	case SizeHalf:
		return 0.5
	case SizeFull:
		return 1.0
	default:
		return 0
	}
}

// EntryConditions gate whether a Strategy will accept an opportunity
// (spec §3 "Strategy", §4.8 step 3).
type EntryConditions struct {
	MaxScore               float64
	MinLiquidity           float64
	BundlesAllowed         bool
	SecurityRequirements   []string
}

// ExitConditions govern when Trader closes a position opened under a
// Strategy (spec §3 "Strategy", §4.8 handlePriceUpdate).
type ExitConditions struct {
	TakeProfitPercent float64
	StopLossPercent   float64
	MaxHoldTime       time.Duration
}

// Strategy is one of the three built-in trading profiles (spec §3
// "Strategy": SAFE_EARLY, MOMENTUM, SNIPER).
type Strategy struct {
	Name            string
	EntryConditions EntryConditions
	ExitConditions  ExitConditions
	PositionSize    float64 // base SOL size before tiering
	RiskTolerance   string
}

// Built-in strategy names (spec §3 "Strategy").
const (
	StrategySafeEarly = "SAFE_EARLY"
	StrategyMomentum  = "MOMENTUM"
	StrategySniper    = "SNIPER"
)
