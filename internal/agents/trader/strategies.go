package trader

import (
	"time"

	"github.com/argusmesh/agentmesh/internal/models"
)

// DefaultStrategies returns the three built-in trading profiles (spec
// §3 "Strategy", §4.8), evaluated in order by evaluateOpportunity: the
// tightest, safest profile first, widening risk tolerance as earlier
// strategies decline an opportunity.
func DefaultStrategies() []models.Strategy {
	return []models.Strategy{
		{
			Name: models.StrategySafeEarly,
			EntryConditions: models.EntryConditions{
				MaxScore:             30,
				MinLiquidity:         5,
				BundlesAllowed:       false,
				SecurityRequirements: []string{"MINT_ACTIVE", "FREEZE_ACTIVE"},
			},
			ExitConditions: models.ExitConditions{
				TakeProfitPercent: 50,
				StopLossPercent:   15,
				MaxHoldTime:       2 * time.Hour,
			},
			PositionSize:  0.1,
			RiskTolerance: "LOW",
		},
		{
			Name: models.StrategyMomentum,
			EntryConditions: models.EntryConditions{
				MaxScore:             50,
				MinLiquidity:         10,
				BundlesAllowed:       false,
				SecurityRequirements: []string{"MINT_ACTIVE"},
			},
			ExitConditions: models.ExitConditions{
				TakeProfitPercent: 100,
				StopLossPercent:   20,
				MaxHoldTime:       6 * time.Hour,
			},
			PositionSize:  0.2,
			RiskTolerance: "MEDIUM",
		},
		{
			Name: models.StrategySniper,
			EntryConditions: models.EntryConditions{
				MaxScore:             70,
				MinLiquidity:         2,
				BundlesAllowed:       true,
				SecurityRequirements: nil,
			},
			ExitConditions: models.ExitConditions{
				TakeProfitPercent: 200,
				StopLossPercent:   30,
				MaxHoldTime:       4 * time.Hour,
			},
			PositionSize:  0.05,
			RiskTolerance: "HIGH",
		},
	}
}
