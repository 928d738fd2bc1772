package scout

import (
	"math"
	"time"

	"github.com/argusmesh/agentmesh/internal/models"
)

// quickScanFromYellowstone builds a 29-dim feature vector and
// suspicion score from event alone — no RPC round trip (spec §4.5
// "Operation (synchronous, no RPC)").
func quickScanFromYellowstone(event models.LaunchEvent) models.ScanResult {
	var fv models.FeatureVector
	var flags []string
	var score float64
	suspicious := false

	liquidity := 0.0
	if event.LiquiditySol != nil {
		liquidity = *event.LiquiditySol
	}
	fv[models.FeatureLiquidityLog] = liquidityLogFeature(liquidity)

	if liquidity < 1 {
		flags = append(flags, "LOW_LIQUIDITY")
		suspicious = true
		score += 30
		fv[models.FeatureMicroLiquidity] = 1.0
	}

	if event.Dex == models.DexPumpFun && liquidity >= 1 && liquidity < 2 {
		flags = append(flags, "PUMP_MICRO")
		score += 10
	}

	if event.Dex.IsRaydiumFamily() && liquidity >= 2 {
		flags = append(flags, "RAYDIUM_ESTABLISHED")
		score -= 10
	}

	if event.GraduatedFrom == models.DexPumpFun {
		flags = append(flags, "GRADUATED")
		fv[models.FeatureGraduated] = 1.0

		if event.BondingCurveTime != nil {
			switch {
			case *event.BondingCurveTime < 5*time.Minute:
				flags = append(flags, "FAST_GRADUATION")
				score += 15
				fv[models.FeatureFastGraduation] = 1.0
			case *event.BondingCurveTime >= time.Hour:
				flags = append(flags, "ORGANIC_GRADUATION")
				score -= 5
				fv[models.FeatureOrganicGraduation] = 1.0
			}
		}
	}

	if event.Dex == models.DexPumpFun {
		fv[models.FeatureDexPumpFun] = 1.0
		fv[models.FeatureMintDisabled] = 1.0
		fv[models.FeatureFreezeDisabled] = 1.0
	}
	if event.Dex.IsRaydiumFamily() {
		fv[models.FeatureDexRaydium] = 1.0
	}

	fv[models.FeatureSuspicionFlagCount] = math.Min(float64(len(flags))/5.0, 1.0)
	fv[models.FeatureSlotRecency] = 1.0
	fv[models.FeatureSymbolLength] = math.Min(float64(len(event.TokenSymbol))/10.0, 1.0)

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	fv.Clamp()

	return models.ScanResult{
		Token:      event.Token,
		Features:   fv,
		Score:      score,
		Flags:      flags,
		Suspicious: suspicious,
		Slot:       event.Slot,
		Timestamp:  event.Timestamp,
	}
}

// liquidityLogFeature maps raw SOL liquidity onto a bounded [0,1]
// feature via log1p, so very large liquidity values don't blow past
// the FeatureVector's [0,1] contract.
func liquidityLogFeature(sol float64) float64 {
	if sol <= 0 {
		return 0
	}
	v := math.Log1p(sol) / math.Log1p(1000) // saturates around 1000 SOL
	if v > 1 {
		v = 1
	}
	return v
}
