package hunter

import (
	"fmt"

	"github.com/argusmesh/agentmesh/internal/models"
)

// PatternResult is the outcome of classifying a wallet's behaviour
// (spec §4.7 "detectPattern(wallet, profile) ... classifies into
// RUG_PULLER | BUNDLE_COORDINATOR | WASH_TRADER | UNKNOWN with an
// evidence list and a confidence in [0,1]").
type PatternResult struct {
	Pattern    models.ScammerPattern
	Evidence   []string
	Confidence float64
}

// detectPattern classifies wallet from the accumulated ScammerProfile.
// Rug history dominates (a wallet with repeated rugs is a RUG_PULLER
// regardless of other evidence); absent that, a dense connected
// wallet network suggests bundle coordination; a high victim count
// with no rugs suggests wash trading; anything thinner than that is
// UNKNOWN.
func detectPattern(wallet string, profile models.ScammerProfile) PatternResult {
	rugCount := len(profile.RuggedTokens)
	networkSize := len(profile.ConnectedWallets)

	switch {
	case rugCount >= 2:
		return PatternResult{
			Pattern:    models.PatternRugPuller,
			Evidence:   []string{fmt.Sprintf("%d tokens rugged by %s", rugCount, wallet)},
			Confidence: minFloat(0.95, 0.6+0.1*float64(rugCount)),
		}
	case rugCount == 1:
		return PatternResult{
			Pattern:    models.PatternRugPuller,
			Evidence:   []string{fmt.Sprintf("1 token rugged by %s", wallet)},
			Confidence: 0.6,
		}
	case networkSize >= 3:
		return PatternResult{
			Pattern:    models.PatternBundleCoordinator,
			Evidence:   []string{fmt.Sprintf("%d connected wallets observed coordinating", networkSize)},
			Confidence: minFloat(0.85, 0.5+0.05*float64(networkSize)),
		}
	case profile.TotalVictims > 50 && rugCount == 0:
		return PatternResult{
			Pattern:    models.PatternWashTrader,
			Evidence:   []string{fmt.Sprintf("%d reported victims with no confirmed rug", profile.TotalVictims)},
			Confidence: 0.5,
		}
	default:
		return PatternResult{
			Pattern:    models.PatternUnknown,
			Evidence:   nil,
			Confidence: 0.2,
		}
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
