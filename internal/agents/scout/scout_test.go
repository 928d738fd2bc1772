package scout_test

import (
	"testing"
	"time"

	"github.com/argusmesh/agentmesh/internal/agents/scout"
	"github.com/argusmesh/agentmesh/internal/bus"
	"github.com/argusmesh/agentmesh/internal/models"
)

func sol(v float64) *float64 { return &v }

// TestScout_MicroLiquidityPump covers spec §8 seed scenario 1: a
// sub-1-SOL pump.fun launch must be flagged suspicious and routed to
// an analyst.
func TestScout_MicroLiquidityPump(t *testing.T) {
	b := bus.New()
	a := scout.New("scout-1", b)

	var investigateReceived bool
	b.Subscribe("agent.analyst-*.investigate", func(models.Message) { investigateReceived = true })

	var discoveryReceived bool
	b.Subscribe("discovery.new", func(models.Message) { discoveryReceived = true })

	event := models.LaunchEvent{
		Token: "tok1", Dex: models.DexPumpFun, Slot: 100,
		LiquiditySol: sol(0.5), Timestamp: time.Now(),
	}
	result, ok := a.Scan(event)
	if !ok {
		t.Fatal("expected scan to be processed")
	}
	if !result.Suspicious {
		t.Error("expected suspicious=true for sub-1-SOL liquidity")
	}
	if result.Score < 30 {
		t.Errorf("expected score >= 30 from LOW_LIQUIDITY flag, got %v", result.Score)
	}
	if !discoveryReceived {
		t.Error("expected discovery.new to always be published")
	}
	if !investigateReceived {
		t.Error("expected agent.analyst-*.investigate for a suspicious scan")
	}
}

func TestScout_RaydiumEstablishedLowersScore(t *testing.T) {
	b := bus.New()
	a := scout.New("scout-1", b)

	event := models.LaunchEvent{
		Token: "tok2", Dex: models.DexRaydium, Slot: 200,
		LiquiditySol: sol(50), Timestamp: time.Now(),
	}
	result, _ := a.Scan(event)
	if result.Suspicious {
		t.Error("expected established Raydium pool to not be suspicious")
	}
	if result.Score > 10 {
		t.Errorf("expected low score for established liquidity, got %v", result.Score)
	}
}

func TestScout_PumpFunSetsMintFreezeFeatures(t *testing.T) {
	b := bus.New()
	a := scout.New("scout-1", b)

	event := models.LaunchEvent{Token: "tok3", Dex: models.DexPumpFun, Slot: 300, LiquiditySol: sol(5), Timestamp: time.Now()}
	result, _ := a.Scan(event)
	if result.Features[models.FeatureMintDisabled] != 1.0 || result.Features[models.FeatureFreezeDisabled] != 1.0 {
		t.Error("expected PUMP_FUN launches to set features[11]=features[12]=1.0")
	}
}

func TestScout_FastGraduationFlag(t *testing.T) {
	b := bus.New()
	a := scout.New("scout-1", b)

	fast := 2 * time.Minute
	event := models.LaunchEvent{
		Token: "tok4", Dex: models.DexRaydium, Slot: 400,
		LiquiditySol: sol(20), GraduatedFrom: models.DexPumpFun,
		BondingCurveTime: &fast, Timestamp: time.Now(),
	}
	result, _ := a.Scan(event)
	found := false
	for _, f := range result.Flags {
		if f == "FAST_GRADUATION" {
			found = true
		}
	}
	if !found {
		t.Error("expected FAST_GRADUATION flag for sub-5-minute bonding curve")
	}
}

// TestScout_Purity covers spec §8's Scout purity property: scanning
// the same launch event twice yields the same feature vector.
func TestScout_Purity(t *testing.T) {
	b := bus.New()
	a := scout.New("scout-1", b)
	b2 := bus.New()
	a2 := scout.New("scout-2", b2)

	event := models.LaunchEvent{Token: "tok5", Dex: models.DexPumpFun, Slot: 500, LiquiditySol: sol(1.5), Timestamp: time.Now()}

	r1, _ := a.Scan(event)
	r2, _ := a2.Scan(event)

	if r1.Features != r2.Features {
		t.Error("expected identical feature vectors for identical input")
	}
	if r1.Score != r2.Score {
		t.Errorf("expected identical scores, got %v vs %v", r1.Score, r2.Score)
	}
}

func TestScout_ScoreClampedToRange(t *testing.T) {
	b := bus.New()
	a := scout.New("scout-1", b)

	event := models.LaunchEvent{Token: "tok6", Dex: models.DexPumpFun, Slot: 600, LiquiditySol: sol(0.01), Timestamp: time.Now()}
	result, _ := a.Scan(event)
	if result.Score < 0 || result.Score > 100 {
		t.Errorf("expected score in [0,100], got %v", result.Score)
	}
}

func TestScout_RateLimitsSlotInterval(t *testing.T) {
	b := bus.New()
	a := scout.New("scout-1", b)

	first := models.LaunchEvent{Token: "t1", Dex: models.DexPumpFun, Slot: 1000, LiquiditySol: sol(5), Timestamp: time.Now()}
	_, ok := a.Scan(first)
	if !ok {
		t.Fatal("expected first scan to be accepted")
	}

	tooClose := models.LaunchEvent{Token: "t2", Dex: models.DexPumpFun, Slot: 1005, LiquiditySol: sol(5), Timestamp: time.Now()}
	_, ok = a.Scan(tooClose)
	if ok {
		t.Error("expected scan to be refused for slot interval < 10")
	}

	farEnough := models.LaunchEvent{Token: "t3", Dex: models.DexPumpFun, Slot: 1011, LiquiditySol: sol(5), Timestamp: time.Now()}
	_, ok = a.Scan(farEnough)
	if !ok {
		t.Error("expected scan to be accepted once slot interval >= 10")
	}
}
