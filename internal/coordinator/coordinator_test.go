package coordinator_test

import (
	"context"
	"testing"
	"time"

	"github.com/argusmesh/agentmesh/internal/bus"
	"github.com/argusmesh/agentmesh/internal/config"
	"github.com/argusmesh/agentmesh/internal/coordinator"
	"github.com/argusmesh/agentmesh/internal/models"
)

func testConfig() *config.Config {
	return &config.Config{Scouts: 1, Analysts: 2, Hunters: 1, Traders: 1, MaxDailyTrades: 10}
}

func TestNew_BuildsConfiguredPools(t *testing.T) {
	c := coordinator.New(testConfig(), bus.New(), nil, nil, nil)
	stats := c.Stats()
	if stats.ScoutCount != 1 || stats.AnalystCount != 2 || stats.HunterCount != 1 || stats.TraderCount != 1 {
		t.Fatalf("unexpected pool sizes: %+v", stats)
	}
}

func TestNew_DefaultsZeroPoolSizesToOne(t *testing.T) {
	c := coordinator.New(&config.Config{}, bus.New(), nil, nil, nil)
	stats := c.Stats()
	if stats.ScoutCount != 1 || stats.AnalystCount != 1 || stats.HunterCount != 1 || stats.TraderCount != 1 {
		t.Fatalf("expected every pool to default to 1, got %+v", stats)
	}
}

func TestStartStop_IsIdempotentAndClean(t *testing.T) {
	c := coordinator.New(testConfig(), bus.New(), nil, nil, nil)
	ctx := context.Background()

	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatalf("second Start should be a no-op, got: %v", err)
	}
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("second Stop should be a no-op, got: %v", err)
	}
}

func TestAnalyzeToken_EnqueuesOnFirstAnalyst(t *testing.T) {
	c := coordinator.New(testConfig(), bus.New(), nil, nil, nil)
	ok := c.AnalyzeToken(models.InvestigationRequest{Token: "tok1", Priority: models.PriorityNormal, Timestamp: time.Now()})
	if !ok {
		t.Error("expected AnalyzeToken to enqueue successfully")
	}
}

func TestCheckWallet_UnknownWalletReturnsNotRepeat(t *testing.T) {
	c := coordinator.New(testConfig(), bus.New(), nil, nil, nil)
	result, ok := c.CheckWallet(context.Background(), "wallet-never-seen")
	if !ok {
		t.Fatal("expected CheckWallet to complete within its timeout")
	}
	if result.IsRepeat {
		t.Error("expected an unknown wallet to report no repeat history")
	}
}

func TestTriggerDebate_SamplesTradersAndPublishesResult(t *testing.T) {
	b := bus.New()
	c := coordinator.New(testConfig(), b, nil, nil, nil)

	var received models.DebateResult
	done := make(chan struct{}, 1)
	b.Subscribe("debate.result", func(msg models.Message) {
		if r, ok := msg.Data.(models.DebateResult); ok {
			received = r
			done <- struct{}{}
		}
	})

	amount := 1.0
	result := c.TriggerDebate(context.Background(), models.Proposal{
		ID: "p1", Agent: "analyst-1", Action: models.ActionBuy, Target: "tok1",
		Amount: &amount, Reasoning: "momentum entry", Confidence: 0.8,
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected debate.result to be published")
	}

	if received.Decision != result.Decision {
		t.Errorf("published result %s did not match returned result %s", received.Decision, result.Decision)
	}
}

func TestDebateRequestTopic_TriggersDebateAutomatically(t *testing.T) {
	b := bus.New()
	coordinator.New(testConfig(), b, nil, nil, nil)

	done := make(chan struct{}, 1)
	b.Subscribe("debate.result", func(msg models.Message) { done <- struct{}{} })

	amount := 1.0
	b.Publish("debate.request", models.Proposal{
		ID: "p2", Agent: "trader-1", Action: models.ActionSell, Target: "tok2",
		Amount: &amount, Reasoning: "emergency exit - scammer detected", Confidence: 0.9,
	}, "trader-1", "", models.PriorityHigh)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected a debate.request message to trigger a debate.result publish")
	}
}
