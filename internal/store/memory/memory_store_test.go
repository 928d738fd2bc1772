package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/argusmesh/agentmesh/internal/models"
	"github.com/argusmesh/agentmesh/internal/ports"
	"github.com/argusmesh/agentmesh/internal/store/memory"
)

func TestPositionStore_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	s := memory.NewPositionStore()

	p := models.Position{ID: "pos-1", Token: "tok", PoolAddress: "pool-1", Status: models.PositionActive}
	if err := s.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, ok, err := s.GetByID(ctx, "pos-1")
	if err != nil || !ok {
		t.Fatalf("GetByID: ok=%v err=%v", ok, err)
	}
	if got.Token != "tok" {
		t.Errorf("got token %q, want tok", got.Token)
	}

	byPool, ok, err := s.GetByPool(ctx, "pool-1")
	if err != nil || !ok || byPool.ID != "pos-1" {
		t.Errorf("GetByPool failed: %+v ok=%v err=%v", byPool, ok, err)
	}
}

func TestPositionStore_HasActivePosition(t *testing.T) {
	ctx := context.Background()
	s := memory.NewPositionStore()
	s.Create(ctx, models.Position{ID: "p1", Token: "tok", Status: models.PositionActive})

	active, _ := s.HasActivePosition(ctx, "tok")
	if !active {
		t.Error("expected active position for tok")
	}

	s.Close(ctx, "p1", models.PositionSold, "take_profit", time.Now())
	active, _ = s.HasActivePosition(ctx, "tok")
	if active {
		t.Error("expected no active position after close")
	}
}

func TestPositionStore_GetStats(t *testing.T) {
	ctx := context.Background()
	s := memory.NewPositionStore()
	s.Create(ctx, models.Position{ID: "win", Token: "a", Status: models.PositionActive})
	s.Create(ctx, models.Position{ID: "loss", Token: "b", Status: models.PositionActive})
	s.UpdatePrice(ctx, "win", 2.0)
	s.UpdatePrice(ctx, "loss", 0.5)
	s.Close(ctx, "win", models.PositionSold, "take_profit", time.Now())
	s.Close(ctx, "loss", models.PositionStopped, "stop_loss", time.Now())

	stats, err := s.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.TotalOpened != 2 || stats.TotalClosed != 2 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestOutcomeSink_RecordAndWeights(t *testing.T) {
	ctx := context.Background()
	sink := memory.NewOutcomeSink()

	if err := sink.RecordOutcome(ctx, "tok", models.VerdictScam, ports.OutcomeRug, time.Now()); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}
	if sink.OutcomeCount() != 1 {
		t.Errorf("expected 1 recorded outcome, got %d", sink.OutcomeCount())
	}

	if err := sink.UpdateWeights(ctx, map[string]float64{"liquidity": 0.4}); err != nil {
		t.Fatalf("UpdateWeights: %v", err)
	}
	if got := sink.Weights()["liquidity"]; got != 0.4 {
		t.Errorf("expected weight 0.4, got %v", got)
	}
}
