package sql_test

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/argusmesh/agentmesh/internal/models"
	"github.com/argusmesh/agentmesh/internal/ports"
	sqlstore "github.com/argusmesh/agentmesh/internal/store/sql"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	return db
}

func TestPositionStore_CreateAndRetrieve(t *testing.T) {
	store, err := sqlstore.NewPositionStore(testDB(t))
	if err != nil {
		t.Fatalf("NewPositionStore: %v", err)
	}
	ctx := context.Background()

	pos := models.Position{
		ID: "pos1", Token: "tok1", PoolAddress: "pool1", EntryPrice: 1.0,
		Amount: 10, SolInvested: 10, EntryTime: time.Now(), Status: models.PositionActive,
	}
	if err := store.Create(ctx, pos); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, ok, err := store.GetByID(ctx, "pos1")
	if err != nil || !ok {
		t.Fatalf("GetByID: got=%v ok=%v err=%v", got, ok, err)
	}
	if got.Token != "tok1" {
		t.Errorf("expected token tok1, got %s", got.Token)
	}

	active, err := store.HasActivePosition(ctx, "tok1")
	if err != nil || !active {
		t.Errorf("expected an active position for tok1, got active=%v err=%v", active, err)
	}
}

func TestPositionStore_CloseMarksTerminal(t *testing.T) {
	store, _ := sqlstore.NewPositionStore(testDB(t))
	ctx := context.Background()

	pos := models.Position{ID: "pos2", Token: "tok2", EntryTime: time.Now(), Status: models.PositionActive}
	_ = store.Create(ctx, pos)

	if err := store.Close(ctx, "pos2", models.PositionSold, "take_profit", time.Now()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, _, _ := store.GetByID(ctx, "pos2")
	if got.Status != models.PositionSold {
		t.Errorf("expected PositionSold, got %s", got.Status)
	}

	active, _ := store.HasActivePosition(ctx, "tok2")
	if active {
		t.Error("expected no active position for tok2 after Close")
	}
}

func TestOutcomeSink_RecordAndUpdateWeights(t *testing.T) {
	sink, err := sqlstore.NewOutcomeSink(testDB(t))
	if err != nil {
		t.Fatalf("NewOutcomeSink: %v", err)
	}
	ctx := context.Background()

	if err := sink.RecordOutcome(ctx, "tok1", models.VerdictSafe, ports.OutcomeMoon, time.Now()); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}
	if err := sink.UpdateWeights(ctx, map[string]float64{"analyst-1": 0.8}); err != nil {
		t.Fatalf("UpdateWeights: %v", err)
	}
}

func TestScammerStore_UpsertAndGet(t *testing.T) {
	store, err := sqlstore.NewScammerStore(testDB(t))
	if err != nil {
		t.Fatalf("NewScammerStore: %v", err)
	}
	ctx := context.Background()

	profile := models.ScammerProfile{
		Wallet: "w1", Pattern: models.PatternRugPuller, Confidence: 0.9,
		Tokens: []string{"tokA", "tokB"}, RuggedTokens: []string{"tokA"},
		FirstSeen: time.Now(), LastSeen: time.Now(),
	}
	if err := store.Upsert(ctx, profile); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, ok, err := store.GetByWallet(ctx, "w1")
	if err != nil || !ok {
		t.Fatalf("GetByWallet: ok=%v err=%v", ok, err)
	}
	if len(got.Tokens) != 2 || got.Tokens[0] != "tokA" {
		t.Errorf("expected 2 tokens round-tripped, got %v", got.Tokens)
	}
	if got.Pattern != models.PatternRugPuller {
		t.Errorf("expected RUG_PULLER pattern, got %s", got.Pattern)
	}
}
