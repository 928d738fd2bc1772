package goals_test

import (
	"testing"

	"github.com/argusmesh/agentmesh/internal/goals"
	"github.com/argusmesh/agentmesh/internal/models"
)

func TestTracker_UpdateGoal_Maximize(t *testing.T) {
	tr := goals.New()
	tr.RegisterGoal("scout-1", models.Goal{
		ID: "flag-rate", Type: models.GoalPrimary, Target: 100,
		Weight: 1, Direction: models.DirectionMaximize,
	})

	p, ok := tr.UpdateGoal("scout-1", "flag-rate", 95)
	if !ok {
		t.Fatal("expected goal update to succeed")
	}
	if !p.OnTrack {
		t.Errorf("expected onTrack true at 95%% of target (>=90%% threshold)")
	}
	if p.Delta != 95 {
		t.Errorf("expected delta 95 from zero start, got %v", p.Delta)
	}

	p2, _ := tr.UpdateGoal("scout-1", "flag-rate", 80)
	if p2.OnTrack {
		t.Errorf("expected onTrack false at 80%% of target")
	}
	if p2.Delta != -15 {
		t.Errorf("expected delta -15, got %v", p2.Delta)
	}
}

func TestTracker_UpdateGoal_Minimize(t *testing.T) {
	tr := goals.New()
	tr.RegisterGoal("trader-1", models.Goal{
		ID: "loss-rate", Target: 10, Weight: 1, Direction: models.DirectionMinimize,
	})

	p, _ := tr.UpdateGoal("trader-1", "loss-rate", 10.5)
	if !p.OnTrack {
		t.Errorf("expected onTrack true at 10.5 (within 110%% of target 10)")
	}

	p2, _ := tr.UpdateGoal("trader-1", "loss-rate", 15)
	if p2.OnTrack {
		t.Errorf("expected onTrack false at 15 (exceeds 110%% of target 10)")
	}
}

func TestTracker_UpdateGoal_Target(t *testing.T) {
	tr := goals.New()
	tr.RegisterGoal("analyst-1", models.Goal{
		ID: "score-band", Target: 50, Weight: 1, Direction: models.DirectionTarget,
	})

	p, _ := tr.UpdateGoal("analyst-1", "score-band", 52)
	if !p.OnTrack {
		t.Errorf("expected onTrack true within 10%% of target 50")
	}

	p2, _ := tr.UpdateGoal("analyst-1", "score-band", 70)
	if p2.OnTrack {
		t.Errorf("expected onTrack false outside 10%% of target 50")
	}
}

func TestTracker_ProgressClamped(t *testing.T) {
	tr := goals.New()
	tr.RegisterGoal("scout-1", models.Goal{
		ID: "flag-rate", Target: 100, Weight: 1, Direction: models.DirectionMaximize,
	})
	p, _ := tr.UpdateGoal("scout-1", "flag-rate", 500)
	if p.Progress != 1 {
		t.Errorf("expected progress clamped to 1, got %v", p.Progress)
	}
}

func TestTracker_OverallProgress_WeightedMean(t *testing.T) {
	tr := goals.New()
	tr.RegisterGoal("analyst-1", models.Goal{ID: "a", Target: 100, Weight: 1, Direction: models.DirectionMaximize})
	tr.RegisterGoal("analyst-1", models.Goal{ID: "b", Target: 100, Weight: 3, Direction: models.DirectionMaximize})

	tr.UpdateGoal("analyst-1", "a", 0)
	tr.UpdateGoal("analyst-1", "b", 100)

	got := tr.OverallProgress("analyst-1")
	want := 0.75 // (0*1 + 1*3) / 4
	if got != want {
		t.Errorf("OverallProgress = %v, want %v", got, want)
	}
}

func TestTracker_Summary(t *testing.T) {
	tr := goals.New()
	tr.RegisterGoal("hunter-1", models.Goal{ID: "a", Target: 100, Weight: 1, Direction: models.DirectionMaximize})
	tr.UpdateGoal("hunter-1", "a", 50)

	s := tr.Summary("hunter-1")
	if s.Total != 1 {
		t.Errorf("expected total 1, got %d", s.Total)
	}
	if s.OnTrack {
		t.Errorf("expected onTrack false at 50%% progress")
	}
}

func TestTracker_HistoryBounded(t *testing.T) {
	tr := goals.New()
	tr.RegisterGoal("scout-1", models.Goal{ID: "a", Target: 100, Weight: 1, Direction: models.DirectionMaximize})
	for i := 0; i < goals.HistoryLimit+10; i++ {
		tr.UpdateGoal("scout-1", "a", float64(i))
	}
	if got := len(tr.History("scout-1", "a")); got != goals.HistoryLimit {
		t.Errorf("expected history capped at %d, got %d", goals.HistoryLimit, got)
	}
}

func TestTracker_UnknownGoal(t *testing.T) {
	tr := goals.New()
	if _, ok := tr.UpdateGoal("nobody", "nothing", 1); ok {
		t.Error("expected UpdateGoal to fail for unknown agent/goal")
	}
}
