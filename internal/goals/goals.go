// Package goals implements GoalTracker (spec §4.3, C3): per-agent
// metric targets with an on-track status and a weighted overall
// progress figure. No teacher file covers this directly; it follows
// the teacher's plain-struct-behind-a-mutex shape with a capped
// history slice, the same pattern as WorkingMemory.RecentDecisions.
package goals

import (
	"math"
	"sync"

	"github.com/argusmesh/agentmesh/internal/models"
)

// HistoryLimit bounds the retained per-goal update history (spec §4.3).
const HistoryLimit = 1000

const epsilon = 1e-9

// Summary is the per-agent snapshot returned by Summary() (spec §4.3
// "summary() returns {progress, onTrack, total}").
type Summary struct {
	Progress float64
	OnTrack  bool
	Total    int
}

type goalEntry struct {
	goal    models.Goal
	history []models.GoalProgress
}

// Tracker maintains goals for every agent it has seen. Each agent's
// goal set is independent; there is no cross-agent state.
type Tracker struct {
	mu     sync.RWMutex
	agents map[string]map[string]*goalEntry
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{agents: make(map[string]map[string]*goalEntry)}
}

// RegisterGoal adds or replaces a goal for agent. Current is reset to
// the goal's own Current field, letting callers seed a non-zero start.
func (t *Tracker) RegisterGoal(agent string, g models.Goal) {
	t.mu.Lock()
	defer t.mu.Unlock()

	goalsForAgent, ok := t.agents[agent]
	if !ok {
		goalsForAgent = make(map[string]*goalEntry)
		t.agents[agent] = goalsForAgent
	}
	goalsForAgent[g.ID] = &goalEntry{goal: g}
}

// UpdateGoal applies value as the new current reading for goalId and
// returns the resulting GoalProgress (spec §4.3 "updateGoal(agent,
// goalId, value) -> GoalProgress{value, delta, onTrack}"). Returns
// false if the agent/goal pair is unknown.
func (t *Tracker) UpdateGoal(agent, goalID string, value float64) (models.GoalProgress, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	goalsForAgent, ok := t.agents[agent]
	if !ok {
		return models.GoalProgress{}, false
	}
	entry, ok := goalsForAgent[goalID]
	if !ok {
		return models.GoalProgress{}, false
	}

	delta := value - entry.goal.Current
	entry.goal.Current = value

	progress := models.GoalProgress{
		Value:    value,
		Delta:    delta,
		OnTrack:  onTrack(entry.goal),
		Progress: progressRatio(entry.goal),
	}

	entry.history = append(entry.history, progress)
	if len(entry.history) > HistoryLimit {
		entry.history = entry.history[len(entry.history)-HistoryLimit:]
	}
	return progress, true
}

// onTrack implements spec §4.3's three direction rules.
func onTrack(g models.Goal) bool {
	switch g.Direction {
	case models.DirectionMaximize:
		return g.Current >= g.Target*0.9
	case models.DirectionMinimize:
		return g.Current <= g.Target*1.1
	case models.DirectionTarget:
		return math.Abs(g.Current-g.Target) <= math.Abs(g.Target)*0.1
	default:
		return false
	}
}

// progressRatio implements spec §4.3's direction-appropriate ratio,
// clamped to [0,1].
func progressRatio(g models.Goal) float64 {
	var ratio float64
	switch g.Direction {
	case models.DirectionMaximize:
		if g.Target == 0 {
			ratio = 0
		} else {
			ratio = g.Current / g.Target
		}
	case models.DirectionMinimize:
		denom := math.Max(g.Current, epsilon)
		ratio = g.Target / denom
	case models.DirectionTarget:
		if g.Target == 0 {
			ratio = 0
		} else {
			ratio = 1 - math.Abs(g.Current-g.Target)/math.Abs(g.Target)
		}
	}
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return ratio
}

// OverallProgress returns the weighted mean progress across all of
// agent's goals (spec §4.3 "overallProgress is recomputed on every
// update"). Goals with zero total weight contribute 0.
func (t *Tracker) OverallProgress(agent string) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	goalsForAgent, ok := t.agents[agent]
	if !ok {
		return 0
	}

	var weightedSum, totalWeight float64
	for _, entry := range goalsForAgent {
		weightedSum += progressRatio(entry.goal) * entry.goal.Weight
		totalWeight += entry.goal.Weight
	}
	if totalWeight == 0 {
		return 0
	}
	return weightedSum / totalWeight
}

// Summary returns {progress, onTrack, total} for agent (spec §4.3
// "summary()"). onTrack is true only if every goal is on track.
func (t *Tracker) Summary(agent string) Summary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	goalsForAgent, ok := t.agents[agent]
	if !ok {
		return Summary{}
	}

	allOnTrack := true
	var weightedSum, totalWeight float64
	for _, entry := range goalsForAgent {
		if !onTrack(entry.goal) {
			allOnTrack = false
		}
		weightedSum += progressRatio(entry.goal) * entry.goal.Weight
		totalWeight += entry.goal.Weight
	}

	progress := 0.0
	if totalWeight > 0 {
		progress = weightedSum / totalWeight
	}

	return Summary{
		Progress: progress,
		OnTrack:  allOnTrack,
		Total:    len(goalsForAgent),
	}
}

// History returns the capped update history for a single goal, oldest
// first.
func (t *Tracker) History(agent, goalID string) []models.GoalProgress {
	t.mu.RLock()
	defer t.mu.RUnlock()

	goalsForAgent, ok := t.agents[agent]
	if !ok {
		return nil
	}
	entry, ok := goalsForAgent[goalID]
	if !ok {
		return nil
	}
	out := make([]models.GoalProgress, len(entry.history))
	copy(out, entry.history)
	return out
}
