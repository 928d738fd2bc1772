// Package runtime implements AgentRuntime (spec §4.4, C4): the base
// life cycle, tool registry, thought log, and reasoning loop shared by
// every agent kind. Generalizes the teacher's cognitive-loop agent
// (Perceive -> Remember -> Reason -> Act -> Reflect) into a reusable
// BaseAgent, keeping its append-only thought-log style (here an
// in-memory capped ring) and its tool-registry pattern.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/argusmesh/agentmesh/internal/bus"
	"github.com/argusmesh/agentmesh/internal/memory"
	"github.com/argusmesh/agentmesh/internal/models"
	"github.com/argusmesh/agentmesh/internal/ports"
)

// ThoughtLogLimit bounds the in-memory thought log (spec §4.4
// "think(...) records a thought, trims if over 1000").
const ThoughtLogLimit = 1000

// DefaultMaxReasoningSteps bounds the fallback reasoning loop (spec
// §4.4 "up to maxReasoningSteps (default 5) iterations").
const DefaultMaxReasoningSteps = 5

// ErrToolNotFound is returned by ExecuteAction when the named tool is
// not registered (spec §4.4 "missing tool fails with ToolNotFound").
var ErrToolNotFound = errors.New("tool not found")

// Tool is a named capability an agent can invoke.
type Tool func(ctx context.Context, args map[string]interface{}) (interface{}, error)

type toolEntry struct {
	spec ports.ToolSpec
	fn   Tool
}

// BitNetStats tracks the fallback reasoning loop's activity (spec §4.4
// "getBitNetStats()" — shape left open by spec.md, defined here per
// SPEC_FULL.md's supplemented-feature note).
type BitNetStats struct {
	StepsTaken    int
	FallbackCount int
	LLMCount      int
	AvgConfidence float64
	confSum       float64
}

func (s *BitNetStats) recordStep(usedLLM bool, confidence float64) {
	s.StepsTaken++
	if usedLLM {
		s.LLMCount++
	} else {
		s.FallbackCount++
	}
	s.confSum += confidence
	s.AvgConfidence = s.confSum / float64(s.StepsTaken)
}

// Status is the snapshot returned by BaseAgent.Status() (spec §4.4
// "status()"). It doubles as the agent.<name>.status.response bus
// payload.
type Status struct {
	Name      string
	Running   bool
	ToolCount int
	Thoughts  int
}

func (Status) PayloadType() string { return "agent.status.response" }

// Reasoner produces the next reasoning step for an agent. FallbackReasoner
// and ReActReasoner both satisfy it (spec §9: "both sit behind one
// Reasoner interface").
type Reasoner interface {
	Decide(ctx context.Context, a *BaseAgent, prompt string) (ports.ReasonResult, error)
}

// BaseAgent is the common infrastructure hosted by Scout, Analyst,
// Hunter, and Trader (spec §4.4). It owns no domain logic of its own.
type BaseAgent struct {
	mu                sync.RWMutex
	name              string
	bus               *bus.MessageBus
	memory            *memory.AgentMemory
	tools             map[string]toolEntry
	thoughts          []models.Thought
	reasoner          Reasoner
	maxReasoningSteps int
	bitnet            BitNetStats
	running           bool
	unsubscribes      []bus.Unsubscribe
}

// New creates a BaseAgent named name, wired to bus and mem, with the
// given Reasoner (fallback rule-based or ReAct). Every agent answers
// status queries on agent.<name>.status and honours a cooperative
// stop on agent.<name>.stop.
func New(name string, b *bus.MessageBus, mem *memory.AgentMemory, reasoner Reasoner) *BaseAgent {
	a := &BaseAgent{
		name:              name,
		bus:               b,
		memory:            mem,
		tools:             make(map[string]toolEntry),
		reasoner:          reasoner,
		maxReasoningSteps: DefaultMaxReasoningSteps,
		running:           true,
	}
	a.SubscribeTopic(fmt.Sprintf("agent.%s.status", name), func(models.Message) {
		b.Publish(fmt.Sprintf("agent.%s.status.response", name), a.Status(), name, "", models.PriorityNormal)
	})
	a.SubscribeTopic(fmt.Sprintf("agent.%s.stop", name), func(models.Message) {
		a.Stop()
	})
	return a
}

// Name returns the agent's address on the bus.
func (a *BaseAgent) Name() string { return a.name }

// Bus exposes the shared MessageBus for domain agents that need to
// publish directly.
func (a *BaseAgent) Bus() *bus.MessageBus { return a.bus }

// Memory exposes the agent's private AgentMemory.
func (a *BaseAgent) Memory() *memory.AgentMemory { return a.memory }

// SetReasoner swaps in r as the agent's reasoning strategy (spec §4.4
// "both sit behind one Reasoner interface"). Domain agents expose this
// through their own WithReasoner wrapper so callers never reach past
// the agent type into BaseAgent directly.
func (a *BaseAgent) SetReasoner(r Reasoner) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reasoner = r
}

// RegisterTool adds a named capability to the tool registry (spec
// §4.4 "Registers tools (named capability -> executor)").
func (a *BaseAgent) RegisterTool(spec ports.ToolSpec, fn Tool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tools[spec.Name] = toolEntry{spec: spec, fn: fn}
}

// ToolSpecs returns the catalog of registered tools, for handing to an
// LLM reasoner.
func (a *BaseAgent) ToolSpecs() []ports.ToolSpec {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]ports.ToolSpec, 0, len(a.tools))
	for _, t := range a.tools {
		out = append(out, t.spec)
	}
	return out
}

// SubscribeOwnAddress subscribes to every message addressed to this
// agent (agent.<name>.*) (spec §4.4 "Subscribes to its own address").
func (a *BaseAgent) SubscribeOwnAddress(handler bus.Handler) {
	unsub := a.bus.Subscribe(fmt.Sprintf("agent.%s.*", a.name), handler)
	a.mu.Lock()
	a.unsubscribes = append(a.unsubscribes, unsub)
	a.mu.Unlock()
}

// SubscribeTopic subscribes to an arbitrary topic filter (spec §4.4
// "any topic filters it needs").
func (a *BaseAgent) SubscribeTopic(topic string, handler bus.Handler) {
	unsub := a.bus.Subscribe(topic, handler)
	a.mu.Lock()
	a.unsubscribes = append(a.unsubscribes, unsub)
	a.mu.Unlock()
}

// Think records a thought, trims the log past ThoughtLogLimit, and
// optionally stores it in long-term memory when tags are supplied
// (spec §4.4 "think(kind, content, confidence?)").
func (a *BaseAgent) Think(kind models.ThoughtKind, content string, confidence *float64, tags ...string) models.Thought {
	thought := models.Thought{
		Timestamp:  time.Now(),
		Kind:       kind,
		Content:    content,
		Confidence: confidence,
	}

	a.mu.Lock()
	a.thoughts = append(a.thoughts, thought)
	if len(a.thoughts) > ThoughtLogLimit {
		a.thoughts = a.thoughts[len(a.thoughts)-ThoughtLogLimit:]
	}
	a.mu.Unlock()

	if len(tags) > 0 && a.memory != nil {
		a.memory.RecordLongTerm(models.MemoryRecord{
			Timestamp: thought.Timestamp,
			Kind:      thoughtKindToMemoryKind(kind),
			Tags:      models.TagSet(tags...),
			Payload:   thought,
		}, nil)
	}

	return thought
}

func thoughtKindToMemoryKind(k models.ThoughtKind) models.MemoryKind {
	switch k {
	case models.ThoughtAction:
		return models.MemoryAction
	case models.ThoughtReflection:
		return models.MemoryOutcome
	default:
		return models.MemoryObservation
	}
}

// ExecuteAction looks up a tool by name and invokes it, recording the
// call and any error as thoughts (spec §4.4 "executeAction(action)").
// A missing tool returns ErrToolNotFound without recording a thought
// for the attempt, since no action was actually taken.
func (a *BaseAgent) ExecuteAction(ctx context.Context, action ports.AgentAction) (interface{}, error) {
	a.mu.RLock()
	entry, ok := a.tools[action.Tool]
	a.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, action.Tool)
	}

	a.Think(models.ThoughtAction, fmt.Sprintf("executing tool %s", action.Tool), nil)

	result, err := entry.fn(ctx, action.Args)
	if err != nil {
		a.Think(models.ThoughtReflection, fmt.Sprintf("tool %s failed: %v", action.Tool, err), nil)
		return nil, err
	}
	return result, nil
}

// Reason runs the agent's reasoner (fallback or ReAct, whichever was
// wired) for up to maxReasoningSteps iterations, stopping as soon as
// the reasoner names an action (spec §4.4 "loop terminates on
// decision or exhaustion").
func (a *BaseAgent) Reason(ctx context.Context, prompt string) (ports.ReasonResult, error) {
	if a.reasoner == nil {
		return ports.ReasonResult{}, errors.New("no reasoner wired")
	}

	var last ports.ReasonResult
	for step := 0; step < a.maxReasoningSteps; step++ {
		result, err := a.reasoner.Decide(ctx, a, prompt)
		if err != nil {
			return ports.ReasonResult{}, err
		}
		last = result
		a.Think(models.ThoughtReasoning, result.Thought, &result.Confidence)
		if result.Action != nil {
			return result, nil
		}
	}
	return last, nil
}

// Status returns a lifecycle snapshot (spec §4.4 "status()").
func (a *BaseAgent) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Status{
		Name:      a.name,
		Running:   a.running,
		ToolCount: len(a.tools),
		Thoughts:  len(a.thoughts),
	}
}

// GetThoughts returns the last limit thought-log entries, oldest
// first (spec §4.4 "getThoughts(limit)").
func (a *BaseAgent) GetThoughts(limit int) []models.Thought {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if limit <= 0 || limit > len(a.thoughts) {
		limit = len(a.thoughts)
	}
	out := make([]models.Thought, limit)
	copy(out, a.thoughts[len(a.thoughts)-limit:])
	return out
}

// GetBitNetStats returns the fallback-reasoning activity snapshot
// (spec §4.4 "getBitNetStats()").
func (a *BaseAgent) GetBitNetStats() BitNetStats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.bitnet
}

// RecordReasoningStep is called by a Reasoner implementation to update
// BitNetStats after each step.
func (a *BaseAgent) RecordReasoningStep(usedLLM bool, confidence float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.bitnet.recordStep(usedLLM, confidence)
}

// IsRunning reports whether the agent's loop should keep iterating.
func (a *BaseAgent) IsRunning() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.running
}

// Fail flips running to false without unsubscribing, mirroring a
// fatal agent error (spec §7: "fatal agent errors flip
// BaseAgent.running to false ... never restarted in v1").
func (a *BaseAgent) Fail() {
	a.mu.Lock()
	a.running = false
	a.mu.Unlock()
}

// Stop cooperatively exits the main loop and releases bus
// subscriptions (spec §4.4 "a stop() that cooperatively exits the
// loop").
func (a *BaseAgent) Stop() {
	a.mu.Lock()
	a.running = false
	unsubs := a.unsubscribes
	a.unsubscribes = nil
	a.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
}
