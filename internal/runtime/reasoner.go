package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/argusmesh/agentmesh/internal/ports"
)

// Rule is one entry in a FallbackReasoner's decision ladder: evaluated
// in order, the first rule whose Match returns true supplies the
// resulting tool call and rationale.
type Rule struct {
	Name   string
	Match  func(recentThoughts string) bool
	Action func() ports.AgentAction
	Reason string
}

// FallbackReasoner is the rule-based "BitNet mode" path used when no
// LLM is wired or the circuit breaker has opened (spec §4.4: "used
// when LLM is unavailable ... building a short recent-thought context
// and asking the engine for a next tool + rationale"). Grounded in the
// teacher's MakeDecision rule ladder: rules run in priority order and
// the first match wins.
type FallbackReasoner struct {
	Rules []Rule
}

// Decide evaluates the rule ladder against the agent's recent thought
// context. No rule matching is a valid terminal outcome (reasoning
// exhausted with nothing to do), not an error.
func (r *FallbackReasoner) Decide(_ context.Context, a *BaseAgent, prompt string) (ports.ReasonResult, error) {
	recent := a.GetThoughts(5)
	var sb strings.Builder
	sb.WriteString(prompt)
	sb.WriteString("\n")
	for _, t := range recent {
		sb.WriteString(string(t.Kind))
		sb.WriteString(": ")
		sb.WriteString(t.Content)
		sb.WriteString("\n")
	}
	recentContext := sb.String()

	for _, rule := range r.Rules {
		if rule.Match(recentContext) {
			action := rule.Action()
			a.RecordReasoningStep(false, 1.0)
			return ports.ReasonResult{
				Thought:    fmt.Sprintf("rule %q matched: %s", rule.Name, rule.Reason),
				Action:     &action,
				Confidence: 1.0,
			}, nil
		}
	}

	a.RecordReasoningStep(false, 0)
	return ports.ReasonResult{
		Thought:    "no fallback rule matched",
		Action:     nil,
		Confidence: 0,
	}, nil
}

// ReActReasoner delegates to a wired ports.LLMService, following the
// ReAct pattern (spec §4.4: "When an LLM is wired, a ReAct-style loop
// replaces this"). Grounded in the teacher's pkg/llm.Client request
// shape and its circuit breaker, both already embedded in whichever
// LLMService implementation is passed in.
type ReActReasoner struct {
	LLM ports.LLMService
}

// Decide calls the LLM with the agent's tool catalog and current
// prompt, falling back to "no action" if the service is unavailable.
func (r *ReActReasoner) Decide(ctx context.Context, a *BaseAgent, prompt string) (ports.ReasonResult, error) {
	if r.LLM == nil || !r.LLM.IsAvailable(ctx) {
		a.RecordReasoningStep(false, 0)
		return ports.ReasonResult{Thought: "llm unavailable, no action taken", Confidence: 0}, nil
	}

	result, err := r.LLM.Reason(ctx, prompt, a.ToolSpecs())
	if err != nil {
		a.RecordReasoningStep(true, 0)
		return ports.ReasonResult{}, err
	}

	a.RecordReasoningStep(true, result.Confidence)
	return result, nil
}
