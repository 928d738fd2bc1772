package models

import "time"

// ThoughtKind classifies an entry in an agent's thought log.
type ThoughtKind string

const (
	ThoughtObservation ThoughtKind = "observation"
	ThoughtReasoning   ThoughtKind = "reasoning"
	ThoughtAction      ThoughtKind = "action"
	ThoughtReflection  ThoughtKind = "reflection"
)

// Thought is one entry in an agent's append-only thought log. The log
// is a bounded ring of at most 1000 entries (spec §3 "Thought").
type Thought struct {
	Timestamp  time.Time
	Kind       ThoughtKind
	Content    string
	Confidence *float64 // nil when not applicable
}
