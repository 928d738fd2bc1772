package models

import "time"

// MemoryKind classifies a long-term MemoryRecord.
type MemoryKind string

const (
	MemoryObservation MemoryKind = "observation"
	MemoryAction      MemoryKind = "action"
	MemoryOutcome     MemoryKind = "outcome"
)

// MemoryRecord is one immutable entry in an agent's long-term memory,
// searchable by tag and kind (spec §3 "MemoryRecord").
type MemoryRecord struct {
	Timestamp time.Time
	Kind      MemoryKind
	Tags      map[string]struct{}
	Payload   interface{}
}

// HasTag reports whether the record carries the given tag.
func (r MemoryRecord) HasTag(tag string) bool {
	_, ok := r.Tags[tag]
	return ok
}

// TagSet builds the set form of a tag slice, used when constructing a
// MemoryRecord from a caller-supplied []string.
func TagSet(tags ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return set
}
