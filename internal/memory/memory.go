// Package memory implements AgentMemory (spec §4.2): a per-agent
// short-term ring buffer plus a tagged long-term store. Generalizes the
// teacher's WorkingMemory ring-buffer pattern
// (internal/agent/working_memory.go) and its tag-driven long-term
// lookups (internal/memory/conversation_memory.go) into one component
// shared by every agent kind.
package memory

import (
	"sync"
	"time"

	"github.com/argusmesh/agentmesh/internal/models"
)

// DefaultShortTermCap mirrors the teacher's WorkingMemory cap on
// recent decisions/events.
const DefaultShortTermCap = 200

// VectorIndex is the optional similarity-search backend for long-term
// records (spec §4.2: "If a vector-index backend is available, ...").
// Its absence degrades gracefully to plain tag search.
type VectorIndex interface {
	Index(id int, embedding []float32) error
	Search(query []float32, k int) ([]int, error)
}

// Stats summarises a memory store (spec §4.2 "getStats()").
type Stats struct {
	ShortTermCount int
	LongTermCount  int
	TagCounts      map[string]int
}

// AgentMemory is one agent's private memory. It is never shared or
// mutated by any other agent (spec §3 "Ownership").
type AgentMemory struct {
	mu         sync.RWMutex
	shortTerm  []models.MemoryRecord
	shortCap   int
	longTerm   []models.MemoryRecord
	vectorIdx  VectorIndex // nil unless wired
}

// New creates an AgentMemory with the default short-term capacity.
func New() *AgentMemory {
	return &AgentMemory{shortCap: DefaultShortTermCap}
}

// WithVectorIndex attaches an optional similarity-search backend.
func (m *AgentMemory) WithVectorIndex(idx VectorIndex) *AgentMemory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectorIdx = idx
	return m
}

// RecordShortTerm appends to the short-term log, evicting the oldest
// entry once the cap is exceeded.
func (m *AgentMemory) RecordShortTerm(r models.MemoryRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shortTerm = append(m.shortTerm, r)
	if len(m.shortTerm) > m.shortCap {
		m.shortTerm = m.shortTerm[len(m.shortTerm)-m.shortCap:]
	}
}

// RecordLongTerm appends an immutable, taggable record to long-term
// memory. If a vector index is wired, the caller-supplied embedding is
// indexed too; its absence is not an error.
func (m *AgentMemory) RecordLongTerm(r models.MemoryRecord, embedding []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.longTerm = append(m.longTerm, r)
	if m.vectorIdx != nil && embedding != nil {
		_ = m.vectorIdx.Index(len(m.longTerm)-1, embedding)
	}
}

// ByTag returns every long-term record carrying tag, most recent last.
func (m *AgentMemory) ByTag(tag string) []models.MemoryRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.MemoryRecord
	for _, r := range m.longTerm {
		if r.HasTag(tag) {
			out = append(out, r)
		}
	}
	return out
}

// ByKind returns every long-term record of the given kind.
func (m *AgentMemory) ByKind(kind models.MemoryKind) []models.MemoryRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.MemoryRecord
	for _, r := range m.longTerm {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// InWindow returns every long-term record whose Timestamp falls within
// [start, end].
func (m *AgentMemory) InWindow(start, end time.Time) []models.MemoryRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.MemoryRecord
	for _, r := range m.longTerm {
		if !r.Timestamp.Before(start) && !r.Timestamp.After(end) {
			out = append(out, r)
		}
	}
	return out
}

// RecentShortTerm returns the last n short-term entries.
func (m *AgentMemory) RecentShortTerm(n int) []models.MemoryRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n > len(m.shortTerm) {
		n = len(m.shortTerm)
	}
	if n == 0 {
		return nil
	}
	out := make([]models.MemoryRecord, n)
	copy(out, m.shortTerm[len(m.shortTerm)-n:])
	return out
}

// GetStats returns counts of short-term, long-term, and per-tag
// entries (spec §4.2 "getStats()").
func (m *AgentMemory) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tagCounts := make(map[string]int)
	for _, r := range m.longTerm {
		for tag := range r.Tags {
			tagCounts[tag]++
		}
	}
	return Stats{
		ShortTermCount: len(m.shortTerm),
		LongTermCount:  len(m.longTerm),
		TagCounts:      tagCounts,
	}
}
