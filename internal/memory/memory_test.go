package memory_test

import (
	"testing"
	"time"

	"github.com/argusmesh/agentmesh/internal/memory"
	"github.com/argusmesh/agentmesh/internal/models"
)

func TestAgentMemory_ShortTermEviction(t *testing.T) {
	m := memory.New()
	for i := 0; i < memory.DefaultShortTermCap+25; i++ {
		m.RecordShortTerm(models.MemoryRecord{Timestamp: time.Now(), Kind: models.MemoryObservation})
	}
	stats := m.GetStats()
	if stats.ShortTermCount != memory.DefaultShortTermCap {
		t.Errorf("expected short-term count capped at %d, got %d", memory.DefaultShortTermCap, stats.ShortTermCount)
	}
}

func TestAgentMemory_ByTagAndKind(t *testing.T) {
	m := memory.New()
	m.RecordLongTerm(models.MemoryRecord{
		Timestamp: time.Now(),
		Kind:      models.MemoryOutcome,
		Tags:      models.TagSet("rug", "token:abc"),
	}, nil)
	m.RecordLongTerm(models.MemoryRecord{
		Timestamp: time.Now(),
		Kind:      models.MemoryAction,
		Tags:      models.TagSet("buy"),
	}, nil)

	if got := m.ByTag("rug"); len(got) != 1 {
		t.Errorf("expected 1 record tagged rug, got %d", len(got))
	}
	if got := m.ByKind(models.MemoryAction); len(got) != 1 {
		t.Errorf("expected 1 action record, got %d", len(got))
	}
	if got := m.ByTag("nonexistent"); len(got) != 0 {
		t.Errorf("expected 0 records for unknown tag, got %d", len(got))
	}
}

func TestAgentMemory_InWindow(t *testing.T) {
	m := memory.New()
	now := time.Now()
	old := now.Add(-48 * time.Hour)

	m.RecordLongTerm(models.MemoryRecord{Timestamp: old, Kind: models.MemoryObservation}, nil)
	m.RecordLongTerm(models.MemoryRecord{Timestamp: now, Kind: models.MemoryObservation}, nil)

	recent := m.InWindow(now.Add(-1*time.Hour), now.Add(time.Hour))
	if len(recent) != 1 {
		t.Errorf("expected 1 record in recent window, got %d", len(recent))
	}
}

func TestAgentMemory_RecentShortTerm(t *testing.T) {
	m := memory.New()
	for i := 0; i < 5; i++ {
		m.RecordShortTerm(models.MemoryRecord{Timestamp: time.Now(), Kind: models.MemoryObservation})
	}
	if got := m.RecentShortTerm(3); len(got) != 3 {
		t.Errorf("expected 3 recent entries, got %d", len(got))
	}
	if got := m.RecentShortTerm(100); len(got) != 5 {
		t.Errorf("expected clamp to 5 available entries, got %d", len(got))
	}
}

type fakeVectorIndex struct {
	indexed int
}

func (f *fakeVectorIndex) Index(id int, embedding []float32) error {
	f.indexed++
	return nil
}

func (f *fakeVectorIndex) Search(query []float32, k int) ([]int, error) {
	return nil, nil
}

func TestAgentMemory_VectorIndexOptional(t *testing.T) {
	m := memory.New()
	m.RecordLongTerm(models.MemoryRecord{Timestamp: time.Now(), Kind: models.MemoryObservation}, []float32{0.1, 0.2})
	if stats := m.GetStats(); stats.LongTermCount != 1 {
		t.Fatalf("expected long-term record stored even without a vector index, got %d", stats.LongTermCount)
	}

	idx := &fakeVectorIndex{}
	m2 := memory.New().WithVectorIndex(idx)
	m2.RecordLongTerm(models.MemoryRecord{Timestamp: time.Now(), Kind: models.MemoryObservation}, []float32{0.1, 0.2})
	if idx.indexed != 1 {
		t.Errorf("expected vector index to receive 1 entry, got %d", idx.indexed)
	}
}
