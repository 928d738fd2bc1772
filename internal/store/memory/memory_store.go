// Package memory provides the always-available in-memory PositionStore
// and OutcomeSink (spec §7 "persistence failures never block in-memory
// state" — this is the source of truth; internal/store/sql is a
// best-effort mirror).
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/argusmesh/agentmesh/internal/models"
	"github.com/argusmesh/agentmesh/internal/ports"
)

// PositionStore is an in-process, mutex-guarded implementation of
// ports.PositionStore.
type PositionStore struct {
	mu         sync.RWMutex
	positions  map[string]models.Position
	byPool     map[string]string // poolAddress -> position ID
}

// NewPositionStore creates an empty PositionStore.
func NewPositionStore() *PositionStore {
	return &PositionStore{
		positions: make(map[string]models.Position),
		byPool:    make(map[string]string),
	}
}

func (s *PositionStore) Create(_ context.Context, p models.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[p.ID] = p
	if p.PoolAddress != "" {
		s.byPool[p.PoolAddress] = p.ID
	}
	return nil
}

func (s *PositionStore) GetByID(_ context.Context, id string) (models.Position, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.positions[id]
	return p, ok, nil
}

func (s *PositionStore) GetByPool(_ context.Context, poolAddress string) (models.Position, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byPool[poolAddress]
	if !ok {
		return models.Position{}, false, nil
	}
	p, ok := s.positions[id]
	return p, ok, nil
}

func (s *PositionStore) GetActive(_ context.Context) ([]models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Position
	for _, p := range s.positions {
		if p.Status == models.PositionActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *PositionStore) UpdatePrice(_ context.Context, id string, currentPrice float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.positions[id]
	if !ok {
		return nil
	}
	p.CurrentPrice = currentPrice
	p.Recalculate()
	s.positions[id] = p
	return nil
}

func (s *PositionStore) Close(_ context.Context, id string, status models.PositionStatus, exitReason string, exitTime time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.positions[id]
	if !ok {
		return nil
	}
	p.Status = status
	p.ExitReason = exitReason
	p.ExitTime = &exitTime
	s.positions[id] = p
	return nil
}

func (s *PositionStore) HasActivePosition(_ context.Context, token string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.positions {
		if p.Token == token && p.Status == models.PositionActive {
			return true, nil
		}
	}
	return false, nil
}

func (s *PositionStore) GetStats(_ context.Context) (ports.PositionStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stats ports.PositionStats
	for _, p := range s.positions {
		stats.TotalOpened++
		if p.Status.IsTerminal() {
			stats.TotalClosed++
			stats.TotalPnL += p.PnL
			if p.PnL >= 0 {
				stats.WinCount++
			} else {
				stats.LossCount++
			}
		}
	}
	return stats, nil
}

// OutcomeSink is an in-process implementation of ports.OutcomeSink.
type OutcomeSink struct {
	mu       sync.Mutex
	outcomes []recordedOutcome
	weights  map[string]float64
}

type recordedOutcome struct {
	Token      string
	Predicted  models.Verdict
	Actual     ports.PredictionOutcome
	ObservedAt time.Time
}

// NewOutcomeSink creates an empty OutcomeSink.
func NewOutcomeSink() *OutcomeSink {
	return &OutcomeSink{weights: make(map[string]float64)}
}

func (s *OutcomeSink) RecordOutcome(_ context.Context, token string, predicted models.Verdict, actual ports.PredictionOutcome, observedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = append(s.outcomes, recordedOutcome{token, predicted, actual, observedAt})
	return nil
}

func (s *OutcomeSink) UpdateWeights(_ context.Context, weights map[string]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range weights {
		s.weights[k] = v
	}
	return nil
}

// Weights returns a snapshot of the current learner weights.
func (s *OutcomeSink) Weights() map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]float64, len(s.weights))
	for k, v := range s.weights {
		out[k] = v
	}
	return out
}

// OutcomeCount returns the count of recorded outcomes, for diagnostics.
func (s *OutcomeSink) OutcomeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outcomes)
}
