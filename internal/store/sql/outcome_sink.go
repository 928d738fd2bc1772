package sql

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/argusmesh/agentmesh/internal/models"
	"github.com/argusmesh/agentmesh/internal/ports"
)

// OutcomeSink is a GORM-backed ports.OutcomeSink, persisting the
// outcome checker's classifications and the learner's weight updates
// (spec §4.10 "outcome checker ... records to OutcomeSink").
type OutcomeSink struct {
	db *gorm.DB
}

// NewOutcomeSink wraps db, auto-migrating its tables.
func NewOutcomeSink(db *gorm.DB) (*OutcomeSink, error) {
	if err := db.AutoMigrate(&outcomeRow{}, &weightRow{}); err != nil {
		return nil, err
	}
	return &OutcomeSink{db: db}, nil
}

func (s *OutcomeSink) RecordOutcome(ctx context.Context, token string, predicted models.Verdict, actual ports.PredictionOutcome, observedAt time.Time) error {
	return s.db.WithContext(ctx).Create(&outcomeRow{
		Token: token, Predicted: string(predicted), Actual: string(actual), ObservedAt: observedAt,
	}).Error
}

func (s *OutcomeSink) UpdateWeights(ctx context.Context, weights map[string]float64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for k, v := range weights {
			if err := tx.Save(&weightRow{Key: k, Value: v}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
