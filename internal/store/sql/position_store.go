package sql

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/argusmesh/agentmesh/internal/models"
	"github.com/argusmesh/agentmesh/internal/ports"
)

// PositionStore is a GORM-backed ports.PositionStore. It mirrors the
// trader's in-memory positions map; the core never blocks a trade on
// this succeeding (spec §7).
type PositionStore struct {
	db *gorm.DB
}

// NewPositionStore wraps db, auto-migrating the positions table.
func NewPositionStore(db *gorm.DB) (*PositionStore, error) {
	if err := db.AutoMigrate(&positionRow{}); err != nil {
		return nil, err
	}
	return &PositionStore{db: db}, nil
}

func (s *PositionStore) Create(ctx context.Context, p models.Position) error {
	return s.db.WithContext(ctx).Create(toRow(p)).Error
}

func (s *PositionStore) GetByID(ctx context.Context, id string) (models.Position, bool, error) {
	var row positionRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return models.Position{}, false, nil
	}
	if err != nil {
		return models.Position{}, false, err
	}
	return fromRow(row), true, nil
}

func (s *PositionStore) GetByPool(ctx context.Context, poolAddress string) (models.Position, bool, error) {
	var row positionRow
	err := s.db.WithContext(ctx).First(&row, "pool_address = ?", poolAddress).Error
	if err == gorm.ErrRecordNotFound {
		return models.Position{}, false, nil
	}
	if err != nil {
		return models.Position{}, false, err
	}
	return fromRow(row), true, nil
}

func (s *PositionStore) GetActive(ctx context.Context) ([]models.Position, error) {
	var rows []positionRow
	if err := s.db.WithContext(ctx).Where("status = ?", string(models.PositionActive)).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Position, len(rows))
	for i, r := range rows {
		out[i] = fromRow(r)
	}
	return out, nil
}

func (s *PositionStore) UpdatePrice(ctx context.Context, id string, currentPrice float64) error {
	return s.db.WithContext(ctx).Model(&positionRow{}).Where("id = ?", id).
		Update("current_price", currentPrice).Error
}

// Close marks a position terminal inside a transaction, the same
// create-then-settle shape the teacher's TradeRepository.Update uses
// for closing a position and crediting the resulting balance.
func (s *PositionStore) Close(ctx context.Context, id string, status models.PositionStatus, exitReason string, exitTime time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(&positionRow{}).Where("id = ?", id).Updates(map[string]interface{}{
			"status":      string(status),
			"exit_reason": exitReason,
			"exit_time":   exitTime,
		}).Error
	})
}

func (s *PositionStore) HasActivePosition(ctx context.Context, token string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&positionRow{}).
		Where("token = ? AND status = ?", token, string(models.PositionActive)).
		Count(&count).Error
	return count > 0, err
}

func (s *PositionStore) GetStats(ctx context.Context) (ports.PositionStats, error) {
	var rows []positionRow
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return ports.PositionStats{}, err
	}

	var stats ports.PositionStats
	for _, r := range rows {
		stats.TotalOpened++
		if models.PositionStatus(r.Status).IsTerminal() {
			stats.TotalClosed++
			stats.TotalPnL += r.PnL
			if r.PnL >= 0 {
				stats.WinCount++
			} else {
				stats.LossCount++
			}
		}
	}
	return stats, nil
}
