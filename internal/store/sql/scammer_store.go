package sql

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/argusmesh/agentmesh/internal/models"
)

// ScammerStore is a GORM-backed ports.ScammerStore, mirroring
// Hunter's in-memory scammerProfiles map (supplementing spec §6 with
// the storage-side half of ScammerProfile persistence).
type ScammerStore struct {
	db *gorm.DB
}

// NewScammerStore wraps db, auto-migrating its table.
func NewScammerStore(db *gorm.DB) (*ScammerStore, error) {
	if err := db.AutoMigrate(&scammerRow{}); err != nil {
		return nil, err
	}
	return &ScammerStore{db: db}, nil
}

func (s *ScammerStore) Upsert(ctx context.Context, p models.ScammerProfile) error {
	row := scammerRow{
		Wallet:           p.Wallet,
		Pattern:          string(p.Pattern),
		Confidence:       p.Confidence,
		Tokens:           strings.Join(p.Tokens, ","),
		RuggedTokens:     strings.Join(p.RuggedTokens, ","),
		FirstSeen:        p.FirstSeen,
		LastSeen:         p.LastSeen,
		TotalVictims:     p.TotalVictims,
		EstimatedProfit:  p.EstimatedProfit,
		ConnectedWallets: strings.Join(p.ConnectedWallets, ","),
		Evidence:         strings.Join(p.Evidence, ","),
	}
	return s.db.WithContext(ctx).Save(&row).Error
}

func (s *ScammerStore) GetByWallet(ctx context.Context, wallet string) (models.ScammerProfile, bool, error) {
	var row scammerRow
	err := s.db.WithContext(ctx).First(&row, "wallet = ?", wallet).Error
	if err == gorm.ErrRecordNotFound {
		return models.ScammerProfile{}, false, nil
	}
	if err != nil {
		return models.ScammerProfile{}, false, err
	}
	return fromScammerRow(row), true, nil
}

func (s *ScammerStore) All(ctx context.Context) ([]models.ScammerProfile, error) {
	var rows []scammerRow
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.ScammerProfile, len(rows))
	for i, r := range rows {
		out[i] = fromScammerRow(r)
	}
	return out, nil
}

func fromScammerRow(r scammerRow) models.ScammerProfile {
	return models.ScammerProfile{
		Wallet:           r.Wallet,
		Pattern:          models.ScammerPattern(r.Pattern),
		Confidence:       r.Confidence,
		Tokens:           splitNonEmpty(r.Tokens),
		RuggedTokens:     splitNonEmpty(r.RuggedTokens),
		FirstSeen:        r.FirstSeen,
		LastSeen:         r.LastSeen,
		TotalVictims:     r.TotalVictims,
		EstimatedProfit:  r.EstimatedProfit,
		ConnectedWallets: splitNonEmpty(r.ConnectedWallets),
		Evidence:         splitNonEmpty(r.Evidence),
	}
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
