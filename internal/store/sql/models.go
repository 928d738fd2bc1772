// Package sql provides GORM-backed, best-effort persistence adapters
// for ports.PositionStore, ports.OutcomeSink, and ports.ScammerStore
// (spec §7 "persistence failures never block in-memory state; any SQL
// adapter mirrors it best-effort"). Grounded in the teacher's
// internal/repositories package: one struct per concern wrapping a
// *gorm.DB, atomic multi-step writes inside db.Transaction, and a
// constructor returning the port interface rather than the concrete
// type.
package sql

import (
	"time"

	"github.com/argusmesh/agentmesh/internal/models"
	"github.com/argusmesh/agentmesh/internal/ports"
)

// positionRow is the GORM row shape for a Position.
type positionRow struct {
	ID           string `gorm:"primaryKey"`
	Token        string `gorm:"index"`
	EntryPrice   float64
	CurrentPrice float64
	Amount       float64
	SolInvested  float64
	EntryTime    time.Time
	Strategy     string
	StopLoss     float64
	TakeProfit   float64
	PnL          float64
	PnLPercent   float64
	Status       string `gorm:"index"`
	PoolAddress  string `gorm:"index"`
	ExitReason   string
	ExitTime     *time.Time
	TxSignature  string
}

func (positionRow) TableName() string { return "positions" }

func toRow(p models.Position) positionRow {
	return positionRow{
		ID: p.ID, Token: p.Token, EntryPrice: p.EntryPrice, CurrentPrice: p.CurrentPrice,
		Amount: p.Amount, SolInvested: p.SolInvested, EntryTime: p.EntryTime, Strategy: p.Strategy,
		StopLoss: p.StopLoss, TakeProfit: p.TakeProfit, PnL: p.PnL, PnLPercent: p.PnLPercent,
		Status: string(p.Status), PoolAddress: p.PoolAddress, ExitReason: p.ExitReason,
		ExitTime: p.ExitTime, TxSignature: p.TxSignature,
	}
}

func fromRow(r positionRow) models.Position {
	return models.Position{
		ID: r.ID, Token: r.Token, EntryPrice: r.EntryPrice, CurrentPrice: r.CurrentPrice,
		Amount: r.Amount, SolInvested: r.SolInvested, EntryTime: r.EntryTime, Strategy: r.Strategy,
		StopLoss: r.StopLoss, TakeProfit: r.TakeProfit, PnL: r.PnL, PnLPercent: r.PnLPercent,
		Status: models.PositionStatus(r.Status), PoolAddress: r.PoolAddress, ExitReason: r.ExitReason,
		ExitTime: r.ExitTime, TxSignature: r.TxSignature,
	}
}

// outcomeRow records one resolved prediction.
type outcomeRow struct {
	ID         uint   `gorm:"primaryKey"`
	Token      string `gorm:"index"`
	Predicted  string
	Actual     string
	ObservedAt time.Time
}

func (outcomeRow) TableName() string { return "prediction_outcomes" }

// weightRow persists one learner weight by key.
type weightRow struct {
	Key   string `gorm:"primaryKey"`
	Value float64
}

func (weightRow) TableName() string { return "learner_weights" }

// scammerRow is the GORM row shape for a ScammerProfile.
type scammerRow struct {
	Wallet           string `gorm:"primaryKey"`
	Pattern          string
	Confidence       float64
	Tokens           string // comma-joined
	RuggedTokens     string // comma-joined
	FirstSeen        time.Time
	LastSeen         time.Time
	TotalVictims     int
	EstimatedProfit  float64
	ConnectedWallets string // comma-joined
	Evidence         string // comma-joined
}

func (scammerRow) TableName() string { return "scammer_profiles" }

var _ ports.PositionStore = (*PositionStore)(nil)
var _ ports.OutcomeSink = (*OutcomeSink)(nil)
var _ ports.ScammerStore = (*ScammerStore)(nil)
