package models

import "time"

// PositionStatus is the terminal-or-not state of a Position (spec §3
// "Position", §8 state-machine invariant).
type PositionStatus string

const (
	PositionActive    PositionStatus = "active"
	PositionSold      PositionStatus = "sold"
	PositionStopped   PositionStatus = "stopped"
	PositionEmergency PositionStatus = "emergency"
)

// IsTerminal reports whether s is one of the non-reopenable end
// states.
func (s PositionStatus) IsTerminal() bool {
	return s == PositionSold || s == PositionStopped || s == PositionEmergency
}

// Position is one open or closed trade (spec §3 "Position"). Invariant:
// StopLoss < EntryPrice < TakeProfit while active; PnL is always
// recomputed as CurrentPrice*Amount - SolInvested.
type Position struct {
	ID            string
	Token         string
	EntryPrice    float64
	CurrentPrice  float64
	Amount        float64
	SolInvested   float64
	EntryTime     time.Time
	Strategy      string
	StopLoss      float64
	TakeProfit    float64
	PnL           float64
	PnLPercent    float64
	Status        PositionStatus
	PoolAddress   string
	ExitReason    string
	ExitTime      *time.Time
	TxSignature   string
}

// Recalculate updates PnL/PnLPercent from CurrentPrice (spec §4.8
// "handlePriceUpdate" step 2).
func (p *Position) Recalculate() {
	p.PnL = p.CurrentPrice*p.Amount - p.SolInvested
	if p.SolInvested != 0 {
		p.PnLPercent = p.PnL / p.SolInvested * 100
	}
}

// IsSimulatedSignature reports whether TxSignature was produced by the
// sandbox trading path rather than a real on-chain submission (spec §9
// open question: simulated signatures are prefixed "sim_").
func (p *Position) IsSimulatedSignature() bool {
	return len(p.TxSignature) >= 4 && p.TxSignature[:4] == "sim_"
}

func (Position) PayloadType() string { return "agent.trader.trade_executed" }
