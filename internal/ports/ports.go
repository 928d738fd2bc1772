// Package ports defines the collaborator interfaces the core consumes
// (spec §6 "External Interfaces"): chain access, price streaming,
// position persistence, LLM reasoning, outcome recording, and
// dashboard push. These are semantic contracts only — concrete
// adapters live in internal/llmadapter, internal/store/sql,
// internal/dashboard, and internal/pricestream/wsfeed.
package ports

import (
	"context"
	"time"

	"github.com/argusmesh/agentmesh/internal/models"
)

// TokenData is the on-chain snapshot ChainClient.GetTokenData returns.
type TokenData struct {
	Mint            string
	Creator         string
	Supply          float64
	Decimals        int
	MintDisabled    bool
	FreezeDisabled  bool
	CreatedAt       time.Time
}

// HolderInfo is one entry in ChainClient.GetHolders' result.
type HolderInfo struct {
	Wallet  string
	Balance float64
	Percent float64
}

// LPPoolInfo describes a liquidity pool (spec §6 "getLPPool").
type LPPoolInfo struct {
	PoolAddress  string
	LiquiditySol float64
	Locked       bool
	LockedUntil  *time.Time
}

// Quote is the result of ChainClient.GetQuote — nil (no value) when no
// route is available.
type Quote struct {
	InputMint    string
	OutputMint   string
	InAmount     float64
	OutAmount    float64
	PriceImpact  float64
	SlippageBps  int
}

// SwapResult is the result of ChainClient.ExecuteSwap.
type SwapResult struct {
	Success   bool
	Signature string
	Error     string
}

// SignerFunc signs a prepared transaction payload and returns the
// signed bytes, kept opaque to the core (spec §6 "executeSwap(quote,
// owner, signerFn, withFee)").
type SignerFunc func(unsigned []byte) ([]byte, error)

// ChainClient is the on-chain data and execution surface consumed by
// Analyst (read-only) and Trader (read-write).
type ChainClient interface {
	GetTokenData(ctx context.Context, mint string) (TokenData, error)
	GetHolders(ctx context.Context, mint string) ([]HolderInfo, error)
	GetLPPool(ctx context.Context, poolAddress string) (LPPoolInfo, error)
	GetTokenCreator(ctx context.Context, mint string) (string, error)
	ProfileWallet(ctx context.Context, wallet string) (WalletProfile, error)
	GetBalance(ctx context.Context, wallet string) (float64, error)
	GetQuote(ctx context.Context, in, out string, amount float64, slippageBps int) (*Quote, error)
	ExecuteSwap(ctx context.Context, quote Quote, owner string, sign SignerFunc, withFee bool) (SwapResult, error)
}

// WalletProfile is the result of ChainClient.ProfileWallet, consumed
// by Hunter's pattern detection (spec §4.7).
type WalletProfile struct {
	Wallet         string
	TokensCreated  int
	TokensRugged   int
	FirstActivity  time.Time
	LastActivity   time.Time
	ConnectedTo    []string
}

// PriceUpdate is pushed by PriceStream for a subscribed pool (spec §6
// "PriceUpdate{poolAddress, tokenAddress, price, liquiditySol,
// timestamp}").
type PriceUpdate struct {
	PoolAddress  string
	TokenAddress string
	Price        float64
	LiquiditySol float64
	Timestamp    time.Time
}

func (PriceUpdate) PayloadType() string { return "pricestream.update" }

// PriceStream is a subscribable feed of PriceUpdate events, keyed by
// (poolAddress, token) (spec §6 "PriceStream").
type PriceStream interface {
	Subscribe(poolAddress, token string, onUpdate func(PriceUpdate)) (unsubscribe func(), err error)
	Unsubscribe(poolAddress, token string) error
}

// PositionStats summarises PositionStore.GetStats (spec §6
// "PositionStore: ... getStats").
type PositionStats struct {
	TotalOpened int
	TotalClosed int
	WinCount    int
	LossCount   int
	TotalPnL    float64
}

// PositionStore persists Position records (spec §6 "PositionStore").
// The core's in-memory implementation is always available and is the
// source of truth; any wired persistence adapter is best-effort (spec
// §7 propagation policy).
type PositionStore interface {
	Create(ctx context.Context, p models.Position) error
	GetByID(ctx context.Context, id string) (models.Position, bool, error)
	GetByPool(ctx context.Context, poolAddress string) (models.Position, bool, error)
	GetActive(ctx context.Context) ([]models.Position, error)
	UpdatePrice(ctx context.Context, id string, currentPrice float64) error
	Close(ctx context.Context, id string, status models.PositionStatus, exitReason string, exitTime time.Time) error
	HasActivePosition(ctx context.Context, token string) (bool, error)
	GetStats(ctx context.Context) (PositionStats, error)
}

// ReasonResult is the LLMService answer to a reasoning prompt (spec §6
// "LLMService: ... reason(prompt, tools?) -> {thought, action?,
// confidence}").
type ReasonResult struct {
	Thought    string
	Action     *AgentAction
	Confidence float64
}

// AgentAction names a tool the reasoning engine chose to invoke, with
// its arguments.
type AgentAction struct {
	Tool string
	Args map[string]interface{}
}

// ToolSpec describes one callable tool offered to the LLM, in the
// teacher's tool-registry shape.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// LLMService is the reasoning backend consumed by AgentRuntime's ReAct
// loop (spec §6 "LLMService").
type LLMService interface {
	IsAvailable(ctx context.Context) bool
	Reason(ctx context.Context, prompt string, tools []ToolSpec) (ReasonResult, error)
}

// PredictionOutcome classifies how a prediction resolved (spec §4.10
// "outcome checker").
type PredictionOutcome string

const (
	OutcomeRug    PredictionOutcome = "RUG"
	OutcomeDump   PredictionOutcome = "DUMP"
	OutcomeMoon   PredictionOutcome = "MOON"
	OutcomeStable PredictionOutcome = "STABLE"
)

// OutcomeSink records how a prediction resolved and receives weight
// updates for the learner that produced it (spec §6 "OutcomeSink").
type OutcomeSink interface {
	RecordOutcome(ctx context.Context, token string, predicted models.Verdict, actual PredictionOutcome, observedAt time.Time) error
	UpdateWeights(ctx context.Context, weights map[string]float64) error
}

// DashboardEvent is one item pushed to DashboardSink.
type DashboardEvent struct {
	Kind      string
	Payload   interface{}
	Timestamp time.Time
}

// DashboardSink is a batched event push over HTTP (spec §6
// "DashboardSink: batched event push ... default 10 ... default
// 5s ... bearer token if configured").
type DashboardSink interface {
	Push(event DashboardEvent)
	Flush(ctx context.Context) error
	Close() error
}

// ScammerStore persists ScammerProfile records for Hunter, optionally
// backed by SQL (supplementing spec §6 with the storage-side half of
// Hunter's scammerProfiles map).
type ScammerStore interface {
	Upsert(ctx context.Context, p models.ScammerProfile) error
	GetByWallet(ctx context.Context, wallet string) (models.ScammerProfile, bool, error)
	All(ctx context.Context) ([]models.ScammerProfile, error)
}
