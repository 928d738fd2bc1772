// Package trader implements TraderAgent (spec §4.8, C8): evaluates
// opportunities handed off by an analyst, opens and closes positions
// against an optional chain adapter, and reacts to streamed price
// updates with stop-loss, take-profit, and max-hold exits.
package trader

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/argusmesh/agentmesh/internal/bus"
	"github.com/argusmesh/agentmesh/internal/memory"
	"github.com/argusmesh/agentmesh/internal/models"
	"github.com/argusmesh/agentmesh/internal/ports"
	"github.com/argusmesh/agentmesh/internal/runtime"
)

// MaxConcurrentPositions bounds the active-position set (spec §4.8
// "at most 5 concurrent positions").
const MaxConcurrentPositions = 5

// BuySlippageBps / SellSlippageBps are the fixed slippage tolerances
// quoted on entry and exit (spec §4.8 "1% slippage").
const (
	BuySlippageBps  = 100
	SellSlippageBps = 100
)

// FallbackPollInterval is how often Trader re-checks exit triggers
// against a freshly-fetched price when the stream has gone silent
// (spec §4.8 "fallback polling loop runs every 30s").
const FallbackPollInterval = 30 * time.Second

// Decision is evaluateOpportunity's pure result (spec §4.8
// "{shouldBuy, strategy?, positionSize?, reasoning}").
type Decision struct {
	ShouldBuy    bool
	Strategy     *models.Strategy
	Tier         models.PositionSizeTier
	PositionSize float64
	Reasoning    string
}

// Config carries the options an operator sets once at construction
// (spec §3 "TraderAgent" state: walletBalance, tradingEnabled,
// maxDailyTrades, maxPositionSize).
type Config struct {
	WalletBalance   float64
	TradingEnabled  bool
	MaxDailyTrades  int
	MaxPositionSize float64
	Strategies      []models.Strategy // nil uses DefaultStrategies()
}

// Agent is a TraderAgent instance.
type Agent struct {
	*runtime.BaseAgent

	chain ports.ChainClient // optional; nil forces simulated fills
	store ports.PositionStore
	sink  ports.OutcomeSink

	onPositionOpened func(poolAddress, token string)
	onPositionClosed func(poolAddress string)

	mu              sync.Mutex
	positions       map[string]*models.Position // keyed by token
	strategies      []models.Strategy
	walletBalance   float64
	tradingEnabled  bool
	maxDailyTrades  int
	maxPositionSize float64
	dailyTradeCount int
	lastTradeDate   string // UTC "2006-01-02"
	winCount        int
	lossCount       int
}

// New creates a Trader named name. chain and store may both be nil —
// the in-memory positions map is always the source of truth (spec §7
// propagation policy); a nil chain simulates every quote and fill.
func New(name string, b *bus.MessageBus, chain ports.ChainClient, store ports.PositionStore, cfg Config) *Agent {
	strategies := cfg.Strategies
	if strategies == nil {
		strategies = DefaultStrategies()
	}
	if cfg.MaxDailyTrades <= 0 {
		cfg.MaxDailyTrades = 10
	}

	a := &Agent{
		BaseAgent:       runtime.New(name, b, memory.New(), nil),
		chain:           chain,
		store:           store,
		positions:       make(map[string]*models.Position),
		strategies:      strategies,
		walletBalance:   cfg.WalletBalance,
		tradingEnabled:  cfg.TradingEnabled,
		maxDailyTrades:  cfg.MaxDailyTrades,
		maxPositionSize: cfg.MaxPositionSize,
	}

	a.SubscribeTopic("agent.trader-*.opportunity", func(msg models.Message) {
		if opp, ok := msg.Data.(models.TradeOpportunity); ok {
			a.HandleOpportunity(context.Background(), opp)
		}
	})
	a.SubscribeTopic("agent.trader-*.sell", func(msg models.Message) {
		if opaque, ok := msg.Data.(models.Opaque); ok {
			if token, ok := opaque.Value.(string); ok {
				if err := a.executeSell(context.Background(), token, "Manual sell requested"); err != nil {
					a.Think(models.ThoughtReflection, fmt.Sprintf("manual sell failed for %s: %v", token, err), nil)
				}
			}
		}
	})
	a.SubscribeTopic("pricestream.update", func(msg models.Message) {
		if update, ok := msg.Data.(ports.PriceUpdate); ok {
			a.HandlePriceUpdate(context.Background(), update)
		}
	})
	a.SubscribeTopic("alert.scammer", func(msg models.Message) {
		switch data := msg.Data.(type) {
		case models.ScammerProfile:
			a.emergencyExitTokens(context.Background(), data.Tokens, "Emergency exit - scammer detected")
		case models.InvestigationReport:
			a.emergencyExitTokens(context.Background(), []string{data.Token}, "Emergency exit - scammer detected")
		}
	})
	a.SubscribeTopic("alert.high_risk_token", func(msg models.Message) {
		if report, ok := msg.Data.(models.InvestigationReport); ok {
			a.emergencyExitTokens(context.Background(), []string{report.Token}, "Emergency exit - scammer detected")
		}
	})

	return a
}

// WithCallbacks wires the position-opened/closed hooks a PriceStream
// adapter registers against (spec §9 "Back-references: model the
// stream registration as two callbacks, not as cross-owned
// references").
func (a *Agent) WithCallbacks(onOpened func(poolAddress, token string), onClosed func(poolAddress string)) *Agent {
	a.onPositionOpened = onOpened
	a.onPositionClosed = onClosed
	return a
}

// WithOutcomeSink attaches the optional learner-feedback sink.
func (a *Agent) WithOutcomeSink(sink ports.OutcomeSink) *Agent {
	a.sink = sink
	return a
}

// WithReasoner swaps in an LLM-backed (or other) reasoning strategy in
// place of the nil reasoner wired by New, with which Reason returns an
// error (spec §4.4 "both sit
// behind one Reasoner interface").
func (a *Agent) WithReasoner(r runtime.Reasoner) *Agent {
	a.SetReasoner(r)
	return a
}

// rollDailyCounter resets dailyTradeCount when the UTC date has
// changed since the last trade (spec §4.8 invariant "dailyTradeCount
// resets when UTC date rolls over"). Caller must hold a.mu.
func (a *Agent) rollDailyCounter(now time.Time) {
	today := now.UTC().Format("2006-01-02")
	if a.lastTradeDate != today {
		a.lastTradeDate = today
		a.dailyTradeCount = 0
	}
}

// EvaluateOpportunity is the pure decision function (spec §4.8
// "evaluateOpportunity(token, analysis)"). It does not mutate state
// beyond the daily-counter rollover.
func (a *Agent) EvaluateOpportunity(opp models.TradeOpportunity) Decision {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.rollDailyCounter(time.Now())

	if a.dailyTradeCount >= a.maxDailyTrades {
		return Decision{Reasoning: "daily trade limit reached"}
	}
	if _, dup := a.positions[opp.Token]; dup {
		return Decision{Reasoning: "position already open for this token"}
	}
	if len(a.positions) >= MaxConcurrentPositions {
		return Decision{Reasoning: "max concurrent positions reached"}
	}

	for i := range a.strategies {
		strategy := a.strategies[i]
		if !entryConditionsMet(strategy.EntryConditions, opp) {
			continue
		}

		tier := tierForRiskScore(opp.Report.Score)
		if tier == models.SizeSkip {
			return Decision{Reasoning: fmt.Sprintf("risk score %.1f too high to size a position", opp.Report.Score)}
		}

		size := strategy.PositionSize * tier.Multiplier()
		if a.maxPositionSize > 0 && size > a.maxPositionSize {
			size = a.maxPositionSize
		}
		if a.walletBalance < size {
			return Decision{Reasoning: "wallet balance below required position size"}
		}

		return Decision{
			ShouldBuy:    true,
			Strategy:     &strategy,
			Tier:         tier,
			PositionSize: size,
			Reasoning:    fmt.Sprintf("%s entry conditions met, sized %s (risk %.1f)", strategy.Name, tier, opp.Report.Score),
		}
	}

	return Decision{Reasoning: "no strategy's entry conditions matched"}
}

// tierForRiskScore computes the tiered sizing multiplier from the
// analyst's risk score (spec §4.8 step 4).
func tierForRiskScore(score float64) models.PositionSizeTier {
	switch {
	case score >= 80:
		return models.SizeSkip
	case score >= 60:
		return models.SizeQuarter
	case score >= 40:
		return models.SizeHalf
	default:
		return models.SizeFull
	}
}

// entryConditionsMet tests a strategy's EntryConditions against an
// opportunity (spec §4.8 step 3).
func entryConditionsMet(ec models.EntryConditions, opp models.TradeOpportunity) bool {
	if opp.Report.Score > ec.MaxScore {
		return false
	}
	if opp.LiquiditySol < ec.MinLiquidity {
		return false
	}
	if !ec.BundlesAllowed && opp.Report.BundleAnalysis != nil && opp.Report.BundleAnalysis.Detected {
		return false
	}
	for _, required := range ec.SecurityRequirements {
		for _, f := range opp.Report.Findings {
			if f.Code == required {
				return false
			}
		}
	}
	return true
}

// HandleOpportunity evaluates opp and executes a buy when the
// decision says to.
func (a *Agent) HandleOpportunity(ctx context.Context, opp models.TradeOpportunity) {
	decision := a.EvaluateOpportunity(opp)
	conf := opp.Report.Confidence / 100
	a.Think(models.ThoughtAction, decision.Reasoning, &conf)

	if !decision.ShouldBuy {
		return
	}
	if err := a.executeBuy(ctx, opp, decision); err != nil {
		a.Think(models.ThoughtReflection, fmt.Sprintf("buy failed for %s: %v", opp.Token, err), nil)
	}
}

// quote obtains a SOL<->token quote from the chain adapter, or
// synthesizes a unit-price fill when no chain is wired (spec §4.8
// "executeBuy ... obtain quote ... optionally call sign-and-submit via
// the external RPC adapter ... else use a simulation signature").
func (a *Agent) quote(ctx context.Context, in, out string, amount float64, slippageBps int) (ports.Quote, error) {
	if a.chain == nil {
		return ports.Quote{InputMint: in, OutputMint: out, InAmount: amount, OutAmount: amount, SlippageBps: slippageBps}, nil
	}
	q, err := a.chain.GetQuote(ctx, in, out, amount, slippageBps)
	if err != nil {
		return ports.Quote{}, err
	}
	if q == nil {
		return ports.Quote{}, fmt.Errorf("no route for %s -> %s", in, out)
	}
	return *q, nil
}

// submit fills q against the chain adapter when trading is enabled,
// otherwise returns a sim_-prefixed signature (spec §9 open question).
func (a *Agent) submit(ctx context.Context, q ports.Quote) (string, error) {
	if a.chain != nil && a.tradingEnabled {
		result, err := a.chain.ExecuteSwap(ctx, q, a.Name(), nil, false)
		if err != nil {
			return "", err
		}
		if !result.Success {
			return "", fmt.Errorf("swap failed: %s", result.Error)
		}
		return result.Signature, nil
	}
	return "sim_" + uuid.NewString(), nil
}

// executeBuy obtains a quote, fills it (or simulates the fill), and
// opens a Position (spec §4.8 "executeBuy").
func (a *Agent) executeBuy(ctx context.Context, opp models.TradeOpportunity, decision Decision) error {
	q, err := a.quote(ctx, "SOL", opp.Token, decision.PositionSize, BuySlippageBps)
	if err != nil {
		return err
	}

	price := 1.0
	out := decimal.NewFromFloat(q.OutAmount)
	if !out.IsZero() {
		price, _ = decimal.NewFromFloat(q.InAmount).Div(out).Float64()
	}
	amount, _ := decimal.NewFromFloat(decision.PositionSize).Div(decimal.NewFromFloat(price)).Float64()

	sig, err := a.submit(ctx, q)
	if err != nil {
		return err
	}

	now := time.Now()
	pos := &models.Position{
		ID:           uuid.NewString(),
		Token:        opp.Token,
		EntryPrice:   price,
		CurrentPrice: price,
		Amount:       amount,
		SolInvested:  decision.PositionSize,
		EntryTime:    now,
		Strategy:     decision.Strategy.Name,
		StopLoss:     price * (1 - decision.Strategy.ExitConditions.StopLossPercent/100),
		TakeProfit:   price * (1 + decision.Strategy.ExitConditions.TakeProfitPercent/100),
		Status:       models.PositionActive,
		PoolAddress:  opp.PoolAddress,
		TxSignature:  sig,
	}

	a.mu.Lock()
	a.positions[opp.Token] = pos
	a.walletBalance -= decision.PositionSize
	a.dailyTradeCount++
	a.mu.Unlock()

	if a.store != nil {
		_ = a.store.Create(ctx, *pos)
	}
	if a.onPositionOpened != nil {
		a.onPositionOpened(pos.PoolAddress, pos.Token)
	}

	a.Memory().RecordLongTerm(models.MemoryRecord{
		Timestamp: now,
		Kind:      models.MemoryAction,
		Tags:      models.TagSet("trade", "buy", decision.Strategy.Name),
		Payload:   *pos,
	}, nil)
	a.Bus().Publish("agent.trader-*.trade_executed", *pos, a.Name(), "", models.PriorityNormal)

	return nil
}

// exitReasonCode maps executeSell's free-text reason to the closed
// enum persistence expects (spec §4.8 "exitReason derived from the
// textual reason").
func exitReasonCode(reason string) string {
	switch {
	case strings.Contains(reason, "Stop-loss"):
		return "stop_loss"
	case strings.Contains(reason, "Take-profit"):
		return "take_profit"
	case strings.Contains(reason, "Emergency"), strings.Contains(reason, "scammer"):
		return "emergency"
	case strings.Contains(reason, "hold time"):
		return "manual"
	default:
		return "manual"
	}
}

// executeSell closes an open position, books PnL, and notifies
// downstream collaborators (spec §4.8 "executeSell").
func (a *Agent) executeSell(ctx context.Context, token, reason string) error {
	a.mu.Lock()
	pos, ok := a.positions[token]
	a.mu.Unlock()
	if !ok {
		return fmt.Errorf("no open position for %s", token)
	}

	q, err := a.quote(ctx, token, "SOL", pos.Amount, SellSlippageBps)
	if err != nil {
		return err
	}
	sig, err := a.submit(ctx, q)
	if err != nil {
		return err
	}

	solReceived := q.OutAmount
	if a.chain == nil {
		// Simulated fill: value the position at its last observed price
		// instead of the synthetic unit quote.
		solReceived, _ = decimal.NewFromFloat(pos.CurrentPrice).Mul(decimal.NewFromFloat(pos.Amount)).Float64()
	}
	pnl := solReceived - pos.SolInvested
	now := time.Now()

	a.mu.Lock()
	a.walletBalance += solReceived
	if pnl >= 0 {
		a.winCount++
	} else {
		a.lossCount++
	}
	pos.CurrentPrice = solReceived / max1(pos.Amount)
	pos.Recalculate()
	pos.ExitReason = reason
	pos.ExitTime = &now
	pos.TxSignature = sig
	switch {
	case strings.Contains(reason, "Emergency"), strings.Contains(reason, "scammer"):
		pos.Status = models.PositionEmergency
	case strings.Contains(reason, "Stop-loss"):
		pos.Status = models.PositionStopped
	default:
		pos.Status = models.PositionSold
	}
	delete(a.positions, token)
	a.mu.Unlock()

	outcome := "win"
	if pnl < 0 {
		outcome = "loss"
	}
	a.Memory().RecordLongTerm(models.MemoryRecord{
		Timestamp: now,
		Kind:      models.MemoryOutcome,
		Tags:      models.TagSet("trade", "sell", outcome),
		Payload:   *pos,
	}, nil)

	if a.store != nil {
		_ = a.store.Close(ctx, pos.ID, pos.Status, exitReasonCode(reason), now)
	}
	if a.sink != nil {
		predicted := models.VerdictSafe
		actual := ports.OutcomeMoon
		if pnl < 0 {
			actual = ports.OutcomeDump
		}
		_ = a.sink.RecordOutcome(ctx, token, predicted, actual, now)
	}
	if a.onPositionClosed != nil {
		a.onPositionClosed(pos.PoolAddress)
	}

	a.Bus().Publish("agent.trader-*.trade_executed", *pos, a.Name(), "", models.PriorityNormal)
	a.Bus().SendTo("coordinator", "trade_complete", *pos, a.Name())
	return nil
}

func max1(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}

// HandlePriceUpdate fires on every streamed price tick (spec §4.8
// "handlePriceUpdate").
func (a *Agent) HandlePriceUpdate(ctx context.Context, update ports.PriceUpdate) {
	a.mu.Lock()
	pos, ok := a.positions[update.TokenAddress]
	a.mu.Unlock()
	if !ok {
		return
	}

	a.mu.Lock()
	pos.CurrentPrice = update.Price
	pos.Recalculate()
	a.mu.Unlock()

	if a.store != nil {
		_ = a.store.UpdatePrice(ctx, pos.ID, update.Price)
	}

	switch {
	case update.Price <= pos.StopLoss:
		_ = a.executeSell(ctx, pos.Token, "Stop-loss triggered")
	case update.Price >= pos.TakeProfit:
		_ = a.executeSell(ctx, pos.Token, "Take-profit triggered")
	case a.holdTimeExceeded(pos):
		_ = a.executeSell(ctx, pos.Token, "Max hold time reached")
	}
}

func (a *Agent) holdTimeExceeded(pos *models.Position) bool {
	for _, s := range a.strategies {
		if s.Name == pos.Strategy {
			return time.Since(pos.EntryTime) >= s.ExitConditions.MaxHoldTime
		}
	}
	return false
}

// PollPrices re-evaluates every open position's triggers against a
// freshly-fetched price (spec §4.8 "Fallback polling loop runs every
// 30s when the stream is silent"). Callers — normally the coordinator
// — drive this on a timer; Trader does not start its own.
func (a *Agent) PollPrices(ctx context.Context) {
	if a.chain == nil {
		return
	}
	a.mu.Lock()
	tokens := make([]string, 0, len(a.positions))
	pools := make(map[string]string, len(a.positions))
	for token, pos := range a.positions {
		tokens = append(tokens, token)
		pools[token] = pos.PoolAddress
	}
	a.mu.Unlock()

	for _, token := range tokens {
		pool, err := a.chain.GetLPPool(ctx, pools[token])
		if err != nil {
			continue
		}
		price := 0.0
		if pool.LiquiditySol > 0 {
			price, _ = decimal.NewFromFloat(pool.LiquiditySol).Div(decimal.NewFromFloat(2)).Float64()
		}
		a.HandlePriceUpdate(ctx, ports.PriceUpdate{
			PoolAddress:  pools[token],
			TokenAddress: token,
			Price:        price,
			LiquiditySol: pool.LiquiditySol,
			Timestamp:    time.Now(),
		})
	}
}

// emergencyExitTokens sells every open position in tokens with reason,
// ignoring tokens with no open position (spec §4.8 "Emergency exit: on
// alert.scammer (by wallet linkage) or alert.high_risk_token (by
// token), sell all matching positions").
func (a *Agent) emergencyExitTokens(ctx context.Context, tokens []string, reason string) {
	for _, token := range tokens {
		a.mu.Lock()
		_, open := a.positions[token]
		a.mu.Unlock()
		if !open {
			continue
		}
		if err := a.executeSell(ctx, token, reason); err != nil {
			a.Think(models.ThoughtReflection, fmt.Sprintf("emergency exit failed for %s: %v", token, err), nil)
		}
	}
}

// ActivePositions returns a snapshot of every open position.
func (a *Agent) ActivePositions() []models.Position {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.Position, 0, len(a.positions))
	for _, p := range a.positions {
		out = append(out, *p)
	}
	return out
}

// Stats summarises Trader's trading activity.
type Stats struct {
	WalletBalance   float64
	OpenPositions   int
	DailyTradeCount int
	WinCount        int
	LossCount       int
}

// Stats returns a snapshot of Trader's counters.
func (a *Agent) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Stats{
		WalletBalance:   a.walletBalance,
		OpenPositions:   len(a.positions),
		DailyTradeCount: a.dailyTradeCount,
		WinCount:        a.winCount,
		LossCount:       a.lossCount,
	}
}
