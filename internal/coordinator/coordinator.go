// Package coordinator implements the Coordinator (spec §4.10, C10):
// the pool of Scout/Analyst/Hunter/Trader agents, the shared bus they
// talk over, and the periodic maintenance tasks that keep the swarm's
// learning state current. Grounded in the teacher's cognitive agent's
// ticker-select run loop, generalised from one agent's perception
// tick into three independent maintenance tickers running alongside a
// reactive agent pool.
package coordinator

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/argusmesh/agentmesh/internal/agents/analyst"
	"github.com/argusmesh/agentmesh/internal/agents/hunter"
	"github.com/argusmesh/agentmesh/internal/agents/scout"
	"github.com/argusmesh/agentmesh/internal/agents/trader"
	"github.com/argusmesh/agentmesh/internal/bus"
	"github.com/argusmesh/agentmesh/internal/config"
	"github.com/argusmesh/agentmesh/internal/debate"
	"github.com/argusmesh/agentmesh/internal/goals"
	"github.com/argusmesh/agentmesh/internal/models"
	"github.com/argusmesh/agentmesh/internal/ports"
)

// HealthCheckInterval and HealthCheckDelay govern the health monitor
// task (spec §4.10 "every 60s, first run at +30s").
const (
	HealthCheckInterval = 60 * time.Second
	HealthCheckDelay    = 30 * time.Second
)

// OutcomeCheckInterval and OutcomeCheckDelay govern the outcome
// checker task (spec §4.10 "hourly, first run at +5min").
const (
	OutcomeCheckInterval = time.Hour
	OutcomeCheckDelay    = 5 * time.Minute
)

// PredictionMaturity is how long a position must be open before the
// outcome checker classifies it (spec §4.10 "predictions older than
// 24h").
const PredictionMaturity = 24 * time.Hour

// DebateBuySizeThreshold gates which BUY proposals are worth a debate
// (spec §4.9, wired through Coordinator's debate.request subscription).
const DebateBuySizeThreshold = 0.5

// CheckWalletTimeout bounds the checkWallet manual API (spec §4.10
// "checkWallet(wallet), default timeout 5s").
const CheckWalletTimeout = 5 * time.Second

// Pools holds every agent instance the Coordinator owns.
type Pools struct {
	Scouts   []*scout.Agent
	Analysts []*analyst.Agent
	Hunters  []*hunter.Agent
	Traders  []*trader.Agent
}

// lifecycle is the subset of runtime.BaseAgent the Coordinator drives
// directly, kept narrow so it doesn't need to import runtime itself.
type lifecycle interface {
	Name() string
	IsRunning() bool
	Stop()
}

// Coordinator owns the agent pool, the shared bus, and the
// collaborators backing persistence, outcome recording, and debate
// (spec §4.10). It is the only component permitted to construct or
// tear down agents; every other cross-agent interaction happens by
// value over the Bus.
type Coordinator struct {
	bus     *bus.MessageBus
	pools   Pools
	debate  *debate.Protocol
	goals   *goals.Tracker
	chain   ports.ChainClient
	store   ports.PositionStore
	sink    ports.OutcomeSink
	cfg     *config.Config

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	started  time.Time
	checks   int
	failures int
}

// New constructs a Coordinator and its agent pools per cfg (spec
// §4.10 "instantiates configured pool sizes"). chain, store, and sink
// are all optional; a nil chain forces Analyst's on-chain checks into
// their degraded paths and Trader into simulated fills, a nil store
// skips persistence, a nil sink skips outcome recording.
func New(cfg *config.Config, b *bus.MessageBus, chain ports.ChainClient, store ports.PositionStore, sink ports.OutcomeSink) *Coordinator {
	if cfg.Scouts <= 0 {
		cfg.Scouts = 1
	}
	if cfg.Analysts <= 0 {
		cfg.Analysts = 1
	}
	if cfg.Hunters <= 0 {
		cfg.Hunters = 1
	}
	if cfg.Traders <= 0 {
		cfg.Traders = 1
	}

	c := &Coordinator{
		bus:    b,
		debate: debate.New(),
		goals:  goals.New(),
		chain:  chain,
		store:  store,
		sink:   sink,
		cfg:    cfg,
	}

	traderCfg := trader.Config{
		WalletBalance:   1.0,
		TradingEnabled:  cfg.EnableTrading,
		MaxDailyTrades:  cfg.MaxDailyTrades,
		MaxPositionSize: cfg.MaxPositionSize,
	}

	for i := 0; i < cfg.Scouts; i++ {
		name := fmt.Sprintf("scout-%d", i+1)
		c.pools.Scouts = append(c.pools.Scouts, scout.New(name, b))
		c.goals.RegisterGoal(name, models.Goal{ID: "flag_rate", Type: models.GoalSecondary, Metric: "flag_rate", Target: 0.2, Weight: 1.0, Direction: models.DirectionMaximize})
	}
	for i := 0; i < cfg.Analysts; i++ {
		name := fmt.Sprintf("analyst-%d", i+1)
		c.pools.Analysts = append(c.pools.Analysts, analyst.New(name, b, chain))
		c.goals.RegisterGoal(name, models.Goal{ID: "queue_depth", Type: models.GoalConstraint, Metric: "queue_depth", Target: 10, Weight: 1.0, Direction: models.DirectionMinimize})
	}
	for i := 0; i < cfg.Hunters; i++ {
		name := fmt.Sprintf("hunter-%d", i+1)
		c.pools.Hunters = append(c.pools.Hunters, hunter.New(name, b))
		c.goals.RegisterGoal(name, models.Goal{ID: "watchlist_size", Type: models.GoalSecondary, Metric: "watchlist_size", Target: 100, Weight: 1.0, Direction: models.DirectionMaximize})
	}
	for i := 0; i < cfg.Traders; i++ {
		name := fmt.Sprintf("trader-%d", i+1)
		a := trader.New(name, b, chain, store, traderCfg)
		if sink != nil {
			a = a.WithOutcomeSink(sink)
		}
		c.pools.Traders = append(c.pools.Traders, a)
		c.goals.RegisterGoal(name, models.Goal{ID: "win_rate", Type: models.GoalPrimary, Metric: "win_rate", Target: 0.6, Weight: 2.0, Direction: models.DirectionMaximize})
	}

	c.bus.Subscribe("debate.request", func(msg models.Message) {
		proposal, ok := msg.Data.(models.Proposal)
		if !ok || !debate.ShouldDebate(proposal, DebateBuySizeThreshold) {
			return
		}
		c.TriggerDebate(context.Background(), proposal)
	})
	c.bus.Subscribe("agent.coordinator.trade_complete", func(msg models.Message) {
		if _, ok := msg.Data.(models.Position); ok {
			c.refreshGoals()
		}
	})

	return c
}

// Start launches the analysts' investigation loops and the periodic
// maintenance goroutines (spec §4.10). The reactive agents (scout,
// hunter, trader) need no separate start step: each began listening
// the moment its constructor subscribed it to the bus. Start is
// idempotent; calling it twice is a no-op.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.running = true
	c.started = time.Now()
	c.mu.Unlock()

	c.bus.Publish("system.started", models.Opaque{Value: map[string]interface{}{
		"scouts": len(c.pools.Scouts), "analysts": len(c.pools.Analysts),
		"hunters": len(c.pools.Hunters), "traders": len(c.pools.Traders),
	}}, "coordinator", "", models.PriorityNormal)

	for _, a := range c.pools.Analysts {
		a.Start(runCtx)
	}

	c.wg.Add(3)
	go c.runTicker(runCtx, &c.wg, HealthCheckDelay, HealthCheckInterval, c.healthCheck)
	go c.runTicker(runCtx, &c.wg, OutcomeCheckDelay, OutcomeCheckInterval, c.checkOutcomes)
	go c.runTicker(runCtx, &c.wg, trader.FallbackPollInterval, trader.FallbackPollInterval, c.pollPrices)

	return nil
}

// pollPrices is the traders' fallback exit-trigger check, driven here
// so a silent price stream can't leave positions unmonitored (spec
// §4.8 "fallback polling loop runs every 30s when the stream is
// silent").
func (c *Coordinator) pollPrices(ctx context.Context) {
	for _, a := range c.pools.Traders {
		a.PollPrices(ctx)
	}
}

// runTicker fires fn once after delay, then every interval, until ctx
// is cancelled (spec §4.10's fixed delay-then-interval cadence, used
// for each of the three periodic tasks). Generalises the teacher's for-select-ticker
// run loop into a reusable one-ticker-per-task shape.
func (c *Coordinator) runTicker(ctx context.Context, wg *sync.WaitGroup, delay, interval time.Duration, fn func(context.Context)) {
	defer wg.Done()

	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			fn(ctx)
			timer.Reset(interval)
		}
	}
}

// Stop cancels every maintenance goroutine, flushes learning state,
// and stops every agent (spec §4.10 "on stop: flush learning state").
// Agent shutdown fans out concurrently via errgroup since each Stop()
// is independent and cheap but there may be many of them.
func (c *Coordinator) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = false
	cancel := c.cancel
	c.mu.Unlock()

	c.bus.Publish("system.stopping", models.Opaque{Value: nil}, "coordinator", "", models.PriorityHigh)

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()

	c.flushLearningState(ctx)

	var g errgroup.Group
	for _, a := range c.allAgents() {
		a := a
		g.Go(func() error {
			a.Stop()
			return nil
		})
	}
	return g.Wait()
}

// allAgents flattens every pool into the narrow lifecycle interface,
// used by Stop and the health monitor.
func (c *Coordinator) allAgents() []lifecycle {
	var out []lifecycle
	for _, a := range c.pools.Scouts {
		out = append(out, a)
	}
	for _, a := range c.pools.Analysts {
		out = append(out, a)
	}
	for _, a := range c.pools.Hunters {
		out = append(out, a)
	}
	for _, a := range c.pools.Traders {
		out = append(out, a)
	}
	return out
}

// healthCheck is the first periodic task: confirm every agent is
// still running and log the ones that aren't (spec §4.10 "health
// monitor: checks every agent is alive"). IsRunning reads fan out
// concurrently across the pool via errgroup since
// BaseAgent.IsRunning() takes its own lock per agent.
func (c *Coordinator) healthCheck(ctx context.Context) {
	agents := c.allAgents()
	dead := make([]string, 0)
	var mu sync.Mutex

	var g errgroup.Group
	for _, a := range agents {
		a := a
		g.Go(func() error {
			if !a.IsRunning() {
				mu.Lock()
				dead = append(dead, a.Name())
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	c.mu.Lock()
	c.checks++
	c.failures += len(dead)
	c.mu.Unlock()

	if len(dead) > 0 {
		log.Printf("[coordinator] health check: %d agent(s) not running: %v", len(dead), dead)
		c.bus.Publish("user.alert", models.UserAlert{
			Severity:  models.AlertCritical,
			Source:    "coordinator",
			Message:   fmt.Sprintf("%d agent(s) not running: %v", len(dead), dead),
			Timestamp: time.Now(),
		}, "coordinator", "", models.PriorityCritical)
	}

	c.refreshGoals()
}

// refreshGoals feeds each agent's own diagnostic counters into the
// goal tracker (spec §4.3 "updateGoal is called whenever a metric
// changes" — the health monitor is the tick that drives it for
// metrics with no more natural trigger).
func (c *Coordinator) refreshGoals() {
	for _, a := range c.pools.Scouts {
		c.goals.UpdateGoal(a.Name(), "flag_rate", a.GetCounters().FlagRate())
	}
	for _, a := range c.pools.Analysts {
		c.goals.UpdateGoal(a.Name(), "queue_depth", float64(a.QueueLen()))
	}
	for _, a := range c.pools.Hunters {
		c.goals.UpdateGoal(a.Name(), "watchlist_size", float64(a.WatchlistSize()))
	}
	for _, a := range c.pools.Traders {
		stats := a.Stats()
		total := stats.WinCount + stats.LossCount
		if total > 0 {
			c.goals.UpdateGoal(a.Name(), "win_rate", float64(stats.WinCount)/float64(total))
		}
	}
}

// Goals exposes the coordinator's per-agent goal tracker.
func (c *Coordinator) Goals() *goals.Tracker { return c.goals }

// checkOutcomes is the second periodic task: classify matured
// predictions against current market state and persist the result
// (spec §4.10 "outcome checker: classifies predictions older than 24h
// ... via market oracle, records to OutcomeSink"). The core's
// ChainClient stands in for the market oracle: a pool whose liquidity
// has collapsed reads as RUG, a price well below entry as DUMP, well
// above as MOON, otherwise STABLE.
func (c *Coordinator) checkOutcomes(ctx context.Context) {
	if c.store == nil || c.sink == nil || c.chain == nil {
		return
	}

	positions, err := c.store.GetActive(ctx)
	if err != nil {
		log.Printf("[coordinator] outcome checker: GetActive failed: %v", err)
		return
	}

	cutoff := time.Now().Add(-PredictionMaturity)
	for _, p := range positions {
		if p.EntryTime.After(cutoff) {
			continue
		}

		pool, err := c.chain.GetLPPool(ctx, p.PoolAddress)
		if err != nil {
			continue
		}

		outcome := classifyOutcome(p, pool)
		if err := c.sink.RecordOutcome(ctx, p.Token, models.VerdictSafe, outcome, time.Now()); err != nil {
			log.Printf("[coordinator] outcome checker: RecordOutcome(%s) failed: %v", p.Token, err)
		}
	}
}

// classifyOutcome buckets a matured position by how its pool fared
// relative to entry (spec §4.10 "RUG | DUMP | MOON | STABLE").
func classifyOutcome(p models.Position, pool ports.LPPoolInfo) ports.PredictionOutcome {
	switch {
	case pool.LiquiditySol < 0.01:
		return ports.OutcomeRug
	case p.EntryPrice <= 0:
		return ports.OutcomeStable
	case p.CurrentPrice <= p.EntryPrice*0.5:
		return ports.OutcomeDump
	case p.CurrentPrice >= p.EntryPrice*2:
		return ports.OutcomeMoon
	default:
		return ports.OutcomeStable
	}
}

// flushLearningState runs once at Stop (spec §4.10 "on stop: flush
// learning state"). It writes a weight of 1.0 for every agent name to
// the OutcomeSink; the debate protocol's success scores and recorded
// outcomes are not part of what it writes.
func (c *Coordinator) flushLearningState(ctx context.Context) {
	if c.sink == nil {
		return
	}
	weights := make(map[string]float64)
	for _, a := range c.allAgents() {
		weights[a.Name()] = 1.0
	}
	if err := c.sink.UpdateWeights(ctx, weights); err != nil {
		log.Printf("[coordinator] learning flush failed: %v", err)
	}
}

// AnalyzeToken is the manual analyzeToken API (spec §4.10 "manual
// APIs: analyzeToken"): it enqueues req directly on the first
// available analyst, bypassing the usual Scout-flagged path.
func (c *Coordinator) AnalyzeToken(req models.InvestigationRequest) bool {
	if len(c.pools.Analysts) == 0 {
		return false
	}
	return c.pools.Analysts[0].Enqueue(req)
}

// CheckWallet is the manual checkWallet API (spec §4.10 "checkWallet,
// default timeout 5s"): it asks the first hunter for wallet's known
// history, bounded by CheckWalletTimeout so a slow or wedged Hunter
// never blocks the caller indefinitely.
func (c *Coordinator) CheckWallet(ctx context.Context, wallet string) (hunter.RepeatOffenderResult, bool) {
	if len(c.pools.Hunters) == 0 {
		return hunter.RepeatOffenderResult{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, CheckWalletTimeout)
	defer cancel()

	type reply struct {
		result hunter.RepeatOffenderResult
	}
	ch := make(chan reply, 1)
	go func() {
		ch <- reply{result: c.pools.Hunters[0].CheckRepeatOffender(wallet)}
	}()

	select {
	case r := <-ch:
		return r.result, true
	case <-ctx.Done():
		return hunter.RepeatOffenderResult{}, false
	}
}

// TriggerDebate is the manual triggerDebate API (spec §4.10,
// §4.9): it samples affected agents from the pool and runs the
// DebateProtocol's four rounds over proposal. BUY proposals sample
// from analysts and traders (the agents with a stake in entry
// quality); everything else samples from hunters and traders.
func (c *Coordinator) TriggerDebate(ctx context.Context, proposal models.Proposal) models.DebateResult {
	var participants []debate.Debater
	if proposal.Action == models.ActionBuy {
		for _, a := range c.pools.Analysts {
			participants = append(participants, a)
		}
	} else {
		for _, a := range c.pools.Hunters {
			participants = append(participants, a)
		}
	}
	for _, a := range c.pools.Traders {
		participants = append(participants, a)
	}

	result := c.debate.Run(ctx, proposal, participants)
	c.bus.Publish("debate.result", result, "coordinator", "", models.PriorityNormal)
	return result
}

// Stats summarises coordinator-level bookkeeping, surfaced by the
// CLI's startup log.
type Stats struct {
	Uptime       time.Duration
	HealthChecks int
	DeadAgents   int
	ScoutCount   int
	AnalystCount int
	HunterCount  int
	TraderCount  int
}

// Stats returns a snapshot of the Coordinator's own bookkeeping.
func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Uptime:       time.Since(c.started),
		HealthChecks: c.checks,
		DeadAgents:   c.failures,
		ScoutCount:   len(c.pools.Scouts),
		AnalystCount: len(c.pools.Analysts),
		HunterCount:  len(c.pools.Hunters),
		TraderCount:  len(c.pools.Traders),
	}
}

// Pools exposes the constructed agent pool for callers (e.g. the CLI)
// that need direct access beyond the manual APIs above.
func (c *Coordinator) Pools() Pools { return c.pools }

// Bus exposes the shared MessageBus.
func (c *Coordinator) Bus() *bus.MessageBus { return c.bus }
