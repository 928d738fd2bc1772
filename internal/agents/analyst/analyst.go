// Package analyst implements AnalystAgent (spec §4.6, C6): a
// priority-queued investigator that accumulates findings from token
// data, bundle analysis, holder concentration, creator history, flag
// replay, and similarity matching into a single verdict.
package analyst

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/argusmesh/agentmesh/internal/bus"
	"github.com/argusmesh/agentmesh/internal/memory"
	"github.com/argusmesh/agentmesh/internal/models"
	"github.com/argusmesh/agentmesh/internal/observability"
	"github.com/argusmesh/agentmesh/internal/ports"
	"github.com/argusmesh/agentmesh/internal/runtime"
)

// pollInterval is how often the idle main loop checks for newly
// queued work (spec §4.6 main loop step 2: "otherwise yield").
const pollInterval = 20 * time.Millisecond

// QueueLimit bounds the investigation backlog (spec §5 "Analyst's
// queue is bounded to 50; additional requests are dropped with a
// log").
const QueueLimit = 50

// BundleBucketWidth groups non-LP holders into 0.1% concentration
// buckets (spec §4.6 step 2).
const BundleBucketWidth = 0.1

// BundleMinWallets is the minimum bucket occupancy to call it a bundle
// (spec §4.6 step 2: "buckets with >= 3 wallets").
const BundleMinWallets = 3

// Agent is an AnalystAgent instance.
type Agent struct {
	*runtime.BaseAgent

	chain ports.ChainClient // optional; nil degrades RPC steps to no-ops

	mu            sync.Mutex
	queue         []models.InvestigationRequest
	completed     map[string]models.InvestigationReport
	scammerDB     map[string]int // wallet -> known rug count
	investigating bool
}

// New creates an Analyst named name. chain may be nil, in which case
// the token-data RPC step is skipped and investigations proceed on
// the request's own data alone.
func New(name string, b *bus.MessageBus, chain ports.ChainClient) *Agent {
	a := &Agent{
		BaseAgent: runtime.New(name, b, memory.New(), nil),
		chain:     chain,
		completed: make(map[string]models.InvestigationReport),
		scammerDB: make(map[string]int),
	}
	a.SubscribeTopic("agent.analyst-*.investigate", func(msg models.Message) {
		if req, ok := msg.Data.(models.InvestigationRequest); ok {
			a.Enqueue(req)
		}
	})
	return a
}

// Start launches Analyst's main loop as its own cooperative task
// (spec §4.6): drain the priority queue one request at a time while
// there's work and the agent is idle, otherwise yield until the next
// poll tick. The loop exits when ctx is cancelled or Stop() flips
// running false. The coordinator calls this once at startup; tests
// that drive RunOnce directly skip it.
func (a *Agent) Start(ctx context.Context) {
	go a.loop(ctx)
}

func (a *Agent) loop(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for a.IsRunning() {
		if a.RunOnce(ctx) {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// WithReasoner swaps in an LLM-backed (or other) reasoning strategy in
// place of the nil reasoner wired by New, with which Reason returns an
// error (spec §4.4 "both sit
// behind one Reasoner interface").
func (a *Agent) WithReasoner(r runtime.Reasoner) *Agent {
	a.SetReasoner(r)
	return a
}

// Enqueue adds req to the investigation backlog, dropping it with a
// log line if the queue is already at capacity.
func (a *Agent) Enqueue(req models.InvestigationRequest) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.queue) >= QueueLimit {
		log.Printf("[analyst] queue full (%d), dropping investigation for %s", QueueLimit, req.Token)
		return false
	}
	a.queue = append(a.queue, req)
	return true
}

func priorityRank(p models.Priority) int {
	switch p {
	case models.PriorityCritical:
		return 0
	case models.PriorityHigh:
		return 1
	case models.PriorityNormal:
		return 2
	case models.PriorityLow:
		return 3
	default:
		return 2
	}
}

// popNext sorts the queue by priority and removes the head, marking
// the agent busy (spec §4.6 main loop step 1).
func (a *Agent) popNext() (models.InvestigationRequest, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.investigating || len(a.queue) == 0 {
		return models.InvestigationRequest{}, false
	}

	sort.SliceStable(a.queue, func(i, j int) bool {
		return priorityRank(a.queue[i].Priority) < priorityRank(a.queue[j].Priority)
	})

	req := a.queue[0]
	a.queue = a.queue[1:]
	a.investigating = true
	return req, true
}

func (a *Agent) finishInvestigating() {
	a.mu.Lock()
	a.investigating = false
	a.mu.Unlock()
}

// RunOnce pops and investigates the next queued request, if idle and
// non-empty (spec §4.6 main loop). Returns false when there was
// nothing to do.
func (a *Agent) RunOnce(ctx context.Context) bool {
	req, ok := a.popNext()
	if !ok {
		return false
	}
	defer a.finishInvestigating()

	report := a.Investigate(ctx, req)
	a.recommendAction(req, report)
	return true
}

// Investigate runs the six investigation steps over req, accumulating
// findings and score, and returns the resulting report (spec §4.6).
func (a *Agent) Investigate(ctx context.Context, req models.InvestigationRequest) models.InvestigationReport {
	ctx, span := observability.StartSpan(ctx, "analyst.investigate")
	defer span.End()

	var findings []models.Finding
	totalScore := req.Score
	var bundleAnalysis *models.BundleAnalysis

	addFinding := func(f models.Finding) {
		findings = append(findings, f)
		totalScore += f.ScoreDelta
	}

	// Step 1: token data (RPC), degrades gracefully without a client.
	var tokenData ports.TokenData
	var holders []ports.HolderInfo
	var creatorWallet string
	if a.chain != nil {
		if td, err := a.chain.GetTokenData(ctx, req.Token); err == nil {
			tokenData = td
		}
		if h, err := a.chain.GetHolders(ctx, req.Token); err == nil {
			holders = h
		}
		if creator, err := a.chain.GetTokenCreator(ctx, req.Token); err == nil {
			creatorWallet = creator
		}
	}
	a.Think(models.ThoughtObservation, fmt.Sprintf("token data gathered for %s (%d holders)", req.Token, len(holders)), nil)

	// Step 2: bundle analysis.
	if ba := analyzeBundles(holders); ba.Detected {
		bundleAnalysis = &ba
		switch {
		case ba.ControlPercent > 30:
			addFinding(models.Finding{Code: "BUNDLE_CRITICAL", Severity: models.SeverityCritical, Description: "coordinated bundle controls >30% of supply", ScoreDelta: 20})
		case ba.ControlPercent > 15:
			addFinding(models.Finding{Code: "BUNDLE_HIGH", Severity: models.SeverityHigh, Description: "coordinated bundle controls >15% of supply", ScoreDelta: 10})
		}
	} else if len(holders) > 0 {
		bundleAnalysis = &ba
	}

	// Step 3: holder analysis (Gini + top-10 concentration).
	if len(holders) > 0 {
		percents := make([]float64, len(holders))
		for i, h := range holders {
			percents[i] = h.Percent
		}
		gini := giniCoefficient(percents)
		topWhale := topPercent(holders, 1)
		top10 := topPercent(holders, 10)
		a.Think(models.ThoughtObservation, fmt.Sprintf("gini=%.3f top1=%.1f%% top10=%.1f%%", gini, topWhale, top10), nil)
		if topWhale > 50 {
			addFinding(models.Finding{Code: "WHALE_DOMINANCE", Severity: models.SeverityCritical, Description: "single holder controls >50% of supply", ScoreDelta: 15})
		}
	}

	// Step 4: creator history.
	creator := creatorWallet
	if creator == "" {
		creator = tokenData.Creator
	}
	if creator != "" {
		a.mu.Lock()
		rugCount := a.scammerDB[creator]
		a.mu.Unlock()
		if rugCount > 0 {
			addFinding(models.Finding{Code: "CREATOR_RUG_HISTORY", Severity: models.SeverityCritical, Description: "creator has a prior rug history", ScoreDelta: 40})
		}
	}

	// Step 5: flag replay.
	for _, flag := range req.Flags {
		if f, ok := flagFinding(flag); ok {
			addFinding(f)
		}
	}

	// Step 6: similarity match.
	for _, sim := range req.SimilarTokens {
		if sim.Verdict == models.VerdictScam {
			addFinding(models.Finding{Code: "SIMILAR_TO_SCAM", Severity: models.SeverityHigh, Description: "similar to a previously confirmed scam token", ScoreDelta: 15})
		}
	}

	if totalScore < 0 {
		totalScore = 0
	}
	if totalScore > 100 {
		totalScore = 100
	}

	verdict := models.VerdictForScore(totalScore)
	confidence := minFloat(95, 60+5*float64(len(findings)))

	report := models.InvestigationReport{
		Token:          req.Token,
		Verdict:        verdict,
		Confidence:     confidence,
		Score:          totalScore,
		Summary:        fmt.Sprintf("%d findings, verdict %s", len(findings), verdict),
		Findings:       findings,
		BundleAnalysis: bundleAnalysis,
		Recommendation: models.RecommendationForVerdict(verdict),
		CreatorWallet:  creator,
		Timestamp:      req.Timestamp,
	}

	a.mu.Lock()
	a.completed[req.Token] = report
	if report.Verdict == models.VerdictScam && creator != "" {
		a.scammerDB[creator]++
	}
	a.mu.Unlock()

	a.Memory().RecordLongTerm(models.MemoryRecord{
		Timestamp: report.Timestamp,
		Kind:      models.MemoryOutcome,
		Tags:      models.TagSet("investigation", string(verdict)),
		Payload:   report,
	}, nil)

	return report
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func topPercent(holders []ports.HolderInfo, n int) float64 {
	sorted := make([]ports.HolderInfo, len(holders))
	copy(sorted, holders)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Percent > sorted[j].Percent })
	var sum float64
	for i := 0; i < n && i < len(sorted); i++ {
		sum += sorted[i].Percent
	}
	return sum
}

// analyzeBundles groups holders into 0.1% concentration buckets and
// flags any bucket with >= 3 wallets as a coordinated bundle (spec
// §4.6 step 2).
func analyzeBundles(holders []ports.HolderInfo) models.BundleAnalysis {
	buckets := make(map[int][]ports.HolderInfo)
	for _, h := range holders {
		bucket := int(h.Percent / BundleBucketWidth)
		buckets[bucket] = append(buckets[bucket], h)
	}

	var controlPercent float64
	bundleCount := 0
	for _, members := range buckets {
		if len(members) >= BundleMinWallets {
			bundleCount++
			for _, m := range members {
				controlPercent += m.Percent
			}
		}
	}

	return models.BundleAnalysis{
		Detected:       bundleCount > 0,
		BundleCount:    bundleCount,
		ControlPercent: controlPercent,
	}
}

// flagFinding translates one inbound flag into a Finding with a fixed
// severity and score delta (spec §4.6 step 5). MINT_ACTIVE,
// FREEZE_ACTIVE and LOW_LIQUIDITY compound with the request's starting
// score; every other flag, FAST_GRADUATION included, is recorded with
// no delta.
func flagFinding(flag string) (models.Finding, bool) {
	table := map[string]models.Finding{
		"MINT_ACTIVE":          {Code: "MINT_ACTIVE", Severity: models.SeverityCritical, Description: "mint authority has not been revoked", ScoreDelta: 25},
		"FREEZE_ACTIVE":        {Code: "FREEZE_ACTIVE", Severity: models.SeverityCritical, Description: "freeze authority has not been revoked", ScoreDelta: 25},
		"LOW_LIQUIDITY":        {Code: "LOW_LIQUIDITY", Severity: models.SeverityHigh, Description: "liquidity below 1 SOL at launch", ScoreDelta: 15},
		"PUMP_MICRO":           {Code: "PUMP_MICRO", Severity: models.SeverityLow, Description: "pump.fun launch in the 1-2 SOL micro-liquidity band"},
		"RAYDIUM_ESTABLISHED":  {Code: "RAYDIUM_ESTABLISHED", Severity: models.SeverityLow, Description: "launched directly on an established Raydium pool"},
		"GRADUATED":            {Code: "GRADUATED", Severity: models.SeverityLow, Description: "graduated from pump.fun's bonding curve"},
		"FAST_GRADUATION":      {Code: "FAST_GRADUATION", Severity: models.SeverityHigh, Description: "graduated in under 5 minutes"},
		"ORGANIC_GRADUATION":   {Code: "ORGANIC_GRADUATION", Severity: models.SeverityLow, Description: "graduated after an hour or more of organic trading"},
	}
	f, ok := table[flag]
	return f, ok
}

// recommendAction dispatches the report to downstream agents (spec
// §4.6: "investigation_complete to coordinator; track_scammer to a
// hunter if SCAM/DANGEROUS; opportunity to a trader if SAFE and score
// < 30. Alerts broadcast on scammer detection.").
func (a *Agent) recommendAction(req models.InvestigationRequest, report models.InvestigationReport) {
	a.Bus().Publish("analyst.investigation_complete", report, a.Name(), "", models.PriorityNormal)

	if report.BundleAnalysis != nil && report.BundleAnalysis.Detected && report.BundleAnalysis.ControlPercent > 30 {
		a.Bus().BroadcastAlert("bundle_detected", report, a.Name())
	}

	switch report.Verdict {
	case models.VerdictScam, models.VerdictDangerous:
		a.Bus().Publish("agent.hunter-*.track_scammer", report, a.Name(), "", models.PriorityHigh)
		if report.Verdict == models.VerdictScam {
			a.Bus().BroadcastAlert("scammer", report, a.Name())
		} else {
			a.Bus().BroadcastAlert("high_risk_token", report, a.Name())
		}
	case models.VerdictSafe:
		if report.Score < 30 {
			opp := models.TradeOpportunity{
				Token:        report.Token,
				Report:       report,
				PoolAddress:  req.PoolAddress,
				LiquiditySol: req.LiquiditySol,
				Timestamp:    report.Timestamp,
			}
			a.Bus().Publish("agent.trader-*.opportunity", opp, a.Name(), "", models.PriorityNormal)
		}
	}
}

// GetReport returns a previously completed investigation, if any.
func (a *Agent) GetReport(token string) (models.InvestigationReport, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, ok := a.completed[token]
	return r, ok
}

// QueueLen reports the current backlog size, for diagnostics.
func (a *Agent) QueueLen() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.queue)
}
