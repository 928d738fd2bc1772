// Package scout implements ScoutAgent (spec §4.5, C5): a synchronous,
// RPC-free feature extractor that scores every observed LaunchEvent
// and decides whether to flag it for investigation. Hosted on a
// runtime.BaseAgent the way the teacher hosts every cognitive loop on
// its shared agent infrastructure.
package scout

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/argusmesh/agentmesh/internal/bus"
	"github.com/argusmesh/agentmesh/internal/memory"
	"github.com/argusmesh/agentmesh/internal/models"
	"github.com/argusmesh/agentmesh/internal/runtime"
)

// FlagThreshold is the score at which a scan is flagged for
// investigation even when no rule already marked it suspicious (spec
// §4.5 "score >= flagThreshold (50)").
const FlagThreshold = 50.0

// MaxScansPerMinute bounds Scout's own throughput (spec §4.5
// "scanCount-per-minute > 30").
const MaxScansPerMinute = 30

// MinSlotInterval is the minimum slot gap Scout will process back to
// back (spec §4.5 "slot interval < 10 since last processed").
const MinSlotInterval = 10

// Counters is Scout's diagnostic state (spec §4.5 "scanCount,
// flaggedCount, lastSlot").
type Counters struct {
	ScanCount    int
	FlaggedCount int
	LastSlot     uint64
}

// FlagRate returns flaggedCount / scanCount, or 0 if nothing scanned
// yet.
func (c Counters) FlagRate() float64 {
	if c.ScanCount == 0 {
		return 0
	}
	return float64(c.FlaggedCount) / float64(c.ScanCount)
}

// Agent is a ScoutAgent instance.
type Agent struct {
	*runtime.BaseAgent

	mu       sync.Mutex
	counters Counters
	limiter  *rate.Limiter // trailing-minute scan cap (spec §4.5)
}

// New creates a Scout named name, wired to b, and subscribes it to
// agent.<name>.launch (spec §4.5 "Input: LaunchEvent pushed to
// agent.scout-*.launch").
func New(name string, b *bus.MessageBus) *Agent {
	a := &Agent{
		BaseAgent: runtime.New(name, b, memory.New(), nil),
		limiter:   rate.NewLimiter(rate.Limit(MaxScansPerMinute)/rate.Limit(60), MaxScansPerMinute),
	}
	a.SubscribeOwnAddress(func(msg models.Message) {
		if event, ok := msg.Data.(models.LaunchEvent); ok {
			a.Scan(event)
		}
	})
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

// Scan runs quickScanFromYellowstone over event and publishes the
// result, unless rate-limited (spec §4.5). Returns (ScanResult{},
// false) when refused by the rate limiter.
func (a *Agent) Scan(event models.LaunchEvent) (models.ScanResult, bool) {
	if !a.allowScan(event.Slot) {
		a.Think(models.ThoughtObservation, "scan refused: rate limit exceeded", nil)
		return models.ScanResult{}, false
	}

	result := quickScanFromYellowstone(event)

	a.mu.Lock()
	a.counters.ScanCount++
	a.counters.LastSlot = event.Slot
	if result.Suspicious || result.Score >= FlagThreshold {
		a.counters.FlaggedCount++
	}
	a.mu.Unlock()

	conf := result.Score / 100
	a.Think(models.ThoughtObservation, scanSummary(result), &conf)

	a.Bus().Publish("discovery.new", result, a.Name(), "", models.PriorityNormal)
	if result.Suspicious || result.Score >= FlagThreshold {
		liquidity := 0.0
		if event.LiquiditySol != nil {
			liquidity = *event.LiquiditySol
		}
		req := models.InvestigationRequest{
			Token:        result.Token,
			Score:        result.Score,
			Flags:        result.Flags,
			Features:     result.Features,
			Priority:     priorityForScore(result.Score),
			Source:       a.Name(),
			Timestamp:    result.Timestamp,
			PoolAddress:  event.PoolAddress,
			LiquiditySol: liquidity,
		}
		a.Bus().Publish("agent.analyst-*.investigate", req, a.Name(), "", req.Priority)
	}

	return result, true
}

func priorityForScore(score float64) models.Priority {
	switch {
	case score >= 80:
		return models.PriorityCritical
	case score >= 60:
		return models.PriorityHigh
	default:
		return models.PriorityNormal
	}
}

func scanSummary(r models.ScanResult) string {
	if r.Suspicious {
		return "flagged suspicious: " + joinFlags(r.Flags)
	}
	return "scanned, score below threshold"
}

func joinFlags(flags []string) string {
	out := ""
	for i, f := range flags {
		if i > 0 {
			out += ","
		}
		out += f
	}
	return out
}

// allowScan enforces the per-minute and per-slot rate limits (spec
// §4.5). The per-minute cap is a token-bucket (golang.org/x/time/rate)
// seeded with a full burst so an idle Scout doesn't refuse its first
// MaxScansPerMinute scans; the slot-interval check has no token-bucket
// equivalent and stays hand-rolled.
func (a *Agent) allowScan(slot uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.counters.LastSlot != 0 && slot > a.counters.LastSlot && slot-a.counters.LastSlot < MinSlotInterval {
		return false
	}

	return a.limiter.Allow()
}

// GetCounters returns a snapshot of Scout's diagnostic counters.
func (a *Agent) GetCounters() Counters {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counters
}
