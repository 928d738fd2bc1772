// Package hunter implements HunterAgent (spec §4.7, C7): tracks
// scammer profiles, a bounded watchlist, and an undirected wallet
// network used to classify coordinated behaviour.
package hunter

import (
	"context"
	"log"
	"sync"

	"github.com/argusmesh/agentmesh/internal/bus"
	"github.com/argusmesh/agentmesh/internal/memory"
	"github.com/argusmesh/agentmesh/internal/models"
	"github.com/argusmesh/agentmesh/internal/ports"
	"github.com/argusmesh/agentmesh/internal/runtime"
)

// MaxWatchlistSize bounds the watchlist set (spec §4.7
// "maxWatchlistSize = 1000").
const MaxWatchlistSize = 1000

// MinConfidenceForAlert is the floor for broadcasting a pattern alert
// (spec §4.7 "minConfidenceForAlert = 0.7").
const MinConfidenceForAlert = 0.7

// MaxNetworkDepth bounds walletNetwork traversal (spec §4.7
// "maxNetworkDepth = 3 when traversing").
const MaxNetworkDepth = 3

// RepeatOffenderResult is the result of checkRepeatOffender (spec
// §4.7).
type RepeatOffenderResult struct {
	IsRepeat bool
	RugCount int
	Profile  models.ScammerProfile
}

// Agent is a HunterAgent instance.
type Agent struct {
	*runtime.BaseAgent

	mu              sync.RWMutex
	scammerProfiles map[string]*models.ScammerProfile
	watchlist       map[string]struct{}
	walletNetwork   map[string]map[string]struct{}
	store           ports.ScammerStore
}

// New creates a Hunter named name.
func New(name string, b *bus.MessageBus) *Agent {
	a := &Agent{
		BaseAgent:       runtime.New(name, b, memory.New(), nil),
		scammerProfiles: make(map[string]*models.ScammerProfile),
		watchlist:       make(map[string]struct{}),
		walletNetwork:   make(map[string]map[string]struct{}),
	}
	a.SubscribeTopic("agent.hunter-*.track_scammer", func(msg models.Message) {
		if report, ok := msg.Data.(models.InvestigationReport); ok {
			a.TrackScammer(report.Token, report)
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

// WithStore attaches a persistence backend for scammer profiles. When
// unset, profiles live only in the in-process map (spec §6 C13's
// default-in-memory fallback).
func (a *Agent) WithStore(store ports.ScammerStore) *Agent {
	a.store = store
	return a
}

// LoadFromStore hydrates scammerProfiles from the attached store, if
// any. Intended to run once at startup before the agent begins
// consuming investigation reports.
func (a *Agent) LoadFromStore(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	profiles, err := a.store.All(ctx)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range profiles {
		p := profiles[i]
		a.scammerProfiles[p.Wallet] = &p
	}
	return nil
}

// persist upserts profile to the attached store, if any, logging
// rather than failing on error since the in-memory copy remains the
// source of truth for the running agent.
func (a *Agent) persist(profile models.ScammerProfile) {
	if a.store == nil {
		return
	}
	go func() {
		if err := a.store.Upsert(context.Background(), profile); err != nil {
			log.Printf("[hunter] scammer profile persist failed for %s: %v", profile.Wallet, err)
		}
	}()
}

// CheckRepeatOffender reports whether wallet has a known rug history
// (spec §4.7 "checkRepeatOffender(wallet)").
func (a *Agent) CheckRepeatOffender(wallet string) RepeatOffenderResult {
	a.mu.RLock()
	defer a.mu.RUnlock()

	profile, ok := a.scammerProfiles[wallet]
	if !ok {
		return RepeatOffenderResult{}
	}
	return RepeatOffenderResult{
		IsRepeat: profile.RugCount() > 0,
		RugCount: profile.RugCount(),
		Profile:  *profile,
	}
}

// AddToNetwork links wallets a and b symmetrically (spec §4.7
// "addToNetwork(a, b) -- add each to the other's adjacency set").
func (a *Agent) AddToNetwork(walletA, walletB string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.walletNetwork[walletA] == nil {
		a.walletNetwork[walletA] = make(map[string]struct{})
	}
	if a.walletNetwork[walletB] == nil {
		a.walletNetwork[walletB] = make(map[string]struct{})
	}
	a.walletNetwork[walletA][walletB] = struct{}{}
	a.walletNetwork[walletB][walletA] = struct{}{}
}

// NetworkNeighbors returns every wallet reachable from wallet within
// maxDepth hops, capped at MaxNetworkDepth regardless of the requested
// depth (spec §4.7 "maxNetworkDepth = 3 when traversing").
func (a *Agent) NetworkNeighbors(wallet string, maxDepth int) []string {
	if maxDepth > MaxNetworkDepth {
		maxDepth = MaxNetworkDepth
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	visited := map[string]struct{}{wallet: {}}
	frontier := []string{wallet}
	for depth := 0; depth < maxDepth; depth++ {
		var next []string
		for _, w := range frontier {
			for neighbor := range a.walletNetwork[w] {
				if _, seen := visited[neighbor]; !seen {
					visited[neighbor] = struct{}{}
					next = append(next, neighbor)
				}
			}
		}
		frontier = next
	}

	delete(visited, wallet)
	out := make([]string, 0, len(visited))
	for w := range visited {
		out = append(out, w)
	}
	return out
}

// AddToWatchlist adds wallet to the watchlist, silently refusing once
// MaxWatchlistSize is reached.
func (a *Agent) AddToWatchlist(wallet string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, already := a.watchlist[wallet]; already {
		return true
	}
	if len(a.watchlist) >= MaxWatchlistSize {
		return false
	}
	a.watchlist[wallet] = struct{}{}
	return true
}

// WatchlistSize reports the current watchlist occupancy.
func (a *Agent) WatchlistSize() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.watchlist)
}

// IsWatched reports whether wallet is on the watchlist.
func (a *Agent) IsWatched(wallet string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.watchlist[wallet]
	return ok
}

// DetectPattern classifies wallet's behaviour from its profile (spec
// §4.7 "detectPattern(wallet, profile)").
func (a *Agent) DetectPattern(wallet string, profile models.ScammerProfile) PatternResult {
	return detectPattern(wallet, profile)
}

// TrackScammer folds an analyst's report into wallet over a
// ScammerProfile, creating it if absent. Mutations are monotonic:
// LastSeen only advances, RuggedTokens only grows (spec §4.7
// "trackScammer(token, report)").
func (a *Agent) TrackScammer(token string, report models.InvestigationReport) *models.ScammerProfile {
	wallet := creatorWalletOf(report)
	if wallet == "" {
		wallet = token
	}

	a.mu.Lock()
	profile, ok := a.scammerProfiles[wallet]
	if !ok {
		profile = &models.ScammerProfile{
			Wallet:    wallet,
			FirstSeen: report.Timestamp,
			LastSeen:  report.Timestamp,
		}
		a.scammerProfiles[wallet] = profile
	}

	profile.AdvanceLastSeen(report.Timestamp)
	profile.Confidence = report.Confidence / 100

	if report.Verdict == models.VerdictScam {
		profile.AddRuggedTokenIfAbsent(token)
	}

	found := false
	for _, t := range profile.Tokens {
		if t == token {
			found = true
			break
		}
	}
	if !found {
		profile.Tokens = append(profile.Tokens, token)
	}

	pattern := detectPattern(wallet, *profile)
	profile.Pattern = pattern.Pattern
	profile.Evidence = pattern.Evidence

	snapshot := *profile
	a.mu.Unlock()

	if pattern.Confidence >= MinConfidenceForAlert {
		a.Bus().BroadcastAlert("scammer", snapshot, a.Name())
	}

	a.persist(snapshot)
	return profile
}

func creatorWalletOf(report models.InvestigationReport) string {
	return report.CreatorWallet
}

// GetProfile returns a wallet's ScammerProfile, if tracked.
func (a *Agent) GetProfile(wallet string) (models.ScammerProfile, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	p, ok := a.scammerProfiles[wallet]
	if !ok {
		return models.ScammerProfile{}, false
	}
	return *p, true
}
