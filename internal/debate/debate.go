// Package debate implements DebateProtocol (spec §4.9, C9): a
// four-round structured argument among affected agents over a
// high-impact Proposal, synthesised into a weighted-vote DebateResult.
// Grounded in the other_examples/ debate-orchestrator's phase-numbered
// broadcast shape (Quant baseline -> presentations -> open rounds ->
// synthesis), adapted here to the swarm's fixed Arguments/Counters/
// Votes/Synthesis structure instead of an open-ended round count.
package debate

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/argusmesh/agentmesh/internal/models"
	"github.com/argusmesh/agentmesh/internal/observability"
	"github.com/argusmesh/agentmesh/internal/ports"
)

// HistoryLimit bounds the retained debate history (spec §4.9 "stored
// in history (bounded)").
const HistoryLimit = 200

// DefaultSuccessScore is the weight a never-before-seen agent starts
// with (spec §4.9 "weighting each agent by a success history score").
const DefaultSuccessScore = 0.5

// ApproveConfidenceThreshold is the synthesis tie-break (spec §4.9
// "APPROVE if overall confidence >= 0.6, else REJECTED").
const ApproveConfidenceThreshold = 0.6

// Debater is the capability a participant needs to join a debate: a
// name to attribute arguments to and a reasoning call to produce them.
// *runtime.BaseAgent satisfies this without the debate package needing
// to import any concrete agent kind.
type Debater interface {
	Name() string
	Reason(ctx context.Context, prompt string) (ports.ReasonResult, error)
}

// Protocol runs debates and tracks participants' success history
// across them.
type Protocol struct {
	mu            sync.Mutex
	history       []models.DebateResult
	successScores map[string]float64
}

// New creates an empty Protocol.
func New() *Protocol {
	return &Protocol{successScores: make(map[string]float64)}
}

// ShouldDebate reports whether proposal is high-impact enough to
// trigger a debate (spec §4.9 "shouldDebate(proposal) fires on
// high-impact actions: BUY above size threshold, emergency SELL").
func ShouldDebate(proposal models.Proposal, buySizeThreshold float64) bool {
	switch proposal.Action {
	case models.ActionBuy:
		return proposal.Amount != nil && *proposal.Amount > buySizeThreshold
	case models.ActionSell:
		return strings.Contains(strings.ToLower(proposal.Reasoning), "emergency")
	default:
		return false
	}
}

// successScore returns the tracked score for agent, defaulting
// unseen agents to DefaultSuccessScore. Caller must hold p.mu.
func (p *Protocol) successScore(agent string) float64 {
	if s, ok := p.successScores[agent]; ok {
		return s
	}
	return DefaultSuccessScore
}

// UpdateAgentSuccess adjusts agent's tracked success score with an
// exponential moving average, biased toward recent outcomes (spec
// §4.9 "maintained via updateAgentSuccess").
func (p *Protocol) UpdateAgentSuccess(agent string, succeeded bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	outcome := 0.0
	if succeeded {
		outcome = 1.0
	}
	p.successScores[agent] = 0.8*p.successScore(agent) + 0.2*outcome
}

// History returns up to limit past debate results, most recent last.
// limit <= 0 returns the full bounded history.
func (p *Protocol) History(limit int) []models.DebateResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	if limit <= 0 || limit > len(p.history) {
		limit = len(p.history)
	}
	out := make([]models.DebateResult, limit)
	copy(out, p.history[len(p.history)-limit:])
	return out
}

func (p *Protocol) record(result models.DebateResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.history = append(p.history, result)
	if len(p.history) > HistoryLimit {
		p.history = p.history[len(p.history)-HistoryLimit:]
	}
}

// autoApprove is the no-LLM fallback (spec §4.9 "When no LLM is
// available, the coordinator auto-approves with confidence 0.5").
func autoApprove(proposal models.Proposal) models.DebateResult {
	return models.DebateResult{
		Proposal:           proposal,
		Decision:           models.DecisionApproved,
		Confidence:         0.5,
		ConsensusReasoning: "no reasoning backend available; auto-approved",
	}
}

// Run drives the four fixed rounds over participants (spec §4.9
// "Arguments -> Counters -> Votes -> Synthesis"). participants must
// number at least 2; Run still executes with fewer but the result is
// weaker evidence of consensus. If any participant's round-1 reasoning
// call fails (for example, no reasoner wired), the whole debate
// short-circuits to autoApprove rather than producing a synthesis from
// an incomplete round.
func (p *Protocol) Run(ctx context.Context, proposal models.Proposal, participants []Debater) models.DebateResult {
	ctx, span := observability.StartSpan(ctx, "debate.run")
	defer span.End()

	if len(participants) == 0 {
		result := autoApprove(proposal)
		p.record(result)
		return result
	}

	arguments, ok := p.collectArguments(ctx, proposal, participants)
	if !ok {
		result := autoApprove(proposal)
		p.record(result)
		return result
	}

	counters := p.collectCounters(ctx, proposal, participants, arguments)
	votes := p.collectVotes(ctx, proposal, participants, arguments, counters)

	result := p.synthesize(proposal, arguments, counters, votes)
	p.record(result)
	return result
}

// collectArguments runs round 1 (spec §4.9 "sample affected agents for
// a one-paragraph argument with a confidence weight"). ok is false if
// no reasoning backend was available for any participant.
func (p *Protocol) collectArguments(ctx context.Context, proposal models.Proposal, participants []Debater) ([]models.Argument, bool) {
	var arguments []models.Argument
	for _, d := range participants {
		prompt := fmt.Sprintf("Proposal: %s %s (confidence %.2f, reasoning: %s). State your argument for or against in one paragraph.",
			proposal.Action, proposal.Target, proposal.Confidence, proposal.Reasoning)
		result, err := d.Reason(ctx, prompt)
		if err != nil {
			return nil, false
		}
		arguments = append(arguments, models.Argument{
			Agent:      d.Name(),
			Text:       result.Thought,
			Confidence: result.Confidence,
		})
	}
	return arguments, true
}

// collectCounters runs round 2: every participant rebuts at least one
// peer's argument (spec §4.9 "Counters").
func (p *Protocol) collectCounters(ctx context.Context, proposal models.Proposal, participants []Debater, arguments []models.Argument) []models.Counter {
	var counters []models.Counter
	for i, d := range participants {
		target := arguments[(i+1)%len(arguments)]
		if target.Agent == d.Name() && len(arguments) > 1 {
			target = arguments[(i+2)%len(arguments)]
		}
		prompt := fmt.Sprintf("%s argued: %q. Give a one-paragraph counter-argument.", target.Agent, target.Text)
		result, err := d.Reason(ctx, prompt)
		if err != nil {
			continue
		}
		counters = append(counters, models.Counter{
			Agent:       d.Name(),
			TargetAgent: target.Agent,
			Text:        result.Thought,
			Confidence:  result.Confidence,
		})
	}
	return counters
}

// collectVotes runs round 3 (spec §4.9 "each votes APPROVE | REJECT |
// ABSTAIN with confidence").
func (p *Protocol) collectVotes(ctx context.Context, proposal models.Proposal, participants []Debater, arguments []models.Argument, counters []models.Counter) []models.Vote {
	var votes []models.Vote
	for _, d := range participants {
		prompt := fmt.Sprintf("Given the arguments and counters on %s %s, vote APPROVE, REJECT, or ABSTAIN.", proposal.Action, proposal.Target)
		result, err := d.Reason(ctx, prompt)
		if err != nil {
			votes = append(votes, models.Vote{Agent: d.Name(), Choice: models.VoteAbstain, Confidence: 0})
			continue
		}
		votes = append(votes, models.Vote{
			Agent:      d.Name(),
			Choice:     parseVoteChoice(result.Thought),
			Confidence: result.Confidence,
		})
	}
	return votes
}

// parseVoteChoice extracts a VoteChoice from free-form reasoning text,
// defaulting to ABSTAIN when no keyword is found.
func parseVoteChoice(text string) models.VoteChoice {
	upper := strings.ToUpper(text)
	switch {
	case strings.Contains(upper, "APPROVE"):
		return models.VoteApprove
	case strings.Contains(upper, "REJECT"):
		return models.VoteReject
	default:
		return models.VoteAbstain
	}
}

// synthesize runs round 4: a success-history-weighted vote tally with
// a confidence tie-break (spec §4.9 "Synthesis").
func (p *Protocol) synthesize(proposal models.Proposal, arguments []models.Argument, counters []models.Counter, votes []models.Vote) models.DebateResult {
	p.mu.Lock()
	var approveWeight, rejectWeight float64
	for _, v := range votes {
		weight := p.successScore(v.Agent) * v.Confidence
		switch v.Choice {
		case models.VoteApprove:
			approveWeight += weight
		case models.VoteReject:
			rejectWeight += weight
		}
	}
	p.mu.Unlock()

	// ABSTAIN carries no weight either way; a debate with nothing but
	// abstentions falls to the conservative default (REJECTED, 0).
	var overallConfidence float64
	if cast := approveWeight + rejectWeight; cast > 0 {
		overallConfidence = approveWeight / cast
	}

	decision := models.DecisionRejected
	reasoning := fmt.Sprintf("weighted approve share %.2f below threshold %.2f", overallConfidence, ApproveConfidenceThreshold)
	if overallConfidence >= ApproveConfidenceThreshold {
		decision = models.DecisionApproved
		reasoning = fmt.Sprintf("weighted approve share %.2f met threshold %.2f", overallConfidence, ApproveConfidenceThreshold)
	}

	return models.DebateResult{
		Proposal:           proposal,
		Decision:           decision,
		Confidence:         overallConfidence,
		ConsensusReasoning: reasoning,
		Arguments:          arguments,
		Counters:           counters,
		Votes:              votes,
	}
}
