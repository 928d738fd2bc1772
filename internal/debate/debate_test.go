package debate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/argusmesh/agentmesh/internal/debate"
	"github.com/argusmesh/agentmesh/internal/models"
	"github.com/argusmesh/agentmesh/internal/ports"
)

type fakeDebater struct {
	name       string
	reply      string
	confidence float64
	err        error
}

func (f fakeDebater) Name() string { return f.name }
func (f fakeDebater) Reason(ctx context.Context, prompt string) (ports.ReasonResult, error) {
	if f.err != nil {
		return ports.ReasonResult{}, f.err
	}
	return ports.ReasonResult{Thought: f.reply, Confidence: f.confidence}, nil
}

func buyProposal(amount float64) models.Proposal {
	return models.Proposal{ID: "p1", Agent: "trader-1", Action: models.ActionBuy, Target: "tok1", Amount: &amount, Reasoning: "momentum entry", Confidence: 0.8}
}

func TestShouldDebate_BuyAboveThreshold(t *testing.T) {
	if !debate.ShouldDebate(buyProposal(1.0), 0.5) {
		t.Error("expected a buy above the size threshold to trigger a debate")
	}
	if debate.ShouldDebate(buyProposal(0.1), 0.5) {
		t.Error("expected a buy below the size threshold to skip debate")
	}
}

func TestShouldDebate_EmergencySell(t *testing.T) {
	sell := models.Proposal{Action: models.ActionSell, Reasoning: "Emergency exit - scammer detected"}
	if !debate.ShouldDebate(sell, 0.5) {
		t.Error("expected an emergency sell to trigger a debate")
	}
}

func TestProtocol_Run_ApprovesOnStrongConsensus(t *testing.T) {
	p := debate.New()
	participants := []debate.Debater{
		fakeDebater{name: "a1", reply: "I APPROVE this entry, liquidity looks solid", confidence: 0.9},
		fakeDebater{name: "a2", reply: "I also APPROVE given the momentum", confidence: 0.8},
	}

	result := p.Run(context.Background(), buyProposal(1.0), participants)
	if result.Decision != models.DecisionApproved {
		t.Errorf("expected APPROVED, got %s (confidence %.2f)", result.Decision, result.Confidence)
	}
	if len(result.Arguments) != 2 || len(result.Votes) != 2 {
		t.Errorf("expected 2 arguments and 2 votes, got %d/%d", len(result.Arguments), len(result.Votes))
	}
}

func TestProtocol_Run_RejectsOnUnanimousReject(t *testing.T) {
	p := debate.New()
	participants := []debate.Debater{
		fakeDebater{name: "a1", reply: "I REJECT, too risky", confidence: 0.9},
		fakeDebater{name: "a2", reply: "I REJECT as well", confidence: 0.9},
	}

	result := p.Run(context.Background(), buyProposal(1.0), participants)
	if result.Decision != models.DecisionRejected {
		t.Errorf("expected REJECTED, got %s", result.Decision)
	}
}

func TestProtocol_Run_AutoApprovesWithNoReasoner(t *testing.T) {
	p := debate.New()
	participants := []debate.Debater{
		fakeDebater{name: "a1", err: errors.New("no reasoner wired")},
	}

	result := p.Run(context.Background(), buyProposal(1.0), participants)
	if result.Decision != models.DecisionApproved || result.Confidence != 0.5 {
		t.Errorf("expected auto-approve at confidence 0.5, got %s/%.2f", result.Decision, result.Confidence)
	}
}

func TestProtocol_UpdateAgentSuccess_WeightsFutureVotes(t *testing.T) {
	p := debate.New()
	p.UpdateAgentSuccess("unreliable", false)
	p.UpdateAgentSuccess("unreliable", false)
	p.UpdateAgentSuccess("unreliable", false)
	p.UpdateAgentSuccess("trusted", true)
	p.UpdateAgentSuccess("trusted", true)
	p.UpdateAgentSuccess("trusted", true)

	// An even 1-approve/1-reject split would tie on a raw headcount
	// (approve share 0.5, below the 0.6 threshold, so REJECTED);
	// weighting by success history (0.744 vs 0.256) should tip the
	// synthesis toward the trusted agent's APPROVE.
	participants := []debate.Debater{
		fakeDebater{name: "unreliable", reply: "REJECT", confidence: 0.9},
		fakeDebater{name: "trusted", reply: "APPROVE", confidence: 0.9},
	}
	result := p.Run(context.Background(), buyProposal(1.0), participants)
	if result.Decision != models.DecisionApproved {
		t.Errorf("expected the trusted agent's APPROVE to outweigh the unreliable agent's REJECT, got %s (confidence %.2f)", result.Decision, result.Confidence)
	}
}

func TestProtocol_History_IsBounded(t *testing.T) {
	p := debate.New()
	participants := []debate.Debater{
		fakeDebater{name: "a1", reply: "APPROVE", confidence: 0.9},
		fakeDebater{name: "a2", reply: "APPROVE", confidence: 0.9},
	}
	for i := 0; i < 5; i++ {
		p.Run(context.Background(), buyProposal(1.0), participants)
	}
	if len(p.History(0)) != 5 {
		t.Errorf("expected 5 recorded debates, got %d", len(p.History(0)))
	}
	if len(p.History(2)) != 2 {
		t.Errorf("expected History(2) to return 2 entries, got %d", len(p.History(2)))
	}
}
