package models

import "time"

// ProposalAction is the action a Proposal asks the debate to approve
// (spec §3 "Proposal").
type ProposalAction string

const (
	ActionBuy   ProposalAction = "BUY"
	ActionSell  ProposalAction = "SELL"
	ActionIgnore ProposalAction = "IGNORE"
	ActionTrack ProposalAction = "TRACK"
	ActionAlert ProposalAction = "ALERT"
)

// Proposal is a high-impact action one agent wants the swarm to
// ratify (spec §3 "Proposal").
type Proposal struct {
	ID        string
	Agent     string
	Action    ProposalAction
	Target    string
	Amount    *float64
	Reasoning string
	Confidence float64
	Context   map[string]interface{}
	Timestamp time.Time
}

func (Proposal) PayloadType() string { return "debate.request" }

// Decision is the outcome of a debate (spec §3 "DebateResult").
type Decision string

const (
	DecisionApproved Decision = "APPROVED"
	DecisionRejected Decision = "REJECTED"
	DecisionDeferred Decision = "DEFERRED"
)

// VoteChoice is one agent's ballot in the voting round (spec §4.9
// "Votes").
type VoteChoice string

const (
	VoteApprove VoteChoice = "APPROVE"
	VoteReject  VoteChoice = "REJECT"
	VoteAbstain VoteChoice = "ABSTAIN"
)

// Argument is a round-1 contribution (spec §4.9 "Arguments").
type Argument struct {
	Agent      string
	Text       string
	Confidence float64
}

// Counter is a round-2 rebuttal of a specific Argument (spec §4.9
// "Counters").
type Counter struct {
	Agent      string
	TargetAgent string
	Text       string
	Confidence float64
}

// Vote is a round-3 ballot (spec §4.9 "Votes").
type Vote struct {
	Agent      string
	Choice     VoteChoice
	Confidence float64
}

// DebateResult is the synthesised outcome of a debate (spec §3
// "DebateResult").
type DebateResult struct {
	Proposal           Proposal
	Decision           Decision
	Confidence         float64
	ConsensusReasoning string
	Arguments          []Argument
	Counters           []Counter
	Votes              []Vote
}

func (DebateResult) PayloadType() string { return "debate.result" }
