package models

import "time"

// Verdict is the Analyst's final classification of a token (spec §3
// "InvestigationReport").
type Verdict string

const (
	VerdictSafe       Verdict = "SAFE"
	VerdictSuspicious Verdict = "SUSPICIOUS"
	VerdictDangerous  Verdict = "DANGEROUS"
	VerdictScam       Verdict = "SCAM"
)

// VerdictForScore applies the spec's fixed score thresholds
// (spec §3, §8 invariant: "s<40 SAFE; 40<=s<60 SUSPICIOUS; 60<=s<80
// DANGEROUS; s>=80 SCAM").
func VerdictForScore(score float64) Verdict {
	switch {
	case score < 40:
		return VerdictSafe
	case score < 60:
		return VerdictSuspicious
	case score < 80:
		return VerdictDangerous
	default:
		return VerdictScam
	}
}

// Severity is the weight class of an investigation Finding.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Finding is one piece of evidence accumulated during an
// investigation.
type Finding struct {
	Code        string
	Severity    Severity
	Description string
	ScoreDelta  float64
}

// InvestigationRequest is enqueued on an Analyst by Scout or the
// coordinator (spec §3 "InvestigationRequest"). PoolAddress and
// LiquiditySol carry Scout's raw launch-event observations forward so
// a downstream trade opportunity doesn't have to reverse-engineer them
// from the feature vector (supplemented field, spec §3 unchanged in
// meaning for the named fields).
type InvestigationRequest struct {
	Token         string
	Score         float64
	Flags         []string
	Features      FeatureVector
	SimilarTokens []SimilarToken
	Priority      Priority
	Source        string
	Timestamp     time.Time
	PoolAddress   string
	LiquiditySol  float64
}

func (InvestigationRequest) PayloadType() string { return "analyst.investigate" }

// SimilarToken links an investigation request to a previously seen
// token judged similar by the upstream caller.
type SimilarToken struct {
	Token   string
	Verdict Verdict
}

// BundleAnalysis summarises coordinated-holder detection (spec §4.6
// step 2).
type BundleAnalysis struct {
	Detected       bool
	BundleCount    int
	ControlPercent float64
}

// InvestigationReport is the Analyst's conclusion for one token (spec
// §3 "InvestigationReport").
type InvestigationReport struct {
	Token          string
	Verdict        Verdict
	Confidence     float64
	Score          float64
	Summary        string
	Findings       []Finding
	BundleAnalysis *BundleAnalysis
	Recommendation string
	CreatorWallet  string
	Timestamp      time.Time
}

// RecommendationForVerdict produces the fixed advisory text a report
// carries forward to Hunter/Trader hand-off (spec §8 seed test 1:
// "recommendation mentions AVOID" for a SCAM verdict).
func RecommendationForVerdict(v Verdict) string {
	switch v {
	case VerdictScam:
		return "AVOID: confirmed scam pattern, do not enter a position"
	case VerdictDangerous:
		return "AVOID: high-risk findings outweigh any entry signal"
	case VerdictSuspicious:
		return "CAUTION: elevated risk, re-check before entry"
	default:
		return "CLEAR: no disqualifying findings"
	}
}

func (InvestigationReport) PayloadType() string { return "analyst.investigation_complete" }

// TradeOpportunity bundles an Analyst's verdict with the liquidity and
// pool context Trader needs to evaluate an entry (spec §4.6
// "recommendAction ... opportunity to a trader if SAFE and score <
// 30"; spec §4.8 "evaluateOpportunity(token, analysis)" names the
// shape of "analysis" without fixing it — this is that contract).
type TradeOpportunity struct {
	Token        string
	Report       InvestigationReport
	PoolAddress  string
	LiquiditySol float64
	Timestamp    time.Time
}

func (TradeOpportunity) PayloadType() string { return "agent.trader.opportunity" }
