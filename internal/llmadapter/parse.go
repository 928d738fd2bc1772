package llmadapter

import (
	"strconv"
	"strings"

	"github.com/argusmesh/agentmesh/internal/ports"
)

// parseReasonResponse extracts an optional "ACTION: <tool>" and
// "CONFIDENCE: <0..1>" line from a free-text completion, leaving the
// remainder as the thought. Absence of an ACTION line means the model
// chose not to act this step — a valid, expected outcome of a ReAct
// iteration, not a parse failure.
func parseReasonResponse(content string) ports.ReasonResult {
	lines := strings.Split(content, "\n")
	result := ports.ReasonResult{Confidence: 0.5}

	var thoughtLines []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(strings.ToUpper(trimmed), "ACTION:"):
			tool := strings.TrimSpace(trimmed[len("ACTION:"):])
			if tool != "" && !strings.EqualFold(tool, "none") {
				result.Action = &ports.AgentAction{Tool: tool, Args: map[string]interface{}{}}
			}
		case strings.HasPrefix(strings.ToUpper(trimmed), "CONFIDENCE:"):
			raw := strings.TrimSpace(trimmed[len("CONFIDENCE:"):])
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				result.Confidence = v
			}
		default:
			thoughtLines = append(thoughtLines, line)
		}
	}

	result.Thought = strings.TrimSpace(strings.Join(thoughtLines, "\n"))
	if result.Thought == "" {
		result.Thought = strings.TrimSpace(content)
	}
	return result
}
