package llmadapter

import "testing"

func TestParseReasonResponse_WithAction(t *testing.T) {
	content := "The token has low liquidity and a new creator wallet.\nACTION: flag_suspicious\nCONFIDENCE: 0.82"
	result := parseReasonResponse(content)

	if result.Action == nil || result.Action.Tool != "flag_suspicious" {
		t.Fatalf("expected action flag_suspicious, got %+v", result.Action)
	}
	if result.Confidence != 0.82 {
		t.Errorf("expected confidence 0.82, got %v", result.Confidence)
	}
	if result.Thought == "" {
		t.Error("expected non-empty thought")
	}
}

func TestParseReasonResponse_NoAction(t *testing.T) {
	content := "Nothing suspicious here, no action needed."
	result := parseReasonResponse(content)

	if result.Action != nil {
		t.Errorf("expected nil action, got %+v", result.Action)
	}
	if result.Confidence != 0.5 {
		t.Errorf("expected default confidence 0.5, got %v", result.Confidence)
	}
}

func TestParseReasonResponse_ActionNone(t *testing.T) {
	result := parseReasonResponse("ACTION: none\nCONFIDENCE: 0.3")
	if result.Action != nil {
		t.Errorf("expected ACTION: none to produce nil action, got %+v", result.Action)
	}
}
