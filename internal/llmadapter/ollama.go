// Package llmadapter implements ports.LLMService against an
// Ollama-compatible chat endpoint (default model deepseek-r1:14b),
// ported from the teacher's pkg/llm/client.go — same circuit-breaker
// protected retry loop, generalized from free-text chat completion
// into the tool-choosing ReasonResult contract AgentRuntime expects.
package llmadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/argusmesh/agentmesh/internal/ports"
	"github.com/argusmesh/agentmesh/internal/resilience"
)

const (
	defaultModel   = "deepseek-r1:14b"
	defaultTimeout = 2 * time.Minute
	defaultRetries = 3
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// OllamaClient is the default LLMService adapter.
type OllamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
	maxRetries int
}

// NewOllamaClient creates a client pointed at baseURL (e.g.
// "http://127.0.0.1:11434/api"). An empty model falls back to
// deepseek-r1:14b, matching the teacher's default.
func NewOllamaClient(baseURL, model string) *OllamaClient {
	if model == "" {
		model = defaultModel
	}
	return &OllamaClient{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		breaker:    resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("llm")),
		maxRetries: defaultRetries,
	}
}

// IsAvailable reports whether the circuit breaker currently allows
// calls (spec §6 "LLMService: isAvailable").
func (c *OllamaClient) IsAvailable(ctx context.Context) bool {
	return c.breaker.State() != resilience.CircuitOpen
}

// Reason sends prompt as a single user turn and maps the model's
// reply onto ports.ReasonResult. tools are advertised in the prompt
// text as available actions; the model is expected to name one by
// Tool in its reply, or none if it has no action to take (spec §6
// "reason(prompt, tools?) -> {thought, action?, confidence}").
func (c *OllamaClient) Reason(ctx context.Context, prompt string, tools []ports.ToolSpec) (ports.ReasonResult, error) {
	fullPrompt := withToolCatalog(prompt, tools)

	var resp chatResponse
	err := c.breaker.Call(func() error {
		r, callErr := c.generateWithRetry(ctx, fullPrompt)
		if callErr != nil {
			return callErr
		}
		resp = r
		return nil
	})
	if err != nil {
		return ports.ReasonResult{}, fmt.Errorf("llm reason failed: %w", err)
	}

	return parseReasonResponse(resp.Message.Content), nil
}

func withToolCatalog(prompt string, tools []ports.ToolSpec) string {
	if len(tools) == 0 {
		return prompt
	}
	catalog := "\n\nAvailable tools:\n"
	for _, t := range tools {
		catalog += fmt.Sprintf("- %s: %s\n", t.Name, t.Description)
	}
	return prompt + catalog
}

func (c *OllamaClient) generateWithRetry(ctx context.Context, prompt string) (chatResponse, error) {
	req := chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Stream:      false,
		Temperature: 0.3,
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		resp, err := c.doGenerate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if attempt < c.maxRetries {
			delay := time.Duration(attempt*attempt) * time.Second
			log.Printf("[llmadapter] attempt %d failed, retrying in %v: %v", attempt, delay, err)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return chatResponse{}, ctx.Err()
			}
		}
	}
	return chatResponse{}, fmt.Errorf("all %d attempts failed: %w", c.maxRetries, lastErr)
}

func (c *OllamaClient) doGenerate(ctx context.Context, req chatRequest) (chatResponse, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return chatResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(data))
	if err != nil {
		return chatResponse{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return chatResponse{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return chatResponse{}, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return chatResponse{}, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}
