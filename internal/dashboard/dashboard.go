// Package dashboard implements a batched, HTTP-pushed ports.DashboardSink.
//
// There is no ecosystem HTTP client anywhere in the retrieved example
// pack for outbound batched telemetry push (the pack's http.Client
// usages are all inbound-shaped API clients, e.g. jupiter_client.go's
// Jupiter DEX client) so this adapter is built directly on net/http,
// following that client's shape: a long-lived *http.Client with a
// fixed timeout, json.Marshal into a bytes.Buffer, NewRequestWithContext.
package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/argusmesh/agentmesh/internal/config"
	"github.com/argusmesh/agentmesh/internal/ports"
)

// Sink is a ports.DashboardSink that buffers events and pushes them to
// cfg.DashboardURL as a JSON batch, either when the buffer reaches
// cfg.DashboardBatchSize or every cfg.DashboardFlushSecs, whichever
// comes first (spec §6 "DashboardSink: batched event push ... default
// 10 ... default 5s ... bearer token if configured").
type Sink struct {
	url        string
	authToken  string
	batchSize  int
	flushEvery time.Duration

	client *http.Client

	mu      sync.Mutex
	pending []ports.DashboardEvent

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a Sink from cfg. A blank DashboardURL still returns a
// usable Sink whose Flush is a no-op, so callers can wire it
// unconditionally and let configuration decide whether it does
// anything.
func New(cfg *config.Config) *Sink {
	batchSize := cfg.DashboardBatchSize
	if batchSize <= 0 {
		batchSize = 10
	}
	flushSecs := cfg.DashboardFlushSecs
	if flushSecs <= 0 {
		flushSecs = 5
	}
	return &Sink{
		url:        cfg.DashboardURL,
		authToken:  cfg.DashboardAuthToken,
		batchSize:  batchSize,
		flushEvery: time.Duration(flushSecs) * time.Second,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Start launches the periodic flush timer. Safe to call even when the
// Sink has no configured URL; the timer just flushes nothing.
func (s *Sink) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	go s.run(ctx)
}

func (s *Sink) run(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.flushEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Flush(ctx); err != nil {
				continue
			}
		}
	}
}

// Push enqueues event, flushing immediately in the background once the
// buffer reaches batchSize.
func (s *Sink) Push(event ports.DashboardEvent) {
	s.mu.Lock()
	s.pending = append(s.pending, event)
	full := len(s.pending) >= s.batchSize
	s.mu.Unlock()

	if full {
		go func() {
			_ = s.Flush(context.Background())
		}()
	}
}

// Flush POSTs any buffered events as a single JSON array and clears the
// buffer on success. An empty buffer or unconfigured URL is a no-op.
func (s *Sink) Flush(ctx context.Context) error {
	s.mu.Lock()
	if len(s.pending) == 0 || s.url == "" {
		s.mu.Unlock()
		return nil
	}
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()

	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("dashboard: marshal batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("dashboard: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.authToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.requeue(batch)
		return fmt.Errorf("dashboard: push batch: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		s.requeue(batch)
		return fmt.Errorf("dashboard: push batch: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// requeue puts an unsent batch back at the front of the buffer so a
// transient failure does not silently drop events.
func (s *Sink) requeue(batch []ports.DashboardEvent) {
	s.mu.Lock()
	s.pending = append(batch, s.pending...)
	s.mu.Unlock()
}

// Close stops the flush timer and makes a best-effort final flush.
func (s *Sink) Close() error {
	if s.cancel != nil {
		s.cancel()
		s.wg.Wait()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Flush(ctx)
}

var _ ports.DashboardSink = (*Sink)(nil)
