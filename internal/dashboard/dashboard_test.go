package dashboard_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/argusmesh/agentmesh/internal/config"
	"github.com/argusmesh/agentmesh/internal/dashboard"
	"github.com/argusmesh/agentmesh/internal/ports"
)

func TestSink_PushFlushesAtBatchSize(t *testing.T) {
	var mu sync.Mutex
	var gotToken string
	var batches int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("expected bearer token, got %q", r.Header.Get("Authorization"))
		}
		var events []ports.DashboardEvent
		if err := json.NewDecoder(r.Body).Decode(&events); err != nil {
			t.Fatalf("decode batch: %v", err)
		}
		mu.Lock()
		batches++
		if len(events) > 0 {
			gotToken, _ = events[0].Payload.(string)
		}
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := &config.Config{
		DashboardURL:       server.URL,
		DashboardAuthToken: "secret",
		DashboardBatchSize: 2,
		DashboardFlushSecs: 60,
	}
	sink := dashboard.New(cfg)
	defer sink.Close()

	sink.Push(ports.DashboardEvent{Kind: "trade", Payload: "first", Timestamp: time.Now()})
	sink.Push(ports.DashboardEvent{Kind: "trade", Payload: "second", Timestamp: time.Now()})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := batches
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if batches == 0 {
		t.Fatal("expected at least one batch to be pushed once batchSize was reached")
	}
	if gotToken != "first" {
		t.Errorf("expected first event payload 'first', got %q", gotToken)
	}
}

func TestSink_FlushNoopWithoutURL(t *testing.T) {
	cfg := &config.Config{DashboardBatchSize: 10, DashboardFlushSecs: 5}
	sink := dashboard.New(cfg)
	sink.Push(ports.DashboardEvent{Kind: "debate", Payload: "x", Timestamp: time.Now()})
	if err := sink.Flush(context.Background()); err != nil {
		t.Fatalf("expected no-op flush to succeed, got %v", err)
	}
}
