// Command agentmesh wires a runnable Coordinator from configuration
// and runs it until an interrupt signal arrives (spec §6, C16). It is
// deliberately thin: every real decision (pool sizes, which
// collaborators are live) is made in internal/config and internal/
// coordinator; this file only constructs and connects.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/argusmesh/agentmesh/internal/bus"
	"github.com/argusmesh/agentmesh/internal/config"
	"github.com/argusmesh/agentmesh/internal/coordinator"
	"github.com/argusmesh/agentmesh/internal/dashboard"
	"github.com/argusmesh/agentmesh/internal/llmadapter"
	"github.com/argusmesh/agentmesh/internal/logger"
	"github.com/argusmesh/agentmesh/internal/models"
	"github.com/argusmesh/agentmesh/internal/observability"
	"github.com/argusmesh/agentmesh/internal/ports"
	"github.com/argusmesh/agentmesh/internal/pricestream/wsfeed"
	"github.com/argusmesh/agentmesh/internal/runtime"
	memstore "github.com/argusmesh/agentmesh/internal/store/memory"
	sqlstore "github.com/argusmesh/agentmesh/internal/store/sql"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed: ", err)
	}

	otelShutdown, err := observability.Setup(context.Background(), "agentmesh-coordinator")
	if err != nil {
		log.Printf("observability setup failed, continuing without tracing: %v", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	b := bus.New()
	var transport *bus.RedisTransport
	if cfg.RedisAddr != "" {
		transport, err = bus.NewRedisTransport(cfg.RedisAddr, b, "*")
		if err != nil {
			log.Printf("redis transport unavailable (%v), falling back to in-memory bus only", err)
		}
	}

	var positionStore ports.PositionStore = memstore.NewPositionStore()
	var outcomeSink ports.OutcomeSink = memstore.NewOutcomeSink()
	var scammerStore ports.ScammerStore
	if cfg.DatabaseEnabled {
		db, err := sqlstore.Open(cfg)
		if err != nil {
			log.Printf("database unavailable (%v), falling back to in-memory persistence", err)
		} else {
			if ps, err := sqlstore.NewPositionStore(db); err == nil {
				positionStore = ps
			}
			if sink, err := sqlstore.NewOutcomeSink(db); err == nil {
				outcomeSink = sink
			}
			if store, err := sqlstore.NewScammerStore(db); err != nil {
				log.Printf("scammer store unavailable (%v), Hunter profiles stay in-memory only", err)
			} else {
				scammerStore = store
			}
			al := logger.NewAuditLogger(db, b)
			al.Start()
		}
	}

	var chain ports.ChainClient // no in-tree ChainClient; external collaborator (spec §1)

	c := coordinator.New(cfg, b, chain, positionStore, outcomeSink)

	if scammerStore != nil {
		for _, h := range c.Pools().Hunters {
			h.WithStore(scammerStore)
			if err := h.LoadFromStore(context.Background()); err != nil {
				log.Printf("scammer profile hydration failed for %s: %v", h.Name(), err)
			}
		}
	}

	if cfg.LLMEnabled {
		llm := llmadapter.NewOllamaClient(cfg.LLMBaseURL, cfg.LLMModel)
		reasoner := &runtime.ReActReasoner{LLM: llm}
		for _, a := range c.Pools().Analysts {
			a.WithReasoner(reasoner)
		}
		for _, a := range c.Pools().Hunters {
			a.WithReasoner(reasoner)
		}
		for _, a := range c.Pools().Traders {
			a.WithReasoner(reasoner)
		}
	}

	dash := dashboard.New(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	dash.Start(ctx)
	b.Subscribe("*", func(msg models.Message) {
		dash.Push(ports.DashboardEvent{Kind: msg.Topic, Payload: msg.Data, Timestamp: msg.Timestamp})
	})

	var feed *wsfeed.Feed
	if cfg.RPCEndpoint != "" {
		feed = wsfeed.New(cfg.RPCEndpoint)
		feed.Start(ctx)
		for _, trader := range c.Pools().Traders {
			var mu sync.Mutex
			unsubByPool := make(map[string]func())
			trader.WithCallbacks(
				func(poolAddress, token string) {
					unsubscribe, err := feed.Subscribe(poolAddress, token, func(u ports.PriceUpdate) {
						trader.HandlePriceUpdate(context.Background(), u)
					})
					if err != nil {
						log.Printf("price stream subscribe failed for %s: %v", token, err)
						return
					}
					mu.Lock()
					unsubByPool[poolAddress] = unsubscribe
					mu.Unlock()
				},
				func(poolAddress string) {
					mu.Lock()
					unsubscribe := unsubByPool[poolAddress]
					delete(unsubByPool, poolAddress)
					mu.Unlock()
					if unsubscribe != nil {
						unsubscribe()
					}
				},
			)
		}
	}

	if err := c.Start(ctx); err != nil {
		log.Fatal("coordinator start failed: ", err)
	}
	log.Printf("agentmesh coordination runtime started: %+v", c.Stats())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := c.Stop(stopCtx); err != nil {
		log.Printf("coordinator stop error: %v", err)
	}
	if feed != nil {
		feed.Stop()
	}
	if transport != nil {
		_ = transport.Close()
	}
	_ = dash.Flush(stopCtx)
	_ = dash.Close()
	cancel()
	log.Println("agentmesh exited")
}
