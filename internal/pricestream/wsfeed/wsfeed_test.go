package wsfeed_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/argusmesh/agentmesh/internal/pricestream/wsfeed"
	"github.com/argusmesh/agentmesh/internal/ports"
)

func TestFeed_SubscribeReceivesUpdates(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"pool_address":"poolA","token_address":"tokA","price":1.5,"liquidity_sol":20}`))
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	f := wsfeed.New(url)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.Start(ctx)
	defer f.Stop()

	received := make(chan ports.PriceUpdate, 1)
	unsub, err := f.Subscribe("poolA", "tokA", func(u ports.PriceUpdate) { received <- u })
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer unsub()

	select {
	case u := <-received:
		if u.Price != 1.5 || u.LiquiditySol != 20 {
			t.Errorf("unexpected update: %+v", u)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected a price update within 2s")
	}
}

func TestFeed_UnsubscribeStopsDelivery(t *testing.T) {
	f := wsfeed.New("ws://127.0.0.1:0")
	received := false
	unsub, _ := f.Subscribe("poolB", "tokB", func(u ports.PriceUpdate) { received = true })
	unsub()

	if err := f.Unsubscribe("poolB", "tokB"); err != nil {
		t.Errorf("Unsubscribe on an already-removed key should still be a no-op success, got %v", err)
	}
	if received {
		t.Error("unexpected delivery after unsubscribe")
	}
}
