package bus_test

import (
	"sync/atomic"
	"testing"

	"github.com/argusmesh/agentmesh/internal/bus"
	"github.com/argusmesh/agentmesh/internal/models"
)

// TestMessageBus_WildcardFanOut verifies that a publish to
// agent.scout-1.scan_result notifies the exact subscriber, the
// agent.scout-*.scan_result wildcard subscriber, and the global "*"
// sink — each exactly once (spec §8 seed scenario 6).
func TestMessageBus_WildcardFanOut(t *testing.T) {
	b := bus.New()

	var exact, prefix, global int32
	b.Subscribe("agent.scout-1.scan_result", func(models.Message) { atomic.AddInt32(&exact, 1) })
	b.Subscribe("agent.scout-*.scan_result", func(models.Message) { atomic.AddInt32(&prefix, 1) })
	b.Subscribe("*", func(models.Message) { atomic.AddInt32(&global, 1) })

	b.Publish("agent.scout-1.scan_result", models.Opaque{Value: "x"}, "scout-1", "", "")

	if exact != 1 {
		t.Errorf("expected exact subscriber invoked once, got %d", exact)
	}
	if prefix != 1 {
		t.Errorf("expected prefix wildcard invoked once, got %d", prefix)
	}
	if global != 1 {
		t.Errorf("expected global wildcard invoked once, got %d", global)
	}

	t.Logf("✅ fan-out notified all three subscribers exactly once")
}

// TestMessageBus_MultiLevelWildcard verifies that publishing to a.b.c
// notifies subscribers on a.b.c, a.b.*, a.*, and * (spec §8 invariant).
func TestMessageBus_MultiLevelWildcard(t *testing.T) {
	b := bus.New()

	var abc, abStar, aStar, star int32
	b.Subscribe("a.b.c", func(models.Message) { atomic.AddInt32(&abc, 1) })
	b.Subscribe("a.b.*", func(models.Message) { atomic.AddInt32(&abStar, 1) })
	b.Subscribe("a.*", func(models.Message) { atomic.AddInt32(&aStar, 1) })
	b.Subscribe("*", func(models.Message) { atomic.AddInt32(&star, 1) })

	b.Publish("a.b.c", models.Opaque{}, "x", "", "")

	for name, got := range map[string]int32{"a.b.c": abc, "a.b.*": abStar, "a.*": aStar, "*": star} {
		if got != 1 {
			t.Errorf("%s: expected 1 notification, got %d", name, got)
		}
	}
}

// TestMessageBus_HandlerPanicIsolated verifies that a panicking
// handler does not prevent other handlers from running (spec §4.1
// "Failure semantics").
func TestMessageBus_HandlerPanicIsolated(t *testing.T) {
	b := bus.New()

	var ran bool
	b.Subscribe("topic", func(models.Message) { panic("boom") })
	b.Subscribe("topic", func(models.Message) { ran = true })

	b.Publish("topic", models.Opaque{}, "x", "", "")

	if !ran {
		t.Fatal("expected second handler to run despite first panicking")
	}
}

// TestMessageBus_Unsubscribe verifies that Unsubscribe stops further
// delivery to that handler.
func TestMessageBus_Unsubscribe(t *testing.T) {
	b := bus.New()

	var count int32
	unsub := b.Subscribe("topic", func(models.Message) { atomic.AddInt32(&count, 1) })
	b.Publish("topic", models.Opaque{}, "x", "", "")
	unsub()
	b.Publish("topic", models.Opaque{}, "x", "", "")

	if count != 1 {
		t.Errorf("expected 1 delivery before unsubscribe, got %d", count)
	}
}

// TestMessageBus_HistoryBounded verifies history eviction at the 1000
// entry cap (spec §4.1 "publish").
func TestMessageBus_HistoryBounded(t *testing.T) {
	b := bus.New()
	for i := 0; i < bus.HistoryLimit+50; i++ {
		b.Publish("t", models.Opaque{}, "x", "", "")
	}
	if got := len(b.GetHistory(0)); got != bus.HistoryLimit {
		t.Errorf("expected history capped at %d, got %d", bus.HistoryLimit, got)
	}
}

// TestMessageBus_SendToAndBroadcastAlert verify the sugar helpers stamp
// the expected topic and priority (spec §4.1).
func TestMessageBus_SendToAndBroadcastAlert(t *testing.T) {
	b := bus.New()

	var gotTopic string
	b.Subscribe("agent.hunter-1.check_wallet", func(m models.Message) { gotTopic = m.Topic })
	b.SendTo("hunter-1", "check_wallet", models.Opaque{}, "analyst-1")
	if gotTopic != "agent.hunter-1.check_wallet" {
		t.Errorf("SendTo produced topic %q", gotTopic)
	}

	var gotPriority models.Priority
	b.Subscribe("alert.scammer", func(m models.Message) { gotPriority = m.Priority })
	b.BroadcastAlert("scammer", models.Opaque{}, "hunter-1")
	if gotPriority != models.PriorityCritical {
		t.Errorf("BroadcastAlert priority = %q, want critical", gotPriority)
	}
}
