package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/argusmesh/agentmesh/internal/models"
)

// wireMessage is the JSON envelope used when a Message crosses process
// boundaries over Redis. Payload is carried as raw JSON and always
// rehydrated as models.Opaque on the receiving side — the local bus
// does not know the concrete Go type of a payload published by a
// different process, and degrades gracefully to Opaque rather than
// failing to decode (mirrors the teacher's "falls back" pattern in
// NewEventBusWithRedis).
type wireMessage struct {
	ID        string          `json:"id"`
	Topic     string          `json:"topic"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	Priority  models.Priority `json:"priority"`
}

// RedisTransport mirrors every local Publish onto a Redis pub/sub
// channel named after the topic, and feeds remote messages for
// subscribed topics back into the local MessageBus as Opaque payloads.
// This is the distributed counterpart to the in-memory-only bus
// (spec §4.1), grounded on the teacher's RedisEventBus.
type RedisTransport struct {
	bus    *MessageBus
	client *redis.Client
	ctx    context.Context
	cancel context.CancelFunc
	pubsub *redis.PubSub

	mu        sync.Mutex
	seen      map[string]struct{} // IDs that arrived via relay; never mirrored back
	seenOrder []string
}

// seenLimit bounds the relayed-ID set used to break the
// relay -> local publish -> mirror cycle.
const seenLimit = 4096

// NewRedisTransport connects to addr and starts relaying messages for
// the given topic patterns into bus. Returns an error if the initial
// connection ping fails — callers should fall back to a plain
// in-memory MessageBus on error, exactly as the teacher's
// NewEventBusWithRedis does.
func NewRedisTransport(addr string, bus *MessageBus, topics ...string) (*RedisTransport, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	ctx, appCancel := context.WithCancel(context.Background())
	rt := &RedisTransport{
		bus:    bus,
		client: client,
		ctx:    ctx,
		cancel: appCancel,
		pubsub: client.PSubscribe(ctx, topics...),
		seen:   make(map[string]struct{}),
	}

	bus.Subscribe("*", func(msg models.Message) {
		if err := rt.Mirror(msg); err != nil {
			log.Printf("[bus][redis] mirror failed on %s: %v", msg.Topic, err)
		}
	})

	go rt.relay()
	return rt, nil
}

func (rt *RedisTransport) markSeen(id string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.seen[id] = struct{}{}
	rt.seenOrder = append(rt.seenOrder, id)
	if len(rt.seenOrder) > seenLimit {
		delete(rt.seen, rt.seenOrder[0])
		rt.seenOrder = rt.seenOrder[1:]
	}
}

func (rt *RedisTransport) wasRelayed(id string) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	_, ok := rt.seen[id]
	return ok
}

// Mirror publishes msg onto its Redis channel so other processes
// sharing this transport observe it. Messages that themselves arrived
// over the relay are skipped, so a remote publish is never echoed back
// to its origin.
func (rt *RedisTransport) Mirror(msg models.Message) error {
	if rt.wasRelayed(msg.ID) {
		return nil
	}
	raw, err := json.Marshal(msg.Data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	wire := wireMessage{
		ID: msg.ID, Topic: msg.Topic, From: msg.From, To: msg.To,
		Data: raw, Timestamp: msg.Timestamp, Priority: msg.Priority,
	}
	payload, err := json.Marshal(wire)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return rt.client.Publish(rt.ctx, msg.Topic, payload).Err()
}

func (rt *RedisTransport) relay() {
	ch := rt.pubsub.Channel()
	for {
		select {
		case <-rt.ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			var wire wireMessage
			if err := json.Unmarshal([]byte(m.Payload), &wire); err != nil {
				log.Printf("[bus][redis] dropping malformed message on %s: %v", m.Channel, err)
				continue
			}
			var decoded interface{}
			_ = json.Unmarshal(wire.Data, &decoded)
			rt.markSeen(wire.ID)
			rt.bus.deliver(models.Message{
				ID: wire.ID, Topic: wire.Topic, From: wire.From, To: wire.To,
				Data: models.Opaque{Value: decoded}, Timestamp: wire.Timestamp, Priority: wire.Priority,
			})
		}
	}
}

// Close stops relaying and releases the Redis connection.
func (rt *RedisTransport) Close() error {
	rt.cancel()
	_ = rt.pubsub.Close()
	return rt.client.Close()
}
