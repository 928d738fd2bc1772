// Package bus implements the topic-addressable publish/subscribe
// message bus (spec §4.1 "MessageBus"). Topics are dotted segments
// matched against a trie of subscribers (spec §9 design note): publish
// descends the trie, notifying exact-match subscribers, the wildcard
// ("*") subscribers registered at every shallower prefix, and the
// global "*" sink at the root. Subscription segments ending in "*"
// glob-match a prefix, so agent.scout-*.scan_result receives every
// scout's scan results.
package bus

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/argusmesh/agentmesh/internal/models"
)

const (
	// HistoryLimit bounds the retained publish history (spec §4.1).
	HistoryLimit = 1000
)

// Handler is invoked for every message matching a subscription. A
// handler that panics is recovered and logged; it never affects other
// handlers or the publisher (spec §4.1 "Failure semantics").
type Handler func(models.Message)

// Unsubscribe removes a previously registered handler.
type Unsubscribe func()

type subscriber struct {
	id      uint64
	handler Handler
}

// node is one segment of the topic trie.
type node struct {
	children  map[string]*node
	exact     []subscriber // subscribers on the exact topic ending here
	wildcard  []subscriber // subscribers on "<this-prefix>.*"
}

func newNode() *node {
	return &node{children: make(map[string]*node)}
}

// MessageBus is an in-process, at-most-once, best-effort pub/sub bus
// (spec §4.1). The subscriber trie is the only shared mutable
// structure and is guarded by a single RWMutex (spec §5).
type MessageBus struct {
	mu      sync.RWMutex
	root    *node
	history []models.Message
	nextID  uint64
}

// New creates an empty in-memory MessageBus.
func New() *MessageBus {
	return &MessageBus{root: newNode()}
}

// Publish stamps data into a Message, appends it to the bounded
// history, and notifies exact-topic subscribers, every wildcard
// prefix, and the global sink (spec §4.1 "publish").
func (b *MessageBus) Publish(topic string, data models.Payload, from, to string, priority models.Priority) models.Message {
	if priority == "" {
		priority = models.PriorityNormal
	}
	msg := models.Message{
		ID:        uuid.NewString(),
		Topic:     topic,
		From:      from,
		To:        to,
		Data:      data,
		Timestamp: time.Now(),
		Priority:  priority,
	}
	b.deliver(msg)
	return msg
}

// deliver appends a pre-stamped message to history and notifies every
// matching subscriber. The Redis transport uses it directly so a
// relayed remote message keeps its original ID.
func (b *MessageBus) deliver(msg models.Message) {
	b.mu.Lock()
	b.history = append(b.history, msg)
	if len(b.history) > HistoryLimit {
		b.history = b.history[len(b.history)-HistoryLimit:]
	}

	segments := splitTopic(msg.Topic)
	handlers := b.collect(segments)
	b.mu.Unlock()

	for _, s := range handlers {
		b.dispatch(s.handler, msg)
	}
}

// dispatch invokes a handler, recovering from any panic so a single bad
// subscriber cannot affect others or the publisher.
func (b *MessageBus) dispatch(h Handler, msg models.Message) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[bus] handler panic on topic %s: %v", msg.Topic, r)
		}
	}()
	h(msg)
}

// collect walks the trie from the root, gathering the root's wildcard
// subscribers (global "*"), every matching intermediate node's
// wildcard subscribers, and every matching leaf's exact subscribers —
// each visited node contributes at most once.
func (b *MessageBus) collect(segments []string) []subscriber {
	var out []subscriber
	walk(b.root, segments, &out)
	return out
}

// walk matches the remaining topic segments against cur's subtree. A
// node's wildcard subscribers match any non-empty suffix at that
// level; its exact subscribers match only a fully consumed topic.
// Child keys match a segment literally, or as a prefix glob when the
// key ends in "*" (so a subscription on agent.scout-*.scan_result
// receives publishes to agent.scout-1.scan_result).
func walk(cur *node, segments []string, out *[]subscriber) {
	if len(segments) == 0 {
		*out = append(*out, cur.exact...)
		return
	}
	*out = append(*out, cur.wildcard...)
	for key, child := range cur.children {
		if segmentMatches(key, segments[0]) {
			walk(child, segments[1:], out)
		}
	}
}

func segmentMatches(key, seg string) bool {
	if key == seg {
		return true
	}
	if strings.HasSuffix(key, "*") {
		return strings.HasPrefix(seg, key[:len(key)-1])
	}
	return false
}

// Subscribe registers handler on topic and returns a function that
// removes it. topic "*" subscribes to every message on the bus; a
// topic ending in ".*" subscribes to every message published under
// that prefix, at any depth (spec §4.1 "subscribe").
func (b *MessageBus) Subscribe(topic string, handler Handler) Unsubscribe {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	sub := subscriber{id: id, handler: handler}

	if topic == "*" {
		b.root.wildcard = append(b.root.wildcard, sub)
		return b.unsubFunc(nil, true, id)
	}

	segments := splitTopic(topic)
	isWildcard := segments[len(segments)-1] == "*"
	if isWildcard {
		segments = segments[:len(segments)-1]
	}

	cur := b.root
	for _, seg := range segments {
		child, ok := cur.children[seg]
		if !ok {
			child = newNode()
			cur.children[seg] = child
		}
		cur = child
	}

	if isWildcard {
		cur.wildcard = append(cur.wildcard, sub)
	} else {
		cur.exact = append(cur.exact, sub)
	}
	return b.unsubFunc(cur, isWildcard, id)
}

func (b *MessageBus) unsubFunc(target *node, isWildcard bool, id uint64) Unsubscribe {
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		n := target
		if n == nil {
			n = b.root
		}
		if isWildcard {
			n.wildcard = removeSub(n.wildcard, id)
		} else {
			n.exact = removeSub(n.exact, id)
		}
	}
}

func removeSub(subs []subscriber, id uint64) []subscriber {
	out := subs[:0]
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}

// SendTo is sugar for Publish("agent.<agent>.<type>", ..., to: agent)
// (spec §4.1 "sendTo").
func (b *MessageBus) SendTo(agent, msgType string, data models.Payload, from string) models.Message {
	topic := fmt.Sprintf("agent.%s.%s", agent, msgType)
	return b.Publish(topic, data, from, agent, models.PriorityNormal)
}

// BroadcastAlert is sugar for Publish("alert.<type>", ..., priority:
// critical) (spec §4.1 "broadcastAlert").
func (b *MessageBus) BroadcastAlert(alertType string, data models.Payload, from string) models.Message {
	topic := fmt.Sprintf("alert.%s", alertType)
	return b.Publish(topic, data, from, "", models.PriorityCritical)
}

// GetHistory returns up to the last limit published messages, oldest
// first. limit <= 0 returns the full bounded history.
func (b *MessageBus) GetHistory(limit int) []models.Message {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if limit <= 0 || limit > len(b.history) {
		limit = len(b.history)
	}
	out := make([]models.Message, limit)
	copy(out, b.history[len(b.history)-limit:])
	return out
}

// GetSubscriberCount returns the number of handlers registered on the
// exact topic given (wildcard/global subscribers are not counted,
// mirroring a literal per-topic count).
func (b *MessageBus) GetSubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if topic == "*" {
		return len(b.root.wildcard)
	}

	segments := splitTopic(topic)
	isWildcard := segments[len(segments)-1] == "*"
	if isWildcard {
		segments = segments[:len(segments)-1]
	}

	cur := b.root
	for _, seg := range segments {
		child, ok := cur.children[seg]
		if !ok {
			return 0
		}
		cur = child
	}
	if isWildcard {
		return len(cur.wildcard)
	}
	return len(cur.exact)
}

// Clear removes all subscribers and history. Intended for diagnostics
// and tests.
func (b *MessageBus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.root = newNode()
	b.history = nil
}

func splitTopic(topic string) []string {
	return strings.Split(topic, ".")
}
