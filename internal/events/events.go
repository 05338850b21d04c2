// Package events is an in-process fan-out bus for dispatch notifications.
//
// Publishers never block: a subscriber whose buffer is full misses the event. The bus also keeps a
// bounded tail of recent events so late subscribers (the websocket stream, the TUI) can backfill.
package events

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Kind names an event. Values are stable and appear on the wire.
type Kind string

const (
	// CredentialFailed is raised when an upstream error proves the user's token is invalid or expired.
	CredentialFailed Kind = "credential-failed"
	WebhookIssued    Kind = "webhook-issued"
	WebhookFailed    Kind = "webhook-failed"
	WebhookSkipped   Kind = "webhook-skipped"
	Registration     Kind = "registration"
)

// Event is a single notification. Fields carries string metadata such as the user ID or endpoint.
type Event struct {
	Sequence uint64            `json:"seq"`
	Kind     Kind              `json:"kind"`
	Message  string            `json:"message,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
	Time     time.Time         `json:"time"`
}

// New builds an event from alternating key/value pairs. A trailing key without a value is ignored.
func New(kind Kind, message string, kv ...string) Event {
	evt := Event{Kind: kind, Message: message}
	if len(kv) >= 2 {
		evt.Fields = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			evt.Fields[kv[i]] = kv[i+1]
		}
	}
	return evt
}

type subscriber struct {
	ch     chan Event
	closed bool
}

// Bus distributes events to subscribers. The zero value is not usable; call [NewBus].
type Bus struct {
	mu       sync.RWMutex
	subs     map[uint64]*subscriber
	nextID   uint64
	nextSeq  uint64
	capacity int
	recent   []Event
	logger   *log.Logger
}

// NewBus creates a bus retaining the last capacity events (512 when capacity <= 0).
// logger may be nil.
func NewBus(capacity int, logger *log.Logger) *Bus {
	if capacity <= 0 {
		capacity = 512
	}
	return &Bus{
		subs:     make(map[uint64]*subscriber),
		capacity: capacity,
		logger:   logger,
	}
}

// Publish stamps evt with a sequence and time (if unset) and hands it to every subscriber that has room.
func (b *Bus) Publish(evt Event) {
	if b == nil {
		return
	}

	b.mu.Lock()
	b.nextSeq++
	evt.Sequence = b.nextSeq
	if evt.Time.IsZero() {
		evt.Time = time.Now().UTC()
	}
	if len(b.recent) == b.capacity {
		copy(b.recent, b.recent[1:])
		b.recent = b.recent[:b.capacity-1]
	}
	b.recent = append(b.recent, evt)

	dropped := 0
	for _, sub := range b.subs {
		if sub.closed {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			dropped++
		}
	}
	b.mu.Unlock()

	if dropped > 0 && b.logger != nil {
		b.logger.Warn("event dropped for slow subscribers", "kind", evt.Kind, "dropped", dropped)
	}
}

// Subscribe registers a subscriber with the given channel buffer (16 when buffer <= 0).
//
// The returned cancel func unregisters and closes the channel; it is safe to call more than once.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}

	sub := &subscriber{ch: make(chan Event, buffer)}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			if !sub.closed {
				sub.closed = true
				close(sub.ch)
			}
			b.mu.Unlock()
		})
	}

	return sub.ch, cancel
}

// Tail returns up to limit of the most recent events, oldest first.
func (b *Bus) Tail(limit int) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if limit <= 0 || limit > len(b.recent) {
		limit = len(b.recent)
	}
	out := make([]Event, limit)
	copy(out, b.recent[len(b.recent)-limit:])
	return out
}

// Subscribers reports the number of active subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close unregisters every subscriber and closes their channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, sub := range b.subs {
		if !sub.closed {
			sub.closed = true
			close(sub.ch)
		}
		delete(b.subs, id)
	}
}
