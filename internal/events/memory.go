package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrBusClosed is returned when publishing to or reading from a closed bus.
var ErrBusClosed = errors.New("event bus closed")

// MemoryBus is an in-process Bus used when Kafka is disabled and in tests.
// It preserves FIFO order per topic and never deduplicates, matching the
// at-least-once contract of the Kafka implementation.
type MemoryBus struct {
	mu     sync.Mutex
	subs   []*memorySubscription
	closed bool
}

// NewMemoryBus creates an in-process event bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{}
}

// Publish delivers the payload to every matching subscription.
func (b *MemoryBus) Publish(ctx context.Context, topic string, payload any) error {
	if v, ok := payload.(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("invalid event for topic %s: %w", topic, err)
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event for topic %s: %w", topic, err)
	}

	family, key := SplitTopic(topic)
	msg := Message{Topic: topic, Key: key, Payload: data}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBusClosed
	}

	for _, sub := range b.subs {
		if !sub.matches(family, key) {
			continue
		}
		select {
		case sub.ch <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Subscribe registers a cursor for an exact topic or a "family.*" wildcard.
func (b *MemoryBus) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	family, key := SplitTopic(topic)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBusClosed
	}

	sub := &memorySubscription{
		bus:    b,
		family: family,
		key:    key,
		ch:     make(chan Message, 256),
	}
	b.subs = append(b.subs, sub)
	log.Debug().Str("topic", topic).Msg("memory bus subscription registered")
	return sub, nil
}

// Close shuts the bus down; pending subscriptions are drained and closed.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, sub := range b.subs {
		close(sub.ch)
	}
	b.subs = nil
	return nil
}

func (b *MemoryBus) unsubscribe(target *memorySubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for i, sub := range b.subs {
		if sub == target {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(sub.ch)
			return
		}
	}
}

type memorySubscription struct {
	bus    *MemoryBus
	family string
	key    string // "*" means all sessions in the family
	ch     chan Message

	closeOnce sync.Once
}

func (s *memorySubscription) matches(family, key string) bool {
	if s.family != family {
		return false
	}
	return s.key == "*" || s.key == key
}

func (s *memorySubscription) Next(ctx context.Context) (Message, error) {
	// Deliver already-buffered messages even when ctx is done, so a
	// consumer can drain what it was handed before shutting down.
	select {
	case msg, ok := <-s.ch:
		if !ok {
			return Message{}, ErrBusClosed
		}
		return msg, nil
	default:
	}

	select {
	case msg, ok := <-s.ch:
		if !ok {
			return Message{}, ErrBusClosed
		}
		return msg, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

func (s *memorySubscription) Close() error {
	s.closeOnce.Do(func() {
		s.bus.unsubscribe(s)
	})
	return nil
}
