package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/dale108/jury-selection/internal/observability/metrics"
)

// KafkaConfig holds Kafka bus configuration.
type KafkaConfig struct {
	Brokers []string
	GroupID string
	// Principal identifies this service in message headers.
	Principal string
}

// KafkaBus implements Bus on top of Kafka. Each topic family maps to one
// Kafka topic; the session id travels as the message key, which preserves
// per-session FIFO through keyed partitioning.
type KafkaBus struct {
	cfg       KafkaConfig
	transport *kafka.Transport
	metrics   *metrics.Metrics

	mu      sync.Mutex
	writers map[string]*kafka.Writer
	closed  bool
}

// NewKafkaBus creates a Kafka-backed event bus.
func NewKafkaBus(cfg KafkaConfig) *KafkaBus {
	// Longer dial timeout for DNS resolution in Kubernetes
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("groupId", cfg.GroupID).
		Str("principal", cfg.Principal).
		Msg("Kafka event bus initialized")

	return &KafkaBus{
		cfg:       cfg,
		transport: &kafka.Transport{Dial: dialer.DialFunc},
		metrics:   metrics.DefaultMetrics,
		writers:   make(map[string]*kafka.Writer),
	}
}

func (b *KafkaBus) writer(family string) *kafka.Writer {
	b.mu.Lock()
	defer b.mu.Unlock()

	if w, ok := b.writers[family]; ok {
		return w
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(b.cfg.Brokers...),
		Topic:        family,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    b.transport,
	}
	b.writers[family] = w
	return w
}

// Publish writes the payload to the topic's Kafka family, keyed by session.
func (b *KafkaBus) Publish(ctx context.Context, topic string, payload any) error {
	start := time.Now()
	family, key := SplitTopic(topic)

	if v, ok := payload.(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("invalid event for topic %s: %w", topic, err)
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event for topic %s: %w", topic, err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafka.Header{
			{Key: "sessionId", Value: []byte(key)},
			{Key: "principal", Value: []byte(b.cfg.Principal)},
		},
	}

	if err := b.writer(family).WriteMessages(ctx, msg); err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to write to Kafka")
		b.metrics.RecordBusPublish(family, err, time.Since(start).Seconds())
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	b.metrics.RecordBusPublish(family, nil, time.Since(start).Seconds())
	return nil
}

// Subscribe opens a consumer-group reader over the topic's family.
// A wildcard subscription ("family.*") and an exact one read the same
// Kafka topic; exact subscriptions filter on the message key and get
// their own derived consumer group, so the messages they skip are not
// consumed out from under the wildcard workers.
func (b *KafkaBus) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	family, key := SplitTopic(topic)

	filter := ""
	if key != "*" {
		filter = key
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  b.cfg.Brokers,
		GroupID:  subscriptionGroupID(b.cfg.GroupID, family, filter),
		Topic:    family,
		MinBytes: 1,
		MaxBytes: 10 * 1024 * 1024,
		MaxWait:  time.Second,
	})

	return &kafkaSubscription{reader: reader, family: family, filter: filter}, nil
}

// subscriptionGroupID derives the consumer group for one subscription.
// Wildcard subscribers share the base group so replicas split the family's
// partitions between them; an exact-topic subscriber gets a group of its
// own, scoped to the session it watches.
func subscriptionGroupID(base, family, filter string) string {
	if filter == "" {
		return base
	}
	return base + "." + family + "." + filter
}

// Close closes all writers. Readers are owned by their subscriptions.
func (b *KafkaBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var err error
	for family, w := range b.writers {
		if e := w.Close(); e != nil {
			log.Error().Err(e).Str("family", family).Msg("Error closing Kafka writer")
			err = e
		}
	}
	return err
}

// messageReader is the slice of kafka.Reader the subscription drives.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaSubscription struct {
	reader messageReader
	family string
	filter string // empty means wildcard (all sessions)

	// delivered is the message most recently handed to the caller. It is
	// committed on the next poll, after the caller has finished with it;
	// a consumer that dies mid-processing leaves the offset behind the
	// message, so the group redelivers it on resume.
	delivered []kafka.Message
}

// Next commits the previously delivered message, then fetches the next
// matching one. Commit-behind gives at-least-once semantics across
// consumer restarts; consumers tolerate duplicates by design.
func (s *kafkaSubscription) Next(ctx context.Context) (Message, error) {
	if len(s.delivered) > 0 {
		if err := s.reader.CommitMessages(ctx, s.delivered...); err != nil {
			return Message{}, fmt.Errorf("commit delivered message: %w", err)
		}
		s.delivered = s.delivered[:0]
	}

	for {
		m, err := s.reader.FetchMessage(ctx)
		if err != nil {
			return Message{}, err
		}
		key := string(m.Key)
		if s.filter != "" && !strings.EqualFold(key, s.filter) {
			// Another session's message. This subscription owns its
			// consumer group, so committing the skip starves no one.
			if err := s.reader.CommitMessages(ctx, m); err != nil {
				return Message{}, err
			}
			continue
		}
		s.delivered = append(s.delivered, m)
		return Message{
			Topic:   s.family + "." + key,
			Key:     key,
			Payload: m.Value,
		}, nil
	}
}

// Close commits the last delivered message and releases the reader. The
// caller only closes after it is done with that message, so the commit
// here is safe; if it fails the message is simply redelivered.
func (s *kafkaSubscription) Close() error {
	if len(s.delivered) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.reader.CommitMessages(ctx, s.delivered...); err != nil {
			log.Warn().Err(err).Str("family", s.family).Msg("final commit failed, message will be redelivered")
		}
		s.delivered = nil
	}
	return s.reader.Close()
}
