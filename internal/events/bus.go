// Package events provides the publish/subscribe channel that decouples
// the ingest side of the pipeline from the transcription side.
package events

import (
	"context"
	"strings"
)

// Topic families. A concrete topic is "<family>.<session_id>"; a
// subscription for "<family>.*" matches every session.
const (
	FamilyRecordingComplete = "recording-complete"
	FamilyTranscriptReady   = "transcript-ready"
)

// RecordingCompleteTopic returns the completion topic for a session.
func RecordingCompleteTopic(sessionID string) string {
	return FamilyRecordingComplete + "." + sessionID
}

// TranscriptReadyTopic returns the live-transcript topic for a session.
func TranscriptReadyTopic(sessionID string) string {
	return FamilyTranscriptReady + "." + sessionID
}

// SplitTopic splits a topic into its family and session key.
// "recording-complete.abc" -> ("recording-complete", "abc").
func SplitTopic(topic string) (family, key string) {
	if i := strings.LastIndex(topic, "."); i >= 0 {
		return topic[:i], topic[i+1:]
	}
	return topic, ""
}

// Message is one delivered bus message.
type Message struct {
	Topic   string
	Key     string
	Payload []byte
}

// Validator is implemented by event payloads that can check themselves.
// Publishing a payload that fails validation is rejected at the bus boundary.
type Validator interface {
	Validate() error
}

// Bus delivers events between pipeline components. Delivery is
// at-least-once: consumers must be idempotent. Ordering is FIFO within a
// single topic relative to publish order; there is no ordering guarantee
// across topics.
type Bus interface {
	// Publish sends a payload on a topic. Failure to reach the bus is
	// reported to the caller, never silently dropped.
	Publish(ctx context.Context, topic string, payload any) error

	// Subscribe returns a cursor over future messages for an exact topic
	// or a "<family>.*" wildcard across all sessions.
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Close releases bus resources.
	Close() error
}

// Subscription is a cursor over future messages on a topic.
type Subscription interface {
	// Next blocks until a message is available or ctx is done.
	Next(ctx context.Context) (Message, error)
	Close() error
}
