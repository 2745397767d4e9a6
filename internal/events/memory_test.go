package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dale108/jury-selection/internal/models"
)

type testPayload struct {
	Value string `json:"value"`
}

func TestMemoryBus_ExactTopic(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()

	sub, err := bus.Subscribe(context.Background(), RecordingCompleteTopic("session-1"))
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if err := bus.Publish(context.Background(), RecordingCompleteTopic("session-1"), testPayload{Value: "mine"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	// Another session's topic must not be delivered here.
	if err := bus.Publish(context.Background(), RecordingCompleteTopic("session-2"), testPayload{Value: "other"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, err := sub.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}

	var got testPayload
	if err := json.Unmarshal(msg.Payload, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Value != "mine" {
		t.Errorf("payload = %q, want %q", got.Value, "mine")
	}

	drainCtx, drainCancel := context.WithCancel(context.Background())
	drainCancel()
	if _, err := sub.Next(drainCtx); err == nil {
		t.Error("received a message published to a different session's topic")
	}
}

func TestMemoryBus_WildcardMatchesAllSessions(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()

	sub, err := bus.Subscribe(context.Background(), FamilyRecordingComplete+".*")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	for _, session := range []string{"a", "b", "c"} {
		if err := bus.Publish(context.Background(), RecordingCompleteTopic(session), testPayload{Value: session}); err != nil {
			t.Fatalf("Publish(%s): %v", session, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for _, want := range []string{"a", "b", "c"} {
		msg, err := sub.Next(ctx)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if msg.Key != want {
			t.Errorf("message key = %s, want %s (FIFO per publish order)", msg.Key, want)
		}
	}
}

func TestMemoryBus_FamilyIsolation(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()

	sub, err := bus.Subscribe(context.Background(), FamilyTranscriptReady+".*")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if err := bus.Publish(context.Background(), RecordingCompleteTopic("s"), testPayload{Value: "x"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := sub.Next(ctx); err == nil {
		t.Error("transcript-ready subscriber received a recording-complete event")
	}
}

func TestMemoryBus_ValidationAtBoundary(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()

	// Missing sessionId must be rejected before delivery.
	ev := models.RecordingCompleteEvent{RecordingID: "r", FilePath: "p"}
	err := bus.Publish(context.Background(), RecordingCompleteTopic("s"), ev)
	if !errors.Is(err, models.ErrMissingSessionID) {
		t.Errorf("Publish invalid event error = %v, want ErrMissingSessionID", err)
	}
}

func TestMemoryBus_PublishAfterCloseFails(t *testing.T) {
	bus := NewMemoryBus()
	bus.Close()

	err := bus.Publish(context.Background(), RecordingCompleteTopic("s"), testPayload{})
	if !errors.Is(err, ErrBusClosed) {
		t.Errorf("Publish after Close error = %v, want ErrBusClosed", err)
	}
}

func TestMemoryBus_SubscriptionClose(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()

	sub, err := bus.Subscribe(context.Background(), RecordingCompleteTopic("s"))
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := sub.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Publishing after unsubscribe must not block or deliver.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := bus.Publish(ctx, RecordingCompleteTopic("s"), testPayload{Value: "x"}); err != nil {
		t.Fatalf("Publish after subscription close: %v", err)
	}
}

func TestSplitTopic(t *testing.T) {
	tests := []struct {
		topic      string
		wantFamily string
		wantKey    string
	}{
		{"recording-complete.abc", "recording-complete", "abc"},
		{"transcript-ready.*", "transcript-ready", "*"},
		{"bare", "bare", ""},
	}
	for _, tt := range tests {
		family, key := SplitTopic(tt.topic)
		if family != tt.wantFamily || key != tt.wantKey {
			t.Errorf("SplitTopic(%q) = (%q, %q), want (%q, %q)",
				tt.topic, family, key, tt.wantFamily, tt.wantKey)
		}
	}
}
