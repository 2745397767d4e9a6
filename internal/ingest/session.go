// Package ingest assembles live audio streams into durable recordings and
// hands them to the transcription side of the pipeline.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dale108/jury-selection/internal/events"
	"github.com/dale108/jury-selection/internal/models"
	"github.com/dale108/jury-selection/internal/observability/logging"
	"github.com/dale108/jury-selection/internal/observability/metrics"
	"github.com/dale108/jury-selection/internal/storage"
)

// State is the lifecycle state of an ingest session.
type State int

const (
	// StateIdle - session constructed, recording not yet started.
	StateIdle State = iota
	// StateCapturing - frames are being accepted.
	StateCapturing
	// StateFinalizing - the stream ended; frames are being merged and stored.
	StateFinalizing
	// StateCompleted - recording stored and completion event published. Terminal.
	StateCompleted
	// StateFailed - merge, store or publish failed. Terminal.
	StateFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateCapturing:
		return "CAPTURING"
	case StateFinalizing:
		return "FINALIZING"
	case StateCompleted:
		return "COMPLETED"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// State machine violations.
var (
	ErrNotCapturing   = errors.New("session is not capturing")
	ErrAlreadyStarted = errors.New("session already started")
	ErrOutOfSequence  = errors.New("frame sequence index out of order")
	ErrFrameTooLarge  = errors.New("frame exceeds size limit")
	ErrBufferFull     = errors.New("frame buffer full")
	ErrNoFrames       = errors.New("no frames buffered")
)

// Limits bounds a session's in-memory frame buffer.
type Limits struct {
	MaxFrameBytes int64
	MaxFrames     int
}

// DefaultLimits returns sensible default ingest limits.
func DefaultLimits() Limits {
	return Limits{
		MaxFrameBytes: 1 * 1024 * 1024, // 1MB per frame
		MaxFrames:     7200,            // two hours at one frame per second
	}
}

// Session owns one recording from stream open to finalize. One instance
// per connection; the frame buffer is owned exclusively by the session
// until Finalize hands the merged bytes to the recording store.
//
// State transitions:
//
//	IDLE → CAPTURING → FINALIZING → {COMPLETED | FAILED}
//
// Sessions are driven by a single connection goroutine and are not shared,
// so no locking is needed.
type Session struct {
	recording    models.Recording
	state        State
	frames       [][]byte
	frameSeconds float64
	limits       Limits
	finalized    bool

	store   storage.RecordingStore
	bus     events.Bus
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewSession creates an idle ingest session for a courtroom session id.
func NewSession(sessionID uuid.UUID, store storage.RecordingStore, bus events.Bus, frameSeconds float64, limits Limits) *Session {
	rec := models.NewRecording(sessionID)
	return &Session{
		recording:    rec,
		state:        StateIdle,
		frameSeconds: frameSeconds,
		limits:       limits,
		store:        store,
		bus:          bus,
		metrics:      metrics.DefaultMetrics,
		log:          logging.WithRecording(sessionID.String(), rec.ID.String()),
	}
}

// Recording returns a snapshot of the session's recording.
func (s *Session) Recording() models.Recording {
	return s.recording
}

// State returns the current session state.
func (s *Session) State() State {
	return s.state
}

// FrameCount returns the number of buffered frames.
func (s *Session) FrameCount() int {
	return len(s.frames)
}

// Start transitions the session to capturing. The returned recording id
// is sent to the client before any frames are required.
func (s *Session) Start(ctx context.Context) (models.Recording, error) {
	if s.state != StateIdle {
		return models.Recording{}, ErrAlreadyStarted
	}
	s.state = StateCapturing
	s.recording.Status = models.RecordingCapturing
	s.log.Info().Msg("recording started")
	return s.recording, nil
}

// AcceptFrame buffers one binary audio frame. seq is the caller-labeled
// sequence index and must equal the number of frames already buffered;
// an out-of-order index is a protocol violation and is rejected, not
// silently reordered. Returns the updated cumulative duration estimate.
func (s *Session) AcceptFrame(seq int, frame []byte) (float64, error) {
	if s.state != StateCapturing {
		return s.recording.DurationSeconds, ErrNotCapturing
	}
	if seq != len(s.frames) {
		s.metrics.RecordFrameRejected("out_of_sequence")
		return s.recording.DurationSeconds, fmt.Errorf("%w: got %d, want %d", ErrOutOfSequence, seq, len(s.frames))
	}
	if s.limits.MaxFrameBytes > 0 && int64(len(frame)) > s.limits.MaxFrameBytes {
		s.metrics.RecordFrameRejected("too_large")
		return s.recording.DurationSeconds, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(frame))
	}
	if s.limits.MaxFrames > 0 && len(s.frames) >= s.limits.MaxFrames {
		s.metrics.RecordFrameRejected("buffer_full")
		return s.recording.DurationSeconds, ErrBufferFull
	}

	buf := make([]byte, len(frame))
	copy(buf, frame)
	s.frames = append(s.frames, buf)

	// Fixed per-frame estimate; codec headers are not parsed, so this can
	// drift from true audio length.
	s.recording.DurationSeconds += s.frameSeconds
	s.metrics.RecordFrameReceived(len(frame))
	return s.recording.DurationSeconds, nil
}

// Finalize merges the buffered frames, stores the result and publishes
// the completion event. It runs exactly once per session: a second call
// (disconnect handler racing an explicit end message) is a no-op that
// returns the recording as-is.
func (s *Session) Finalize(ctx context.Context) (models.Recording, error) {
	if s.finalized {
		return s.recording, nil
	}
	s.finalized = true
	s.state = StateFinalizing
	s.recording.Status = models.RecordingFinalizing

	if len(s.frames) == 0 {
		s.fail("no_frames")
		return s.recording, ErrNoFrames
	}

	merged, degraded := StitchFrames(s.frames)
	if degraded {
		s.metrics.RecordMergeDegraded()
		s.log.Warn().Msg("first frame header unrecognized, degraded to raw concatenation")
	}

	if err := s.putWithRetry(ctx, merged); err != nil {
		s.fail("store_write")
		return s.recording, fmt.Errorf("store recording: %w", err)
	}

	ev := models.NewRecordingCompleteEvent(s.recording)
	topic := events.RecordingCompleteTopic(s.recording.SessionID.String())
	if err := s.bus.Publish(ctx, topic, ev); err != nil {
		s.fail("publish")
		return s.recording, fmt.Errorf("publish completion event: %w", err)
	}

	s.state = StateCompleted
	s.recording.Status = models.RecordingCompleted
	s.recording.RecordedAt = time.Now().UTC()
	s.metrics.RecordRecordingCompleted()
	s.log.Info().
		Int("frames", len(s.frames)).
		Float64("durationSeconds", s.recording.DurationSeconds).
		Int("mergedBytes", len(merged)).
		Msg("recording finalized")
	return s.recording, nil
}

// putWithRetry retries the storage write once inline; transient blob-store
// hiccups are common enough to warrant a single retry, anything more is
// handled out of band.
func (s *Session) putWithRetry(ctx context.Context, data []byte) error {
	err := s.store.Put(ctx, s.recording.FilePath, data)
	if err == nil {
		return nil
	}
	s.log.Warn().Err(err).Msg("storage write failed, retrying once")
	return s.store.Put(ctx, s.recording.FilePath, data)
}

func (s *Session) fail(reason string) {
	s.state = StateFailed
	s.recording.Status = models.RecordingFailed
	s.metrics.RecordRecordingFailed(reason)
	s.log.Error().Str("reason", reason).Msg("recording failed")
}
