// Package orchestrator consumes recording-complete events, runs the
// external transcription capability and persists the resulting
// speaker-labeled transcript segments.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dale108/jury-selection/internal/diarize"
	"github.com/dale108/jury-selection/internal/events"
	"github.com/dale108/jury-selection/internal/models"
	"github.com/dale108/jury-selection/internal/observability/logging"
	"github.com/dale108/jury-selection/internal/observability/metrics"
	"github.com/dale108/jury-selection/internal/publisher"
	"github.com/dale108/jury-selection/internal/storage"
	"github.com/dale108/jury-selection/internal/transcriber"
)

// defaultConfidence is used when the provider reports no per-span score.
const defaultConfidence = 0.95

// Worker is a long-lived subscriber loop. One logical worker; safe to
// replicate horizontally because the segment-replace step is idempotent
// per recording id.
type Worker struct {
	bus          events.Bus
	recordings   storage.RecordingStore
	segments     storage.SegmentStore
	transcriber  transcriber.Transcriber
	diarizer     diarize.Diarizer // optional; used only for non-diarized results
	publisher    *publisher.Publisher
	language     string
	pollInterval time.Duration
	metrics      *metrics.Metrics
	log          zerolog.Logger
}

// Config wires a worker's collaborators.
type Config struct {
	Bus          events.Bus
	Recordings   storage.RecordingStore
	Segments     storage.SegmentStore
	Transcriber  transcriber.Transcriber
	Diarizer     diarize.Diarizer
	Publisher    *publisher.Publisher
	Language     string
	PollInterval time.Duration
}

// NewWorker creates a transcription worker.
func NewWorker(cfg Config) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	return &Worker{
		bus:          cfg.Bus,
		recordings:   cfg.Recordings,
		segments:     cfg.Segments,
		transcriber:  cfg.Transcriber,
		diarizer:     cfg.Diarizer,
		publisher:    cfg.Publisher,
		language:     cfg.Language,
		pollInterval: cfg.PollInterval,
		metrics:      metrics.DefaultMetrics,
		log:          logging.WithComponent("orchestrator"),
	}
}

// Run subscribes to completion events across all sessions and processes
// them until ctx is cancelled. Failures while handling one event are
// logged and the loop moves on; there is no automatic retry. Recovery for
// a failed recording is a manual Reprocess call.
func (w *Worker) Run(ctx context.Context) error {
	sub, err := w.bus.Subscribe(ctx, events.FamilyRecordingComplete+".*")
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer sub.Close()

	w.log.Info().Msg("transcription worker started")
	for {
		msg, err := sub.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				w.log.Info().Msg("transcription worker stopping")
				return nil
			}
			if errors.Is(err, events.ErrBusClosed) {
				return nil
			}
			w.log.Error().Err(err).Msg("event poll failed")
			select {
			case <-time.After(w.pollInterval):
			case <-ctx.Done():
				return nil
			}
			continue
		}

		var ev models.RecordingCompleteEvent
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			w.log.Error().Err(err).Str("topic", msg.Topic).Msg("undecodable event dropped")
			continue
		}
		if err := ev.Validate(); err != nil {
			w.log.Error().Err(err).Str("topic", msg.Topic).Msg("invalid event dropped")
			continue
		}

		// Processing failures abort this event only; the worker loop
		// must never crash on a single bad recording.
		if _, err := w.Process(ctx, ev); err != nil {
			w.log.Error().Err(err).
				Str("recordingId", ev.RecordingID).
				Str("sessionId", ev.SessionID).
				Msg("event processing failed, dropped (manual replay required)")
		}
	}
}

// Process runs the full transcription pipeline for one completion event:
// fetch audio, transcribe, diarize if needed, replace segments, republish.
// Safe to run twice for the same recording id: replace semantics make
// duplicate delivery harmless. The returned recording is the orchestrator's
// view of the capture with its post-transcription status.
func (w *Worker) Process(ctx context.Context, ev models.RecordingCompleteEvent) (models.Recording, error) {
	w.metrics.RecordTranscriptionStart()
	logger := logging.WithRecording(ev.SessionID, ev.RecordingID)

	sessionID, err := uuid.Parse(ev.SessionID)
	if err != nil {
		w.metrics.RecordTranscriptionFailed("decode")
		return models.Recording{Status: models.RecordingFailed}, fmt.Errorf("parse session id: %w", err)
	}
	recordingID, err := uuid.Parse(ev.RecordingID)
	if err != nil {
		w.metrics.RecordTranscriptionFailed("decode")
		return models.Recording{Status: models.RecordingFailed}, fmt.Errorf("parse recording id: %w", err)
	}

	// Ownership passes from the ingest session to the orchestrator here;
	// the recording is Transcribing until its segment batch lands.
	rec := models.Recording{
		ID:              recordingID,
		SessionID:       sessionID,
		FilePath:        ev.FilePath,
		Status:          models.RecordingTranscribing,
		DurationSeconds: ev.DurationSeconds,
	}

	audio, err := w.recordings.Get(ctx, ev.FilePath)
	if err != nil {
		w.metrics.RecordTranscriptionFailed("fetch")
		rec.Status = models.RecordingFailed
		return rec, fmt.Errorf("fetch audio %s: %w", ev.FilePath, err)
	}

	start := time.Now()
	result, err := w.transcriber.Transcribe(ctx, audio, w.language)
	if err != nil {
		w.metrics.RecordTranscriptionFailed("transcribe")
		rec.Status = models.RecordingFailed
		return rec, fmt.Errorf("transcribe: %w", err)
	}
	w.metrics.RecordTranscriptionLatency(time.Since(start).Seconds())

	spans := nonEmptySpans(result.Spans)
	if len(spans) == 0 {
		// An empty recording is not a pipeline failure: no segments, no error.
		w.metrics.RecordTranscriptionEmpty()
		rec.Status = models.RecordingCompleted
		logger.Info().Msg("no speech recognized, event dropped")
		return rec, nil
	}

	if !result.Diarized {
		spans = w.assignSpeakers(ctx, logger, audio, spans)
	}

	segments := buildSegments(sessionID, recordingID, spans)
	if err := w.segments.ReplaceSegments(ctx, recordingID, segments); err != nil {
		w.metrics.RecordSegmentReplaceFailed()
		rec.Status = models.RecordingFailed
		return rec, fmt.Errorf("replace segments: %w", err)
	}
	w.metrics.RecordSegmentsPersisted(len(segments))

	for _, seg := range segments {
		// Fire-and-forget per the bus contract; a failed republish does
		// not unwind the persisted batch.
		if err := w.publisher.PublishSegment(ctx, seg); err != nil {
			logger.Error().Err(err).Str("segmentId", seg.ID.String()).Msg("transcript republish failed")
		}
	}

	rec.Status = models.RecordingCompleted
	logger.Info().
		Int("segments", len(segments)).
		Float64("audioDuration", result.Duration).
		Str("status", string(rec.Status)).
		Msg("recording transcribed")
	return rec, nil
}

// Reprocess replays a stored recording through the same pipeline. This is
// the manual recovery path for recordings whose event processing failed.
func (w *Worker) Reprocess(ctx context.Context, sessionID, recordingID uuid.UUID) (models.Recording, error) {
	ev := models.RecordingCompleteEvent{
		EventType:   "recording.complete",
		EventID:     uuid.NewString(),
		SessionID:   sessionID.String(),
		RecordingID: recordingID.String(),
		FilePath:    models.RecordingFilePath(sessionID, recordingID),
		Timestamp:   time.Now().UnixMilli(),
	}
	return w.Process(ctx, ev)
}

// assignSpeakers runs the separate diarization capability and merges its
// turns into the spans. Diarization failure degrades to the default
// single-speaker label rather than failing the recording.
func (w *Worker) assignSpeakers(ctx context.Context, logger zerolog.Logger, audio []byte, spans []transcriber.Span) []transcriber.Span {
	if w.diarizer == nil {
		return diarize.AssignSpeakers(spans, nil)
	}
	turns, err := w.diarizer.Diarize(ctx, audio)
	if err != nil {
		logger.Warn().Err(err).Msg("diarization failed, using default speaker")
		return diarize.AssignSpeakers(spans, nil)
	}
	return diarize.AssignSpeakers(spans, turns)
}

func nonEmptySpans(spans []transcriber.Span) []transcriber.Span {
	out := spans[:0:0]
	for _, s := range spans {
		if strings.TrimSpace(s.Text) != "" {
			out = append(out, s)
		}
	}
	return out
}

func buildSegments(sessionID, recordingID uuid.UUID, spans []transcriber.Span) []models.TranscriptSegment {
	now := time.Now().UTC()
	segments := make([]models.TranscriptSegment, 0, len(spans))
	for _, span := range spans {
		confidence := span.Confidence
		if confidence == 0 {
			confidence = defaultConfidence
		}
		recID := recordingID
		segments = append(segments, models.TranscriptSegment{
			ID:           uuid.New(),
			SessionID:    sessionID,
			RecordingID:  &recID,
			SpeakerLabel: span.Speaker,
			Content:      strings.TrimSpace(span.Text),
			StartTime:    span.Start,
			EndTime:      span.End,
			Confidence:   confidence,
			CreatedAt:    now,
		})
	}
	return segments
}
