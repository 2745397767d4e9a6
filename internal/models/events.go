package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Event payload validation errors.
var (
	ErrMissingSessionID   = errors.New("event missing sessionId")
	ErrMissingRecordingID = errors.New("event missing recordingId")
	ErrMissingFilePath    = errors.New("event missing filePath")
	ErrMissingSegmentID   = errors.New("event missing segmentId")
	ErrInvalidTimeRange   = errors.New("event endTime precedes startTime")
)

// RecordingCompleteEvent is published exactly once per successfully
// finalized recording. EventID allows idempotent consumption under
// at-least-once delivery.
type RecordingCompleteEvent struct {
	EventType       string  `json:"eventType"`
	EventID         string  `json:"eventId"`
	SessionID       string  `json:"sessionId"`
	RecordingID     string  `json:"recordingId"`
	FilePath        string  `json:"filePath"`
	DurationSeconds float64 `json:"durationSeconds"`
	Timestamp       int64   `json:"timestamp"`
}

// NewRecordingCompleteEvent builds the completion event for a finalized recording.
func NewRecordingCompleteEvent(rec Recording) RecordingCompleteEvent {
	return RecordingCompleteEvent{
		EventType:       "recording.complete",
		EventID:         uuid.NewString(),
		SessionID:       rec.SessionID.String(),
		RecordingID:     rec.ID.String(),
		FilePath:        rec.FilePath,
		DurationSeconds: rec.DurationSeconds,
		Timestamp:       time.Now().UnixMilli(),
	}
}

// Validate checks the event carries everything a consumer needs.
func (e RecordingCompleteEvent) Validate() error {
	if e.SessionID == "" {
		return ErrMissingSessionID
	}
	if e.RecordingID == "" {
		return ErrMissingRecordingID
	}
	if e.FilePath == "" {
		return ErrMissingFilePath
	}
	return nil
}

// TranscriptReadyEvent is published per persisted transcript segment on
// the session-scoped live-transcript topic.
type TranscriptReadyEvent struct {
	EventType    string  `json:"eventType"`
	EventID      string  `json:"eventId"`
	SessionID    string  `json:"sessionId"`
	SegmentID    string  `json:"segmentId"`
	RecordingID  string  `json:"recordingId,omitempty"`
	SpeakerLabel string  `json:"speakerLabel"`
	Content      string  `json:"content"`
	StartTime    float64 `json:"startTime"`
	EndTime      float64 `json:"endTime"`
	Confidence   float64 `json:"confidence"`
	Timestamp    int64   `json:"timestamp"`
}

// NewTranscriptReadyEvent builds the live-transcript event for a persisted segment.
func NewTranscriptReadyEvent(seg TranscriptSegment) TranscriptReadyEvent {
	ev := TranscriptReadyEvent{
		EventType:    "transcript.ready",
		EventID:      uuid.NewString(),
		SessionID:    seg.SessionID.String(),
		SegmentID:    seg.ID.String(),
		SpeakerLabel: seg.SpeakerLabel,
		Content:      seg.Content,
		StartTime:    seg.StartTime,
		EndTime:      seg.EndTime,
		Confidence:   seg.Confidence,
		Timestamp:    time.Now().UnixMilli(),
	}
	if seg.RecordingID != nil {
		ev.RecordingID = seg.RecordingID.String()
	}
	return ev
}

// Validate checks the event carries everything a consumer needs.
func (e TranscriptReadyEvent) Validate() error {
	if e.SessionID == "" {
		return ErrMissingSessionID
	}
	if e.SegmentID == "" {
		return ErrMissingSegmentID
	}
	if e.EndTime < e.StartTime {
		return ErrInvalidTimeRange
	}
	return nil
}
