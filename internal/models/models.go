// Package models defines the core data structures for the courtroom
// audio pipeline: recordings, transcript segments and their lifecycle states.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecordingStatus tracks a recording through its lifecycle.
type RecordingStatus string

const (
	// RecordingCapturing - the ingest stream is open and frames are arriving.
	RecordingCapturing RecordingStatus = "capturing"
	// RecordingFinalizing - the stream closed; frames are being merged and stored.
	RecordingFinalizing RecordingStatus = "finalizing"
	// RecordingTranscribing - the orchestrator picked the recording up.
	RecordingTranscribing RecordingStatus = "transcribing"
	// RecordingCompleted - merged file stored and completion event published.
	RecordingCompleted RecordingStatus = "completed"
	// RecordingFailed - merge, storage write or transcription failed irrecoverably.
	RecordingFailed RecordingStatus = "failed"
)

// Recording is one physical audio capture tied to a session.
// It is owned exclusively by its ingest session until finalize,
// then by the transcription orchestrator.
type Recording struct {
	ID              uuid.UUID       `json:"id"`
	SessionID       uuid.UUID       `json:"sessionId"`
	FilePath        string          `json:"filePath"`
	Status          RecordingStatus `json:"status"`
	DurationSeconds float64         `json:"durationSeconds"`
	CreatedAt       time.Time       `json:"createdAt"`
	RecordedAt      time.Time       `json:"recordedAt"`
}

// RecordingFilePath returns the canonical storage path for a recording.
func RecordingFilePath(sessionID, recordingID uuid.UUID) string {
	return fmt.Sprintf("sessions/%s/recordings/%s.wav", sessionID, recordingID)
}

// NewRecording creates a recording in Capturing state with a fresh id
// and its canonical storage path.
func NewRecording(sessionID uuid.UUID) Recording {
	id := uuid.New()
	return Recording{
		ID:        id,
		SessionID: sessionID,
		FilePath:  RecordingFilePath(sessionID, id),
		Status:    RecordingCapturing,
		CreatedAt: time.Now().UTC(),
	}
}

// TranscriptSegment is one attributed span of speech. Immutable once
// persisted; a retranscription replaces the whole batch for a recording.
type TranscriptSegment struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID    uuid.UUID  `json:"sessionId" gorm:"type:uuid;index"`
	RecordingID  *uuid.UUID `json:"recordingId" gorm:"type:uuid;index"`
	SpeakerLabel string     `json:"speakerLabel"`
	Content      string     `json:"content"`
	StartTime    float64    `json:"startTime"`
	EndTime      float64    `json:"endTime"`
	Confidence   float64    `json:"confidence"`
	CreatedAt    time.Time  `json:"createdAt"`
}
