// Package transcriber defines the interface to the external
// speech-to-text capability.
package transcriber

import "context"

// Span is one transcribed stretch of speech. Speaker is empty unless the
// provider diarizes in the same call.
type Span struct {
	Speaker    string
	Text       string
	Start      float64 // seconds, recording-relative
	End        float64
	Confidence float64 // 0 means the provider gave none
}

// Result is the output of one transcription call.
type Result struct {
	Text     string
	Spans    []Span
	Duration float64
	// Diarized reports whether spans already carry speaker labels
	// (combined transcription+diarization mode).
	Diarized bool
}

// Transcriber is a pluggable speech-to-text provider. Calls may take
// seconds to tens of seconds; they must honor ctx cancellation.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, language string) (Result, error)
}
