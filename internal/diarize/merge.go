// Package diarize assigns speaker labels to transcribed spans by
// time-overlap against independently produced diarization turns.
package diarize

import (
	"context"

	"github.com/dale108/jury-selection/internal/transcriber"
)

// DefaultSpeaker is assigned when no diarization turn overlaps a span.
const DefaultSpeaker = "SPEAKER_00"

// Turn is one "who spoke when" span from a diarization pass, independent
// of transcribed text.
type Turn struct {
	Speaker string
	Start   float64
	End     float64
}

// Diarizer is a pluggable speaker-diarization capability, used when the
// transcription provider does not label speakers itself.
type Diarizer interface {
	Diarize(ctx context.Context, audio []byte) ([]Turn, error)
}

// AssignSpeakers labels each transcribed span with the speaker whose turns
// have the greatest total time-overlap with it. Ties go to the speaker
// encountered first in input order; this is deterministic but arbitrary.
// Span timestamps and text are preserved unchanged.
//
// O(T×D) in span counts, which stay in the tens per recording.
func AssignSpeakers(spans []transcriber.Span, turns []Turn) []transcriber.Span {
	out := make([]transcriber.Span, len(spans))
	for i, span := range spans {
		out[i] = span
		out[i].Speaker = dominantSpeaker(span, turns)
	}
	return out
}

func dominantSpeaker(span transcriber.Span, turns []Turn) string {
	overlaps := make(map[string]float64)
	var order []string

	for _, turn := range turns {
		start := max(span.Start, turn.Start)
		end := min(span.End, turn.End)
		if end <= start {
			continue
		}
		if _, seen := overlaps[turn.Speaker]; !seen {
			order = append(order, turn.Speaker)
		}
		overlaps[turn.Speaker] += end - start
	}

	speaker := DefaultSpeaker
	best := 0.0
	for _, s := range order {
		// Strictly greater keeps the first-encountered speaker on ties.
		if overlaps[s] > best {
			best = overlaps[s]
			speaker = s
		}
	}
	return speaker
}
