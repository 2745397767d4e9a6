package diarize

import (
	"testing"

	"github.com/dale108/jury-selection/internal/transcriber"
)

func span(text string, start, end float64) transcriber.Span {
	return transcriber.Span{Text: text, Start: start, End: end}
}

func TestAssignSpeakers(t *testing.T) {
	tests := []struct {
		name  string
		spans []transcriber.Span
		turns []Turn
		want  []string
	}{
		{
			name:  "single overlapping speaker wins",
			spans: []transcriber.Span{span("only A overlaps", 0, 3)},
			turns: []Turn{
				{Speaker: "SPEAKER_A", Start: 0, End: 3.2},
				{Speaker: "SPEAKER_B", Start: 3.2, End: 6.5},
			},
			want: []string{"SPEAKER_A"},
		},
		{
			name:  "greatest total overlap wins",
			spans: []transcriber.Span{span("mostly B", 2, 5)},
			turns: []Turn{
				{Speaker: "SPEAKER_A", Start: 0, End: 3},  // 1s overlap
				{Speaker: "SPEAKER_B", Start: 3, End: 10}, // 3s overlap
			},
			want: []string{"SPEAKER_B"},
		},
		{
			name:  "overlap sums across a speaker's turns",
			spans: []transcriber.Span{span("A speaks twice", 0, 10)},
			turns: []Turn{
				{Speaker: "SPEAKER_A", Start: 0, End: 3},
				{Speaker: "SPEAKER_B", Start: 3, End: 8}, // 5s in one turn
				{Speaker: "SPEAKER_A", Start: 8, End: 10},
			},
			want: []string{"SPEAKER_B"}, // 5s vs 3+2=5s: tie goes to first encountered
		},
		{
			name:  "tie broken by input order",
			spans: []transcriber.Span{span("even split", 0, 4)},
			turns: []Turn{
				{Speaker: "SPEAKER_B", Start: 0, End: 2},
				{Speaker: "SPEAKER_A", Start: 2, End: 4},
			},
			want: []string{"SPEAKER_B"},
		},
		{
			name:  "no overlap gets default label",
			spans: []transcriber.Span{span("silence elsewhere", 20, 25)},
			turns: []Turn{
				{Speaker: "SPEAKER_A", Start: 0, End: 3},
			},
			want: []string{DefaultSpeaker},
		},
		{
			name: "no turns at all defaults every span",
			spans: []transcriber.Span{
				span("first", 0, 3),
				span("second", 3, 7),
			},
			turns: nil,
			want:  []string{DefaultSpeaker, DefaultSpeaker},
		},
		{
			name:  "touching boundary is not overlap",
			spans: []transcriber.Span{span("starts where A ends", 3, 6)},
			turns: []Turn{
				{Speaker: "SPEAKER_A", Start: 0, End: 3},
				{Speaker: "SPEAKER_B", Start: 3, End: 6},
			},
			want: []string{"SPEAKER_B"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssignSpeakers(tt.spans, tt.turns)
			if len(got) != len(tt.spans) {
				t.Fatalf("got %d spans, want %d", len(got), len(tt.spans))
			}
			for i, s := range got {
				if s.Speaker != tt.want[i] {
					t.Errorf("span %d speaker = %s, want %s", i, s.Speaker, tt.want[i])
				}
			}
		})
	}
}

func TestAssignSpeakers_PreservesTextAndTimestamps(t *testing.T) {
	in := []transcriber.Span{
		{Text: "verbatim text", Start: 1.5, End: 4.25, Confidence: 0.9},
	}
	turns := []Turn{{Speaker: "SPEAKER_A", Start: 0, End: 10}}

	got := AssignSpeakers(in, turns)
	if got[0].Text != in[0].Text || got[0].Start != in[0].Start ||
		got[0].End != in[0].End || got[0].Confidence != in[0].Confidence {
		t.Errorf("merge altered span fields: got %+v, want %+v with speaker added", got[0], in[0])
	}
	if in[0].Speaker != "" {
		t.Error("input slice was mutated")
	}
}

func TestAssignSpeakers_Deterministic(t *testing.T) {
	spans := []transcriber.Span{span("tie", 0, 4)}
	turns := []Turn{
		{Speaker: "SPEAKER_C", Start: 0, End: 2},
		{Speaker: "SPEAKER_D", Start: 2, End: 4},
	}

	first := AssignSpeakers(spans, turns)[0].Speaker
	for i := 0; i < 50; i++ {
		if got := AssignSpeakers(spans, turns)[0].Speaker; got != first {
			t.Fatalf("run %d assigned %s, first run assigned %s", i, got, first)
		}
	}
}
