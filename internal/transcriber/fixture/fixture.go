// Package fixture provides a transcriber backed by a canned transcript,
// selected by configuration for demo runs and tests that must not call
// the real speech API.
package fixture

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/dale108/jury-selection/internal/transcriber"
)

//go:embed sample_transcript.txt
var sampleTranscript string

// Matches segment headers like: [13.7s - 26.9s] A
// The lines until the next header are the segment's text.
var headerPattern = regexp.MustCompile(`^\[(\d+\.?\d*)s\s*-\s*(\d+\.?\d*)s\]\s*([A-Z])\s*$`)

const fixtureConfidence = 0.95

// Adapter implements transcriber.Transcriber from a parsed transcript file.
type Adapter struct {
	spans []transcriber.Span
}

// New creates a fixture transcriber from the embedded sample transcript.
func New() (*Adapter, error) {
	return newFromContent(sampleTranscript)
}

// NewFromFile creates a fixture transcriber from a transcript file on disk.
func NewFromFile(path string) (*Adapter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sample transcript: %w", err)
	}
	return newFromContent(string(data))
}

func newFromContent(content string) (*Adapter, error) {
	spans, err := parseTranscript(content)
	if err != nil {
		return nil, err
	}
	if len(spans) == 0 {
		return nil, fmt.Errorf("sample transcript contains no segments")
	}
	return &Adapter{spans: spans}, nil
}

// Transcribe ignores the audio and returns the canned spans.
func (a *Adapter) Transcribe(ctx context.Context, audio []byte, language string) (transcriber.Result, error) {
	if err := ctx.Err(); err != nil {
		return transcriber.Result{}, err
	}

	spans := make([]transcriber.Span, len(a.spans))
	copy(spans, a.spans)

	var text []string
	var duration float64
	for _, s := range spans {
		text = append(text, s.Text)
		if s.End > duration {
			duration = s.End
		}
	}
	return transcriber.Result{
		Text:     strings.Join(text, " "),
		Spans:    spans,
		Duration: duration,
		Diarized: true,
	}, nil
}

func parseTranscript(content string) ([]transcriber.Span, error) {
	var spans []transcriber.Span
	var cur *transcriber.Span
	var buf []string

	flush := func() {
		if cur != nil {
			cur.Text = strings.Join(buf, " ")
			if cur.Text != "" {
				spans = append(spans, *cur)
			}
			cur = nil
			buf = nil
		}
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if m := headerPattern.FindStringSubmatch(line); m != nil {
			flush()
			start, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return nil, fmt.Errorf("parse start time %q: %w", m[1], err)
			}
			end, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				return nil, fmt.Errorf("parse end time %q: %w", m[2], err)
			}
			cur = &transcriber.Span{
				Speaker:    "SPEAKER_" + m[3],
				Start:      start,
				End:        end,
				Confidence: fixtureConfidence,
			}
			continue
		}
		if cur != nil && line != "" {
			buf = append(buf, line)
		}
	}
	flush()
	return spans, nil
}
