// Package google provides a Google Cloud Speech-to-Text transcriber with
// speaker diarization enabled, so transcription and diarization come back
// from a single call.
package google

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"

	"github.com/dale108/jury-selection/internal/transcriber"
)

// Config holds recognition settings.
type Config struct {
	SampleRateHz int
	MinSpeakers  int
	MaxSpeakers  int
}

// Adapter implements transcriber.Transcriber using Google Cloud Speech.
// Requires GOOGLE_APPLICATION_CREDENTIALS to be set.
type Adapter struct {
	client *speech.Client
	cfg    Config
}

// New creates a new Google transcriber.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	return &Adapter{client: c, cfg: cfg}, nil
}

// Transcribe runs batch recognition with word time offsets and speaker
// diarization, then folds the word stream into speaker-labeled spans.
func (a *Adapter) Transcribe(ctx context.Context, audio []byte, language string) (transcriber.Result, error) {
	resp, err := a.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:              speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:       int32(a.cfg.SampleRateHz),
			LanguageCode:          language,
			EnableWordTimeOffsets: true,
			DiarizationConfig: &speechpb.SpeakerDiarizationConfig{
				EnableSpeakerDiarization: true,
				MinSpeakerCount:          int32(a.cfg.MinSpeakers),
				MaxSpeakerCount:          int32(a.cfg.MaxSpeakers),
			},
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return transcriber.Result{}, fmt.Errorf("recognize: %w", err)
	}

	// With diarization enabled the last result's alternative carries the
	// complete word list, each word tagged with a speaker.
	if len(resp.Results) == 0 {
		return transcriber.Result{}, nil
	}
	last := resp.Results[len(resp.Results)-1]
	if len(last.Alternatives) == 0 {
		return transcriber.Result{}, nil
	}
	alt := last.Alternatives[0]

	spans := spansFromWords(alt.Words, float64(alt.Confidence))
	result := transcriber.Result{
		Spans:    spans,
		Diarized: true,
	}
	var text []string
	for _, s := range spans {
		text = append(text, s.Text)
		if s.End > result.Duration {
			result.Duration = s.End
		}
	}
	result.Text = strings.Join(text, " ")
	return result, nil
}

// Close releases the underlying client.
func (a *Adapter) Close() error {
	return a.client.Close()
}

// spansFromWords groups consecutive same-speaker words into spans.
func spansFromWords(words []*speechpb.WordInfo, confidence float64) []transcriber.Span {
	var spans []transcriber.Span
	var cur *transcriber.Span
	var buf []string

	flush := func() {
		if cur != nil {
			cur.Text = strings.Join(buf, " ")
			spans = append(spans, *cur)
			cur = nil
			buf = nil
		}
	}

	for _, w := range words {
		speaker := fmt.Sprintf("SPEAKER_%02d", w.SpeakerTag)
		start := w.StartTime.AsDuration().Seconds()
		end := w.EndTime.AsDuration().Seconds()

		if cur == nil || cur.Speaker != speaker {
			flush()
			cur = &transcriber.Span{
				Speaker:    speaker,
				Start:      start,
				End:        end,
				Confidence: confidence,
			}
		}
		cur.End = end
		buf = append(buf, w.Word)
	}
	flush()
	return spans
}
