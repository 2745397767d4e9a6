// Package publisher republishes persisted transcript segments on the
// session-scoped live-transcript topic for downstream real-time consumers.
package publisher

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dale108/jury-selection/internal/events"
	"github.com/dale108/jury-selection/internal/models"
	"github.com/dale108/jury-selection/internal/observability/metrics"
)

// Publisher is a thin wrapper over the event bus. It is fire-and-forget:
// it does not track consumers or retry delivery.
type Publisher struct {
	bus     events.Bus
	metrics *metrics.Metrics
}

// New creates a transcript publisher.
func New(bus events.Bus) *Publisher {
	return &Publisher{bus: bus, metrics: metrics.DefaultMetrics}
}

// PublishSegment publishes one transcript-ready event for a persisted segment.
func (p *Publisher) PublishSegment(ctx context.Context, seg models.TranscriptSegment) error {
	ev := models.NewTranscriptReadyEvent(seg)
	topic := events.TranscriptReadyTopic(ev.SessionID)

	if err := p.bus.Publish(ctx, topic, ev); err != nil {
		log.Error().Err(err).
			Str("segmentId", ev.SegmentID).
			Str("sessionId", ev.SessionID).
			Msg("failed to publish transcript-ready event")
		return err
	}
	p.metrics.RecordTranscriptRepublished()
	return nil
}
