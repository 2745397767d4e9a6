// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "courtroom_audio"

// Metrics holds all Prometheus metrics for the pipeline.
type Metrics struct {
	// Ingest stream metrics
	StreamsTotal   prometheus.Counter
	StreamsActive  prometheus.Gauge
	StreamDuration prometheus.Histogram

	// Frame metrics
	AudioBytesReceived  prometheus.Counter
	AudioFramesReceived prometheus.Counter
	FramesRejected      *prometheus.CounterVec

	// Recording metrics
	RecordingsCompleted prometheus.Counter
	RecordingsFailed    *prometheus.CounterVec
	MergesDegraded      prometheus.Counter

	// Event bus metrics
	BusPublishTotal   *prometheus.CounterVec
	BusPublishErrors  *prometheus.CounterVec
	BusPublishLatency *prometheus.HistogramVec

	// Orchestrator metrics
	TranscriptionsTotal    prometheus.Counter
	TranscriptionsEmpty    prometheus.Counter
	TranscriptionsFailed   *prometheus.CounterVec
	TranscriptionLatency   prometheus.Histogram
	SegmentsPersisted      prometheus.Counter
	SegmentReplaceFailed   prometheus.Counter
	TranscriptsRepublished prometheus.Counter
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		StreamsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "streams_total",
			Help:      "Total number of ingest streams opened",
		}),
		StreamsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "streams_active",
			Help:      "Number of currently active ingest streams",
		}),
		StreamDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stream_duration_seconds",
			Help:      "Duration of ingest streams in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 900},
		}),

		AudioBytesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_received_total",
			Help:      "Total audio bytes received",
		}),
		AudioFramesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_frames_received_total",
			Help:      "Total audio frames received",
		}),
		FramesRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_frames_rejected_total",
			Help:      "Total audio frames rejected",
		}, []string{"reason"}),

		RecordingsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recordings_completed_total",
			Help:      "Total recordings finalized and stored successfully",
		}),
		RecordingsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recordings_failed_total",
			Help:      "Total recordings marked failed at finalize",
		}, []string{"reason"}),
		MergesDegraded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merges_degraded_total",
			Help:      "Total frame merges that fell back to raw concatenation",
		}),

		BusPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bus_publish_total",
			Help:      "Total number of events published to the bus",
		}, []string{"family"}),
		BusPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bus_publish_errors_total",
			Help:      "Total number of bus publish errors",
		}, []string{"family"}),
		BusPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bus_publish_latency_seconds",
			Help:      "Bus publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"family"}),

		TranscriptionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcriptions_total",
			Help:      "Total recordings picked up for transcription",
		}),
		TranscriptionsEmpty: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcriptions_empty_total",
			Help:      "Total transcriptions that returned no speech",
		}),
		TranscriptionsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcriptions_failed_total",
			Help:      "Total transcription attempts that failed",
		}, []string{"stage"}),
		TranscriptionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcription_latency_seconds",
			Help:      "External transcription call latency in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		SegmentsPersisted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_persisted_total",
			Help:      "Total transcript segments persisted",
		}),
		SegmentReplaceFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segment_replace_failed_total",
			Help:      "Total failed segment replace transactions",
		}),
		TranscriptsRepublished: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_republished_total",
			Help:      "Total transcript-ready events republished",
		}),
	}
}

// RecordStreamStart records a new ingest stream opening.
func (m *Metrics) RecordStreamStart() {
	m.StreamsTotal.Inc()
	m.StreamsActive.Inc()
}

// RecordStreamEnd records an ingest stream closing.
func (m *Metrics) RecordStreamEnd(durationSeconds float64) {
	m.StreamsActive.Dec()
	m.StreamDuration.Observe(durationSeconds)
}

// RecordFrameReceived records one accepted audio frame.
func (m *Metrics) RecordFrameReceived(bytes int) {
	m.AudioBytesReceived.Add(float64(bytes))
	m.AudioFramesReceived.Inc()
}

// RecordFrameRejected records a rejected frame.
func (m *Metrics) RecordFrameRejected(reason string) {
	m.FramesRejected.WithLabelValues(reason).Inc()
}

// RecordRecordingCompleted records a successful finalize.
func (m *Metrics) RecordRecordingCompleted() {
	m.RecordingsCompleted.Inc()
}

// RecordRecordingFailed records a finalize failure.
func (m *Metrics) RecordRecordingFailed(reason string) {
	m.RecordingsFailed.WithLabelValues(reason).Inc()
}

// RecordMergeDegraded records a merge that fell back to raw concatenation.
func (m *Metrics) RecordMergeDegraded() {
	m.MergesDegraded.Inc()
}

// RecordBusPublish records a bus publish attempt.
func (m *Metrics) RecordBusPublish(family string, err error, latencySeconds float64) {
	m.BusPublishTotal.WithLabelValues(family).Inc()
	m.BusPublishLatency.WithLabelValues(family).Observe(latencySeconds)
	if err != nil {
		m.BusPublishErrors.WithLabelValues(family).Inc()
	}
}

// RecordTranscriptionStart records an event picked up by the orchestrator.
func (m *Metrics) RecordTranscriptionStart() {
	m.TranscriptionsTotal.Inc()
}

// RecordTranscriptionEmpty records a transcription with no usable spans.
func (m *Metrics) RecordTranscriptionEmpty() {
	m.TranscriptionsEmpty.Inc()
}

// RecordTranscriptionFailed records a failed stage while processing an event.
func (m *Metrics) RecordTranscriptionFailed(stage string) {
	m.TranscriptionsFailed.WithLabelValues(stage).Inc()
}

// RecordTranscriptionLatency records the external transcription call latency.
func (m *Metrics) RecordTranscriptionLatency(seconds float64) {
	m.TranscriptionLatency.Observe(seconds)
}

// RecordSegmentsPersisted records a successful segment batch replace.
func (m *Metrics) RecordSegmentsPersisted(count int) {
	m.SegmentsPersisted.Add(float64(count))
}

// RecordSegmentReplaceFailed records a failed replace transaction.
func (m *Metrics) RecordSegmentReplaceFailed() {
	m.SegmentReplaceFailed.Inc()
}

// RecordTranscriptRepublished records one transcript-ready event published.
func (m *Metrics) RecordTranscriptRepublished() {
	m.TranscriptsRepublished.Inc()
}
