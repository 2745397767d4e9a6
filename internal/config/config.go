// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Configuration holds all settings for the pipeline.
type Configuration struct {
	Service       ServiceConfig
	Ingest        IngestConfig
	Storage       StorageConfig
	Database      DatabaseConfig
	Kafka         KafkaConfig
	Transcriber   TranscriberConfig
	Observability ObservabilityConfig
}

// ServiceConfig identifies the service and its listeners.
type ServiceConfig struct {
	Principal string
	HTTPPort  string
}

// IngestConfig controls the audio ingest session.
type IngestConfig struct {
	// FrameSeconds is the fixed per-frame duration estimate. The system
	// does not parse codec headers to derive exact duration, so cumulative
	// duration can drift from actual audio length.
	FrameSeconds float64
	// MaxFrameBytes caps a single inbound frame.
	MaxFrameBytes int64
	// MaxFrames caps the in-memory buffer per recording.
	MaxFrames int
}

// StorageConfig configures the recording blob store.
type StorageConfig struct {
	Provider  string // "minio" or "memory"
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// DatabaseConfig configures the transcript segment store.
type DatabaseConfig struct {
	Provider string // "postgres" or "memory"
	DSN      string
}

// KafkaConfig configures the event bus.
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	GroupID string
}

// TranscriberConfig configures the external transcription capability.
type TranscriberConfig struct {
	Provider     string // "google" or "fixture"
	LanguageCode string
	SampleRateHz int
	MinSpeakers  int
	MaxSpeakers  int
	// PollInterval bounds the orchestrator's blocking event poll.
	PollInterval time.Duration
	// SampleTranscriptPath overrides the embedded fixture transcript.
	SampleTranscriptPath string
}

// ObservabilityConfig configures logging and the metrics server.
type ObservabilityConfig struct {
	LogLevel    string
	LogFormat   string
	MetricsAddr string
}

// Load reads configuration from the environment, falling back to defaults
// on missing or unparseable values.
func Load() *Configuration {
	return &Configuration{
		Service: ServiceConfig{
			Principal: envOrDefault("SERVICE_PRINCIPAL", "svc-courtroom-audio"),
			HTTPPort:  envOrDefault("HTTP_PORT", "8080"),
		},
		Ingest: IngestConfig{
			FrameSeconds:  envOrDefaultFloat("INGEST_FRAME_SECONDS", 1.0),
			MaxFrameBytes: envOrDefaultInt64("INGEST_MAX_FRAME_BYTES", 1*1024*1024),
			MaxFrames:     int(envOrDefaultInt64("INGEST_MAX_FRAMES", 7200)),
		},
		Storage: StorageConfig{
			Provider:  envOrDefault("STORAGE_PROVIDER", "minio"),
			Endpoint:  envOrDefault("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: envOrDefault("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: envOrDefault("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    envOrDefault("MINIO_BUCKET", "courtroom-audio"),
			UseSSL:    envOrDefaultBool("MINIO_USE_SSL", false),
		},
		Database: DatabaseConfig{
			Provider: envOrDefault("DB_PROVIDER", "postgres"),
			DSN:      envOrDefault("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=courtroom port=5432 sslmode=disable"),
		},
		Kafka: KafkaConfig{
			Enabled: envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers: splitList(envOrDefault("KAFKA_BROKERS", "")),
			GroupID: envOrDefault("KAFKA_GROUP_ID", "transcription-orchestrator"),
		},
		Transcriber: TranscriberConfig{
			Provider:             envOrDefault("TRANSCRIBER_PROVIDER", "fixture"),
			LanguageCode:         envOrDefault("TRANSCRIBER_LANGUAGE_CODE", "en-US"),
			SampleRateHz:         int(envOrDefaultInt64("TRANSCRIBER_SAMPLE_RATE_HZ", 16000)),
			MinSpeakers:          int(envOrDefaultInt64("TRANSCRIBER_MIN_SPEAKERS", 2)),
			MaxSpeakers:          int(envOrDefaultInt64("TRANSCRIBER_MAX_SPEAKERS", 6)),
			PollInterval:         envOrDefaultDuration("ORCHESTRATOR_POLL_INTERVAL", time.Second),
			SampleTranscriptPath: envOrDefault("SAMPLE_TRANSCRIPT_PATH", ""),
		},
		Observability: ObservabilityConfig{
			LogLevel:    envOrDefault("LOG_LEVEL", "info"),
			LogFormat:   envOrDefault("LOG_FORMAT", "json"),
			MetricsAddr: envOrDefault("METRICS_ADDR", ":9090"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return def
	}
	return b
}

func envOrDefaultInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envOrDefaultFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
