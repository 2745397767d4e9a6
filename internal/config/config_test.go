package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Service.HTTPPort != "8080" {
		t.Errorf("HTTPPort = %s, want 8080", cfg.Service.HTTPPort)
	}
	if cfg.Ingest.FrameSeconds != 1.0 {
		t.Errorf("FrameSeconds = %v, want 1.0", cfg.Ingest.FrameSeconds)
	}
	if cfg.Ingest.MaxFrameBytes != 1*1024*1024 {
		t.Errorf("MaxFrameBytes = %d, want 1MiB", cfg.Ingest.MaxFrameBytes)
	}
	if cfg.Ingest.MaxFrames != 7200 {
		t.Errorf("MaxFrames = %d, want 7200", cfg.Ingest.MaxFrames)
	}
	if cfg.Storage.Provider != "minio" {
		t.Errorf("Storage.Provider = %s, want minio", cfg.Storage.Provider)
	}
	if cfg.Database.Provider != "postgres" {
		t.Errorf("Database.Provider = %s, want postgres", cfg.Database.Provider)
	}
	if cfg.Kafka.Enabled {
		t.Error("Kafka.Enabled = true, want false by default")
	}
	if len(cfg.Kafka.Brokers) != 0 {
		t.Errorf("Kafka.Brokers = %v, want empty", cfg.Kafka.Brokers)
	}
	if cfg.Transcriber.Provider != "fixture" {
		t.Errorf("Transcriber.Provider = %s, want fixture", cfg.Transcriber.Provider)
	}
	if cfg.Transcriber.LanguageCode != "en-US" {
		t.Errorf("LanguageCode = %s, want en-US", cfg.Transcriber.LanguageCode)
	}
	if cfg.Transcriber.PollInterval != time.Second {
		t.Errorf("PollInterval = %v, want 1s", cfg.Transcriber.PollInterval)
	}
	if cfg.Observability.LogLevel != "info" {
		t.Errorf("LogLevel = %s, want info", cfg.Observability.LogLevel)
	}
}

func TestLoadCustomValues(t *testing.T) {
	t.Setenv("HTTP_PORT", "9191")
	t.Setenv("INGEST_FRAME_SECONDS", "0.5")
	t.Setenv("INGEST_MAX_FRAMES", "100")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092")
	t.Setenv("TRANSCRIBER_PROVIDER", "google")
	t.Setenv("ORCHESTRATOR_POLL_INTERVAL", "250ms")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg := Load()

	if cfg.Service.HTTPPort != "9191" {
		t.Errorf("HTTPPort = %s, want 9191", cfg.Service.HTTPPort)
	}
	if cfg.Ingest.FrameSeconds != 0.5 {
		t.Errorf("FrameSeconds = %v, want 0.5", cfg.Ingest.FrameSeconds)
	}
	if cfg.Ingest.MaxFrames != 100 {
		t.Errorf("MaxFrames = %d, want 100", cfg.Ingest.MaxFrames)
	}
	if !cfg.Kafka.Enabled {
		t.Error("Kafka.Enabled = false, want true")
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "broker-2:9092" {
		t.Errorf("Kafka.Brokers = %v, want two trimmed brokers", cfg.Kafka.Brokers)
	}
	if cfg.Transcriber.Provider != "google" {
		t.Errorf("Transcriber.Provider = %s, want google", cfg.Transcriber.Provider)
	}
	if cfg.Transcriber.PollInterval != 250*time.Millisecond {
		t.Errorf("PollInterval = %v, want 250ms", cfg.Transcriber.PollInterval)
	}
	if !cfg.Storage.UseSSL {
		t.Error("Storage.UseSSL = false, want true")
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("INGEST_FRAME_SECONDS", "fast")
	t.Setenv("INGEST_MAX_FRAME_BYTES", "1MB")
	t.Setenv("KAFKA_ENABLED", "yes please")
	t.Setenv("ORCHESTRATOR_POLL_INTERVAL", "soon")

	cfg := Load()

	if cfg.Ingest.FrameSeconds != 1.0 {
		t.Errorf("FrameSeconds = %v, want default 1.0", cfg.Ingest.FrameSeconds)
	}
	if cfg.Ingest.MaxFrameBytes != 1*1024*1024 {
		t.Errorf("MaxFrameBytes = %d, want default", cfg.Ingest.MaxFrameBytes)
	}
	if cfg.Kafka.Enabled {
		t.Error("Kafka.Enabled = true, want default false on bad value")
	}
	if cfg.Transcriber.PollInterval != time.Second {
		t.Errorf("PollInterval = %v, want default 1s", cfg.Transcriber.PollInterval)
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"a,b,c", 3},
		{" a , , b ", 2},
	}
	for _, tt := range tests {
		if got := splitList(tt.in); len(got) != tt.want {
			t.Errorf("splitList(%q) = %v, want %d entries", tt.in, got, tt.want)
		}
	}
}
