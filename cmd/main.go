package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dale108/jury-selection/internal/config"
	"github.com/dale108/jury-selection/internal/events"
	"github.com/dale108/jury-selection/internal/httpapi"
	"github.com/dale108/jury-selection/internal/ingest"
	"github.com/dale108/jury-selection/internal/observability"
	"github.com/dale108/jury-selection/internal/observability/logging"
	"github.com/dale108/jury-selection/internal/orchestrator"
	"github.com/dale108/jury-selection/internal/publisher"
	"github.com/dale108/jury-selection/internal/storage"
	"github.com/dale108/jury-selection/internal/transcriber"
	"github.com/dale108/jury-selection/internal/transcriber/fixture"
	"github.com/dale108/jury-selection/internal/transcriber/google"
)

func main() {
	cfg := config.Load()

	logging.Init(logging.Config{
		Level:      cfg.Observability.LogLevel,
		Format:     cfg.Observability.LogFormat,
		TimeFormat: time.RFC3339,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := newBus(cfg)
	defer bus.Close()

	recordings := newRecordingStore(ctx, cfg)
	segments := newSegmentStore(cfg)
	stt := newTranscriber(ctx, cfg)

	worker := orchestrator.NewWorker(orchestrator.Config{
		Bus:          bus,
		Recordings:   recordings,
		Segments:     segments,
		Transcriber:  stt,
		Publisher:    publisher.New(bus),
		Language:     cfg.Transcriber.LanguageCode,
		PollInterval: cfg.Transcriber.PollInterval,
	})

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := worker.Run(ctx); err != nil {
			log.Error().Err(err).Msg("transcription worker exited with error")
		}
	}()

	obs := observability.NewServer(cfg.Observability.MetricsAddr)
	obs.Start()

	ingestHandler := ingest.NewHandler(recordings, bus, cfg.Ingest.FrameSeconds, ingest.Limits{
		MaxFrameBytes: cfg.Ingest.MaxFrameBytes,
		MaxFrames:     cfg.Ingest.MaxFrames,
	})

	server := &http.Server{
		Addr:        ":" + cfg.Service.HTTPPort,
		Handler:     httpapi.NewRouter(ingestHandler),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("ingest HTTP server started")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ingest HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("ingest HTTP server shutdown failed")
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("observability server shutdown failed")
	}
	<-workerDone
}

func newBus(cfg *config.Configuration) events.Bus {
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) > 0 {
		return events.NewKafkaBus(events.KafkaConfig{
			Brokers:   cfg.Kafka.Brokers,
			GroupID:   cfg.Kafka.GroupID,
			Principal: cfg.Service.Principal,
		})
	}
	log.Info().Msg("Kafka disabled, using in-process event bus")
	return events.NewMemoryBus()
}

func newRecordingStore(ctx context.Context, cfg *config.Configuration) storage.RecordingStore {
	switch cfg.Storage.Provider {
	case "memory":
		log.Info().Msg("using in-memory recording store")
		return storage.NewMemoryRecordingStore()
	default:
		store, err := storage.NewMinioStore(ctx, storage.MinioConfig{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("recording store init failed")
		}
		return store
	}
}

func newSegmentStore(cfg *config.Configuration) storage.SegmentStore {
	switch cfg.Database.Provider {
	case "memory":
		log.Info().Msg("using in-memory segment store")
		return storage.NewMemorySegmentStore()
	default:
		store, err := storage.NewGormSegmentStore(cfg.Database.DSN)
		if err != nil {
			log.Fatal().Err(err).Msg("segment store init failed")
		}
		return store
	}
}

func newTranscriber(ctx context.Context, cfg *config.Configuration) transcriber.Transcriber {
	switch cfg.Transcriber.Provider {
	case "google":
		t, err := google.New(ctx, google.Config{
			SampleRateHz: cfg.Transcriber.SampleRateHz,
			MinSpeakers:  cfg.Transcriber.MinSpeakers,
			MaxSpeakers:  cfg.Transcriber.MaxSpeakers,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("google transcriber init failed")
		}
		return t
	default:
		var (
			t   *fixture.Adapter
			err error
		)
		if path := cfg.Transcriber.SampleTranscriptPath; path != "" {
			t, err = fixture.NewFromFile(path)
		} else {
			t, err = fixture.New()
		}
		if err != nil {
			log.Fatal().Err(err).Msg("fixture transcriber init failed")
		}
		log.Info().Msg("using fixture transcriber")
		return t
	}
}
