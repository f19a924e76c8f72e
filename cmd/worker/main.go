// Package main provides the entrypoint for the CalmDrive background worker.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/calmdrive/calmdrive/internal/database"
	"github.com/calmdrive/calmdrive/internal/drive"
	"github.com/calmdrive/calmdrive/internal/featureflags"
	"github.com/calmdrive/calmdrive/internal/intervention"
	"github.com/calmdrive/calmdrive/internal/profile"
	"github.com/calmdrive/calmdrive/internal/reroute"
	"github.com/calmdrive/calmdrive/internal/routing"
	"github.com/calmdrive/calmdrive/internal/routing/googlemaps"
	"github.com/calmdrive/calmdrive/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "calmdrive-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting CalmDrive worker")

	// Worker also exposes a health endpoint for Cloud Run
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load file-based config when provided; env fills in the rest.
	var cfg worker.Config
	if path := os.Getenv("WORKER_CONFIG_PATH"); path != "" {
		loaded, err := worker.LoadConfig(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("failed to load worker config")
		}
		cfg = *loaded
	}
	if v := os.Getenv("PUBSUB_PROJECT_ID"); v != "" {
		cfg.ProjectID = v
	}
	if v := os.Getenv("PUBSUB_SUBSCRIPTION"); v != "" {
		cfg.Subscription = v
	}
	if cfg.ProjectID == "" || cfg.Subscription == "" {
		log.Fatal().Msg("PUBSUB_PROJECT_ID and PUBSUB_SUBSCRIPTION are required")
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	// Routing provider (optional for the worker: without it, warmup and
	// proactive reroutes are skipped but stress readings still process).
	var routingService *routing.Service
	if apiKey := os.Getenv("GOOGLE_MAPS_API_KEY"); apiKey != "" {
		mapsClient, err := googlemaps.NewClient(googlemaps.ClientConfig{
			APIKey: apiKey,
			Logger: log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize Google Maps client")
		}
		routingService = routing.NewService(routing.ServiceConfig{
			Provider: mapsClient,
			Logger:   log,
		})
	} else {
		log.Warn().Msg("GOOGLE_MAPS_API_KEY not set - route warmup and proactive reroutes disabled")
	}

	profileRepo := profile.NewPostgresRepository(pool)
	profileService := profile.NewService(profileRepo)

	driveService := drive.NewService(drive.ServiceConfig{
		Repository: drive.NewPostgresRepository(pool),
		Users:      profileRepo,
		Logger:     log,
	})

	interventionService := intervention.NewService(intervention.ServiceConfig{
		Logger: log,
	})

	ffService := featureflags.NewService(featureflags.ServiceConfig{
		Repository: featureflags.NewPostgresRepository(pool),
		Logger:     log,
		CacheTTL:   1 * time.Minute,
	})

	processorCfg := worker.ProcessorConfig{
		Interventions: interventionService,
		Profiles:      profileService,
		Drives:        driveService,
		Flags:         ffService,
		Logger:        log,
	}
	if routingService != nil {
		processorCfg.Reroutes = reroute.NewEngine(routingService, nil, reroute.EngineConfig{
			Logger: log,
		})
	}
	processor := worker.NewStressProcessor(processorCfg)

	warmupCfg := worker.WarmupJobConfig{
		Config: cfg.Warmup,
		Logger: log,
	}
	if routingService != nil {
		warmupCfg.Routes = routingService
	}
	warmupJob := worker.NewWarmupJob(warmupCfg)

	pubsubHandler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
		ProjectID:        cfg.ProjectID,
		SubscriptionName: cfg.Subscription,
		Processor:        processor,
		WarmupJob:        warmupJob,
		Logger:           log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create pubsub handler")
	}
	defer pubsubHandler.Close()

	// HTTP server for health checks and metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "healthy",
			"version": Version,
		})
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"stress":  processor.MetricsSnapshot(),
			"warmup":  warmupJob.MetricsSnapshot(),
			"version": Version,
		})
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	// Start consuming pubsub messages
	go func() {
		if err := pubsubHandler.Start(ctx); err != nil && ctx.Err() == nil {
			log.Fatal().Err(err).Msg("pubsub handler stopped")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
