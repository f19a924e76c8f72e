// Package main provides the entrypoint for the CalmDrive API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/calmdrive/calmdrive/internal/api"
	"github.com/calmdrive/calmdrive/internal/api/middleware"
	"github.com/calmdrive/calmdrive/internal/database"
	"github.com/calmdrive/calmdrive/internal/drive"
	"github.com/calmdrive/calmdrive/internal/featureflags"
	"github.com/calmdrive/calmdrive/internal/intervention"
	"github.com/calmdrive/calmdrive/internal/profile"
	"github.com/calmdrive/calmdrive/internal/reroute"
	"github.com/calmdrive/calmdrive/internal/routing"
	"github.com/calmdrive/calmdrive/internal/routing/googlemaps"
	"github.com/calmdrive/calmdrive/internal/stress"
	"github.com/calmdrive/calmdrive/internal/telemetry"
	"github.com/calmdrive/calmdrive/internal/trip"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "calmdrive-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting CalmDrive API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Initialize routing provider and cached routing service
	mapsAPIKey := os.Getenv("GOOGLE_MAPS_API_KEY")
	if mapsAPIKey == "" {
		log.Fatal().Msg("GOOGLE_MAPS_API_KEY is required")
	}

	mapsClient, err := googlemaps.NewClient(googlemaps.ClientConfig{
		APIKey: mapsAPIKey,
		Logger: log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Google Maps client")
	}

	routingService := routing.NewService(routing.ServiceConfig{
		Provider: mapsClient,
		Logger:   log,
	})
	log.Info().Str("provider", routingService.ProviderName()).Msg("routing service initialized")

	// Initialize profile repository and service
	profileRepo := profile.NewPostgresRepository(pool)
	profileService := profile.NewService(profileRepo)
	log.Info().Msg("profile service initialized")

	// Initialize stress analysis and trip planning
	analyzer := stress.NewAnalyzer(nil)
	tripService := trip.NewService(trip.ServiceConfig{
		Planner:  routingService,
		Profiles: profileService,
		Analyzer: analyzer,
		Logger:   log,
	})
	log.Info().Msg("trip service initialized")

	// Initialize drive tracking
	driveRepo := drive.NewPostgresRepository(pool)
	driveService := drive.NewService(drive.ServiceConfig{
		Repository: driveRepo,
		Users:      profileRepo,
		Logger:     log,
	})
	log.Info().Msg("drive service initialized")

	// Initialize reroute engine
	rerouteEngine := reroute.NewEngine(routingService, analyzer, reroute.EngineConfig{
		Logger: log,
	})
	log.Info().Msg("reroute engine initialized")

	// Initialize intervention service
	interventionService := intervention.NewService(intervention.ServiceConfig{
		Logger: log,
	})
	log.Info().Msg("intervention service initialized")

	// Initialize feature flags repository and service
	ffRepo := featureflags.NewPostgresRepository(pool)
	ffService := featureflags.NewService(featureflags.ServiceConfig{
		Repository: ffRepo,
		Logger:     log,
		CacheTTL:   1 * time.Minute,
	})
	log.Info().Msg("feature flags service initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:            Version,
		BuildTime:          BuildTime,
		Logger:             log,
		ServiceName:        serviceName,
		Metrics:            metrics,
		DB:                 pool,
		RoutingService:     routingService,
		TripService:        tripService,
		ProfileService:     profileService,
		DriveService:       driveService,
		RerouteEngine:      rerouteEngine,
		Interventions:      interventionService,
		FeatureFlagService: ffService,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
