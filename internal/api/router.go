// Package api provides the HTTP API for CalmDrive.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/calmdrive/calmdrive/internal/api/handler"
	"github.com/calmdrive/calmdrive/internal/api/middleware"
	"github.com/calmdrive/calmdrive/internal/drive"
	"github.com/calmdrive/calmdrive/internal/featureflags"
	"github.com/calmdrive/calmdrive/internal/intervention"
	"github.com/calmdrive/calmdrive/internal/profile"
	"github.com/calmdrive/calmdrive/internal/reroute"
	"github.com/calmdrive/calmdrive/internal/routing"
	"github.com/calmdrive/calmdrive/internal/trip"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version            string
	BuildTime          string
	Logger             zerolog.Logger
	ServiceName        string
	Metrics            *middleware.Metrics
	DB                 handler.Pinger
	RoutingService     *routing.Service
	TripService        *trip.Service
	ProfileService     *profile.Service
	DriveService       *drive.Service
	RerouteEngine      *reroute.Engine
	Interventions      *intervention.Service
	FeatureFlagService *featureflags.Service
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "calmdrive-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.DB, cfg.RoutingService)
	tripHandler := handler.NewTripHandler(cfg.TripService)
	rerouteHandler := handler.NewRerouteHandler(cfg.RerouteEngine, cfg.ProfileService, cfg.DriveService, cfg.FeatureFlagService)
	interventionHandler := handler.NewInterventionHandler(cfg.Interventions, cfg.ProfileService, cfg.DriveService)
	emotionHandler := handler.NewEmotionHandler(cfg.Interventions, cfg.ProfileService, cfg.DriveService)
	profileHandler := handler.NewProfileHandler(cfg.ProfileService)
	driveHandler := handler.NewDriveHandler(cfg.DriveService)
	metadataHandler := handler.NewMetadataHandler()
	metricsHandler := handler.NewMetricsHandler(cfg.DriveService)
	featureFlagsHandler := handler.NewFeatureFlagsHandler(cfg.FeatureFlagService)

	// Create rate limit middleware for different endpoint categories
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Metadata endpoints (public) - standard rate limiting
		r.Route("/metadata", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/enums", metadataHandler.GetEnums)
		})

		// Route planning - provider calls, strict rate limiting
		r.Route("/routes", func(r chi.Router) {
			r.With(expensiveRateLimit).Post("/plan", tripHandler.PlanRoutes)
			r.With(standardRateLimit).Post("/prepare", tripHandler.PrepareRoute)
		})

		// Mid-drive reroute checks - provider calls, strict rate limiting
		r.With(expensiveRateLimit).Post("/reroute/check", rerouteHandler.CheckReroute)

		// Interventions
		r.Route("/intervention", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Post("/decide", interventionHandler.Decide)
			r.Post("/calming-message", interventionHandler.CalmingMessage)
			r.Post("/breathing-exercise", interventionHandler.BreathingExercise)
			r.Post("/grounding-exercise", interventionHandler.GroundingExercise)
		})

		// Emotion check-ins
		r.With(standardRateLimit).Post("/emotion/reading", emotionHandler.SubmitReading)

		// Users and their profiles
		r.Route("/users", func(r chi.Router) {
			r.With(standardRateLimit).Post("/", profileHandler.CreateUser)

			r.Route("/{userId}", func(r chi.Router) {
				r.Use(middleware.RateLimitByUser(middleware.StandardRateLimit)) // 100 req/min per user

				r.Route("/profile", func(r chi.Router) {
					r.Get("/", profileHandler.GetProfile)
					r.Put("/", profileHandler.UpdateProfile)
					r.Delete("/", profileHandler.DeleteProfile)
				})

				r.Get("/active-drive", driveHandler.ActiveDrive)
				r.Get("/drives", driveHandler.ListDrives)
				r.Get("/stats", driveHandler.UserStats)
			})
		})

		// Drive lifecycle
		r.Route("/drives", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Post("/start", driveHandler.StartDrive)
			r.Route("/{driveId}", func(r chi.Router) {
				r.Get("/", driveHandler.GetDrive)
				r.Post("/end", driveHandler.EndDrive)
				r.Post("/events", driveHandler.RecordEvent)
				r.Post("/accept-reroute", driveHandler.AcceptReroute)
			})
		})

		// Post-drive debrief
		r.With(standardRateLimit).Post("/debrief/process", driveHandler.ProcessDebrief)

		// Aggregate usage metrics
		r.Route("/metrics", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/dashboard", metricsHandler.Dashboard)
			r.Get("/events/summary", metricsHandler.EventSummary)
			r.Get("/users/{userId}", metricsHandler.UserMetrics)
		})

		// Admin endpoints - for internal operations
		r.Route("/admin", func(r chi.Router) {
			r.Use(standardRateLimit)

			// Feature flags management
			r.Route("/feature-flags", func(r chi.Router) {
				r.Get("/", featureFlagsHandler.ListFeatureFlags)
				r.Put("/", featureFlagsHandler.UpsertFeatureFlags)
				r.Post("/invalidate", featureFlagsHandler.InvalidateCache)
			})
		})
	})

	return r
}
