// Package trip plans routes for a drive and prepares the driver for the
// selected one.
package trip

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/calmdrive/calmdrive/internal/profile"
	"github.com/calmdrive/calmdrive/internal/routing"
	"github.com/calmdrive/calmdrive/internal/stress"
)

// Predefined errors for trip operations.
var (
	// ErrNoRoutesFound is returned when the provider finds no route between
	// the requested places.
	ErrNoRoutesFound = errors.New("no routes found between origin and destination")

	// ErrRouteNotFound is returned when a prepare call references a route id
	// that is not in the user's current plan session.
	ErrRouteNotFound = errors.New("route not found, plan a trip first")
)

// RoutePlanner fetches route alternatives between two places.
type RoutePlanner interface {
	GetDirections(ctx context.Context, req routing.DirectionsRequest) (*routing.DirectionsResponse, error)
}

// ProfileDirectory supplies the parts of a user's profile that shape
// planning and preparation. Unknown users yield empty results.
type ProfileDirectory interface {
	TriggerSet(ctx context.Context, userID string) (stress.TriggerSet, error)
	Preferences(ctx context.Context, userID string) ([]profile.CalmingPreference, error)
}

// PlanRequest asks for scored route alternatives for a trip.
type PlanRequest struct {
	UserID        string
	Origin        string
	Destination   string
	DepartureTime time.Time
}

// PlanResult holds the analyzed route alternatives in provider order.
// Exactly one route is marked recommended.
type PlanResult struct {
	Routes []stress.AnalyzedRoute `json:"routes"`
}

// PrepareRequest asks for preparation details for a planned route.
type PrepareRequest struct {
	UserID  string
	RouteID string
}

// PointWithTip is a stress point annotated with a driving tip.
type PointWithTip struct {
	stress.Point
	Tip string `json:"tip"`
}

// Preparation is the pre-drive briefing for a selected route.
type Preparation struct {
	Checklist         []string          `json:"checklist"`
	StressPoints      []PointWithTip    `json:"stressPointsWithTips"`
	BreathingExercise BreathingExercise `json:"breathingExercise"`
}

// ServiceConfig holds configuration for the trip service.
type ServiceConfig struct {
	Planner  RoutePlanner
	Profiles ProfileDirectory
	Analyzer *stress.Analyzer
	Sessions *SessionStore
	Logger   zerolog.Logger
}

// Service plans trips and prepares drivers for them.
type Service struct {
	planner  RoutePlanner
	profiles ProfileDirectory
	analyzer *stress.Analyzer
	sessions *SessionStore
	logger   zerolog.Logger
}

// NewService creates a trip service.
func NewService(cfg ServiceConfig) *Service {
	analyzer := cfg.Analyzer
	if analyzer == nil {
		analyzer = stress.NewAnalyzer(nil)
	}
	sessions := cfg.Sessions
	if sessions == nil {
		sessions = NewSessionStore(0)
	}
	return &Service{
		planner:  cfg.Planner,
		profiles: cfg.Profiles,
		analyzer: analyzer,
		sessions: sessions,
		logger:   cfg.Logger,
	}
}

// Plan fetches route alternatives, scores them against the user's triggers
// and stores them in the user's plan session for later preparation.
func (s *Service) Plan(ctx context.Context, req PlanRequest) (*PlanResult, error) {
	triggers, err := s.profiles.TriggerSet(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("loading user triggers: %w", err)
	}

	resp, err := s.planner.GetDirections(ctx, routing.DirectionsRequest{
		Origin:        routing.PlaceFromAddress(req.Origin),
		Destination:   routing.PlaceFromAddress(req.Destination),
		Alternatives:  true,
		DepartureTime: req.DepartureTime,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching routes: %w", err)
	}

	if len(resp.Routes) == 0 {
		return nil, ErrNoRoutesFound
	}

	analyzed := s.analyzer.Analyze(resp.Routes, triggers)
	s.sessions.Put(req.UserID, analyzed)

	s.logger.Info().
		Str("user_id", req.UserID).
		Int("route_count", len(analyzed)).
		Msg("planned trip routes")

	return &PlanResult{Routes: analyzed}, nil
}

// Prepare builds the pre-drive briefing for a route from the user's current
// plan session.
func (s *Service) Prepare(ctx context.Context, req PrepareRequest) (*Preparation, error) {
	route, ok := s.sessions.Get(req.UserID, req.RouteID)
	if !ok {
		return nil, ErrRouteNotFound
	}

	prefs, err := s.profiles.Preferences(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("loading user preferences: %w", err)
	}

	checklist := append([]string(nil), baseChecklist...)
	for _, pref := range prefs {
		if item, ok := preferenceChecklist[pref.Type]; ok {
			checklist = append(checklist, item)
		}
	}

	points := make([]PointWithTip, 0, len(route.StressPoints))
	for _, sp := range route.StressPoints {
		points = append(points, PointWithTip{
			Point: sp,
			Tip:   TipFor(sp.Type),
		})
	}

	s.logger.Debug().
		Str("user_id", req.UserID).
		Str("route_id", req.RouteID).
		Int("stress_points", len(points)).
		Msg("prepared route briefing")

	return &Preparation{
		Checklist:         checklist,
		StressPoints:      points,
		BreathingExercise: prepareBreathingExercise(),
	}, nil
}
