// Package reroute decides whether a meaningfully calmer alternative route
// exists from the driver's current position.
package reroute

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/calmdrive/calmdrive/internal/routing"
	"github.com/calmdrive/calmdrive/internal/stress"
	"github.com/calmdrive/calmdrive/pkg/deeplink"
	"github.com/calmdrive/calmdrive/pkg/polyline"
)

// RouteFetcher supplies route alternatives from the current position.
// *routing.Service satisfies this.
type RouteFetcher interface {
	GetRoutes(ctx context.Context, origin, destination routing.Coordinate) (*routing.DirectionsResponse, error)
}

// CheckRequest asks whether a calmer route exists right now.
type CheckRequest struct {
	// Current is the driver's current position.
	Current routing.Coordinate
	// Destination is the trip destination.
	Destination routing.Coordinate
	// CurrentCalmScore is the known score of the route being driven.
	// When nil, the fastest fresh alternative serves as the baseline.
	CurrentCalmScore *int
	// Triggers is the driver's personal stress trigger set.
	Triggers stress.TriggerSet
}

// Decision is the outcome of a reroute check. Unavailability is a normal
// outcome carried in Reason, not an error.
type Decision struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
	// CurrentCalmScore is the baseline the decision was measured against:
	// the caller-supplied score of the route being driven, or the fastest
	// fresh alternative's score when none was supplied. Nil when no routes
	// could be scored at all.
	CurrentCalmScore     *int                  `json:"currentCalmScore,omitempty"`
	Route                *stress.AnalyzedRoute `json:"route,omitempty"`
	DeepLink             string                `json:"deepLink,omitempty"`
	CalmScoreImprovement int                   `json:"calmScoreImprovement,omitempty"`
	ExtraTimeMinutes     int                   `json:"extraTimeMinutes,omitempty"`
	Message              string                `json:"message,omitempty"`
}

// EngineConfig holds configuration for the reroute engine.
type EngineConfig struct {
	// MinImprovement is the calm score gain required before suggesting a
	// reroute. Default: 20.
	MinImprovement int

	// MaxWaypoints caps the waypoints embedded in the deep link. Default: 5.
	MaxWaypoints int

	// Logger is the logger to use. Defaults to a no-op logger.
	Logger zerolog.Logger
}

// Engine evaluates reroute opportunities.
type Engine struct {
	fetcher  RouteFetcher
	analyzer *stress.Analyzer
	config   EngineConfig
}

// NewEngine creates a reroute engine.
func NewEngine(fetcher RouteFetcher, analyzer *stress.Analyzer, config EngineConfig) *Engine {
	if config.MinImprovement <= 0 {
		config.MinImprovement = 20
	}
	if config.MaxWaypoints <= 0 {
		config.MaxWaypoints = deeplink.MaxWaypoints
	}
	if analyzer == nil {
		analyzer = stress.NewAnalyzer(nil)
	}
	return &Engine{
		fetcher:  fetcher,
		analyzer: analyzer,
		config:   config,
	}
}

// Check fetches fresh alternatives and decides whether to suggest one.
// Provider failures and missing alternatives produce an unavailable
// decision rather than an error.
func (e *Engine) Check(ctx context.Context, req CheckRequest) Decision {
	resp, err := e.fetcher.GetRoutes(ctx, req.Current, req.Destination)
	if err != nil {
		e.config.Logger.Warn().Err(err).Msg("reroute check could not fetch routes")
		return Decision{
			Available: false,
			Reason:    fmt.Sprintf("Unable to fetch routes: %v", err),
		}
	}
	if resp == nil || len(resp.Routes) == 0 {
		return Decision{
			Available: false,
			Reason:    "No alternative routes found from your current location.",
		}
	}

	analyzed := e.analyzer.Analyze(resp.Routes, req.Triggers)

	calmest := calmestIndex(analyzed)
	fastest := fastestIndex(analyzed)

	baseline := analyzed[fastest].CalmScore
	if req.CurrentCalmScore != nil {
		baseline = *req.CurrentCalmScore
	}

	improvement := analyzed[calmest].CalmScore - baseline
	if improvement < e.config.MinImprovement {
		return Decision{
			Available:        false,
			Reason:           "No significantly calmer route available. Your current route is good!",
			CurrentCalmScore: &baseline,
		}
	}

	waypoints := extractWaypoints(resp.Routes[calmest], e.config.MaxWaypoints)
	link := deeplink.Directions(
		deeplink.Point{Lat: req.Current.Lat, Lon: req.Current.Lon},
		deeplink.Point{Lat: req.Destination.Lat, Lon: req.Destination.Lon},
		waypoints,
	)

	extraTime := analyzed[calmest].DurationMinutes - analyzed[fastest].DurationMinutes
	if extraTime < 0 {
		extraTime = 0
	}

	route := analyzed[calmest]
	e.config.Logger.Info().
		Int("improvement", improvement).
		Int("extra_minutes", extraTime).
		Str("route_id", route.ID).
		Msg("calmer route found")

	return Decision{
		Available:            true,
		CurrentCalmScore:     &baseline,
		Route:                &route,
		DeepLink:             link,
		CalmScoreImprovement: improvement,
		ExtraTimeMinutes:     extraTime,
		Message:              decisionMessage(improvement, extraTime),
	}
}

// calmestIndex returns the first route with the highest calm score.
func calmestIndex(routes []stress.AnalyzedRoute) int {
	best := 0
	for i, r := range routes {
		if r.CalmScore > routes[best].CalmScore {
			best = i
		}
	}
	return best
}

// fastestIndex returns the first route with the shortest duration.
func fastestIndex(routes []stress.AnalyzedRoute) int {
	best := 0
	for i, r := range routes {
		if r.DurationMinutes < routes[best].DurationMinutes {
			best = i
		}
	}
	return best
}

// extractWaypoints samples intermediate step end-locations from the route.
// Short routes contribute every step end except the final arrival; longer
// routes are sampled evenly. Routes whose steps carry no coordinates fall
// back to sampling the encoded geometry.
func extractWaypoints(route routing.Route, max int) []deeplink.Point {
	points := stepWaypoints(route.Steps, max)
	if len(points) == 0 {
		points = geometryWaypoints(route.GeometryPolyline, max)
	}
	return points
}

func stepWaypoints(steps []routing.Step, max int) []deeplink.Point {
	if len(steps) == 0 {
		return nil
	}

	var points []deeplink.Point

	if len(steps) <= max {
		for _, s := range steps[:len(steps)-1] {
			if s.End == nil {
				continue
			}
			points = append(points, deeplink.Point{Lat: s.End.Lat, Lon: s.End.Lon})
		}
		return points
	}

	stride := len(steps) / (max + 1)
	for i := 1; i <= max; i++ {
		idx := i * stride
		if idx >= len(steps) {
			break
		}
		if steps[idx].End == nil {
			continue
		}
		points = append(points, deeplink.Point{Lat: steps[idx].End.Lat, Lon: steps[idx].End.Lon})
	}
	return points
}

// geometryWaypoints thins the route geometry down to at most max evenly
// spaced interior points.
func geometryWaypoints(encoded string, max int) []deeplink.Point {
	coords := polyline.Decode(encoded)
	if len(coords) < 3 {
		return nil
	}

	interval := polyline.Length(coords) / float64(max+1)
	if interval <= 0 {
		return nil
	}

	sampled := polyline.Sample(coords, interval)
	if len(sampled) <= 2 {
		return nil
	}

	// The deep link already carries origin and destination.
	interior := sampled[1 : len(sampled)-1]
	if len(interior) > max {
		interior = interior[:max]
	}

	points := make([]deeplink.Point, 0, len(interior))
	for _, c := range interior {
		points = append(points, deeplink.Point{Lat: c.Lat, Lon: c.Lon})
	}
	return points
}

// decisionMessage phrases the suggestion, more enthusiastic for big gains.
func decisionMessage(improvement, extraTime int) string {
	if improvement >= 30 {
		return fmt.Sprintf("I found a much calmer route! It's %d points calmer and only adds %d minutes.", improvement, extraTime)
	}
	return fmt.Sprintf("There's a calmer route available (+%d calm score, +%d min).", improvement, extraTime)
}
