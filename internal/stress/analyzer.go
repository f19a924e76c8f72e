package stress

import (
	"fmt"
	"math"

	"github.com/calmdrive/calmdrive/internal/routing"
)

// AnalyzedRoute is a route annotated with its calm score and stress points.
type AnalyzedRoute struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	DurationMinutes int          `json:"durationMinutes"`
	DistanceKm      float64      `json:"distanceKm"`
	CalmScore       int          `json:"calmScore"`
	Band            Band         `json:"stressLevel"`
	StressPoints    []Point      `json:"stressPoints"`
	IsRecommended   bool         `json:"isRecommended"`
	Polyline        string       `json:"polyline,omitempty"`
	Bounds          *RouteBounds `json:"bounds,omitempty"`
}

// RouteBounds is the geographic bounding box of a route, for fitting the
// map viewport around it.
type RouteBounds struct {
	MinLat float64 `json:"minLat"`
	MinLon float64 `json:"minLon"`
	MaxLat float64 `json:"maxLat"`
	MaxLon float64 `json:"maxLon"`
}

// Analyzer scores a batch of route alternatives and marks the recommended one.
type Analyzer struct {
	calculator *Calculator
}

// NewAnalyzer creates an Analyzer using the given calculator.
func NewAnalyzer(calculator *Calculator) *Analyzer {
	if calculator == nil {
		calculator = NewCalculator(DefaultCalculatorConfig())
	}
	return &Analyzer{calculator: calculator}
}

// Analyze scores every route and marks exactly one as recommended: the
// highest calm score, ties broken by shorter duration. Returns an empty
// slice for empty input.
func (a *Analyzer) Analyze(routes []routing.Route, triggers TriggerSet) []AnalyzedRoute {
	analyzed := make([]AnalyzedRoute, 0, len(routes))

	for i, route := range routes {
		result := a.calculator.Score(route, triggers)

		name := route.Summary
		if name == "" {
			name = fmt.Sprintf("Route %d", i+1)
		}

		points := result.Points
		if points == nil {
			points = []Point{}
		}

		analyzed = append(analyzed, AnalyzedRoute{
			ID:              fmt.Sprintf("route_%d", i+1),
			Name:            name,
			DurationMinutes: minutes(route.EffectiveDurationSeconds()),
			DistanceKm:      roundKm(route.DistanceMeters),
			CalmScore:       result.Score,
			Band:            result.Band,
			StressPoints:    points,
			Polyline:        route.GeometryPolyline,
			Bounds:          routeBounds(route.BoundingBox),
		})
	}

	if best := recommendedIndex(analyzed); best >= 0 {
		analyzed[best].IsRecommended = true
	}

	return analyzed
}

func routeBounds(box *routing.BoundingBox) *RouteBounds {
	if box == nil {
		return nil
	}
	return &RouteBounds{
		MinLat: box.MinLat,
		MinLon: box.MinLon,
		MaxLat: box.MaxLat,
		MaxLon: box.MaxLon,
	}
}

// recommendedIndex picks the route with the highest calm score, preferring
// the shorter duration on ties. Returns -1 for an empty slice.
func recommendedIndex(routes []AnalyzedRoute) int {
	best := -1
	for i, r := range routes {
		if best < 0 {
			best = i
			continue
		}
		if r.CalmScore > routes[best].CalmScore ||
			(r.CalmScore == routes[best].CalmScore && r.DurationMinutes < routes[best].DurationMinutes) {
			best = i
		}
	}
	return best
}

// minutes converts seconds to whole minutes using banker's rounding.
func minutes(seconds int) int {
	return int(math.RoundToEven(float64(seconds) / 60))
}

// roundKm converts meters to kilometers with one decimal.
func roundKm(meters int) float64 {
	return math.Round(float64(meters)/100) / 10
}
