// Package routing provides driving route computation with traffic-aware
// durations and turn-by-turn steps.
package routing

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for routing operations.
var (
	// ErrProviderUnavailable indicates the routing provider is down or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("routing provider unavailable")
	// ErrNoRouteFound indicates no valid route exists between the given points.
	ErrNoRouteFound = errors.New("no route found between the given points")
	// ErrRateLimitExceeded indicates the API quota has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrInvalidCoordinates indicates the provided coordinates are invalid or out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// Provider defines the interface for routing providers.
type Provider interface {
	// GetDirections retrieves driving directions between two points.
	// Returns multiple route alternatives when available.
	GetDirections(ctx context.Context, req DirectionsRequest) (*DirectionsResponse, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// Coordinate represents a geographic point.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Place is a route endpoint, given either as a coordinate or as a free-text
// address the provider geocodes. The coordinate wins when both are set.
type Place struct {
	Coordinate *Coordinate
	Address    string
}

// PlaceFromCoordinate builds a Place from a coordinate.
func PlaceFromCoordinate(c Coordinate) Place {
	return Place{Coordinate: &c}
}

// PlaceFromAddress builds a Place from an address string.
func PlaceFromAddress(address string) Place {
	return Place{Address: address}
}

// Query renders the place the way directions providers accept it.
func (p Place) Query() string {
	if p.Coordinate != nil {
		return fmt.Sprintf("%f,%f", p.Coordinate.Lat, p.Coordinate.Lon)
	}
	return p.Address
}

// DirectionsRequest is the request for computing routes.
type DirectionsRequest struct {
	Origin      Place
	Destination Place
	// Alternatives requests alternative routes from the provider.
	Alternatives bool
	// DepartureTime enables traffic-aware durations. Zero means now.
	DepartureTime time.Time
}

// DirectionsResponse is the response containing route alternatives.
type DirectionsResponse struct {
	Routes    []Route
	Provider  string
	FetchedAt time.Time
}

// Route represents a single route option.
type Route struct {
	GeometryPolyline string       // Encoded polyline (precision 5)
	DistanceMeters   int          // Total distance in meters
	DurationSeconds  int          // Static (no-traffic) duration in seconds
	TrafficSeconds   int          // Traffic-aware duration in seconds (0 when unavailable)
	Summary          string       // Human-readable route summary
	BoundingBox      *BoundingBox // Geographic bounding box
	Steps            []Step       // Turn-by-turn steps
	Warnings         []string     // Provider warnings (tolls, closures, construction)
}

// EffectiveDurationSeconds returns the traffic-aware duration when the
// provider supplied one, falling back to the static duration.
func (r Route) EffectiveDurationSeconds() int {
	if r.TrafficSeconds > 0 {
		return r.TrafficSeconds
	}
	return r.DurationSeconds
}

// BoundingBox represents a geographic bounding box.
type BoundingBox struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// Step represents a turn-by-turn step.
type Step struct {
	Instruction    string      // Human-readable instruction text (HTML stripped)
	Maneuver       string      // Maneuver type (turn-left, roundabout, merge, ...)
	DistanceMeters int         // Distance for this segment
	DurationSecs   int         // Duration for this segment
	Start          *Coordinate // Start location of the step
	End            *Coordinate // End location of the step
}

// Error provides detailed error information from the routing provider.
type Error struct {
	Provider string // Provider that generated the error
	Code     string // Error code from the provider
	Message  string // Human-readable error message
	Err      error  // Underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is transient and the request can be retried.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable) || errors.Is(e.Err, ErrRateLimitExceeded)
}
