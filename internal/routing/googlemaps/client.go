// Package googlemaps provides a routing provider backed by the Google Maps
// Directions API.
package googlemaps

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	maps "googlemaps.github.io/maps"

	"github.com/calmdrive/calmdrive/internal/provider/resilience"
	"github.com/calmdrive/calmdrive/internal/routing"
	"github.com/calmdrive/calmdrive/pkg/polyline"
)

const (
	// ProviderName identifies this routing provider.
	ProviderName = "googlemaps"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second
)

// directionsAPI is the subset of the Maps SDK client used here.
type directionsAPI interface {
	Directions(ctx context.Context, r *maps.DirectionsRequest) ([]maps.Route, []maps.GeocodedWaypoint, error)
}

// ClientConfig holds configuration for the Google Maps client.
type ClientConfig struct {
	// APIKey is the Google Maps API key (required).
	APIKey string

	// Timeout is the request timeout (optional, defaults to 10s).
	Timeout time.Duration

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a client with a resilient transport.
	HTTPClient *http.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Google Maps Directions API client.
type Client struct {
	api    directionsAPI
	logger zerolog.Logger
}

// NewClient creates a new Google Maps routing client.
func NewClient(cfg ClientConfig) (*Client, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		transportCfg := resilience.DefaultClientConfig(ProviderName)
		transportCfg.Timeout = timeout
		httpClient = &http.Client{
			Transport: resilience.NewTransport(transportCfg, nil),
			Timeout:   timeout,
		}
	}

	mapsClient, err := maps.NewClient(
		maps.WithAPIKey(cfg.APIKey),
		maps.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, err
	}

	return &Client{
		api:    mapsClient,
		logger: cfg.Logger,
	}, nil
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// GetDirections retrieves driving directions between two places, with
// traffic-aware durations when available.
func (c *Client) GetDirections(ctx context.Context, req routing.DirectionsRequest) (*routing.DirectionsResponse, error) {
	departure := "now"
	if !req.DepartureTime.IsZero() {
		departure = strconv.FormatInt(req.DepartureTime.Unix(), 10)
	}

	mapsReq := &maps.DirectionsRequest{
		Origin:        req.Origin.Query(),
		Destination:   req.Destination.Query(),
		Mode:          maps.TravelModeDriving,
		Alternatives:  req.Alternatives,
		DepartureTime: departure,
		TrafficModel:  maps.TrafficModelBestGuess,
		Units:         maps.UnitsMetric,
		Language:      "en",
	}

	c.logger.Debug().
		Str("origin", mapsReq.Origin).
		Str("destination", mapsReq.Destination).
		Bool("alternatives", req.Alternatives).
		Msg("requesting directions from Google Maps")

	mapsRoutes, _, err := c.api.Directions(ctx, mapsReq)
	if err != nil {
		return nil, c.mapError(err)
	}

	if len(mapsRoutes) == 0 {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "NO_ROUTE",
			Message:  "no route found between the given points",
			Err:      routing.ErrNoRouteFound,
		}
	}

	result := c.toDirectionsResponse(mapsRoutes)

	c.logger.Debug().
		Int("route_count", len(result.Routes)).
		Msg("received directions from Google Maps")

	return result, nil
}

// mapError maps Maps SDK errors to domain errors. The SDK surfaces API
// statuses as error strings ("maps: ZERO_RESULTS - ...").
func (c *Client) mapError(err error) error {
	msg := err.Error()

	switch {
	case strings.Contains(msg, "ZERO_RESULTS"), strings.Contains(msg, "NOT_FOUND"):
		return &routing.Error{
			Provider: ProviderName,
			Code:     "NO_ROUTE",
			Message:  "no route found between the given points",
			Err:      routing.ErrNoRouteFound,
		}
	case strings.Contains(msg, "OVER_QUERY_LIMIT"), strings.Contains(msg, "OVER_DAILY_LIMIT"):
		return &routing.Error{
			Provider: ProviderName,
			Code:     "RATE_LIMIT",
			Message:  "API rate limit exceeded, please try again later",
			Err:      routing.ErrRateLimitExceeded,
		}
	case strings.Contains(msg, "REQUEST_DENIED"):
		return &routing.Error{
			Provider: ProviderName,
			Code:     "REQUEST_DENIED",
			Message:  "API access denied - check API key configuration",
			Err:      routing.ErrProviderUnavailable,
		}
	case strings.Contains(msg, "INVALID_REQUEST"):
		return &routing.Error{
			Provider: ProviderName,
			Code:     "INVALID_REQUEST",
			Message:  "routing provider rejected the request",
			Err:      routing.ErrInvalidCoordinates,
		}
	default:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach routing provider",
			Err:      routing.ErrProviderUnavailable,
		}
	}
}

// toDirectionsResponse converts Maps SDK routes to the domain model.
func (c *Client) toDirectionsResponse(mapsRoutes []maps.Route) *routing.DirectionsResponse {
	routes := make([]routing.Route, 0, len(mapsRoutes))

	for i := range mapsRoutes {
		mr := &mapsRoutes[i]
		route := routing.Route{
			GeometryPolyline: mr.OverviewPolyline.Points,
			Summary:          mr.Summary,
			Warnings:         append([]string(nil), mr.Warnings...),
		}

		for _, leg := range mr.Legs {
			route.DistanceMeters += leg.Distance.Meters
			route.DurationSeconds += int(leg.Duration.Seconds())
			route.TrafficSeconds += int(leg.DurationInTraffic.Seconds())

			for _, step := range leg.Steps {
				start := step.StartLocation
				end := step.EndLocation
				route.Steps = append(route.Steps, routing.Step{
					Instruction:    step.HTMLInstructions,
					Maneuver:       maneuverFrom(step.HTMLInstructions),
					DistanceMeters: step.Distance.Meters,
					DurationSecs:   int(step.Duration.Seconds()),
					Start:          &routing.Coordinate{Lat: start.Lat, Lon: start.Lng},
					End:            &routing.Coordinate{Lat: end.Lat, Lon: end.Lng},
				})
			}
		}

		// Some responses omit the overview polyline; rebuild a coarse
		// one from step locations so clients always get geometry.
		if route.GeometryPolyline == "" && len(route.Steps) > 0 {
			route.GeometryPolyline = polyline.Encode(stepCoordinates(route.Steps))
		}

		route.BoundingBox = boundingBox(mr)
		routes = append(routes, route)
	}

	return &routing.DirectionsResponse{
		Routes:    routes,
		Provider:  ProviderName,
		FetchedAt: time.Now(),
	}
}

// stepCoordinates flattens step locations into a coordinate path.
func stepCoordinates(steps []routing.Step) []polyline.Coordinate {
	coords := make([]polyline.Coordinate, 0, len(steps)+1)
	for i, s := range steps {
		if i == 0 && s.Start != nil {
			coords = append(coords, polyline.Coordinate{Lat: s.Start.Lat, Lon: s.Start.Lon})
		}
		if s.End != nil {
			coords = append(coords, polyline.Coordinate{Lat: s.End.Lat, Lon: s.End.Lon})
		}
	}
	return coords
}

// boundingBox extracts the route bounds, falling back to the decoded
// overview polyline when the API omits them.
func boundingBox(mr *maps.Route) *routing.BoundingBox {
	sw, ne := mr.Bounds.SouthWest, mr.Bounds.NorthEast
	if sw.Lat != 0 || sw.Lng != 0 || ne.Lat != 0 || ne.Lng != 0 {
		return &routing.BoundingBox{
			MinLat: sw.Lat,
			MinLon: sw.Lng,
			MaxLat: ne.Lat,
			MaxLon: ne.Lng,
		}
	}

	min, max, ok := polyline.Bounds(polyline.Decode(mr.OverviewPolyline.Points))
	if !ok {
		return nil
	}

	return &routing.BoundingBox{
		MinLat: min.Lat,
		MinLon: min.Lon,
		MaxLat: max.Lat,
		MaxLon: max.Lon,
	}
}

// maneuverFrom derives a normalized maneuver keyword from instruction text.
func maneuverFrom(instruction string) string {
	text := strings.ToLower(stripTags(instruction))

	switch {
	case strings.Contains(text, "u-turn"):
		return "u-turn"
	case strings.Contains(text, "roundabout"):
		return "roundabout"
	case strings.Contains(text, "merge"):
		return "merge"
	case strings.Contains(text, "fork"):
		return "fork"
	case strings.Contains(text, "ramp"):
		return "ramp"
	default:
		return ""
	}
}

func stripTags(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
