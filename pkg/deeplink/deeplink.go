// Package deeplink builds Google Maps navigation URLs.
package deeplink

import (
	"fmt"
	"net/url"
	"strings"
)

const baseURL = "https://www.google.com/maps/dir/"

// MaxWaypoints is the most intermediate waypoints a Maps URL may carry.
const MaxWaypoints = 5

// Point is a location usable in a deep link, either as coordinates or as a
// free-text address. Coordinates win when both are set.
type Point struct {
	Lat     float64
	Lon     float64
	Address string
}

func (p Point) query() string {
	if p.Lat != 0 || p.Lon != 0 {
		return fmt.Sprintf("%f,%f", p.Lat, p.Lon)
	}
	return p.Address
}

// Directions builds a Google Maps directions URL in driving mode. Waypoints
// beyond MaxWaypoints are dropped.
func Directions(origin, destination Point, waypoints []Point) string {
	if len(waypoints) > MaxWaypoints {
		waypoints = waypoints[:MaxWaypoints]
	}

	q := url.Values{}
	q.Set("api", "1")
	q.Set("origin", origin.query())
	q.Set("destination", destination.query())
	q.Set("travelmode", "driving")

	if len(waypoints) > 0 {
		parts := make([]string, 0, len(waypoints))
		for _, w := range waypoints {
			parts = append(parts, w.query())
		}
		q.Set("waypoints", strings.Join(parts, "|"))
	}

	return baseURL + "?" + q.Encode()
}
