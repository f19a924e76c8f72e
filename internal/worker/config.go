// Package worker provides background job processing for CalmDrive.
package worker

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Point represents a geographic coordinate.
type Point struct {
	Lat float64 `yaml:"lat" json:"lat"`
	Lon float64 `yaml:"lon" json:"lon"`
}

// WarmupCorridor is an origin/destination pair whose route alternatives
// get prefetched into the routing cache.
type WarmupCorridor struct {
	// Name is the human-readable name of the corridor.
	Name string `yaml:"name"`

	// Origin and Destination bound the corridor.
	Origin      Point `yaml:"origin"`
	Destination Point `yaml:"destination"`

	// Priority determines warmup order (lower = higher priority).
	Priority int `yaml:"priority"`
}

// WarmupConfig holds configuration for the route warmup job.
type WarmupConfig struct {
	// Corridors are the routes to prefetch.
	// If empty, uses DefaultWarmupCorridors.
	Corridors []WarmupCorridor `yaml:"corridors"`

	// Concurrency is the number of concurrent fetches.
	// Default: 3
	Concurrency int `yaml:"concurrency"`

	// Timeout is the timeout for each corridor fetch.
	// Default: 30 seconds
	Timeout time.Duration `yaml:"-"`
}

// UnmarshalYAML decodes a warmup config, accepting the timeout as a Go
// duration string ("30s", "2m").
func (c *WarmupConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Corridors   []WarmupCorridor `yaml:"corridors"`
		Concurrency int              `yaml:"concurrency"`
		Timeout     string           `yaml:"timeout"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	c.Corridors = raw.Corridors
	c.Concurrency = raw.Concurrency
	if raw.Timeout != "" {
		d, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return fmt.Errorf("invalid warmup timeout %q: %w", raw.Timeout, err)
		}
		c.Timeout = d
	}
	return nil
}

// Config is the worker's file-based configuration.
type Config struct {
	// ProjectID is the Google Cloud project for Pub/Sub.
	ProjectID string `yaml:"project_id"`

	// Subscription is the Pub/Sub subscription to consume.
	Subscription string `yaml:"subscription"`

	Warmup WarmupConfig `yaml:"warmup"`
}

// LoadConfig reads a YAML worker configuration from path. Missing fields
// fall back to defaults when the jobs are constructed.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading worker config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing worker config: %w", err)
	}
	return &cfg, nil
}

// DefaultWarmupConfig returns the default warmup configuration.
func DefaultWarmupConfig() WarmupConfig {
	return WarmupConfig{
		Corridors:   DefaultWarmupCorridors(),
		Concurrency: 3,
		Timeout:     30 * time.Second,
	}
}

// DefaultWarmupCorridors returns the default corridors for the Netherlands.
// Focuses on Randstad commutes where anxious drivers most often plan trips,
// so their first plan of the day hits a warm cache.
func DefaultWarmupCorridors() []WarmupCorridor {
	return []WarmupCorridor{
		{
			Name:        "Amsterdam - Schiphol",
			Priority:    1,
			Origin:      Point{Lat: 52.3676, Lon: 4.9041},
			Destination: Point{Lat: 52.3105, Lon: 4.7683},
		},
		{
			Name:        "Amsterdam - Utrecht",
			Priority:    1,
			Origin:      Point{Lat: 52.3676, Lon: 4.9041},
			Destination: Point{Lat: 52.0894, Lon: 5.1102},
		},
		{
			Name:        "Rotterdam - Den Haag",
			Priority:    1,
			Origin:      Point{Lat: 51.9244, Lon: 4.4777},
			Destination: Point{Lat: 52.0705, Lon: 4.3007},
		},
		{
			Name:        "Utrecht - Amersfoort",
			Priority:    2,
			Origin:      Point{Lat: 52.0894, Lon: 5.1102},
			Destination: Point{Lat: 52.1530, Lon: 5.3711},
		},
		{
			Name:        "Den Haag - Leiden",
			Priority:    2,
			Origin:      Point{Lat: 52.0705, Lon: 4.3007},
			Destination: Point{Lat: 52.1664, Lon: 4.4819},
		},
		{
			Name:        "Rotterdam - Delft",
			Priority:    2,
			Origin:      Point{Lat: 51.9244, Lon: 4.4777},
			Destination: Point{Lat: 52.0116, Lon: 4.3571},
		},
		{
			Name:        "Haarlem - Amsterdam",
			Priority:    3,
			Origin:      Point{Lat: 52.3874, Lon: 4.6462},
			Destination: Point{Lat: 52.3676, Lon: 4.9041},
		},
		{
			Name:        "Eindhoven - Utrecht",
			Priority:    3,
			Origin:      Point{Lat: 51.4416, Lon: 5.4697},
			Destination: Point{Lat: 52.0894, Lon: 5.1102},
		},
	}
}

// TotalCorridors returns the number of corridors to warm.
func (c WarmupConfig) TotalCorridors() int {
	return len(c.Corridors)
}
