package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/calmdrive/calmdrive/internal/routing"
)

// RouteSource fetches route alternatives. *routing.Service satisfies this.
type RouteSource interface {
	GetRoutes(ctx context.Context, origin, destination routing.Coordinate) (*routing.DirectionsResponse, error)
}

// WarmupJob prefetches route alternatives for configured corridors so the
// routing cache is fresh when commuters plan their trips.
type WarmupJob struct {
	config WarmupConfig
	logger zerolog.Logger

	// Routes is optional, nil if not configured.
	routes RouteSource

	metrics *WarmupMetrics
}

// WarmupMetrics tracks warmup job statistics.
type WarmupMetrics struct {
	mu sync.RWMutex

	// Counters
	TotalRuns        int64
	CorridorsWarmed  int64
	CorridorsFailed  int64
	RoutesFetched    int64

	// Timings
	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// WarmupJobConfig holds configuration for creating a WarmupJob.
type WarmupJobConfig struct {
	Config WarmupConfig
	Logger zerolog.Logger
	Routes RouteSource
}

// NewWarmupJob creates a new warmup job processor.
func NewWarmupJob(cfg WarmupJobConfig) *WarmupJob {
	config := cfg.Config
	if len(config.Corridors) == 0 {
		config = DefaultWarmupConfig()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 3
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return &WarmupJob{
		config:  config,
		logger:  cfg.Logger,
		routes:  cfg.Routes,
		metrics: &WarmupMetrics{},
	}
}

// WarmupResult contains the result of a warmup run.
type WarmupResult struct {
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	TotalCorridors int
	Successful     int
	Failed         int
	RoutesFetched  int
	Errors         []WarmupError
}

// WarmupError represents an error during warmup.
type WarmupError struct {
	Corridor string
	Error    string
}

// Run executes the warmup job for all configured corridors.
func (j *WarmupJob) Run(ctx context.Context) *WarmupResult {
	startTime := time.Now()
	result := &WarmupResult{
		StartTime:      startTime,
		TotalCorridors: j.config.TotalCorridors(),
	}

	j.logger.Info().
		Int("total_corridors", result.TotalCorridors).
		Int("concurrency", j.config.Concurrency).
		Msg("starting route warmup job")

	corridorsChan := make(chan WarmupCorridor, len(j.config.Corridors))
	resultsChan := make(chan corridorResult, len(j.config.Corridors))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.warmupWorker(ctx, corridorsChan, resultsChan)
		}()
	}

	for _, c := range j.config.Corridors {
		corridorsChan <- c
	}
	close(corridorsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for cr := range resultsChan {
		if cr.success {
			result.Successful++
		} else {
			result.Failed++
		}
		result.RoutesFetched += cr.routes
		result.Errors = append(result.Errors, cr.errors...)
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("routes_fetched", result.RoutesFetched).
		Msg("route warmup job completed")

	return result
}

type corridorResult struct {
	corridor WarmupCorridor
	success  bool
	routes   int
	errors   []WarmupError
}

func (j *WarmupJob) warmupWorker(ctx context.Context, corridors <-chan WarmupCorridor, results chan<- corridorResult) {
	for corridor := range corridors {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.warmCorridor(ctx, corridor)
		}
	}
}

func (j *WarmupJob) warmCorridor(ctx context.Context, corridor WarmupCorridor) corridorResult {
	result := corridorResult{
		corridor: corridor,
		success:  true,
	}

	if j.routes == nil {
		return result
	}

	corridorCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	origin := routing.Coordinate{Lat: corridor.Origin.Lat, Lon: corridor.Origin.Lon}
	destination := routing.Coordinate{Lat: corridor.Destination.Lat, Lon: corridor.Destination.Lon}

	resp, err := j.routes.GetRoutes(corridorCtx, origin, destination)
	if err != nil {
		result.errors = append(result.errors, WarmupError{
			Corridor: corridor.Name,
			Error:    err.Error(),
		})
		result.success = false
		return result
	}

	result.routes = len(resp.Routes)
	return result
}

func (j *WarmupJob) updateMetrics(result *WarmupResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.CorridorsWarmed += int64(result.Successful)
	j.metrics.CorridorsFailed += int64(result.Failed)
	j.metrics.RoutesFetched += int64(result.RoutesFetched)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *WarmupJob) GetMetrics() WarmupMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return WarmupMetrics{
		TotalRuns:       j.metrics.TotalRuns,
		CorridorsWarmed: j.metrics.CorridorsWarmed,
		CorridorsFailed: j.metrics.CorridorsFailed,
		RoutesFetched:   j.metrics.RoutesFetched,
		LastRunAt:       j.metrics.LastRunAt,
		LastRunDuration: j.metrics.LastRunDuration,
		TotalDuration:   j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *WarmupJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":        m.TotalRuns,
		"corridors_warmed":  m.CorridorsWarmed,
		"corridors_failed":  m.CorridorsFailed,
		"routes_fetched":    m.RoutesFetched,
		"last_run_at":       m.LastRunAt,
		"last_run_duration": m.LastRunDuration.String(),
		"total_duration":    m.TotalDuration.String(),
	}
}
