package stress

import (
	"github.com/calmdrive/calmdrive/internal/routing"
)

// CalculatorConfig holds configuration for the calm score calculation.
type CalculatorConfig struct {
	// BaseScore is the score a route starts from before penalties.
	// Default: 100.
	BaseScore int

	// TrafficDelayRatio is the traffic/static duration overrun above which
	// the heavy-traffic penalty applies. Default: 0.3 (30% slower).
	TrafficDelayRatio float64

	// TriggerMultiplier scales penalties whose type appears in the user's
	// trigger set. Default: 2.
	TriggerMultiplier int
}

// DefaultCalculatorConfig returns the default configuration.
func DefaultCalculatorConfig() CalculatorConfig {
	return CalculatorConfig{
		BaseScore:         100,
		TrafficDelayRatio: 0.3,
		TriggerMultiplier: 2,
	}
}

// Result is the outcome of scoring a single route.
type Result struct {
	// Score is the calm score, clamped to [0, 100].
	Score int
	// Band is the stress band the score falls in.
	Band Band
	// Points are all stress points that contributed penalties, including
	// the synthetic whole-route heavy-traffic point.
	Points []Point
}

// Calculator computes calm scores from detected stress points.
type Calculator struct {
	config   CalculatorConfig
	detector *Detector
}

// NewCalculator creates a Calculator with the given configuration.
func NewCalculator(config CalculatorConfig) *Calculator {
	if config.BaseScore <= 0 {
		config.BaseScore = DefaultCalculatorConfig().BaseScore
	}
	if config.TrafficDelayRatio <= 0 {
		config.TrafficDelayRatio = DefaultCalculatorConfig().TrafficDelayRatio
	}
	if config.TriggerMultiplier <= 0 {
		config.TriggerMultiplier = DefaultCalculatorConfig().TriggerMultiplier
	}
	return &Calculator{
		config:   config,
		detector: NewDetector(),
	}
}

// Score computes the calm score for a route against the user's trigger set.
// A nil trigger set means no personal triggers.
func (c *Calculator) Score(route routing.Route, triggers TriggerSet) Result {
	points := c.detector.Detect(route)
	score := c.config.BaseScore

	for _, p := range points {
		score -= c.penalty(p.Type, triggers)
	}

	if trafficPoint, penalty := c.trafficPenalty(route, triggers); trafficPoint != nil {
		points = append(points, *trafficPoint)
		score -= penalty
	}

	bonuses := c.detector.DetectBonuses(route)
	if bonuses.Scenic {
		score += BonusScenic
	}
	if bonuses.Residential {
		score += BonusResidential
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return Result{
		Score:  score,
		Band:   BandFor(score),
		Points: points,
	}
}

func (c *Calculator) penalty(t PointType, triggers TriggerSet) int {
	p := PenaltyFor(t)
	if triggers[t] {
		p *= c.config.TriggerMultiplier
	}
	return p
}

// trafficPenalty compares the traffic-aware duration to the static duration
// and produces a whole-route heavy-traffic point when the overrun exceeds
// the configured ratio. Routes without a static duration are skipped.
func (c *Calculator) trafficPenalty(route routing.Route, triggers TriggerSet) (*Point, int) {
	if route.DurationSeconds == 0 || route.TrafficSeconds == 0 {
		return nil, 0
	}

	delay := float64(route.TrafficSeconds-route.DurationSeconds) / float64(route.DurationSeconds)
	if delay <= c.config.TrafficDelayRatio {
		return nil, 0
	}

	penalty := c.penalty(TypeHeavyTraffic, triggers)
	severity := SeverityMedium
	if penalty >= 30 {
		severity = SeverityHigh
	}

	return &Point{
		Type:     TypeHeavyTraffic,
		Severity: severity,
		Location: "Entire route",
	}, penalty
}
