// Package stress scores driving routes for anxiety-inducing features and
// produces calm scores with detected stress points.
package stress

// PointType identifies a category of stress-inducing route feature.
type PointType string

const (
	TypeHighways             PointType = "HIGHWAYS"
	TypeHeavyTraffic         PointType = "HEAVY_TRAFFIC"
	TypeTrafficSignal        PointType = "TRAFFIC_SIGNAL"
	TypeComplexIntersections PointType = "COMPLEX_INTERSECTIONS"
	TypeConstruction         PointType = "CONSTRUCTION"
	TypePedestrianAreas      PointType = "PEDESTRIAN_AREAS"

	// Behavioral trigger types. Never detected on a route; they exist so
	// user trigger profiles can name them.
	TypeHonking      PointType = "HONKING"
	TypeNightDriving PointType = "NIGHT_DRIVING"
)

// PointTypes lists every trigger type a user profile may reference.
func PointTypes() []PointType {
	return []PointType{
		TypeHighways,
		TypeHeavyTraffic,
		TypeTrafficSignal,
		TypeComplexIntersections,
		TypeConstruction,
		TypePedestrianAreas,
		TypeHonking,
		TypeNightDriving,
	}
}

// Severity indicates how stressful a detected point is.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// Point is a single stress-inducing feature detected on a route.
type Point struct {
	Type     PointType `json:"type"`
	Severity Severity  `json:"severity"`
	Location string    `json:"location"`
}

// Band classifies a calm score into a coarse stress level.
type Band string

const (
	BandLow    Band = "LOW"
	BandMedium Band = "MEDIUM"
	BandHigh   Band = "HIGH"
)

// BandFor maps a calm score to its stress band.
func BandFor(score int) Band {
	switch {
	case score >= 70:
		return BandLow
	case score >= 40:
		return BandMedium
	default:
		return BandHigh
	}
}

// Penalty points subtracted per detected stress point.
var penalties = map[PointType]int{
	TypeHighways:             15,
	TypeHeavyTraffic:         20,
	TypeTrafficSignal:        2,
	TypeComplexIntersections: 5,
	TypeConstruction:         10,
	TypePedestrianAreas:      3,
}

// defaultPenalty applies to point types without an explicit entry.
const defaultPenalty = 5

// Bonus points added once per route when the matching feature is present.
const (
	BonusScenic      = 10
	BonusResidential = 5
	// BonusLowSpeed requires per-step speed data, which the directions
	// provider does not supply.
	BonusLowSpeed = 5
)

// PenaltyFor returns the penalty for a point type.
func PenaltyFor(t PointType) int {
	if p, ok := penalties[t]; ok {
		return p
	}
	return defaultPenalty
}

// TriggerSet is the set of point types a user has flagged as personal
// stress triggers. Membership doubles the matching penalty.
type TriggerSet map[PointType]bool

// NewTriggerSet builds a TriggerSet from a list of trigger types.
func NewTriggerSet(types ...PointType) TriggerSet {
	s := make(TriggerSet, len(types))
	for _, t := range types {
		s[t] = true
	}
	return s
}
