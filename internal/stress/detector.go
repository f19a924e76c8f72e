package stress

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/calmdrive/calmdrive/internal/routing"
)

// Keyword patterns matched against step instructions. Word-boundary anchored
// so "parkway" does not match "park".
var (
	highwayPattern    = regexp.MustCompile(`(?i)\b(highway|expressway|freeway|motorway|interstate|toll road|national highway|nh\d+)\b`)
	scenicPattern     = regexp.MustCompile(`(?i)\b(park|lake|river|garden|beach|waterfront|scenic|forest|nature)\b`)
	residentialPattern = regexp.MustCompile(`(?i)\b(residential|colony|society|apartments|housing)\b`)
	pedestrianPattern = regexp.MustCompile(`(?i)\b(pedestrian|walking|footpath|crosswalk|school zone)\b`)

	htmlTagPattern = regexp.MustCompile(`<[^>]+>`)
)

// Maneuver types that count as complex intersections.
var complexManeuvers = map[string]struct{}{
	"roundabout": {},
	"merge":      {},
	"fork":       {},
	"ramp":       {},
	"uturn":      {},
	"u-turn":     {},
}

// maxLocationLen caps the instruction text embedded in a point location.
const maxLocationLen = 50

// Bonuses records which calming route features were observed. Each fires at
// most once per route.
type Bonuses struct {
	Scenic      bool
	Residential bool
}

// Detector scans route steps and warnings for stress-inducing features.
type Detector struct{}

// NewDetector creates a Detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Detect returns the stress points found on the route, in step order.
// Warning-derived points follow step-derived points.
func (d *Detector) Detect(route routing.Route) []Point {
	var points []Point

	for i, step := range route.Steps {
		instruction := CleanInstruction(step.Instruction)

		if highwayPattern.MatchString(instruction) {
			points = append(points, Point{
				Type:     TypeHighways,
				Severity: SeverityHigh,
				Location: stepLocation(i, instruction),
			})
		}

		if _, ok := complexManeuvers[strings.ToLower(step.Maneuver)]; ok {
			points = append(points, Point{
				Type:     TypeComplexIntersections,
				Severity: SeverityMedium,
				Location: fmt.Sprintf("Step %d: %s", i+1, titleCase(step.Maneuver)),
			})
		}

		if pedestrianPattern.MatchString(instruction) {
			points = append(points, Point{
				Type:     TypePedestrianAreas,
				Severity: SeverityMedium,
				Location: stepLocation(i, instruction),
			})
		}
	}

	for _, warning := range route.Warnings {
		if strings.Contains(strings.ToLower(warning), "construction") {
			points = append(points, Point{
				Type:     TypeConstruction,
				Severity: SeverityHigh,
				Location: "Route warning: Construction zone",
			})
		}
	}

	return points
}

// DetectBonuses reports which calming features appear anywhere on the route.
func (d *Detector) DetectBonuses(route routing.Route) Bonuses {
	var b Bonuses
	for _, step := range route.Steps {
		instruction := CleanInstruction(step.Instruction)
		if scenicPattern.MatchString(instruction) {
			b.Scenic = true
		}
		if residentialPattern.MatchString(instruction) {
			b.Residential = true
		}
	}
	return b
}

// CleanInstruction strips HTML tags left over from provider instruction text.
func CleanInstruction(s string) string {
	return htmlTagPattern.ReplaceAllString(s, "")
}

func stepLocation(index int, instruction string) string {
	return fmt.Sprintf("Step %d: %s", index+1, truncate(instruction, maxLocationLen))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Cut on rune boundaries so multibyte street names stay valid UTF-8.
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

// titleCase uppercases the first letter of each hyphen- or space-separated
// word, so "u-turn" becomes "U-Turn".
func titleCase(s string) string {
	out := []byte(strings.ToLower(s))
	upperNext := true
	for i, c := range out {
		if upperNext && c >= 'a' && c <= 'z' {
			out[i] = c - ('a' - 'A')
		}
		upperNext = c == '-' || c == ' ' || c == '_'
	}
	return string(out)
}
