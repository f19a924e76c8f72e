// Package intervention decides which calming intervention a stress reading
// warrants and assembles its content.
package intervention

// Type identifies an intervention kind, ordered by escalation.
type Type string

const (
	TypeNone              Type = "NONE"
	TypeCalmingMessage    Type = "CALMING_MESSAGE"
	TypeBreathingExercise Type = "BREATHING_EXERCISE"
	TypePullOver          Type = "PULL_OVER"
)

// Stress score cut points for escalation.
const (
	calmingMessageThreshold    = 0.3
	breathingExerciseThreshold = 0.6
	pullOverThreshold          = 0.8
)

// calmRouteScore is the calm score below which a stressed driver's route is
// considered part of the problem.
const calmRouteScore = 70

// Classify maps a 0-1 stress score to an intervention. The bool reports
// whether any intervention should fire.
func Classify(stressScore float64) (bool, Type) {
	switch {
	case stressScore >= pullOverThreshold:
		return true, TypePullOver
	case stressScore >= breathingExerciseThreshold:
		return true, TypeBreathingExercise
	case stressScore >= calmingMessageThreshold:
		return true, TypeCalmingMessage
	default:
		return false, TypeNone
	}
}

// ShouldProactivelyReroute reports whether sustained stress justifies
// offering a calmer route unprompted. Critical stress always qualifies;
// high stress qualifies only when the current route itself scores poorly.
func ShouldProactivelyReroute(stressScore float64, currentCalmScore int) bool {
	if stressScore >= pullOverThreshold {
		return true
	}
	return stressScore >= breathingExerciseThreshold && currentCalmScore < calmRouteScore
}
