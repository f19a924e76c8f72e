package trip

import (
	"github.com/calmdrive/calmdrive/internal/profile"
	"github.com/calmdrive/calmdrive/internal/stress"
)

// Driving tips shown for each stress point type during preparation.
var stressTips = map[stress.PointType]string{
	stress.TypeHighways:             "Stay in the middle lane when possible. Maintain a steady speed and keep safe following distance.",
	stress.TypeHeavyTraffic:         "Keep safe following distance. Use this time for calming music or deep breathing.",
	stress.TypeComplexIntersections: "Stay in your lane early. Watch for lane markings and take your time.",
	stress.TypeConstruction:         "Slow down and follow signs. Expect lane changes and be patient.",
	stress.TypePedestrianAreas:      "Reduce speed and stay alert. Watch for crossing pedestrians.",
	stress.TypeHonking:              "Stay calm and focus on your driving. Other drivers' impatience is not your concern.",
	stress.TypeNightDriving:         "Ensure headlights are on. Reduce speed and increase following distance.",
}

// defaultTip covers stress point types without a dedicated tip.
const defaultTip = "Take your time and stay calm. You've got this."

// TipFor returns the preparation tip for a stress point type.
func TipFor(t stress.PointType) string {
	if tip, ok := stressTips[t]; ok {
		return tip
	}
	return defaultTip
}

// baseChecklist items appear in every preparation, before any
// preference-derived items.
var baseChecklist = []string{
	"Review stress points below",
	"Set phone to Do Not Disturb",
}

// Checklist items added for each of the user's calming preferences.
var preferenceChecklist = map[profile.PreferenceType]string{
	profile.PreferenceCalmingMusic:  "Prepare calming playlist",
	profile.PreferenceDeepBreathing: "Optional: 2-minute breathing exercise before starting",
	profile.PreferencePullingOver:   "Identify potential rest stops along route",
	profile.PreferenceTalking:       "Consider calling a friend for support during the drive",
	profile.PreferenceSilence:       "Ensure a quiet environment in the car",
}

// BreathingExercise is a short pre-drive breathing routine.
type BreathingExercise struct {
	Name            string   `json:"name"`
	DurationSeconds int      `json:"durationSeconds"`
	Instructions    []string `json:"instructions"`
}

// prepareBreathingExercise returns the exercise suggested before every drive.
func prepareBreathingExercise() BreathingExercise {
	return BreathingExercise{
		Name:            "4-7-8 Breathing",
		DurationSeconds: 120,
		Instructions: []string{
			"Breathe in for 4 seconds",
			"Hold for 7 seconds",
			"Breathe out for 8 seconds",
			"Repeat 4 times",
		},
	}
}
