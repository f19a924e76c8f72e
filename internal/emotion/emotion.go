// Package emotion converts raw emotion scores into driver stress assessments.
//
// Emotion maps are keyed by capitalized emotion names ("Fear", "Joy"), the
// convention of expression-measurement providers.
package emotion

import (
	"math"
	"strings"
)

// Level classifies a stress score into a display band.
type Level string

const (
	LevelLow      Level = "LOW"
	LevelMedium   Level = "MEDIUM"
	LevelHigh     Level = "HIGH"
	LevelCritical Level = "CRITICAL"
)

// Context distinguishes pre-drive and post-drive check-ins.
type Context string

const (
	ContextPreDrive  Context = "PRE_DRIVE"
	ContextPostDrive Context = "POST_DRIVE"
)

// Weights for the stress score. Joy counteracts stress, so its complement
// contributes.
const (
	weightFear    = 0.3
	weightAnxiety = 0.3
	weightAnger   = 0.15
	weightSadness = 0.1
	weightJoy     = 0.15
)

// concernThreshold pairs a detection threshold with its user-facing message.
type concernThreshold struct {
	emotion   string
	threshold float64
	message   string
}

// Ordered so concern output is deterministic.
var concernThresholds = []concernThreshold{
	{"Fear", 0.4, "Elevated fear detected"},
	{"Anxiety", 0.4, "Signs of anxiety detected"},
	{"Anger", 0.3, "Signs of frustration detected"},
	{"Distress", 0.4, "Distress indicators present"},
	{"Sadness", 0.4, "Low mood detected"},
	{"Tension", 0.4, "Facial tension elevated"},
	{"Nervousness", 0.35, "Nervousness detected"},
}

var preDriveRecommendations = map[Level][]string{
	LevelLow: {
		"You seem calm and ready to drive!",
	},
	LevelMedium: {
		"Consider the calmer route option",
		"Try the breathing exercise before driving",
	},
	LevelHigh: {
		"Take a few minutes to relax before driving",
		"Try the 4-7-8 breathing exercise",
		"Consider the calmer route option",
	},
	LevelCritical: {
		"Consider delaying your drive if possible",
		"Take 5-10 minutes for deep breathing",
		"Talk to someone about how you're feeling",
	},
}

var postDriveRecommendations = map[Level][]string{
	LevelLow: {
		"Great job completing the drive!",
		"Your stress levels were well managed",
	},
	LevelMedium: {
		"You handled the drive well",
		"Consider journaling about what went well",
	},
	LevelHigh: {
		"The drive is complete - take a moment to decompress",
		"Consider what triggered stress and how to prepare next time",
	},
	LevelCritical: {
		"Take some time to relax and recover",
		"Consider talking to someone about your experience",
		"Review the route for potential improvements",
	},
}

// keyEmotionNames is the subset surfaced in check-in responses.
var keyEmotionNames = []string{
	"Fear", "Anxiety", "Anger", "Joy", "Sadness",
	"Calmness", "Distress", "Concentration",
}

// StressScore reduces an emotion map to a 0-1 stress score. Missing
// emotions count as zero.
func StressScore(emotions map[string]float64) float64 {
	stress := emotions["Fear"]*weightFear +
		emotions["Anxiety"]*weightAnxiety +
		emotions["Anger"]*weightAnger +
		emotions["Sadness"]*weightSadness +
		(1-emotions["Joy"])*weightJoy

	return math.Min(1, math.Max(0, stress))
}

// LevelFor maps a stress score to its level.
func LevelFor(score float64) Level {
	switch {
	case score < 0.3:
		return LevelLow
	case score < 0.6:
		return LevelMedium
	case score < 0.8:
		return LevelHigh
	default:
		return LevelCritical
	}
}

// DetectConcerns scans the emotion map for worrying patterns. Single-emotion
// thresholds come first, then combined and voice-specific patterns.
func DetectConcerns(emotions map[string]float64) []string {
	var concerns []string
	anxietyFlagged := false

	for _, ct := range concernThresholds {
		if emotions[ct.emotion] >= ct.threshold {
			concerns = append(concerns, ct.message)
			if ct.emotion == "Anxiety" {
				anxietyFlagged = true
			}
		}
	}

	if emotions["Fear"] >= 0.3 && emotions["Anxiety"] >= 0.3 && !anxietyFlagged {
		concerns = append(concerns, "Combined fear and anxiety indicators")
	}

	// Awkwardness in prosody output is the closest proxy for voice tremor.
	if emotions["Awkwardness"] >= 0.4 {
		concerns = append(concerns, "Voice tremor detected")
	}

	return concerns
}

// Recommendations returns context-appropriate guidance for a stress level.
// The returned slice is a copy the caller may modify.
func Recommendations(level Level, ctx Context) []string {
	source := preDriveRecommendations
	if ctx == ContextPostDrive {
		source = postDriveRecommendations
	}

	recs := source[level]
	out := make([]string, len(recs))
	copy(out, recs)
	return out
}

// KeyEmotions extracts the response subset with lowercase names and
// three-decimal rounding.
func KeyEmotions(emotions map[string]float64) map[string]float64 {
	out := make(map[string]float64)
	for _, name := range keyEmotionNames {
		if v, ok := emotions[name]; ok {
			out[strings.ToLower(name)] = math.Round(v*1000) / 1000
		}
	}
	return out
}

// Assessment is the outcome of a check-in analysis.
type Assessment struct {
	StressScore     float64            `json:"stressScore"`
	StressLevel     Level              `json:"stressLevel"`
	Emotions        map[string]float64 `json:"emotions"`
	Concerns        []string           `json:"detectedConcerns"`
	Recommendations []string           `json:"recommendations"`
}

// Assess runs the full check-in pipeline over an emotion map.
func Assess(emotions map[string]float64, ctx Context) Assessment {
	score := StressScore(emotions)
	level := LevelFor(score)

	concerns := DetectConcerns(emotions)
	if concerns == nil {
		concerns = []string{}
	}

	return Assessment{
		StressScore:     math.Round(score*100) / 100,
		StressLevel:     level,
		Emotions:        KeyEmotions(emotions),
		Concerns:        concerns,
		Recommendations: Recommendations(level, ctx),
	}
}
