package emotion_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calmdrive/calmdrive/internal/emotion"
)

func TestStressScore_Neutral(t *testing.T) {
	// No emotions at all: only the joy complement contributes.
	score := emotion.StressScore(map[string]float64{})
	assert.InDelta(t, 0.15, score, 0.001)
}

func TestStressScore_FullJoy(t *testing.T) {
	score := emotion.StressScore(map[string]float64{"Joy": 1.0})
	assert.InDelta(t, 0.0, score, 0.001)
}

func TestStressScore_Weighted(t *testing.T) {
	score := emotion.StressScore(map[string]float64{
		"Fear":    0.5,
		"Anxiety": 0.5,
		"Anger":   0.2,
		"Sadness": 0.1,
		"Joy":     0.4,
	})
	// 0.15 + 0.15 + 0.03 + 0.01 + 0.09
	assert.InDelta(t, 0.43, score, 0.001)
}

func TestStressScore_ClampedAtOne(t *testing.T) {
	score := emotion.StressScore(map[string]float64{
		"Fear":    1.0,
		"Anxiety": 1.0,
		"Anger":   1.0,
		"Sadness": 1.0,
		"Joy":     0.0,
	})
	assert.Equal(t, 1.0, score)
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, emotion.LevelLow, emotion.LevelFor(0.0))
	assert.Equal(t, emotion.LevelLow, emotion.LevelFor(0.29))
	assert.Equal(t, emotion.LevelMedium, emotion.LevelFor(0.3))
	assert.Equal(t, emotion.LevelMedium, emotion.LevelFor(0.59))
	assert.Equal(t, emotion.LevelHigh, emotion.LevelFor(0.6))
	assert.Equal(t, emotion.LevelHigh, emotion.LevelFor(0.79))
	assert.Equal(t, emotion.LevelCritical, emotion.LevelFor(0.8))
	assert.Equal(t, emotion.LevelCritical, emotion.LevelFor(1.0))
}

func TestDetectConcerns_Thresholds(t *testing.T) {
	concerns := emotion.DetectConcerns(map[string]float64{
		"Fear":  0.5,
		"Anger": 0.35,
	})
	assert.Equal(t, []string{
		"Elevated fear detected",
		"Signs of frustration detected",
	}, concerns)
}

func TestDetectConcerns_CombinedFearAnxiety(t *testing.T) {
	// Both below their individual thresholds but above the combined one.
	concerns := emotion.DetectConcerns(map[string]float64{
		"Fear":    0.35,
		"Anxiety": 0.35,
	})
	assert.Contains(t, concerns, "Combined fear and anxiety indicators")
}

func TestDetectConcerns_CombinedSuppressedWhenAnxietyFlagged(t *testing.T) {
	concerns := emotion.DetectConcerns(map[string]float64{
		"Fear":    0.35,
		"Anxiety": 0.5,
	})
	assert.Contains(t, concerns, "Signs of anxiety detected")
	assert.NotContains(t, concerns, "Combined fear and anxiety indicators")
}

func TestDetectConcerns_VoiceTremor(t *testing.T) {
	concerns := emotion.DetectConcerns(map[string]float64{
		"Awkwardness": 0.45,
	})
	assert.Equal(t, []string{"Voice tremor detected"}, concerns)
}

func TestDetectConcerns_Calm(t *testing.T) {
	assert.Empty(t, emotion.DetectConcerns(map[string]float64{"Joy": 0.9}))
}

func TestRecommendations_ByContextAndLevel(t *testing.T) {
	pre := emotion.Recommendations(emotion.LevelHigh, emotion.ContextPreDrive)
	assert.Contains(t, pre, "Try the 4-7-8 breathing exercise")

	post := emotion.Recommendations(emotion.LevelLow, emotion.ContextPostDrive)
	assert.Contains(t, post, "Great job completing the drive!")
}

func TestRecommendations_ReturnsCopy(t *testing.T) {
	recs := emotion.Recommendations(emotion.LevelLow, emotion.ContextPreDrive)
	require.NotEmpty(t, recs)
	recs[0] = "mutated"

	again := emotion.Recommendations(emotion.LevelLow, emotion.ContextPreDrive)
	assert.Equal(t, "You seem calm and ready to drive!", again[0])
}

func TestKeyEmotions(t *testing.T) {
	out := emotion.KeyEmotions(map[string]float64{
		"Fear":        0.12345,
		"Calmness":    0.5,
		"Awkwardness": 0.9, // not a key emotion
	})
	assert.Equal(t, map[string]float64{
		"fear":     0.123,
		"calmness": 0.5,
	}, out)
}

func TestAssess(t *testing.T) {
	assessment := emotion.Assess(map[string]float64{
		"Fear":    0.7,
		"Anxiety": 0.7,
		"Joy":     0.1,
	}, emotion.ContextPreDrive)

	// 0.21 + 0.21 + 0.135 = 0.555
	assert.InDelta(t, 0.56, assessment.StressScore, 0.001)
	assert.Equal(t, emotion.LevelMedium, assessment.StressLevel)
	assert.Contains(t, assessment.Concerns, "Elevated fear detected")
	assert.NotEmpty(t, assessment.Recommendations)
	assert.Contains(t, assessment.Emotions, "fear")
}
