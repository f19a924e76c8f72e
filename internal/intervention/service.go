package intervention

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/calmdrive/calmdrive/internal/emotion"
	"github.com/calmdrive/calmdrive/internal/profile"
)

// MessageGenerator produces personalized calming messages. Implementations
// may call an LLM or any other text source; the service falls back to static
// content when generation fails or no generator is configured.
type MessageGenerator interface {
	CalmingMessage(ctx context.Context, req MessageRequest) (*GeneratedMessage, error)
}

// MessageRequest carries the personalization inputs for message generation.
type MessageRequest struct {
	Type        Type
	StressLevel emotion.Level
	StressScore float64
	Preferences []profile.CalmingPreference
	Context     string
}

// GeneratedMessage is the generator's output with attribution.
type GeneratedMessage struct {
	Message string
	Sources []string
}

// BreathingContent is a guided breathing exercise.
type BreathingContent struct {
	Name            string   `json:"name"`
	DurationSeconds int      `json:"durationSeconds"`
	Instructions    []string `json:"instructions"`
	AudioScript     string   `json:"audioScript,omitempty"`
}

// GroundingContent is a sensory grounding exercise safe to run while driving.
type GroundingContent struct {
	Name         string   `json:"name"`
	Instructions []string `json:"instructions"`
	AudioScript  string   `json:"audioScript,omitempty"`
}

// Response is a fully assembled intervention.
type Response struct {
	Type             Type              `json:"interventionType"`
	StressLevel      emotion.Level     `json:"stressLevel"`
	StressScore      float64           `json:"stressScore"`
	Message          string            `json:"message"`
	Breathing        *BreathingContent `json:"breathingContent,omitempty"`
	Grounding        *GroundingContent `json:"groundingContent,omitempty"`
	PullOverGuidance []string          `json:"pullOverGuidance,omitempty"`
	Sources          []string          `json:"sources"`
}

// DecideRequest asks for an intervention decision.
type DecideRequest struct {
	StressScore float64
	StressLevel emotion.Level
	Preferences []profile.CalmingPreference
	Context     string
}

// Static content used when no generator is available.
var fallbackMessages = map[emotion.Level]string{
	emotion.LevelLow:      "You're doing well. Keep up the calm driving!",
	emotion.LevelMedium:   "I'm here with you. Take a slow, deep breath. You've got this.",
	emotion.LevelHigh:     "Let's breathe together. Inhale slowly... hold... and exhale. You're safe.",
	emotion.LevelCritical: "Your safety comes first. Please find a safe place to pull over when you can.",
}

func breathingExercise() *BreathingContent {
	return &BreathingContent{
		Name:            "4-7-8 Breathing",
		DurationSeconds: 120,
		Instructions: []string{
			"Breathe in through your nose for 4 seconds",
			"Hold your breath for 7 seconds",
			"Exhale through your mouth for 8 seconds",
			"Repeat 3-4 times",
		},
		AudioScript: "Breathe in... 2... 3... 4... Hold... 2... 3... 4... 5... 6... 7... Out... 2... 3... 4... 5... 6... 7... 8...",
	}
}

func groundingExercise() *GroundingContent {
	return &GroundingContent{
		Name: "5-4-3-2-1 Grounding",
		Instructions: []string{
			"Name 5 things you can see",
			"Name 4 things you can feel",
			"Name 3 things you can hear",
			"Name 2 things you can smell",
			"Name 1 thing you can taste",
		},
		AudioScript: "Let's ground yourself. Name 5 things you can see... 4 things you can feel... 3 things you can hear...",
	}
}

func pullOverGuidance() []string {
	return []string{
		"Signal and move to the right lane",
		"Look for a safe spot - parking lot, rest area, or wide shoulder",
		"Turn on your hazard lights",
		"Put the car in park and take your time",
	}
}

// noInterventionMessage is returned when the stress score is below every
// threshold.
const noInterventionMessage = "You're doing great! Keep driving calmly."

// ServiceConfig holds configuration for the intervention service.
type ServiceConfig struct {
	// Generator personalizes calming messages. Optional.
	Generator MessageGenerator

	// Logger is the logger to use. Defaults to a no-op logger.
	Logger zerolog.Logger
}

// Service assembles interventions from classifications.
type Service struct {
	generator MessageGenerator
	logger    zerolog.Logger
}

// NewService creates an intervention service.
func NewService(config ServiceConfig) *Service {
	return &Service{
		generator: config.Generator,
		logger:    config.Logger,
	}
}

// Decide classifies the stress score and assembles matching content.
func (s *Service) Decide(ctx context.Context, req DecideRequest) Response {
	_, interventionType := Classify(req.StressScore)

	level := req.StressLevel
	if level == "" {
		level = emotion.LevelFor(req.StressScore)
	}

	if interventionType == TypeNone {
		return Response{
			Type:        TypeNone,
			StressLevel: level,
			StressScore: req.StressScore,
			Message:     noInterventionMessage,
			Sources:     []string{},
		}
	}

	message, sources := s.message(ctx, interventionType, level, req)

	resp := Response{
		Type:        interventionType,
		StressLevel: level,
		StressScore: req.StressScore,
		Message:     message,
		Sources:     sources,
	}

	switch interventionType {
	case TypeBreathingExercise:
		resp.Breathing = breathingExercise()
	case TypePullOver:
		resp.Grounding = groundingExercise()
		resp.PullOverGuidance = pullOverGuidance()
	}

	return resp
}

// CalmingMessage returns a personalized calming message regardless of the
// classification the stress score would produce.
func (s *Service) CalmingMessage(ctx context.Context, req DecideRequest) (string, []string) {
	level := req.StressLevel
	if level == "" {
		level = emotion.LevelFor(req.StressScore)
	}
	return s.message(ctx, TypeCalmingMessage, level, req)
}

// BreathingExercise returns the guided breathing content on its own.
func (s *Service) BreathingExercise() *BreathingContent {
	return breathingExercise()
}

// GroundingExercise returns the grounding content on its own.
func (s *Service) GroundingExercise() *GroundingContent {
	return groundingExercise()
}

func (s *Service) message(ctx context.Context, t Type, level emotion.Level, req DecideRequest) (string, []string) {
	if s.generator != nil {
		generated, err := s.generator.CalmingMessage(ctx, MessageRequest{
			Type:        t,
			StressLevel: level,
			StressScore: req.StressScore,
			Preferences: req.Preferences,
			Context:     req.Context,
		})
		if err == nil && generated != nil && generated.Message != "" {
			return generated.Message, generated.Sources
		}
		if err != nil {
			s.logger.Warn().Err(err).Msg("message generation failed, using fallback")
		}
	}

	message, ok := fallbackMessages[level]
	if !ok {
		message = fallbackMessages[emotion.LevelMedium]
	}
	return message, []string{"fallback"}
}
