package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/calmdrive/calmdrive/internal/drive"
	"github.com/calmdrive/calmdrive/internal/emotion"
	"github.com/calmdrive/calmdrive/internal/intervention"
	"github.com/calmdrive/calmdrive/internal/profile"
	"github.com/calmdrive/calmdrive/internal/reroute"
	"github.com/calmdrive/calmdrive/internal/routing"
	"github.com/calmdrive/calmdrive/internal/stress"
)

// StressReading is a during-drive emotion measurement published by the
// mobile client for asynchronous processing.
type StressReading struct {
	UserID   string             `json:"user_id"`
	DriveID  string             `json:"drive_id,omitempty"`
	Emotions map[string]float64 `json:"emotions"`

	// Location and Destination enable a proactive reroute check.
	Location    *Point `json:"location,omitempty"`
	Destination *Point `json:"destination,omitempty"`

	// CurrentCalmScore is the score of the route being driven, if known.
	CurrentCalmScore *int `json:"current_calm_score,omitempty"`
}

// ProfileDirectory supplies per-user personalization.
// *profile.Service satisfies this.
type ProfileDirectory interface {
	TriggerSet(ctx context.Context, userID string) (stress.TriggerSet, error)
	Preferences(ctx context.Context, userID string) ([]profile.CalmingPreference, error)
}

// DriveRecorder appends events to an active drive.
// *drive.Service satisfies this.
type DriveRecorder interface {
	RecordEvent(ctx context.Context, driveID string, input drive.EventInput) (*drive.Event, error)
}

// RerouteChecker evaluates reroute opportunities.
// *reroute.Engine satisfies this.
type RerouteChecker interface {
	Check(ctx context.Context, req reroute.CheckRequest) reroute.Decision
}

// FlagGate reports which behaviors are switched off.
// *featureflags.Service satisfies this.
type FlagGate interface {
	IsInterventionsDisabled(ctx context.Context) bool
	IsRerouteDisabled(ctx context.Context) bool
	IsProactiveRerouteEnabled(ctx context.Context) bool
}

// StressProcessor turns during-drive stress readings into interventions,
// drive events, and proactive reroute offers.
type StressProcessor struct {
	interventions *intervention.Service
	profiles      ProfileDirectory
	drives        DriveRecorder
	reroutes      RerouteChecker
	flags         FlagGate
	logger        zerolog.Logger

	metrics *ProcessorMetrics
}

// ProcessorMetrics tracks stress reading statistics.
type ProcessorMetrics struct {
	mu sync.RWMutex

	ReadingsProcessed  int64
	InterventionsGiven int64
	ReroutesOffered    int64
	EventsFailed       int64

	LastProcessedAt time.Time
}

// ProcessorConfig holds configuration for creating a StressProcessor.
type ProcessorConfig struct {
	Interventions *intervention.Service
	Profiles      ProfileDirectory
	Drives        DriveRecorder

	// Reroutes is optional, nil disables proactive reroute checks.
	Reroutes RerouteChecker

	// Flags is optional, nil means no behavior is switched off.
	Flags FlagGate

	Logger zerolog.Logger
}

// NewStressProcessor creates a stress reading processor.
func NewStressProcessor(cfg ProcessorConfig) *StressProcessor {
	return &StressProcessor{
		interventions: cfg.Interventions,
		profiles:      cfg.Profiles,
		drives:        cfg.Drives,
		reroutes:      cfg.Reroutes,
		flags:         cfg.Flags,
		logger:        cfg.Logger,
		metrics:       &ProcessorMetrics{},
	}
}

// Outcome is the result of processing one stress reading.
type Outcome struct {
	Assessment   emotion.Assessment
	Intervention *intervention.Response
	Reroute      *reroute.Decision
}

// Process assesses one reading, decides an intervention, records drive
// events, and checks for a proactive reroute when the reading carries a
// position. Event recording failures are logged and counted but do not
// fail the reading.
func (p *StressProcessor) Process(ctx context.Context, reading StressReading) (*Outcome, error) {
	assessment := emotion.Assess(reading.Emotions, emotion.ContextPreDrive)

	logger := p.logger.With().
		Str("user_id", reading.UserID).
		Str("drive_id", reading.DriveID).
		Float64("stress_score", assessment.StressScore).
		Logger()

	outcome := &Outcome{Assessment: assessment}

	if p.flags == nil || !p.flags.IsInterventionsDisabled(ctx) {
		prefs, err := p.profiles.Preferences(ctx, reading.UserID)
		if err != nil {
			prefs = nil
		}
		decision := p.interventions.Decide(ctx, intervention.DecideRequest{
			StressScore: assessment.StressScore,
			StressLevel: assessment.StressLevel,
			Preferences: prefs,
			Context:     "driving",
		})
		outcome.Intervention = &decision

		if reading.DriveID != "" {
			stressLevel := assessment.StressScore
			p.recordEvent(ctx, logger, reading.DriveID, drive.EventInput{
				Type:        drive.EventStressDetected,
				StressLevel: &stressLevel,
				Details: map[string]any{
					"stress_level":      string(assessment.StressLevel),
					"intervention_type": string(decision.Type),
				},
			})
			if decision.Type != intervention.TypeNone {
				p.recordEvent(ctx, logger, reading.DriveID, drive.EventInput{
					Type:        drive.EventIntervention,
					StressLevel: &stressLevel,
					Details: map[string]any{
						"intervention_type": string(decision.Type),
					},
				})
				p.countIntervention()
			}
		}
	}

	if p.shouldCheckReroute(ctx, reading, assessment) {
		outcome.Reroute = p.checkReroute(ctx, logger, reading)
	}

	p.metrics.mu.Lock()
	p.metrics.ReadingsProcessed++
	p.metrics.LastProcessedAt = time.Now()
	p.metrics.mu.Unlock()

	return outcome, nil
}

func (p *StressProcessor) shouldCheckReroute(ctx context.Context, reading StressReading, assessment emotion.Assessment) bool {
	if p.reroutes == nil || reading.Location == nil || reading.Destination == nil {
		return false
	}
	if reading.CurrentCalmScore == nil {
		return false
	}
	if p.flags != nil {
		if p.flags.IsRerouteDisabled(ctx) || !p.flags.IsProactiveRerouteEnabled(ctx) {
			return false
		}
	}
	return intervention.ShouldProactivelyReroute(assessment.StressScore, *reading.CurrentCalmScore)
}

func (p *StressProcessor) checkReroute(ctx context.Context, logger zerolog.Logger, reading StressReading) *reroute.Decision {
	triggers, err := p.profiles.TriggerSet(ctx, reading.UserID)
	if err != nil {
		triggers = nil
	}

	decision := p.reroutes.Check(ctx, reroute.CheckRequest{
		Current:          routing.Coordinate{Lat: reading.Location.Lat, Lon: reading.Location.Lon},
		Destination:      routing.Coordinate{Lat: reading.Destination.Lat, Lon: reading.Destination.Lon},
		CurrentCalmScore: reading.CurrentCalmScore,
		Triggers:         triggers,
	})

	if decision.Available {
		p.metrics.mu.Lock()
		p.metrics.ReroutesOffered++
		p.metrics.mu.Unlock()

		if reading.DriveID != "" {
			details := map[string]any{
				"calm_score_improvement": decision.CalmScoreImprovement,
				"extra_time_minutes":     decision.ExtraTimeMinutes,
				"proactive":              true,
			}
			if decision.Route != nil {
				details["route_name"] = decision.Route.Name
			}
			p.recordEvent(ctx, logger, reading.DriveID, drive.EventInput{
				Type:    drive.EventRerouteOffered,
				Details: details,
			})
		}

		logger.Info().
			Int("calm_score_improvement", decision.CalmScoreImprovement).
			Msg("proactive reroute offered")
	}

	return &decision
}

func (p *StressProcessor) recordEvent(ctx context.Context, logger zerolog.Logger, driveID string, input drive.EventInput) {
	if p.drives == nil {
		return
	}
	if _, err := p.drives.RecordEvent(ctx, driveID, input); err != nil {
		logger.Warn().Err(err).Str("event_type", string(input.Type)).Msg("failed to record drive event")
		p.metrics.mu.Lock()
		p.metrics.EventsFailed++
		p.metrics.mu.Unlock()
	}
}

func (p *StressProcessor) countIntervention() {
	p.metrics.mu.Lock()
	p.metrics.InterventionsGiven++
	p.metrics.mu.Unlock()
}

// GetMetrics returns a copy of the current metrics.
func (p *StressProcessor) GetMetrics() ProcessorMetrics {
	p.metrics.mu.RLock()
	defer p.metrics.mu.RUnlock()

	return ProcessorMetrics{
		ReadingsProcessed:  p.metrics.ReadingsProcessed,
		InterventionsGiven: p.metrics.InterventionsGiven,
		ReroutesOffered:    p.metrics.ReroutesOffered,
		EventsFailed:       p.metrics.EventsFailed,
		LastProcessedAt:    p.metrics.LastProcessedAt,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (p *StressProcessor) MetricsSnapshot() map[string]interface{} {
	m := p.GetMetrics()
	return map[string]interface{}{
		"readings_processed":  m.ReadingsProcessed,
		"interventions_given": m.InterventionsGiven,
		"reroutes_offered":    m.ReroutesOffered,
		"events_failed":       m.EventsFailed,
		"last_processed_at":   m.LastProcessedAt,
	}
}
