package drive

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/calmdrive/calmdrive/internal/emotion"
	"github.com/calmdrive/calmdrive/internal/profile"
)

// defaultPostDriveStress is assumed when the post-drive check-in is skipped.
const defaultPostDriveStress = 0.4

// defaultPreDriveStress is assumed when no pre-drive reading was recorded.
const defaultPreDriveStress = 0.5

// DebriefRequest asks for a post-drive debrief.
type DebriefRequest struct {
	UserID          string
	DriveID         string
	PostDriveStress *float64
}

// StressSnapshot is a stress reading with its level band.
type StressSnapshot struct {
	Stress float64       `json:"stress"`
	Level  emotion.Level `json:"level"`
}

// EmotionalJourney compares pre- and post-drive stress.
type EmotionalJourney struct {
	PreDrive    StressSnapshot `json:"preDrive"`
	PostDrive   StressSnapshot `json:"postDrive"`
	Improvement float64        `json:"improvement"`
}

// DebriefResult is the post-drive debrief.
type DebriefResult struct {
	EmotionalJourney EmotionalJourney `json:"emotionalJourney"`
	Learnings        []string         `json:"learnings"`
	ProfileUpdates   []string         `json:"profileUpdates"`
	Encouragement    string           `json:"encouragement"`
}

// Debrief processes the post-drive debrief: emotional journey, learnings,
// suggested profile updates and an encouraging message. It also records the
// post-drive stress and completes the drive if it is still in progress.
func (s *Service) Debrief(ctx context.Context, req DebriefRequest) (*DebriefResult, error) {
	user, err := s.users.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	d, err := s.repo.Get(ctx, req.DriveID)
	if err != nil {
		return nil, err
	}
	if d.UserID != req.UserID {
		return nil, ErrDriveOwnership
	}

	postStress := defaultPostDriveStress
	if req.PostDriveStress != nil {
		postStress = *req.PostDriveStress
	}

	journey := emotionalJourney(d.PreDriveStress, postStress)
	learnings := extractLearnings(d.Events)
	updates := suggestProfileUpdates(d.Events, user.Triggers, journey)

	d.PostDriveStress = &postStress
	// May already be completed via the end endpoint
	if d.CompletedAt == nil {
		now := time.Now().UTC()
		d.CompletedAt = &now
	}
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("drive_id", d.ID).
		Float64("improvement", journey.Improvement).
		Msg("processed drive debrief")

	return &DebriefResult{
		EmotionalJourney: journey,
		Learnings:        learnings,
		ProfileUpdates:   updates,
		Encouragement:    encouragement(journey.Improvement),
	}, nil
}

// emotionalJourney compares pre- and post-drive stress. A missing pre-drive
// reading defaults to medium.
func emotionalJourney(preStress *float64, postStress float64) EmotionalJourney {
	pre := defaultPreDriveStress
	if preStress != nil {
		pre = *preStress
	}

	return EmotionalJourney{
		PreDrive: StressSnapshot{
			Stress: round2(pre),
			Level:  emotion.LevelFor(pre),
		},
		PostDrive: StressSnapshot{
			Stress: round2(postStress),
			Level:  emotion.LevelFor(postStress),
		},
		Improvement: round2(pre - postStress),
	}
}

// extractLearnings turns the drive's events into at most five key insights.
func extractLearnings(events []Event) []string {
	var learnings []string

	stressEvents := eventsOfType(events, EventStressDetected)
	interventionEvents := eventsOfType(events, EventIntervention)
	rerouteOffered := eventsOfType(events, EventRerouteOffered)
	rerouteAccepted := eventsOfType(events, EventRerouteAccepted)
	pullOverEvents := eventsOfType(events, EventPullOverRequested)

	if len(stressEvents) > 0 {
		high := highStressEvents(stressEvents)
		if len(high) > 0 {
			for _, e := range high {
				if triggerType := detailString(e, "trigger_type"); triggerType != "" {
					learnings = append(learnings, humanize(triggerType)+" was a significant stress point")
				} else {
					learnings = append(learnings, "High stress moment detected during the drive")
				}
			}
		} else {
			learnings = append(learnings, "Stress levels remained manageable throughout the drive")
		}
	}

	if len(interventionEvents) > 0 {
		seen := make(map[string]bool)
		for _, e := range interventionEvents {
			intType := detailString(e, "intervention_type")
			if intType == "" {
				intType = "intervention"
			}
			if seen[intType] {
				continue
			}
			seen[intType] = true
			learnings = append(learnings, humanize(intType)+" was used during the drive")
		}

		if post := stressAfter(stressEvents, interventionEvents); len(post) >= 2 && post[len(post)-1] < post[0] {
			learnings = append(learnings, "Interventions helped reduce stress levels")
		}
	}

	if len(rerouteOffered) > 0 {
		if len(rerouteAccepted) > 0 {
			learnings = append(learnings, "Alternative calmer route was accepted and used")
			if post := stressAfter(stressEvents, rerouteAccepted); len(post) > 0 {
				var sum float64
				for _, v := range post {
					sum += v
				}
				if sum/float64(len(post)) < 0.5 {
					learnings = append(learnings, "Reroute helped maintain lower stress levels")
				}
			}
		} else {
			learnings = append(learnings, "Calmer route was offered but original route was kept")
		}
	}

	if len(pullOverEvents) > 0 {
		learnings = append(learnings, fmt.Sprintf("Needed to pull over %d time(s) during the drive", len(pullOverEvents)))
	}

	if len(learnings) == 0 {
		learnings = append(learnings, "Drive completed without significant stress events")
	}

	if len(learnings) > 5 {
		learnings = learnings[:5]
	}
	return learnings
}

// suggestProfileUpdates derives at most four profile suggestions from the
// drive's events and the emotional journey.
func suggestProfileUpdates(events []Event, triggers []profile.StressTrigger, journey EmotionalJourney) []string {
	var updates []string

	stressEvents := eventsOfType(events, EventStressDetected)
	interventionEvents := eventsOfType(events, EventIntervention)
	rerouteAccepted := eventsOfType(events, EventRerouteAccepted)

	for _, e := range highStressEvents(stressEvents) {
		triggerType := detailString(e, "trigger_type")
		if triggerType == "" {
			continue
		}
		existing := findTrigger(triggers, triggerType)
		if existing != nil {
			if *e.StressLevel >= 0.7 && existing.Severity < 5 {
				updates = append(updates, humanize(triggerType)+": Consider increasing severity rating")
			}
		} else {
			updates = append(updates, humanize(triggerType)+": Consider adding as a stress trigger")
		}
	}

	for _, e := range interventionEvents {
		intType := detailString(e, "intervention_type")
		if intType != "" && journey.Improvement > 0.2 {
			updates = append(updates, humanize(intType)+": Confirmed effective - consider prioritizing")
		}
	}

	if len(rerouteAccepted) > 0 && journey.Improvement > 0.1 {
		updates = append(updates, "Calmer routes: Preference confirmed - prioritize in future route planning")
	}

	switch {
	case journey.Improvement > 0.3:
		updates = append(updates, fmt.Sprintf("Significant stress reduction achieved (%.0f%% improvement)", journey.Improvement*100))
	case journey.Improvement < -0.1:
		updates = append(updates, "Stress increased during drive - review triggers and coping strategies")
	}

	if len(updates) > 4 {
		updates = updates[:4]
	}
	return updates
}

// encouragement picks the closing message by how much stress improved.
func encouragement(improvement float64) string {
	switch {
	case improvement > 0.3:
		return fmt.Sprintf("Excellent work! Your stress reduced by %.0f%% during this drive. You're building real confidence behind the wheel.", improvement*100)
	case improvement > 0.1:
		return fmt.Sprintf("Good job completing your drive! Your stress improved by %.0f%%. Every drive is progress.", improvement*100)
	case improvement > -0.1:
		return "You completed your drive - that's an achievement in itself! Remember, building confidence takes time and you're on the right path."
	default:
		return "The drive is complete. It's okay if this one was challenging - every experience helps you learn. Take a moment to rest and recharge."
	}
}

func eventsOfType(events []Event, t EventType) []Event {
	var out []Event
	for _, e := range events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func highStressEvents(stressEvents []Event) []Event {
	var out []Event
	for _, e := range stressEvents {
		if e.StressLevel != nil && *e.StressLevel >= 0.6 {
			out = append(out, e)
		}
	}
	return out
}

// stressAfter returns stress readings recorded after at least one of the
// marker events, in event order.
func stressAfter(stressEvents, markers []Event) []float64 {
	var out []float64
	for _, e := range stressEvents {
		if e.StressLevel == nil {
			continue
		}
		for _, m := range markers {
			if m.Timestamp.Before(e.Timestamp) {
				out = append(out, *e.StressLevel)
				break
			}
		}
	}
	return out
}

func detailString(e Event, key string) string {
	if e.Details == nil {
		return ""
	}
	if v, ok := e.Details[key].(string); ok {
		return v
	}
	return ""
}

func findTrigger(triggers []profile.StressTrigger, triggerType string) *profile.StressTrigger {
	for i := range triggers {
		if string(triggers[i].Type) == triggerType {
			return &triggers[i]
		}
	}
	return nil
}

// humanize converts an enum value like HEAVY_TRAFFIC to "Heavy Traffic".
func humanize(s string) string {
	words := strings.Split(strings.ToLower(strings.ReplaceAll(s, "_", " ")), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
