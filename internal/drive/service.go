package drive

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/calmdrive/calmdrive/internal/profile"
)

const (
	// DefaultListLimit is the page size when none is requested.
	DefaultListLimit = 10

	// MaxListLimit caps the page size for drive history listings.
	MaxListLimit = 100
)

// StartRequest begins a new drive.
type StartRequest struct {
	UserID            string
	Origin            string
	Destination       string
	SelectedRouteType string
	PreDriveStress    *float64
}

// EventInput records something that happened during a drive.
type EventInput struct {
	Type        EventType
	StressLevel *float64
	Details     map[string]any
}

// AcceptRerouteInput records an accepted reroute suggestion.
type AcceptRerouteInput struct {
	RouteName            string
	CalmScoreImprovement int
}

// EndResult summarizes a just-completed drive.
type EndResult struct {
	Drive           *Drive
	DurationMinutes int
	Summary         Summary
}

// ActiveDrive is the user's in-progress drive with its latest stress reading.
type ActiveDrive struct {
	Drive             *Drive
	EventsCount       int
	LatestStressLevel *float64
}

// ServiceConfig holds configuration for the drive service.
type ServiceConfig struct {
	Repository Repository
	Users      profile.Repository
	Logger     zerolog.Logger
}

// Service manages the drive lifecycle.
type Service struct {
	repo   Repository
	users  profile.Repository
	logger zerolog.Logger
}

// NewService creates a drive service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:   cfg.Repository,
		users:  cfg.Users,
		logger: cfg.Logger,
	}
}

// Start begins a new drive. A user can only have one drive in progress.
func (s *Service) Start(ctx context.Context, req StartRequest) (*Drive, error) {
	if _, err := s.users.Get(ctx, req.UserID); err != nil {
		return nil, err
	}

	active, err := s.repo.GetActive(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, fmt.Errorf("%w (id: %s)", ErrActiveDriveExists, active.ID)
	}

	d := &Drive{
		ID:                "drv_" + uuid.New().String()[:22],
		UserID:            req.UserID,
		StartedAt:         time.Now().UTC(),
		Origin:            req.Origin,
		Destination:       req.Destination,
		SelectedRouteType: req.SelectedRouteType,
		PreDriveStress:    req.PreDriveStress,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("drive_id", d.ID).
		Str("user_id", d.UserID).
		Msg("drive started")

	return d, nil
}

// Get returns a drive with its events.
func (s *Service) Get(ctx context.Context, driveID string) (*Drive, error) {
	return s.repo.Get(ctx, driveID)
}

// End marks a drive completed and returns its summary.
func (s *Service) End(ctx context.Context, driveID string) (*EndResult, error) {
	d, err := s.repo.Get(ctx, driveID)
	if err != nil {
		return nil, err
	}
	if !d.Active() {
		return nil, ErrDriveCompleted
	}

	now := time.Now().UTC()
	d.CompletedAt = &now
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("drive_id", d.ID).
		Int("events", len(d.Events)).
		Msg("drive ended")

	return &EndResult{
		Drive:           d,
		DurationMinutes: int(now.Sub(d.StartedAt).Minutes()),
		Summary: Summary{
			EventsCount:            len(d.Events),
			InterventionsTriggered: d.InterventionsTriggered,
			ReroutesOffered:        d.ReroutesOffered,
			ReroutesAccepted:       d.ReroutesAccepted,
			AvgStressLevel:         avgStressLevel(d.Events),
		},
	}, nil
}

// RecordEvent appends an event to an in-progress drive and keeps the
// drive's counters in sync.
func (s *Service) RecordEvent(ctx context.Context, driveID string, input EventInput) (*Event, error) {
	d, err := s.repo.Get(ctx, driveID)
	if err != nil {
		return nil, err
	}
	if !d.Active() {
		return nil, ErrDriveCompleted
	}

	e := &Event{
		ID:          "evt_" + uuid.New().String()[:22],
		DriveID:     driveID,
		Timestamp:   time.Now().UTC(),
		Type:        input.Type,
		StressLevel: input.StressLevel,
		Details:     input.Details,
	}
	if err := s.repo.AddEvent(ctx, e); err != nil {
		return nil, err
	}

	changed := true
	switch input.Type {
	case EventIntervention:
		d.InterventionsTriggered++
	case EventRerouteOffered:
		d.ReroutesOffered++
	case EventRerouteAccepted:
		d.ReroutesAccepted++
	default:
		changed = false
	}
	if changed {
		if err := s.repo.Update(ctx, d); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// AcceptReroute records that the user accepted a reroute suggestion and
// returns the updated acceptance count.
func (s *Service) AcceptReroute(ctx context.Context, driveID string, input AcceptRerouteInput) (int, error) {
	_, err := s.RecordEvent(ctx, driveID, EventInput{
		Type: EventRerouteAccepted,
		Details: map[string]any{
			"route_name":             input.RouteName,
			"calm_score_improvement": input.CalmScoreImprovement,
		},
	})
	if err != nil {
		return 0, err
	}

	d, err := s.repo.Get(ctx, driveID)
	if err != nil {
		return 0, err
	}
	return d.ReroutesAccepted, nil
}

// Active returns the user's in-progress drive, or nil if they have none.
// Useful when the app is reopened mid-drive.
func (s *Service) Active(ctx context.Context, userID string) (*ActiveDrive, error) {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, err
	}

	d, err := s.repo.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, nil
	}

	var latest *float64
	for _, e := range d.Events {
		if e.StressLevel != nil {
			latest = e.StressLevel
		}
	}

	return &ActiveDrive{
		Drive:             d,
		EventsCount:       len(d.Events),
		LatestStressLevel: latest,
	}, nil
}

// List returns the user's drive history, newest first.
func (s *Service) List(ctx context.Context, userID string, filter ListFilter) ([]Drive, int, error) {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, 0, err
	}

	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	if filter.Limit > MaxListLimit {
		filter.Limit = MaxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	return s.repo.List(ctx, userID, filter)
}

// avgStressLevel averages the stress readings across events, rounded to
// two decimals. Returns nil if no event carries a reading.
func avgStressLevel(events []Event) *float64 {
	var sum float64
	var count int
	for _, e := range events {
		if e.StressLevel != nil {
			sum += *e.StressLevel
			count++
		}
	}
	if count == 0 {
		return nil
	}
	avg := math.Round(sum/float64(count)*100) / 100
	return &avg
}
