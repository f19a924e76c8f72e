// Package drive manages the drive lifecycle: start, in-drive events,
// completion and the post-drive debrief.
package drive

import (
	"errors"
	"time"
)

// Predefined errors for drive operations.
var (
	// ErrDriveNotFound is returned when a drive does not exist.
	ErrDriveNotFound = errors.New("drive not found")

	// ErrDriveCompleted is returned when an operation requires an
	// in-progress drive.
	ErrDriveCompleted = errors.New("drive is already completed")

	// ErrActiveDriveExists is returned when starting a drive while another
	// one is still in progress.
	ErrActiveDriveExists = errors.New("user already has an active drive")

	// ErrDriveOwnership is returned when a drive belongs to another user.
	ErrDriveOwnership = errors.New("drive does not belong to this user")
)

// EventType identifies what happened during a drive.
type EventType string

const (
	EventStressDetected    EventType = "STRESS_DETECTED"
	EventIntervention      EventType = "INTERVENTION"
	EventRerouteOffered    EventType = "REROUTE_OFFERED"
	EventRerouteAccepted   EventType = "REROUTE_ACCEPTED"
	EventPullOverRequested EventType = "PULL_OVER_REQUESTED"
)

// EventTypes returns all known drive event types.
func EventTypes() []EventType {
	return []EventType{
		EventStressDetected,
		EventIntervention,
		EventRerouteOffered,
		EventRerouteAccepted,
		EventPullOverRequested,
	}
}

// Status of a drive, derived from CompletedAt.
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// Drive is one recorded trip.
type Drive struct {
	ID                     string
	UserID                 string
	StartedAt              time.Time
	CompletedAt            *time.Time
	Origin                 string
	Destination            string
	SelectedRouteType      string
	PreDriveStress         *float64
	PostDriveStress        *float64
	ReroutesOffered        int
	ReroutesAccepted       int
	InterventionsTriggered int
	Rating                 *int

	// Events are loaded with the drive, ordered by timestamp.
	Events []Event
}

// Status returns the drive's lifecycle status.
func (d *Drive) Status() Status {
	if d.CompletedAt != nil {
		return StatusCompleted
	}
	return StatusInProgress
}

// Active reports whether the drive is still in progress.
func (d *Drive) Active() bool {
	return d.CompletedAt == nil
}

// Event is something that happened during a drive.
type Event struct {
	ID          string
	DriveID     string
	Timestamp   time.Time
	Type        EventType
	StressLevel *float64
	Details     map[string]any
}

// Summary aggregates a completed drive.
type Summary struct {
	EventsCount            int      `json:"eventsCount"`
	InterventionsTriggered int      `json:"interventionsTriggered"`
	ReroutesOffered        int      `json:"reroutesOffered"`
	ReroutesAccepted       int      `json:"reroutesAccepted"`
	AvgStressLevel         *float64 `json:"avgStressLevel"`
}
