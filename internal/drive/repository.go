package drive

import "context"

// ListFilter narrows and pages a drive history listing.
type ListFilter struct {
	// Status filters by lifecycle status when non-empty.
	Status Status

	// Limit caps the number of drives returned.
	Limit int

	// Offset skips that many drives, newest first.
	Offset int
}

// Repository persists drives and their events.
type Repository interface {
	// Create stores a new drive.
	Create(ctx context.Context, d *Drive) error

	// Get returns a drive with its events ordered by timestamp.
	// Returns ErrDriveNotFound if it does not exist.
	Get(ctx context.Context, id string) (*Drive, error)

	// GetActive returns the user's in-progress drive with its events,
	// or nil if the user has none.
	GetActive(ctx context.Context, userID string) (*Drive, error)

	// List returns the user's drives newest first, plus the total count
	// matching the filter ignoring pagination.
	List(ctx context.Context, userID string, filter ListFilter) ([]Drive, int, error)

	// AllDrives returns every drive without events, newest first.
	AllDrives(ctx context.Context) ([]Drive, error)

	// AllByUser returns all of the user's drives without events, newest first.
	AllByUser(ctx context.Context, userID string) ([]Drive, error)

	// CountEventsByType counts recorded events grouped by type.
	CountEventsByType(ctx context.Context) (map[EventType]int, error)

	// Update persists the drive's scalar fields and counters.
	// Returns ErrDriveNotFound if it does not exist.
	Update(ctx context.Context, d *Drive) error

	// AddEvent appends an event to a drive.
	AddEvent(ctx context.Context, e *Event) error
}
