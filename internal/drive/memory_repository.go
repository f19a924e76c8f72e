package drive

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository,
// suitable for tests and local development.
type InMemoryRepository struct {
	mu     sync.RWMutex
	drives map[string]*Drive
	events map[string][]Event
}

// NewInMemoryRepository creates a new in-memory drive repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		drives: make(map[string]*Drive),
		events: make(map[string][]Event),
	}
}

// Create stores a new drive.
func (r *InMemoryRepository) Create(ctx context.Context, d *Drive) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.drives[d.ID] = copyDrive(d)
	return nil
}

// Get returns a drive with its events ordered by timestamp.
func (r *InMemoryRepository) Get(ctx context.Context, id string) (*Drive, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.drives[id]
	if !ok {
		return nil, ErrDriveNotFound
	}
	return r.withEventsLocked(d), nil
}

// GetActive returns the user's in-progress drive, or nil if none exists.
func (r *InMemoryRepository) GetActive(ctx context.Context, userID string) (*Drive, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.drives {
		if d.UserID == userID && d.CompletedAt == nil {
			return r.withEventsLocked(d), nil
		}
	}
	return nil, nil
}

// List returns the user's drives newest first plus the total count.
func (r *InMemoryRepository) List(ctx context.Context, userID string, filter ListFilter) ([]Drive, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []Drive
	for _, d := range r.drives {
		if d.UserID != userID {
			continue
		}
		switch filter.Status {
		case StatusCompleted:
			if d.CompletedAt == nil {
				continue
			}
		case StatusInProgress:
			if d.CompletedAt != nil {
				continue
			}
		}
		matched = append(matched, *copyDrive(d))
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].StartedAt.After(matched[j].StartedAt)
	})

	total := len(matched)
	if filter.Offset >= total {
		return nil, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

// AllDrives returns every drive without events, newest first.
func (r *InMemoryRepository) AllDrives(ctx context.Context) ([]Drive, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collectLocked(func(d *Drive) bool { return true }), nil
}

// AllByUser returns all of the user's drives without events, newest first.
func (r *InMemoryRepository) AllByUser(ctx context.Context, userID string) ([]Drive, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collectLocked(func(d *Drive) bool { return d.UserID == userID }), nil
}

// CountEventsByType counts recorded events grouped by type.
func (r *InMemoryRepository) CountEventsByType(ctx context.Context) (map[EventType]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[EventType]int)
	for _, events := range r.events {
		for _, e := range events {
			counts[e.Type]++
		}
	}
	return counts, nil
}

func (r *InMemoryRepository) collectLocked(match func(*Drive) bool) []Drive {
	var drives []Drive
	for _, d := range r.drives {
		if match(d) {
			drives = append(drives, *copyDrive(d))
		}
	}
	sort.Slice(drives, func(i, j int) bool {
		return drives[i].StartedAt.After(drives[j].StartedAt)
	})
	return drives
}

// Update persists the drive's scalar fields and counters.
func (r *InMemoryRepository) Update(ctx context.Context, d *Drive) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.drives[d.ID]; !ok {
		return ErrDriveNotFound
	}
	r.drives[d.ID] = copyDrive(d)
	return nil
}

// AddEvent appends an event to a drive.
func (r *InMemoryRepository) AddEvent(ctx context.Context, e *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.drives[e.DriveID]; !ok {
		return ErrDriveNotFound
	}
	r.events[e.DriveID] = append(r.events[e.DriveID], *e)
	return nil
}

func (r *InMemoryRepository) withEventsLocked(d *Drive) *Drive {
	out := copyDrive(d)
	events := append([]Event(nil), r.events[d.ID]...)
	sort.Slice(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	out.Events = events
	return out
}

func copyDrive(d *Drive) *Drive {
	out := *d
	out.Events = append([]Event(nil), d.Events...)
	return &out
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
