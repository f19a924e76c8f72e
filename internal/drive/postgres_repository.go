package drive

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL drive repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const driveColumns = `id, user_id, started_at, completed_at, origin, destination,
	selected_route_type, pre_drive_stress, post_drive_stress,
	reroutes_offered, reroutes_accepted, interventions_triggered, rating`

// Create stores a new drive.
func (r *PostgresRepository) Create(ctx context.Context, d *Drive) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO drives (id, user_id, started_at, completed_at, origin, destination,
			selected_route_type, pre_drive_stress, post_drive_stress,
			reroutes_offered, reroutes_accepted, interventions_triggered, rating)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		d.ID,
		d.UserID,
		d.StartedAt,
		d.CompletedAt,
		d.Origin,
		d.Destination,
		d.SelectedRouteType,
		d.PreDriveStress,
		d.PostDriveStress,
		d.ReroutesOffered,
		d.ReroutesAccepted,
		d.InterventionsTriggered,
		d.Rating,
	)
	return err
}

// Get returns a drive with its events ordered by timestamp.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Drive, error) {
	query := fmt.Sprintf(`SELECT %s FROM drives WHERE id = $1`, driveColumns)

	d, err := r.scanDrive(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	if d.Events, err = r.loadEvents(ctx, d.ID); err != nil {
		return nil, err
	}
	return d, nil
}

// GetActive returns the user's in-progress drive, or nil if none exists.
func (r *PostgresRepository) GetActive(ctx context.Context, userID string) (*Drive, error) {
	query := fmt.Sprintf(`SELECT %s FROM drives WHERE user_id = $1 AND completed_at IS NULL`, driveColumns)

	d, err := r.scanDrive(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, ErrDriveNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if d.Events, err = r.loadEvents(ctx, d.ID); err != nil {
		return nil, err
	}
	return d, nil
}

// List returns the user's drives newest first plus the total count.
func (r *PostgresRepository) List(ctx context.Context, userID string, filter ListFilter) ([]Drive, int, error) {
	where := `user_id = $1`
	switch filter.Status {
	case StatusCompleted:
		where += ` AND completed_at IS NOT NULL`
	case StatusInProgress:
		where += ` AND completed_at IS NULL`
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM drives WHERE %s`, where)
	if err := r.pool.QueryRow(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM drives
		WHERE %s
		ORDER BY started_at DESC
		LIMIT $2 OFFSET $3
	`, driveColumns, where)

	rows, err := r.pool.Query(ctx, query, userID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var drives []Drive
	for rows.Next() {
		d, err := r.scanDrive(rows)
		if err != nil {
			return nil, 0, err
		}
		drives = append(drives, *d)
	}
	return drives, total, rows.Err()
}

// AllDrives returns every drive without events, newest first.
func (r *PostgresRepository) AllDrives(ctx context.Context) ([]Drive, error) {
	query := fmt.Sprintf(`SELECT %s FROM drives ORDER BY started_at DESC`, driveColumns)
	return r.queryDrives(ctx, query)
}

// AllByUser returns all of the user's drives without events, newest first.
func (r *PostgresRepository) AllByUser(ctx context.Context, userID string) ([]Drive, error) {
	query := fmt.Sprintf(`SELECT %s FROM drives WHERE user_id = $1 ORDER BY started_at DESC`, driveColumns)
	return r.queryDrives(ctx, query, userID)
}

// CountEventsByType counts recorded events grouped by type.
func (r *PostgresRepository) CountEventsByType(ctx context.Context) (map[EventType]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT event_type, COUNT(*)
		FROM drive_events
		GROUP BY event_type
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[EventType]int)
	for rows.Next() {
		var eventType string
		var count int
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, err
		}
		counts[EventType(eventType)] = count
	}
	return counts, rows.Err()
}

func (r *PostgresRepository) queryDrives(ctx context.Context, query string, args ...any) ([]Drive, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drives []Drive
	for rows.Next() {
		d, err := r.scanDrive(rows)
		if err != nil {
			return nil, err
		}
		drives = append(drives, *d)
	}
	return drives, rows.Err()
}

// Update persists the drive's scalar fields and counters.
func (r *PostgresRepository) Update(ctx context.Context, d *Drive) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE drives SET
			completed_at = $2,
			pre_drive_stress = $3,
			post_drive_stress = $4,
			reroutes_offered = $5,
			reroutes_accepted = $6,
			interventions_triggered = $7,
			rating = $8
		WHERE id = $1
	`,
		d.ID,
		d.CompletedAt,
		d.PreDriveStress,
		d.PostDriveStress,
		d.ReroutesOffered,
		d.ReroutesAccepted,
		d.InterventionsTriggered,
		d.Rating,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrDriveNotFound
	}
	return nil
}

// AddEvent appends an event to a drive.
func (r *PostgresRepository) AddEvent(ctx context.Context, e *Event) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO drive_events (id, drive_id, timestamp, event_type, stress_level, details)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		e.ID,
		e.DriveID,
		e.Timestamp,
		string(e.Type),
		e.StressLevel,
		e.Details,
	)
	return err
}

func (r *PostgresRepository) loadEvents(ctx context.Context, driveID string) ([]Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, drive_id, timestamp, event_type, stress_level, details
		FROM drive_events
		WHERE drive_id = $1
		ORDER BY timestamp
	`, driveID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var eventType string
		if err := rows.Scan(&e.ID, &e.DriveID, &e.Timestamp, &eventType, &e.StressLevel, &e.Details); err != nil {
			return nil, err
		}
		e.Type = EventType(eventType)
		events = append(events, e)
	}
	return events, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresRepository) scanDrive(row rowScanner) (*Drive, error) {
	var d Drive
	var routeType string
	err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.StartedAt,
		&d.CompletedAt,
		&d.Origin,
		&d.Destination,
		&routeType,
		&d.PreDriveStress,
		&d.PostDriveStress,
		&d.ReroutesOffered,
		&d.ReroutesAccepted,
		&d.InterventionsTriggered,
		&d.Rating,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDriveNotFound
		}
		return nil, err
	}
	d.SelectedRouteType = routeType
	return &d, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
