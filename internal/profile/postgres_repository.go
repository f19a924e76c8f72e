package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/calmdrive/calmdrive/internal/stress"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL profile repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get retrieves a user by ID, including triggers and preferences.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT id, name, driving_experience, driving_frequency, resolution_goal,
			created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var user User
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.DrivingExperience,
		&user.DrivingFrequency,
		&user.ResolutionGoal,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if user.Triggers, err = r.loadTriggers(ctx, id); err != nil {
		return nil, err
	}
	if user.Preferences, err = r.loadPreferences(ctx, id); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *PostgresRepository) loadTriggers(ctx context.Context, userID string) ([]StressTrigger, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT trigger_type, severity FROM user_stress_triggers WHERE user_id = $1 ORDER BY trigger_type`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var triggers []StressTrigger
	for rows.Next() {
		var t StressTrigger
		var triggerType string
		if err := rows.Scan(&triggerType, &t.Severity); err != nil {
			return nil, err
		}
		t.Type = stress.PointType(triggerType)
		triggers = append(triggers, t)
	}
	return triggers, rows.Err()
}

func (r *PostgresRepository) loadPreferences(ctx context.Context, userID string) ([]CalmingPreference, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT preference, effectiveness FROM user_calming_preferences WHERE user_id = $1 ORDER BY preference`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prefs []CalmingPreference
	for rows.Next() {
		var p CalmingPreference
		var preference string
		if err := rows.Scan(&preference, &p.Effectiveness); err != nil {
			return nil, err
		}
		p.Type = PreferenceType(preference)
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}

// Create creates a new user with their triggers and preferences.
func (r *PostgresRepository) Create(ctx context.Context, user *User) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO users (id, name, driving_experience, driving_frequency, resolution_goal, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`,
			user.ID,
			user.Name,
			user.DrivingExperience,
			user.DrivingFrequency,
			user.ResolutionGoal,
			user.CreatedAt,
			user.UpdatedAt,
		)
		if err != nil {
			return err
		}
		return r.insertAssociations(ctx, tx, user)
	})
}

// Update updates an existing user, replacing triggers and preferences.
func (r *PostgresRepository) Update(ctx context.Context, user *User) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `
			UPDATE users SET
				name = $2,
				driving_experience = $3,
				driving_frequency = $4,
				resolution_goal = $5,
				updated_at = $6
			WHERE id = $1
		`,
			user.ID,
			user.Name,
			user.DrivingExperience,
			user.DrivingFrequency,
			user.ResolutionGoal,
			user.UpdatedAt,
		)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return ErrUserNotFound
		}

		if _, err := tx.Exec(ctx, `DELETE FROM user_stress_triggers WHERE user_id = $1`, user.ID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM user_calming_preferences WHERE user_id = $1`, user.ID); err != nil {
			return err
		}
		return r.insertAssociations(ctx, tx, user)
	})
}

func (r *PostgresRepository) insertAssociations(ctx context.Context, tx pgx.Tx, user *User) error {
	for _, t := range user.Triggers {
		_, err := tx.Exec(ctx, `
			INSERT INTO user_stress_triggers (user_id, trigger_type, severity)
			VALUES ($1, $2, $3)
		`, user.ID, string(t.Type), t.Severity)
		if err != nil {
			return err
		}
	}
	for _, p := range user.Preferences {
		_, err := tx.Exec(ctx, `
			INSERT INTO user_calming_preferences (user_id, preference, effectiveness)
			VALUES ($1, $2, $3)
		`, user.ID, string(p.Type), p.Effectiveness)
		if err != nil {
			return err
		}
	}
	return nil
}

// Delete deletes a user by ID. Associated rows cascade.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

func (r *PostgresRepository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
