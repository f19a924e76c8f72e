package profile

import "context"

// Repository defines the interface for profile persistence.
type Repository interface {
	// Get retrieves a user by ID, including triggers and preferences.
	// Returns ErrUserNotFound if the user doesn't exist.
	Get(ctx context.Context, id string) (*User, error)

	// Create creates a new user with their triggers and preferences.
	Create(ctx context.Context, user *User) error

	// Update updates an existing user, replacing triggers and preferences.
	Update(ctx context.Context, user *User) error

	// Delete deletes a user by ID.
	Delete(ctx context.Context, id string) error
}
