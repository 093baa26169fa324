package userRepo

import (
	"context"

	"studybuddy/models"

	"go.mongodb.org/mongo-driver/bson"
)

// UserRepository defines methods for user data access.
type UserRepository interface {
	// Create inserts a new user record. A taken username is a Conflict.
	Create(ctx context.Context, user *models.User) error
	// GetByUsername retrieves a user by username.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// GetByUsernames retrieves every existing user among usernames.
	GetByUsernames(ctx context.Context, usernames []string) ([]models.User, error)
	// Exists reports whether a username is registered.
	Exists(ctx context.Context, username string) (bool, error)
	// UpdateFields sets the given fields on a user and bumps updatedAt.
	UpdateFields(ctx context.Context, username string, fields bson.M) error
	// AddBuddy adds buddy to username's buddy list. Repeating it is a no-op.
	AddBuddy(ctx context.Context, username, buddy string) error
	// RemoveBuddy removes buddy from username's buddy list. Repeating it is a no-op.
	RemoveBuddy(ctx context.Context, username, buddy string) error
	// AddReview appends a review to a user.
	AddReview(ctx context.Context, username, review string) error
	// ListByUniversity returns users whose university matches case-insensitively,
	// minus the excluded usernames.
	ListByUniversity(ctx context.Context, university string, exclude []string) ([]models.User, error)
}
