// Package users declares the repository contract for user records.
package users

import (
	"context"

	"github.com/akozlovs/gamersnet/internal/server/models"
)

// Repository defines persistence operations over user records.
type Repository interface {
	// Create inserts a new user. The username must be unique; violations
	// surface as wrapped driver errors.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByUsername returns the full record, or common.ErrorNotFound.
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// List returns a page of summary records (name, role, country, photo)
	// ordered by creation time.
	List(ctx context.Context, offset, limit int) ([]*models.User, error)

	// Update applies a sparse patch. Nil patch fields are left untouched; the
	// Password field must already contain a hash. Returns
	// common.ErrorNotFound when the user does not exist.
	Update(ctx context.Context, username string, patch *models.UserPatch) error

	// Delete removes the user record, or returns common.ErrorNotFound.
	Delete(ctx context.Context, username string) error

	// AppendPostID adds a post id to the end of the user's post list.
	AppendPostID(ctx context.Context, username, postID string) error

	// RemovePostID removes a post id from the user's post list. Removing an
	// id that is not present is not an error.
	RemovePostID(ctx context.Context, username, postID string) error
}
