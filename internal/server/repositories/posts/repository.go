// Package posts declares the repository contract for post records.
package posts

import (
	"context"

	"github.com/akozlovs/gamersnet/internal/server/models"
)

// Repository defines persistence operations over post records.
type Repository interface {
	// Create inserts a post. The caller supplies the id and owner.
	Create(ctx context.Context, post *models.Post) (*models.Post, error)

	// GetByID returns the post joined with its owner summary, or
	// common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.PostWithOwner, error)

	// List returns a page of posts with owner summaries ordered by creation
	// time.
	List(ctx context.Context, offset, limit int) ([]*models.PostWithOwner, error)

	// UpdateText replaces the post text and returns the updated record, or
	// common.ErrorNotFound.
	UpdateText(ctx context.Context, id, text string) (*models.Post, error)

	// Delete removes the post and returns the deleted record, or
	// common.ErrorNotFound.
	Delete(ctx context.Context, id string) (*models.Post, error)
}
