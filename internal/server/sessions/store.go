// Package sessions stores refresh-token sessions behind a small injectable
// interface so the backend can be swapped between in-process memory and an
// external durable cache.
package sessions

import (
	"context"
	"time"

	"github.com/akozlovs/gamersnet/internal/server/models"
)

// Store keeps refreshToken -> SessionEntry associations.
type Store interface {
	// Get returns the entry for token, or common.ErrorNotFound when the token
	// is absent or expired.
	Get(ctx context.Context, token string) (*models.SessionEntry, error)

	// Put stores (or overwrites) the entry for token with the given lifetime.
	Put(ctx context.Context, token string, entry *models.SessionEntry, ttl time.Duration) error

	// Delete removes the entry for token. Deleting an absent token is not an
	// error.
	Delete(ctx context.Context, token string) error
}
