// Package refreshtokens stores the opaque refresh tokens that back client
// sessions. A token is single-use: rotation consumes it.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/linkedcommunity/internal/server/models"
)

type Repository interface {
	// Create stores token for userID until expiresAt.
	Create(ctx context.Context, userID, token string, expiresAt time.Time) error

	// Consume deletes token and returns the row it removed, expired or not.
	// A token that does not exist (or was consumed concurrently) yields
	// common.ErrNotFound.
	Consume(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete revokes token. Unknown tokens are not an error.
	Delete(ctx context.Context, token string) error

	// DeleteExpired removes tokens that expired before now and reports how
	// many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
