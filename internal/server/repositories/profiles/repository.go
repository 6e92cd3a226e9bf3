// Package profiles declares the server-side repository contract for user
// profiles.
package profiles

import (
	"context"

	"github.com/dmitrijs2005/linkedcommunity/internal/server/models"
)

type Repository interface {
	// Get returns common.ErrNotFound when no profile exists for id.
	Get(ctx context.Context, id string) (*models.Profile, error)

	// Create inserts p and returns common.ErrConflict when the id is taken.
	Create(ctx context.Context, p *models.Profile) (*models.Profile, error)

	// Update applies u to the profile with the given id.
	Update(ctx context.Context, id string, u *models.ProfileUpdate) (*models.Profile, error)
}
