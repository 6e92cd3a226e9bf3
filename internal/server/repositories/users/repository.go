package users

import (
	"context"

	"github.com/dmitrijs2005/linkedcommunity/internal/server/models"
)

type Repository interface {
	// Create fails with common.ErrEmailTaken when the email is registered.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
