package client

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/linkedcommunity/internal/client/repositories/metadata"
)

const (
	keyRefreshToken = "refresh_token"
	keyIdentityID   = "identity_id"
	keyEmail        = "email"
)

// SavedSession is what survives a client restart.
type SavedSession struct {
	RefreshToken string
	IdentityID   string
	Email        string
}

// SessionCache keeps the refresh token and identity in the metadata table.
type SessionCache struct {
	repo metadata.Repository
}

func NewSessionCache(repo metadata.Repository) *SessionCache {
	return &SessionCache{repo: repo}
}

func (c *SessionCache) Load(ctx context.Context) (SavedSession, error) {
	all, err := c.repo.List(ctx)
	if err != nil {
		return SavedSession{}, fmt.Errorf("load session: %w", err)
	}
	return SavedSession{
		RefreshToken: all[keyRefreshToken],
		IdentityID:   all[keyIdentityID],
		Email:        all[keyEmail],
	}, nil
}

func (c *SessionCache) Save(ctx context.Context, s SavedSession) error {
	err := c.repo.SetMany(ctx, map[string]string{
		keyRefreshToken: s.RefreshToken,
		keyIdentityID:   s.IdentityID,
		keyEmail:        s.Email,
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (c *SessionCache) Clear(ctx context.Context) error {
	if err := c.repo.Delete(ctx, keyRefreshToken, keyIdentityID, keyEmail); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
