// Package services contains server-side business logic. This file implements
// UserService, which handles sign-up, sign-in, refresh token rotation and
// sign-out.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/linkedcommunity/internal/common"
	"github.com/dmitrijs2005/linkedcommunity/internal/dbx"
	"github.com/dmitrijs2005/linkedcommunity/internal/server/auth"
	"github.com/dmitrijs2005/linkedcommunity/internal/server/config"
	"github.com/dmitrijs2005/linkedcommunity/internal/server/models"
	"github.com/dmitrijs2005/linkedcommunity/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// Session is what a successful authentication hands back to the caller.
type Session struct {
	AccessToken  string
	RefreshToken string
	IdentityID   string
	Email        string
}

// UserService provides authentication-related operations:
// - SignUp: create accounts
// - SignIn: verify credentials and mint tokens
// - RefreshToken: rotate refresh tokens and mint new access tokens
// - SignOut: revoke a refresh token
// - PruneRefreshTokens: drop expired refresh tokens
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	bcryptCost                   int
	now                          func() time.Time

	// dummyHash is compared against when the email is unknown so both
	// branches of SignIn cost the same.
	dummyHash []byte
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	s := &UserService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		bcryptCost:                   bcrypt.DefaultCost,
		now:                          func() time.Time { return time.Now().UTC() },
	}
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("linkedcommunity"), s.bcryptCost)
	return s
}

// NormalizeEmail trims and lower-cases an address and checks its syntax.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", common.NewValidationError("email", "invalid email address")
	}
	return email, nil
}

func (s *UserService) SignUp(ctx context.Context, email, password, fullName string) (*Session, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(password) < common.MinPasswordLength {
		return nil, common.ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var session *Session
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := s.repomanager.Users(tx).Create(ctx, &models.User{
			Email:        email,
			PasswordHash: hash,
			FullName:     strings.TrimSpace(fullName),
		})
		if err != nil {
			return err
		}
		session, err = s.newSession(ctx, u, tx)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return session, nil
}

// SignIn answers ErrInvalidCredentials for an unknown email and for a wrong
// password alike.
func (s *UserService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, common.ErrInvalidCredentials
	}
	return s.newSession(ctx, u, s.db)
}

// RefreshToken consumes refreshToken and returns a fresh Session in the same
// transaction, so a token can be rotated only once. Expired tokens yield
// ErrRefreshTokenExpired and unknown or already used ones ErrInvalidToken.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*Session, error) {
	var session *Session
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		token, err := s.repomanager.RefreshTokens(tx).Consume(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.ErrInvalidToken
			}
			return fmt.Errorf("error consuming refresh token: %w", err)
		}
		if token.Expires.Before(s.now()) {
			return common.ErrRefreshTokenExpired
		}

		u, err := s.repomanager.Users(tx).GetByID(ctx, token.UserID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.ErrInvalidToken
			}
			return err
		}
		session, err = s.newSession(ctx, u, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// PruneRefreshTokens removes refresh tokens that can no longer be used.
func (s *UserService) PruneRefreshTokens(ctx context.Context) (int64, error) {
	n, err := s.repomanager.RefreshTokens(s.db).DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("error pruning refresh tokens: %w", err)
	}
	return n, nil
}

// SignOut revokes refreshToken. Unknown tokens are not an error.
func (s *UserService) SignOut(ctx context.Context, refreshToken string) error {
	if err := s.repomanager.RefreshTokens(s.db).Delete(ctx, refreshToken); err != nil {
		return fmt.Errorf("error deleting refresh token: %w", err)
	}
	return nil
}

// Authenticate resolves an access token to the identity it was issued for.
func (s *UserService) Authenticate(accessToken string) (string, error) {
	return auth.GetIdentityIDFromToken(accessToken, s.jwtSecret)
}

func (s *UserService) newSession(ctx context.Context, u *models.User, tx dbx.DBTX) (*Session, error) {
	access, err := auth.GenerateToken(u.ID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrInternal
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrInternal
	}
	if err := s.repomanager.RefreshTokens(tx).Create(ctx, u.ID, refresh, s.now().Add(s.refreshTokenValidityDuration)); err != nil {
		return nil, common.ErrInternal
	}
	return &Session{AccessToken: access, RefreshToken: refresh, IdentityID: u.ID, Email: u.Email}, nil
}
