package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/linkedcommunity/internal/common"
	"github.com/dmitrijs2005/linkedcommunity/internal/server/models"
	"github.com/dmitrijs2005/linkedcommunity/internal/server/repositories/repomanager"
)

// ProfileService reads any profile and lets callers write only their own.
type ProfileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager) *ProfileService {
	return &ProfileService{db: db, repomanager: m, now: time.Now}
}

func (s *ProfileService) Get(ctx context.Context, id string) (*models.Profile, error) {
	p, err := s.repomanager.Profiles(s.db).Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error loading profile: %w", err)
	}
	return p, nil
}

// Create stores the caller's profile. The email always comes from the
// account so a client cannot claim someone else's address.
func (s *ProfileService) Create(ctx context.Context, callerID string, p *models.Profile) (*models.Profile, error) {
	if p.ID != callerID {
		return nil, common.ErrPermissionDenied
	}

	name := strings.TrimSpace(p.FullName)
	if name == "" {
		return nil, common.NewValidationError("full_name", "must not be empty")
	}
	bio, err := normalizeBio(p.Bio)
	if err != nil {
		return nil, err
	}
	if bio != nil && *bio == "" {
		bio = nil
	}
	if err := checkAvatarKey(callerID, p.AvatarKey); err != nil {
		return nil, err
	}

	u, err := s.repomanager.Users(s.db).GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrPermissionDenied
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	created, updated := p.CreatedAt, p.UpdatedAt
	if created.IsZero() {
		created = s.now()
	}
	if updated.Before(created) {
		updated = created
	}

	out, err := s.repomanager.Profiles(s.db).Create(ctx, &models.Profile{
		ID:        callerID,
		Email:     u.Email,
		FullName:  name,
		Bio:       bio,
		AvatarKey: p.AvatarKey,
		CreatedAt: created,
		UpdatedAt: updated,
	})
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating profile: %w", err)
	}
	return out, nil
}

// Update applies a partial update to the caller's profile. A zero
// UpdatedAt is stamped with the server clock.
func (s *ProfileService) Update(ctx context.Context, callerID, id string, u *models.ProfileUpdate) (*models.Profile, error) {
	if id != callerID {
		return nil, common.ErrPermissionDenied
	}

	norm := &models.ProfileUpdate{AvatarKey: u.AvatarKey, UpdatedAt: u.UpdatedAt}
	if u.FullName != nil {
		name := strings.TrimSpace(*u.FullName)
		if name == "" {
			return nil, common.NewValidationError("full_name", "must not be empty")
		}
		norm.FullName = &name
	}
	bio, err := normalizeBio(u.Bio)
	if err != nil {
		return nil, err
	}
	norm.Bio = bio
	if err := checkAvatarKey(callerID, u.AvatarKey); err != nil {
		return nil, err
	}
	if norm.UpdatedAt.IsZero() {
		norm.UpdatedAt = s.now()
	}

	p, err := s.repomanager.Profiles(s.db).Update(ctx, id, norm)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error updating profile: %w", err)
	}
	return p, nil
}

// normalizeBio enforces the length limit and turns a blank bio into "".
func normalizeBio(bio *string) (*string, error) {
	if bio == nil {
		return nil, nil
	}
	if utf8.RuneCountInString(*bio) > common.MaxBioLength {
		return nil, common.NewValidationError("bio", "must be at most 200 characters")
	}
	v := *bio
	if strings.TrimSpace(v) == "" {
		v = ""
	}
	return &v, nil
}

func checkAvatarKey(callerID string, key *string) error {
	if key == nil {
		return nil
	}
	if !strings.HasPrefix(*key, AvatarKeyPrefix(callerID)) {
		return common.NewValidationError("avatar_key", "does not belong to this user")
	}
	return nil
}
