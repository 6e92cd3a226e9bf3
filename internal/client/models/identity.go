// Package models defines the client-side domain types: identities,
// profiles and feed posts, together with their validation rules.
package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/linkedcommunity/internal/common"
)

// Identity is what the session provider knows about an authenticated user.
type Identity struct {
	ID    string
	Email string
}

// Profile is the user-editable record attached one-to-one to an Identity.
type Profile struct {
	ID        string
	Email     string
	FullName  string
	Bio       *string
	AvatarKey *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProfile builds the record provisioned on first sign-in. When fullName
// is blank the local part of the email is used.
func NewProfile(id Identity, fullName string, now time.Time) *Profile {
	name := strings.TrimSpace(fullName)
	if name == "" {
		name = EmailLocalPart(id.Email)
	}
	return &Profile{
		ID:        id.ID,
		Email:     id.Email,
		FullName:  name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// EmailLocalPart returns everything before the first "@".
// "a@b.com" yields "a"; an address without "@" is returned unchanged.
func EmailLocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

// Clone returns a deep copy so callers cannot mutate cached state.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	c.Bio = cloneString(p.Bio)
	c.AvatarKey = cloneString(p.AvatarKey)
	return &c
}

// ProfilePatch is a partial profile update. Nil fields are left untouched.
// A Bio pointing at an empty (or blank) string clears the bio.
type ProfilePatch struct {
	FullName  *string
	Bio       *string
	AvatarKey *string
}

// IsEmpty reports whether the patch changes nothing.
func (p ProfilePatch) IsEmpty() bool {
	return p.FullName == nil && p.Bio == nil && p.AvatarKey == nil
}

// Normalize validates the patch and returns the form that is persisted:
// the full name trimmed, a blank bio turned into "".
func (p ProfilePatch) Normalize() (ProfilePatch, error) {
	out := ProfilePatch{AvatarKey: cloneString(p.AvatarKey)}

	if p.FullName != nil {
		name := strings.TrimSpace(*p.FullName)
		if name == "" {
			return ProfilePatch{}, common.NewValidationError("full_name", "must not be empty")
		}
		out.FullName = &name
	}

	if p.Bio != nil {
		bio := *p.Bio
		if utf8.RuneCountInString(bio) > common.MaxBioLength {
			return ProfilePatch{}, common.NewValidationError("bio", "must be at most 200 characters")
		}
		if strings.TrimSpace(bio) == "" {
			bio = ""
		}
		out.Bio = &bio
	}

	return out, nil
}

// ApplyTo merges a normalized patch into p and stamps UpdatedAt.
// UpdatedAt never moves backwards.
func (p ProfilePatch) ApplyTo(profile *Profile, updatedAt time.Time) {
	if p.FullName != nil {
		profile.FullName = *p.FullName
	}
	if p.Bio != nil {
		if *p.Bio == "" {
			profile.Bio = nil
		} else {
			profile.Bio = cloneString(p.Bio)
		}
	}
	if p.AvatarKey != nil {
		profile.AvatarKey = cloneString(p.AvatarKey)
	}
	if updatedAt.After(profile.UpdatedAt) {
		profile.UpdatedAt = updatedAt
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
