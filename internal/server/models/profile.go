package models

import "time"

// Profile is the public face of a user. ID equals the owning user's ID.
type Profile struct {
	ID        string
	Email     string
	FullName  string
	Bio       *string
	AvatarKey *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProfileUpdate lists the fields to change; nil leaves a field as is and an
// empty Bio clears it.
type ProfileUpdate struct {
	FullName  *string
	Bio       *string
	AvatarKey *string
	UpdatedAt time.Time
}
