package cli

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/linkedcommunity/internal/client/models"
	"github.com/dmitrijs2005/linkedcommunity/internal/common"
)

// clearBio typed at the bio prompt removes the bio.
const clearBio = "-"

// Edit prompts for a new full name and bio. Empty answers keep the current
// value.
func (a *App) Edit(ctx context.Context) error {
	if !a.isLoggedIn() {
		return common.ErrNotAuthenticated
	}

	name, err := getSimpleText(a.reader, "Full name (empty to keep)", a.out)
	if err != nil {
		return err
	}
	bio, err := getSimpleText(a.reader, "Bio (empty to keep, '-' to clear)", a.out)
	if err != nil {
		return err
	}

	var patch models.ProfilePatch
	if name != "" {
		patch.FullName = &name
	}
	switch bio {
	case "":
	case clearBio:
		empty := ""
		patch.Bio = &empty
	default:
		patch.Bio = &bio
	}

	if patch.IsEmpty() {
		a.println("Nothing to change")
		return nil
	}

	if _, err := a.identity.UpdateProfile(ctx, patch); err != nil {
		return err
	}
	a.println("Profile updated")
	return nil
}

// Avatar uploads the image at the path given as argument, or prompted for.
func (a *App) Avatar(ctx context.Context, args []string) error {
	if !a.isLoggedIn() {
		return common.ErrNotAuthenticated
	}

	path := strings.Join(args, " ")
	if path == "" {
		var err error
		path, err = getSimpleText(a.reader, "Path to image (png, jpeg, gif or webp)", a.out)
		if err != nil {
			return err
		}
	}
	if path == "" {
		return common.NewValidationError("avatar", "path must not be empty")
	}

	profile, err := a.avatars.SetAvatar(ctx, path)
	if err != nil {
		return err
	}
	if profile.AvatarKey != nil {
		a.printf("Avatar updated (%s)\n", *profile.AvatarKey)
	}
	return nil
}
