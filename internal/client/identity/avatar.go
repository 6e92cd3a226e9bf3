package identity

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/linkedcommunity/internal/client/models"
	"github.com/dmitrijs2005/linkedcommunity/internal/common"
	"github.com/dmitrijs2005/linkedcommunity/internal/filex"
	"github.com/dmitrijs2005/linkedcommunity/internal/netx"
)

// MaxAvatarSize caps the avatar file read from disk.
const MaxAvatarSize = 2 << 20

var allowedAvatarTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// AvatarURLSource hands out presigned upload URLs for avatar objects.
type AvatarURLSource interface {
	GetAvatarUploadURL(ctx context.Context, contentType string) (key, url string, err error)
}

// AvatarUploader stores an image in object storage and then records its key
// on the signed-in user's profile.
type AvatarUploader struct {
	manager *Manager
	urls    AvatarURLSource
	http    *http.Client

	// seams for tests
	readFile func(path string, limit int64) ([]byte, error)
	put      func(ctx context.Context, client *http.Client, url, contentType string, body []byte) error
}

func NewAvatarUploader(m *Manager, urls AvatarURLSource, client *http.Client) *AvatarUploader {
	return &AvatarUploader{
		manager:  m,
		urls:     urls,
		http:     client,
		readFile: filex.ReadLimited,
		put:      netx.PutPresigned,
	}
}

// SetAvatar uploads the image at path and points the profile at it.
func (u *AvatarUploader) SetAvatar(ctx context.Context, path string) (*models.Profile, error) {
	if u.manager.Current().State != StateAuthenticated {
		return nil, common.ErrNotAuthenticated
	}

	data, err := u.readFile(path, MaxAvatarSize)
	if err != nil {
		return nil, common.NewValidationError("avatar", err.Error())
	}

	contentType := http.DetectContentType(data)
	if !allowedAvatarTypes[contentType] {
		return nil, common.NewValidationError("avatar", "unsupported image type "+contentType)
	}

	key, url, err := u.urls.GetAvatarUploadURL(ctx, contentType)
	if err != nil {
		return nil, fmt.Errorf("avatar upload url: %w", err)
	}

	if err := u.put(ctx, u.http, url, contentType, data); err != nil {
		return nil, common.NewTransportError("avatar upload", err)
	}

	return u.manager.UpdateProfile(ctx, models.ProfilePatch{AvatarKey: &key})
}
