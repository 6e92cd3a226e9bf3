package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/linkedcommunity/internal/common"
	"github.com/dmitrijs2005/linkedcommunity/internal/server/models"
	"github.com/dmitrijs2005/linkedcommunity/internal/server/services"
)

type fakeUsers struct {
	session *services.Session
	err     error

	lastEmail, lastPassword, lastFullName, lastRefresh string
	signedOut                                          []string
}

func (f *fakeUsers) SignUp(ctx context.Context, email, password, fullName string) (*services.Session, error) {
	f.lastEmail, f.lastPassword, f.lastFullName = email, password, fullName
	return f.session, f.err
}

func (f *fakeUsers) SignIn(ctx context.Context, email, password string) (*services.Session, error) {
	f.lastEmail, f.lastPassword = email, password
	return f.session, f.err
}

func (f *fakeUsers) RefreshToken(ctx context.Context, refreshToken string) (*services.Session, error) {
	f.lastRefresh = refreshToken
	return f.session, f.err
}

func (f *fakeUsers) SignOut(ctx context.Context, refreshToken string) error {
	f.signedOut = append(f.signedOut, refreshToken)
	return f.err
}

func (f *fakeUsers) Authenticate(accessToken string) (string, error) {
	switch accessToken {
	case "good":
		return "u1", nil
	case "expired":
		return "", common.ErrTokenExpired
	default:
		return "", common.ErrInvalidToken
	}
}

type fakeProfiles struct {
	profiles   map[string]*models.Profile
	err        error
	lastCaller string
	lastUpdate *models.ProfileUpdate
}

func (f *fakeProfiles) Get(ctx context.Context, id string) (*models.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return p, nil
}

func (f *fakeProfiles) Create(ctx context.Context, callerID string, p *models.Profile) (*models.Profile, error) {
	f.lastCaller = callerID
	if f.err != nil {
		return nil, f.err
	}
	return p, nil
}

func (f *fakeProfiles) Update(ctx context.Context, callerID, id string, u *models.ProfileUpdate) (*models.Profile, error) {
	f.lastCaller, f.lastUpdate = callerID, u
	if f.err != nil {
		return nil, f.err
	}
	p := &models.Profile{ID: id, FullName: "a", UpdatedAt: u.UpdatedAt}
	if u.FullName != nil {
		p.FullName = *u.FullName
	}
	return p, nil
}

type fakePosts struct {
	list       []models.FeedPost
	err        error
	lastCaller string
	lastAuthor string
}

func (f *fakePosts) List(ctx context.Context, authorID string) ([]models.FeedPost, error) {
	f.lastAuthor = authorID
	return f.list, f.err
}

func (f *fakePosts) Create(ctx context.Context, callerID, authorID, content string) (*models.Post, error) {
	f.lastCaller, f.lastAuthor = callerID, authorID
	if f.err != nil {
		return nil, f.err
	}
	return &models.Post{ID: "p1", Seq: 1, AuthorID: authorID, Content: content, CreatedAt: time.Unix(100, 0).UTC()}, nil
}

type fakeAvatars struct {
	lastID, lastType string
	err              error
}

func (f *fakeAvatars) UploadURL(ctx context.Context, identityID, contentType string) (string, string, error) {
	f.lastID, f.lastType = identityID, contentType
	if f.err != nil {
		return "", "", f.err
	}
	return "avatars/" + identityID + "/k.png", "https://s3/put", nil
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }
