package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/linkedcommunity/internal/client/feed"
	"github.com/dmitrijs2005/linkedcommunity/internal/client/identity"
	"github.com/dmitrijs2005/linkedcommunity/internal/client/models"
	"github.com/dmitrijs2005/linkedcommunity/internal/common"
	"github.com/dmitrijs2005/linkedcommunity/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubInputs(t *testing.T, answers []string, password []byte) {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if len(answers) == 0 {
			return "", io.EOF
		}
		a := answers[0]
		answers = answers[1:]
		return a, nil
	}
	getPassword = func(_ io.Writer) ([]byte, error) { return password, nil }
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})
}

type fakeIdentity struct {
	mu   sync.Mutex
	snap identity.Snapshot

	signUpEmail, signUpName string
	signInEmail             string
	password                []byte
	signedOut               bool
	retried                 bool
	patch                   *models.ProfilePatch

	profile  *models.Profile
	err      error
	retryErr error
}

func (f *fakeIdentity) Current() identity.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeIdentity) SignUp(_ context.Context, email string, password []byte, fullName string) (*models.Profile, error) {
	f.signUpEmail, f.signUpName = email, fullName
	f.password = append([]byte(nil), password...)
	return f.profile, f.err
}

func (f *fakeIdentity) SignIn(_ context.Context, email string, password []byte) (*models.Profile, error) {
	f.signInEmail = email
	f.password = append([]byte(nil), password...)
	return f.profile, f.err
}

func (f *fakeIdentity) SignOut(context.Context) { f.signedOut = true }

func (f *fakeIdentity) UpdateProfile(_ context.Context, patch models.ProfilePatch) (*models.Profile, error) {
	f.patch = &patch
	return f.profile, f.err
}

func (f *fakeIdentity) Retry(context.Context) error {
	f.retried = true
	return f.retryErr
}

type fakeFeed struct {
	content string
	scope   feed.Scope
	posts   []models.FeedPost
	err     error
}

func (f *fakeFeed) CreatePost(_ context.Context, content string) (*models.Post, error) {
	f.content = content
	if f.err != nil {
		return nil, f.err
	}
	return &models.Post{ID: "p1", Content: content}, nil
}

func (f *fakeFeed) LoadFeed(_ context.Context, scope feed.Scope) ([]models.FeedPost, error) {
	f.scope = scope
	return f.posts, f.err
}

type fakeAvatars struct {
	path    string
	profile *models.Profile
	err     error
}

func (f *fakeAvatars) SetAvatar(_ context.Context, path string) (*models.Profile, error) {
	f.path = path
	return f.profile, f.err
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestApp(ids *fakeIdentity, fs *fakeFeed, av *fakeAvatars) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	a := NewApp(ids, fs, av, logging.NopLogger{}, strings.NewReader(""), &out)
	a.now = func() time.Time { return testNow }
	return a, &out
}

func signedIn() identity.Snapshot {
	bio := "gopher"
	return identity.Snapshot{
		State:    identity.StateAuthenticated,
		Identity: &models.Identity{ID: "u1", Email: "ann@example.com"},
		Profile: &models.Profile{
			ID: "u1", Email: "ann@example.com", FullName: "Ann", Bio: &bio,
			CreatedAt: testNow.Add(-3 * 24 * time.Hour),
		},
	}
}

func TestRegister_Success(t *testing.T) {
	stubInputs(t, []string{"ann@example.com", "Ann Smith"}, []byte("secret"))
	ids := &fakeIdentity{profile: &models.Profile{FullName: "Ann Smith"}}
	a, out := newTestApp(ids, nil, nil)

	require.NoError(t, a.Register(context.Background()))
	assert.Equal(t, "ann@example.com", ids.signUpEmail)
	assert.Equal(t, "Ann Smith", ids.signUpName)
	assert.Equal(t, []byte("secret"), ids.password)
	assert.Contains(t, out.String(), "Welcome, Ann Smith!")
}

func TestRegister_PasswordWipedAndErrorReturned(t *testing.T) {
	pw := []byte("12")
	stubInputs(t, []string{"ann@example.com", ""}, pw)
	ids := &fakeIdentity{err: common.NewAuthError(common.ErrWeakPassword)}
	a, _ := newTestApp(ids, nil, nil)

	err := a.Register(context.Background())
	require.ErrorIs(t, err, common.ErrWeakPassword)
	assert.Equal(t, []byte{0, 0}, pw)
}

func TestLogin_Success(t *testing.T) {
	stubInputs(t, []string{"ann@example.com"}, []byte("secret"))
	ids := &fakeIdentity{profile: &models.Profile{FullName: "Ann"}}
	a, out := newTestApp(ids, nil, nil)

	require.NoError(t, a.Login(context.Background()))
	assert.Equal(t, "ann@example.com", ids.signInEmail)
	assert.Contains(t, out.String(), "Welcome back, Ann!")
}

func TestLogin_InputError(t *testing.T) {
	stubInputs(t, nil, nil)
	ids := &fakeIdentity{}
	a, _ := newTestApp(ids, nil, nil)

	require.ErrorIs(t, a.Login(context.Background()), io.EOF)
	assert.Empty(t, ids.signInEmail)
}

func TestLogout(t *testing.T) {
	ids := &fakeIdentity{snap: signedIn()}
	a, out := newTestApp(ids, nil, nil)

	require.NoError(t, a.Logout(context.Background()))
	assert.True(t, ids.signedOut)
	assert.Contains(t, out.String(), "Logged out")

	ids = &fakeIdentity{snap: identity.Snapshot{State: identity.StateUnauthenticated}}
	a, _ = newTestApp(ids, nil, nil)
	require.ErrorIs(t, a.Logout(context.Background()), common.ErrNotAuthenticated)
	assert.False(t, ids.signedOut)
}

func TestLogout_FromLoading(t *testing.T) {
	ids := &fakeIdentity{snap: identity.Snapshot{
		State:    identity.StateLoading,
		Identity: &models.Identity{ID: "u1", Email: "ann@example.com"},
		Err:      common.NewTransportError("create profile", errors.New("unavailable")),
	}}
	a, out := newTestApp(ids, nil, nil)

	require.NoError(t, a.Logout(context.Background()))
	assert.True(t, ids.signedOut)
	assert.Contains(t, out.String(), "Logged out")
}

func TestWhoAmI(t *testing.T) {
	ids := &fakeIdentity{snap: signedIn()}
	a, out := newTestApp(ids, nil, nil)

	require.NoError(t, a.WhoAmI(context.Background()))
	assert.Contains(t, out.String(), "Ann <ann@example.com>")
	assert.Contains(t, out.String(), "Bio: gopher")
	assert.Contains(t, out.String(), "Joined 3 days ago")
	assert.NotContains(t, out.String(), "Avatar:")
}

func TestWhoAmI_SignedOut(t *testing.T) {
	ids := &fakeIdentity{snap: identity.Snapshot{State: identity.StateUnauthenticated}}
	a, out := newTestApp(ids, nil, nil)

	require.NoError(t, a.WhoAmI(context.Background()))
	assert.Contains(t, out.String(), "Not signed in (unauthenticated)")
}

func TestRetry(t *testing.T) {
	ids := &fakeIdentity{snap: identity.Snapshot{State: identity.StateLoading, Err: common.NewTransportError("get profile", nil)}}
	a, _ := newTestApp(ids, nil, nil)

	require.NoError(t, a.Retry(context.Background()))
	assert.True(t, ids.retried)

	ids.retryErr = errors.New("still down")
	require.Error(t, a.Retry(context.Background()))
}

func TestRetry_NothingToDo(t *testing.T) {
	ids := &fakeIdentity{snap: signedIn()}
	a, out := newTestApp(ids, nil, nil)

	require.NoError(t, a.Retry(context.Background()))
	assert.False(t, ids.retried)
	assert.Contains(t, out.String(), "Nothing to retry")
}

func TestGetStatus(t *testing.T) {
	ids := &fakeIdentity{}
	a, _ := newTestApp(ids, nil, nil)

	assert.Equal(t, "signed out", a.getStatus())

	ids.snap = identity.Snapshot{State: identity.StateLoading}
	assert.Equal(t, "loading", a.getStatus())

	ids.snap.Err = common.ErrTransport
	assert.Equal(t, "offline", a.getStatus())

	ids.snap = signedIn()
	assert.Equal(t, "ann@example.com", a.getStatus())
	assert.True(t, a.isLoggedIn())
}

func TestDescribeError(t *testing.T) {
	cases := map[error]string{
		common.NewAuthError(common.ErrInvalidCredentials): "invalid email or password",
		common.NewAuthError(common.ErrEmailTaken):         "this email is already registered",
		common.NewValidationError("bio", "too long"):      "invalid bio: too long",
		common.ErrNotAuthenticated:                        "please log in first",
		common.ErrRateLimited:                             "too many attempts, try again later",
		common.ErrSuperseded:                              "your session changed while this was running, try again",
		common.NewTransportError("list posts", nil):       "server unreachable: list posts: transport error",
		context.Canceled:                                  "cancelled",
		errors.New("something else"):                      "something else",
	}
	for err, want := range cases {
		assert.Equal(t, want, describeError(err))
	}
}
