package grpc

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/linkedcommunity/internal/api"
	"github.com/dmitrijs2005/linkedcommunity/internal/common"
	"github.com/dmitrijs2005/linkedcommunity/internal/logging"
	"github.com/dmitrijs2005/linkedcommunity/internal/server/models"
	"github.com/dmitrijs2005/linkedcommunity/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Deps{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on graceful stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv, err := NewGRPCServer("127.0.0.1:99999", logging.NopLogger{}, Deps{Users: &fakeUsers{}})
	require.NoError(t, err)

	if err := srv.Run(context.Background()); err == nil {
		t.Fatal("expected error from Run on bad address, got nil")
	}
}

// dial starts s on an in-memory listener and returns a client for it.
func dial(t *testing.T, s *GRPCServer) api.FeedServiceClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Serve(ctx, lis)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		<-done
	})
	return api.NewFeedServiceClient(conn)
}

func authed(token string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), common.AccessTokenHeaderName, token)
}

func TestE2E_SignUpAndSignIn(t *testing.T) {
	users := &fakeUsers{session: &services.Session{AccessToken: "a", RefreshToken: "r", IdentityID: "u1", Email: "a@b.com"}}
	c := dial(t, newTestServer(t, Deps{Users: users}))
	ctx := context.Background()

	resp, err := c.SignUp(ctx, &api.SignUpRequest{Email: "a@b.com", Password: "secret1", FullName: "Ann"})
	require.NoError(t, err)
	assert.Equal(t, &api.AuthResponse{AccessToken: "a", RefreshToken: "r", IdentityID: "u1", Email: "a@b.com"}, resp)
	assert.Equal(t, "Ann", users.lastFullName)

	_, err = c.SignIn(ctx, &api.SignInRequest{Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)

	users.err = common.ErrWeakPassword
	_, err = c.SignUp(ctx, &api.SignUpRequest{Email: "a@b.com", Password: "1"})
	st := status.Convert(err)
	assert.Equal(t, codes.InvalidArgument, st.Code())
	assert.Equal(t, "weak password", st.Message())

	users.err = common.ErrInvalidCredentials
	_, err = c.SignIn(ctx, &api.SignInRequest{Email: "a@b.com", Password: "nope"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestE2E_RefreshAndSignOut(t *testing.T) {
	users := &fakeUsers{session: &services.Session{AccessToken: "a2", RefreshToken: "r2", IdentityID: "u1"}}
	c := dial(t, newTestServer(t, Deps{Users: users}))
	ctx := context.Background()

	_, err := c.RefreshToken(ctx, &api.RefreshTokenRequest{})
	st := status.Convert(err)
	assert.Equal(t, codes.Unauthenticated, st.Code())
	assert.Equal(t, "invalid refresh token", st.Message())

	resp, err := c.RefreshToken(ctx, &api.RefreshTokenRequest{RefreshToken: "r1"})
	require.NoError(t, err)
	assert.Equal(t, "r2", resp.RefreshToken)
	assert.Equal(t, "r1", users.lastRefresh)

	_, err = c.SignOut(ctx, &api.SignOutRequest{})
	require.NoError(t, err)
	assert.Empty(t, users.signedOut)

	_, err = c.SignOut(ctx, &api.SignOutRequest{RefreshToken: "r2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"r2"}, users.signedOut)
}

func TestE2E_Profiles(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	profiles := &fakeProfiles{profiles: map[string]*models.Profile{
		"u1": {ID: "u1", Email: "a@b.com", FullName: "a", CreatedAt: ts, UpdatedAt: ts},
	}}
	c := dial(t, newTestServer(t, Deps{Profiles: profiles}))

	_, err := c.GetProfile(context.Background(), &api.GetProfileRequest{ID: "u1"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err), "token required")

	resp, err := c.GetProfile(authed("good"), &api.GetProfileRequest{ID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "a", resp.Profile.FullName)
	assert.True(t, resp.Profile.CreatedAt.Equal(ts))
	assert.Nil(t, resp.Profile.Bio)

	_, err = c.GetProfile(authed("good"), &api.GetProfileRequest{ID: "u2"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = c.CreateProfile(authed("good"), &api.CreateProfileRequest{Profile: api.Profile{ID: "u1", FullName: "a"}})
	require.NoError(t, err)
	assert.Equal(t, "u1", profiles.lastCaller)

	name := "Ann"
	upd, err := c.UpdateProfile(authed("good"), &api.UpdateProfileRequest{ID: "u1", FullName: &name, UpdatedAt: ts})
	require.NoError(t, err)
	assert.Equal(t, "Ann", upd.Profile.FullName)
	assert.True(t, profiles.lastUpdate.UpdatedAt.Equal(ts))

	profiles.err = common.ErrConflict
	_, err = c.CreateProfile(authed("good"), &api.CreateProfileRequest{Profile: api.Profile{ID: "u1", FullName: "a"}})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	profiles.err = common.ErrPermissionDenied
	_, err = c.UpdateProfile(authed("good"), &api.UpdateProfileRequest{ID: "u2", FullName: &name})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = c.GetProfile(authed("expired"), &api.GetProfileRequest{ID: "u1"})
	assert.Equal(t, "token expired", status.Convert(err).Message())
}

func TestE2E_Posts(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	posts := &fakePosts{list: []models.FeedPost{
		{Post: models.Post{ID: "p2", AuthorID: "u1", Content: "second", CreatedAt: ts.Add(time.Minute)}, Author: &models.Profile{ID: "u1", FullName: "a"}},
		{Post: models.Post{ID: "p1", AuthorID: "u9", Content: "first", CreatedAt: ts}},
	}}
	c := dial(t, newTestServer(t, Deps{Posts: posts}))

	list, err := c.ListPosts(authed("good"), &api.ListPostsRequest{AuthorID: "u1"})
	require.NoError(t, err)
	require.Len(t, list.Posts, 2)
	assert.Equal(t, "u1", posts.lastAuthor)
	require.NotNil(t, list.Posts[0].Author)
	assert.Equal(t, "a", list.Posts[0].Author.FullName)
	assert.Nil(t, list.Posts[1].Author)

	created, err := c.CreatePost(authed("good"), &api.CreatePostRequest{AuthorID: "u1", Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", created.Post.Content)
	assert.Equal(t, "u1", posts.lastCaller)

	posts.err = common.NewValidationError("content", "must be at most 500 characters")
	_, err = c.CreatePost(authed("good"), &api.CreatePostRequest{AuthorID: "u1", Content: strings.Repeat("x", 501)})
	st := status.Convert(err)
	assert.Equal(t, codes.InvalidArgument, st.Code())
	assert.Contains(t, st.Message(), "content")

	posts.err = errors.New("db gone")
	_, err = c.ListPosts(authed("good"), &api.ListPostsRequest{})
	st = status.Convert(err)
	assert.Equal(t, codes.Internal, st.Code())
	assert.NotContains(t, st.Message(), "db gone")
}

func TestE2E_AvatarAndPing(t *testing.T) {
	avatars := &fakeAvatars{}
	db := &fakePinger{}
	c := dial(t, newTestServer(t, Deps{Avatars: avatars, DB: db}))

	resp, err := c.GetAvatarUploadURL(authed("good"), &api.AvatarUploadURLRequest{ContentType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, "avatars/u1/k.png", resp.Key)
	assert.Equal(t, "https://s3/put", resp.URL)
	assert.Equal(t, "u1", avatars.lastID)

	pong, err := c.Ping(context.Background(), &api.Empty{})
	require.NoError(t, err)
	assert.Equal(t, "OK", pong.Status)
}

func TestE2E_PingDatabaseDown(t *testing.T) {
	c := dial(t, newTestServer(t, Deps{DB: fakePinger{err: errors.New("down")}}))

	_, err := c.Ping(context.Background(), &api.Empty{})
	assert.Equal(t, codes.Unavailable, status.Code(err))
}
