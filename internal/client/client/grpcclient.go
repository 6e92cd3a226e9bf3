package client

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/linkedcommunity/internal/api"
	"github.com/dmitrijs2005/linkedcommunity/internal/client/models"
	"github.com/dmitrijs2005/linkedcommunity/internal/common"
	"github.com/dmitrijs2005/linkedcommunity/internal/logging"
	"golang.org/x/sync/singleflight"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// methods that never carry an access token
var publicMethods = map[string]bool{
	api.MethodSignUp:       true,
	api.MethodSignIn:       true,
	api.MethodRefreshToken: true,
	api.MethodSignOut:      true,
	api.MethodPing:         true,
}

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      api.FeedServiceClient
	cache       *SessionCache
	logger      logging.Logger
	timeout     time.Duration

	refreshes singleflight.Group

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	identity     *models.Identity
	listeners    []func(*models.Identity)
}

// NewGRPCClient dials endpointURL lazily. cache may be nil, in which case
// sessions do not survive a restart. timeout bounds every call; zero
// disables it.
func NewGRPCClient(endpointURL string, cache *SessionCache, logger logging.Logger, timeout time.Duration) (*GRPCClient, error) {
	c := &GRPCClient{
		endpointURL: endpointURL,
		cache:       cache,
		logger:      logger.With("module", "grpc_client"),
		timeout:     timeout,
	}

	conn, err := grpc.NewClient(endpointURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(api.CodecName)),
	)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = api.NewFeedServiceClient(conn)
	return c, nil
}

func (c *GRPCClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)
	return metadata.NewOutgoingContext(ctx, md)
}

func (c *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if publicMethods[method] {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	token := c.currentAccessToken()
	err := invoker(withAccessToken(ctx, token), method, req, reply, cc, opts...)
	if !isTokenExpired(err) {
		return err
	}

	if rerr := c.refresh(ctx, token); rerr != nil {
		c.logger.Warn(ctx, "token refresh failed", "method", method, "error", rerr)
		return err
	}

	return invoker(withAccessToken(ctx, c.currentAccessToken()), method, req, reply, cc, opts...)
}

func (c *GRPCClient) currentAccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

// refresh rotates the token pair once for all callers that saw stale
// expire. A refresh the server rejects ends the session.
func (c *GRPCClient) refresh(ctx context.Context, stale string) error {
	_, err, _ := c.refreshes.Do("refresh", func() (any, error) {
		c.mu.Lock()
		if c.accessToken != stale {
			c.mu.Unlock()
			return nil, nil
		}
		rt := c.refreshToken
		c.mu.Unlock()

		if rt == "" {
			return nil, common.ErrNotAuthenticated
		}

		resp, err := c.client.RefreshToken(ctx, &api.RefreshTokenRequest{RefreshToken: rt})
		if err != nil {
			if status.Code(err) == codes.Unauthenticated {
				c.logger.Info(ctx, "refresh token rejected, session ended")
				c.endSession(ctx)
			}
			return nil, mapError("refresh token", err)
		}

		c.startSession(ctx, resp, true)
		return nil, nil
	})
	return err
}

// startSession stores the token pair and identity, persists the session and
// optionally notifies listeners.
func (c *GRPCClient) startSession(ctx context.Context, resp *api.AuthResponse, notify bool) *models.Identity {
	id := &models.Identity{ID: resp.IdentityID, Email: resp.Email}

	c.mu.Lock()
	c.accessToken = resp.AccessToken
	c.refreshToken = resp.RefreshToken
	c.identity = id
	c.mu.Unlock()

	if c.cache != nil {
		err := c.cache.Save(ctx, SavedSession{RefreshToken: resp.RefreshToken, IdentityID: resp.IdentityID, Email: resp.Email})
		if err != nil {
			c.logger.Warn(ctx, "session not persisted", "error", err)
		}
	}

	if notify {
		c.emit(id)
	}
	out := *id
	return &out
}

func (c *GRPCClient) endSession(ctx context.Context) {
	c.mu.Lock()
	c.accessToken = ""
	c.refreshToken = ""
	c.identity = nil
	c.mu.Unlock()

	if c.cache != nil {
		if err := c.cache.Clear(ctx); err != nil {
			c.logger.Warn(ctx, "session cache not cleared", "error", err)
		}
	}
	c.emit(nil)
}

// OnSessionChange registers fn. It is called with the new identity after
// sign-in, sign-up and token refresh, and with nil when the session ends.
func (c *GRPCClient) OnSessionChange(fn func(*models.Identity)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *GRPCClient) emit(id *models.Identity) {
	c.mu.Lock()
	listeners := append([]func(*models.Identity){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		if id == nil {
			fn(nil)
			continue
		}
		v := *id
		fn(&v)
	}
}

func (c *GRPCClient) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// GetSession returns the live identity, or restores one from the local
// cache by rotating the stored refresh token. (nil, nil) means no session.
func (c *GRPCClient) GetSession(ctx context.Context) (*models.Identity, error) {
	c.mu.Lock()
	if c.identity != nil && c.accessToken != "" {
		id := *c.identity
		c.mu.Unlock()
		return &id, nil
	}
	c.mu.Unlock()

	if c.cache == nil {
		return nil, nil
	}

	saved, err := c.cache.Load(ctx)
	if err != nil {
		return nil, err
	}
	if saved.RefreshToken == "" {
		return nil, nil
	}

	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	resp, err := c.client.RefreshToken(ctx, &api.RefreshTokenRequest{RefreshToken: saved.RefreshToken})
	if err != nil {
		code := status.Code(err)
		if code == codes.Unauthenticated || code == codes.InvalidArgument {
			c.logger.Info(ctx, "stored session is no longer valid")
			if cerr := c.cache.Clear(ctx); cerr != nil {
				c.logger.Warn(ctx, "session cache not cleared", "error", cerr)
			}
			return nil, nil
		}
		return nil, mapError("restore session", err)
	}

	return c.startSession(ctx, resp, false), nil
}

func (c *GRPCClient) SignUp(ctx context.Context, email string, password []byte, fullName string) (*models.Identity, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	resp, err := c.client.SignUp(ctx, &api.SignUpRequest{Email: email, Password: string(password), FullName: fullName})
	if err != nil {
		return nil, mapAuthError("sign up", err)
	}
	return c.startSession(ctx, resp, true), nil
}

func (c *GRPCClient) SignIn(ctx context.Context, email string, password []byte) (*models.Identity, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	resp, err := c.client.SignIn(ctx, &api.SignInRequest{Email: email, Password: string(password)})
	if err != nil {
		return nil, mapAuthError("sign in", err)
	}
	return c.startSession(ctx, resp, true), nil
}

// SignOut forgets the session locally and then revokes the refresh token on
// the server.
func (c *GRPCClient) SignOut(ctx context.Context) error {
	c.mu.Lock()
	rt := c.refreshToken
	c.mu.Unlock()

	c.endSession(ctx)
	if rt == "" {
		return nil
	}

	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	if _, err := c.client.SignOut(ctx, &api.SignOutRequest{RefreshToken: rt}); err != nil {
		return mapError("sign out", err)
	}
	return nil
}

// GetProfile returns (nil, nil) when the profile does not exist.
func (c *GRPCClient) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	resp, err := c.client.GetProfile(ctx, &api.GetProfileRequest{ID: id})
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("get profile", err)
	}
	return profileFromAPI(&resp.Profile), nil
}

func (c *GRPCClient) CreateProfile(ctx context.Context, p *models.Profile) error {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	if _, err := c.client.CreateProfile(ctx, &api.CreateProfileRequest{Profile: profileToAPI(p)}); err != nil {
		return mapError("create profile", err)
	}
	return nil
}

func (c *GRPCClient) UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch, updatedAt time.Time) error {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	req := &api.UpdateProfileRequest{
		ID:        id,
		FullName:  patch.FullName,
		Bio:       patch.Bio,
		AvatarKey: patch.AvatarKey,
		UpdatedAt: updatedAt,
	}
	if _, err := c.client.UpdateProfile(ctx, req); err != nil {
		return mapError("update profile", err)
	}
	return nil
}

func (c *GRPCClient) ListPosts(ctx context.Context, authorID string) ([]models.FeedPost, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	resp, err := c.client.ListPosts(ctx, &api.ListPostsRequest{AuthorID: authorID})
	if err != nil {
		return nil, mapError("list posts", err)
	}

	out := make([]models.FeedPost, 0, len(resp.Posts))
	for i := range resp.Posts {
		out = append(out, feedPostFromAPI(&resp.Posts[i]))
	}
	return out, nil
}

func (c *GRPCClient) CreatePost(ctx context.Context, authorID, content string) (*models.Post, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	resp, err := c.client.CreatePost(ctx, &api.CreatePostRequest{AuthorID: authorID, Content: content})
	if err != nil {
		return nil, mapError("create post", err)
	}
	p := postFromAPI(&resp.Post)
	return &p, nil
}

func (c *GRPCClient) GetAvatarUploadURL(ctx context.Context, contentType string) (string, string, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	resp, err := c.client.GetAvatarUploadURL(ctx, &api.AvatarUploadURLRequest{ContentType: contentType})
	if err != nil {
		return "", "", mapError("avatar upload url", err)
	}
	return resp.Key, resp.URL, nil
}

func (c *GRPCClient) Ping(ctx context.Context) error {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	resp, err := c.client.Ping(ctx, &api.Empty{})
	if err != nil {
		return mapError("ping", err)
	}
	if resp.Status != "OK" {
		return common.NewTransportError("ping", nil)
	}
	return nil
}
