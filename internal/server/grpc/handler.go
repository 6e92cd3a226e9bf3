package grpc

import (
	"context"

	"github.com/dmitrijs2005/linkedcommunity/internal/api"
	"github.com/dmitrijs2005/linkedcommunity/internal/common"
	"github.com/dmitrijs2005/linkedcommunity/internal/server/models"
	"github.com/dmitrijs2005/linkedcommunity/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// fail converts err to a status and logs the ones the client cannot act on.
func (s *GRPCServer) fail(ctx context.Context, op string, err error) error {
	st := toStatus(err)
	if status.Code(st) == codes.Internal {
		s.logger.Error(ctx, op+" failed", "error", err)
	}
	return st
}

func caller(ctx context.Context) (string, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, msgMissingToken)
	}
	return id, nil
}

func authResponse(sess *services.Session) *api.AuthResponse {
	return &api.AuthResponse{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		IdentityID:   sess.IdentityID,
		Email:        sess.Email,
	}
}

func (s *GRPCServer) SignUp(ctx context.Context, req *api.SignUpRequest) (*api.AuthResponse, error) {
	sess, err := s.users.SignUp(ctx, req.Email, req.Password, req.FullName)
	if err != nil {
		return nil, s.fail(ctx, "sign up", err)
	}
	s.logger.Info(ctx, "Registered", "identity_id", sess.IdentityID)
	return authResponse(sess), nil
}

func (s *GRPCServer) SignIn(ctx context.Context, req *api.SignInRequest) (*api.AuthResponse, error) {
	sess, err := s.users.SignIn(ctx, req.Email, req.Password)
	if s.metrics != nil {
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		s.metrics.RecordSignIn(outcome)
	}
	if err != nil {
		return nil, s.fail(ctx, "sign in", err)
	}
	return authResponse(sess), nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *api.RefreshTokenRequest) (*api.AuthResponse, error) {
	if req.RefreshToken == "" {
		return nil, status.Error(codes.Unauthenticated, msgInvalidRefreshToken)
	}
	sess, err := s.users.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.fail(ctx, "refresh token", err)
	}
	return authResponse(sess), nil
}

func (s *GRPCServer) SignOut(ctx context.Context, req *api.SignOutRequest) (*api.Empty, error) {
	if req.RefreshToken == "" {
		return &api.Empty{}, nil
	}
	if err := s.users.SignOut(ctx, req.RefreshToken); err != nil {
		return nil, s.fail(ctx, "sign out", err)
	}
	return &api.Empty{}, nil
}

func (s *GRPCServer) GetProfile(ctx context.Context, req *api.GetProfileRequest) (*api.ProfileResponse, error) {
	if req.ID == "" {
		return nil, toStatus(common.NewValidationError("id", "must not be empty"))
	}
	p, err := s.profiles.Get(ctx, req.ID)
	if err != nil {
		return nil, s.fail(ctx, "get profile", err)
	}
	return &api.ProfileResponse{Profile: profileToAPI(p)}, nil
}

func (s *GRPCServer) CreateProfile(ctx context.Context, req *api.CreateProfileRequest) (*api.ProfileResponse, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.profiles.Create(ctx, id, profileFromAPI(&req.Profile))
	if err != nil {
		return nil, s.fail(ctx, "create profile", err)
	}
	s.logger.Info(ctx, "Profile created", "identity_id", id)
	return &api.ProfileResponse{Profile: profileToAPI(p)}, nil
}

func (s *GRPCServer) UpdateProfile(ctx context.Context, req *api.UpdateProfileRequest) (*api.ProfileResponse, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.profiles.Update(ctx, id, req.ID, &models.ProfileUpdate{
		FullName:  req.FullName,
		Bio:       req.Bio,
		AvatarKey: req.AvatarKey,
		UpdatedAt: req.UpdatedAt,
	})
	if err != nil {
		return nil, s.fail(ctx, "update profile", err)
	}
	return &api.ProfileResponse{Profile: profileToAPI(p)}, nil
}

func (s *GRPCServer) ListPosts(ctx context.Context, req *api.ListPostsRequest) (*api.ListPostsResponse, error) {
	posts, err := s.posts.List(ctx, req.AuthorID)
	if err != nil {
		return nil, s.fail(ctx, "list posts", err)
	}
	out := make([]api.Post, 0, len(posts))
	for i := range posts {
		p := postToAPI(&posts[i].Post)
		if posts[i].Author != nil {
			a := profileToAPI(posts[i].Author)
			p.Author = &a
		}
		out = append(out, p)
	}
	return &api.ListPostsResponse{Posts: out}, nil
}

func (s *GRPCServer) CreatePost(ctx context.Context, req *api.CreatePostRequest) (*api.CreatePostResponse, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.posts.Create(ctx, id, req.AuthorID, req.Content)
	if err != nil {
		return nil, s.fail(ctx, "create post", err)
	}
	return &api.CreatePostResponse{Post: postToAPI(p)}, nil
}

func (s *GRPCServer) GetAvatarUploadURL(ctx context.Context, req *api.AvatarUploadURLRequest) (*api.AvatarUploadURLResponse, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	key, url, err := s.avatars.UploadURL(ctx, id, req.ContentType)
	if err != nil {
		return nil, s.fail(ctx, "avatar upload url", err)
	}
	return &api.AvatarUploadURLResponse{Key: key, URL: url}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *api.Empty) (*api.PingResponse, error) {
	if s.db != nil {
		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Warn(ctx, "database ping failed", "error", err)
			return nil, status.Error(codes.Unavailable, "database unavailable")
		}
	}
	return &api.PingResponse{Status: "OK"}, nil
}

func profileToAPI(p *models.Profile) api.Profile {
	return api.Profile{
		ID:        p.ID,
		Email:     p.Email,
		FullName:  p.FullName,
		Bio:       p.Bio,
		AvatarKey: p.AvatarKey,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func profileFromAPI(p *api.Profile) *models.Profile {
	return &models.Profile{
		ID:        p.ID,
		Email:     p.Email,
		FullName:  p.FullName,
		Bio:       p.Bio,
		AvatarKey: p.AvatarKey,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func postToAPI(p *models.Post) api.Post {
	return api.Post{
		ID:        p.ID,
		AuthorID:  p.AuthorID,
		Content:   p.Content,
		CreatedAt: p.CreatedAt,
	}
}
