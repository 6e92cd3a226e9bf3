// Package grpc exposes the FeedService API over gRPC: request handlers,
// error-to-status mapping, authentication, rate limiting and request
// metrics.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/linkedcommunity/internal/api"
	"github.com/dmitrijs2005/linkedcommunity/internal/logging"
	"github.com/dmitrijs2005/linkedcommunity/internal/server/metrics"
	"github.com/dmitrijs2005/linkedcommunity/internal/server/models"
	"github.com/dmitrijs2005/linkedcommunity/internal/server/services"
	"google.golang.org/grpc"
)

type UserService interface {
	SignUp(ctx context.Context, email, password, fullName string) (*services.Session, error)
	SignIn(ctx context.Context, email, password string) (*services.Session, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.Session, error)
	SignOut(ctx context.Context, refreshToken string) error
	Authenticate(accessToken string) (string, error)
}

type ProfileService interface {
	Get(ctx context.Context, id string) (*models.Profile, error)
	Create(ctx context.Context, callerID string, p *models.Profile) (*models.Profile, error)
	Update(ctx context.Context, callerID, id string, u *models.ProfileUpdate) (*models.Profile, error)
}

type PostService interface {
	List(ctx context.Context, authorID string) ([]models.FeedPost, error)
	Create(ctx context.Context, callerID, authorID, content string) (*models.Post, error)
}

type AvatarService interface {
	UploadURL(ctx context.Context, identityID, contentType string) (key, url string, err error)
}

// Pinger is what Ping uses to check the database.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the collaborators the server dispatches to. Metrics and Limiter
// may be nil.
type Deps struct {
	Users    UserService
	Profiles ProfileService
	Posts    PostService
	Avatars  AvatarService
	DB       Pinger
	Metrics  *metrics.Collector
	Limiter  *RateLimiter
}

type GRPCServer struct {
	api.UnimplementedFeedServiceServer
	address  string
	logger   logging.Logger
	users    UserService
	profiles ProfileService
	posts    PostService
	avatars  AvatarService
	db       Pinger
	metrics  *metrics.Collector
	limiter  *RateLimiter
}

func NewGRPCServer(address string, l logging.Logger, d Deps) (*GRPCServer, error) {
	return &GRPCServer{
		address:  address,
		logger:   l.With("module", "grpc_server"),
		users:    d.Users,
		profiles: d.Profiles,
		posts:    d.Posts,
		avatars:  d.Avatars,
		db:       d.DB,
		metrics:  d.Metrics,
		limiter:  d.Limiter,
	}, nil
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		s.metricsInterceptor,
		s.rateLimitInterceptor,
		s.accessTokenInterceptor,
	))
	api.RegisterFeedServiceServer(srv, s)
	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops
// gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
