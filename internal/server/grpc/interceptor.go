package grpc

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/dmitrijs2005/linkedcommunity/internal/api"
	"github.com/dmitrijs2005/linkedcommunity/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

type ctxKey string

const identityIDKey ctxKey = "identityID"

// methods callable without an access token
var publicMethods = map[string]bool{
	api.MethodSignUp:       true,
	api.MethodSignIn:       true,
	api.MethodRefreshToken: true,
	api.MethodSignOut:      true,
	api.MethodPing:         true,
}

// methods guarded by the per-address rate limiter
var limitedMethods = map[string]bool{
	api.MethodSignUp: true,
	api.MethodSignIn: true,
}

// IdentityFromContext returns the caller set by the access token
// interceptor.
func IdentityFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(identityIDKey).(string)
	return id, ok && id != ""
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if publicMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AccessTokenHeaderName)
		if len(values) > 0 {
			accessToken = values[0]
		}
	}
	if len(accessToken) == 0 {
		return nil, status.Error(codes.Unauthenticated, msgMissingToken)
	}

	identityID, err := s.users.Authenticate(accessToken)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return nil, status.Error(codes.Unauthenticated, msgTokenExpired)
		}
		return nil, status.Error(codes.Unauthenticated, msgInvalidToken)
	}

	return handler(context.WithValue(ctx, identityIDKey, identityID), req)
}

func (s *GRPCServer) rateLimitInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if s.limiter == nil || !limitedMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	key := peerHost(ctx)
	if !s.limiter.Allow(key) {
		s.logger.Warn(ctx, "rate limit exceeded", "method", info.FullMethod, "peer", key)
		if s.metrics != nil {
			s.metrics.RecordRateLimited(shortMethod(info.FullMethod))
		}
		return nil, status.Error(codes.ResourceExhausted, common.ErrRateLimited.Error())
	}
	return handler(ctx, req)
}

func (s *GRPCServer) metricsInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	if s.metrics != nil {
		s.metrics.RecordRequest(shortMethod(info.FullMethod), status.Code(err).String(), time.Since(start))
	}
	return resp, err
}

// peerHost is the client address without the port, or "unknown".
func peerHost(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return "unknown"
	}
	addr := p.Addr.String()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

func shortMethod(fullMethod string) string {
	if i := strings.LastIndex(fullMethod, "/"); i >= 0 {
		return fullMethod[i+1:]
	}
	return fullMethod
}
