package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/linkedcommunity/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Status messages the client matches on.
const (
	msgTokenExpired        = "token expired"
	msgInvalidToken        = "invalid token"
	msgMissingToken        = "missing token"
	msgInvalidRefreshToken = "invalid refresh token"
)

// toStatus maps a service error onto a gRPC status. Unknown errors are
// logged by the caller and reported as Internal without details.
func toStatus(err error) error {
	var ve *common.ValidationError

	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	case errors.Is(err, common.ErrWeakPassword):
		return status.Error(codes.InvalidArgument, common.ErrWeakPassword.Error())
	case errors.As(err, &ve):
		return status.Error(codes.InvalidArgument, ve.Error())
	case errors.Is(err, common.ErrEmailTaken):
		return status.Error(codes.AlreadyExists, common.ErrEmailTaken.Error())
	case errors.Is(err, common.ErrConflict):
		return status.Error(codes.AlreadyExists, common.ErrConflict.Error())
	case errors.Is(err, common.ErrNotFound):
		return status.Error(codes.NotFound, common.ErrNotFound.Error())
	case errors.Is(err, common.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, common.ErrInvalidCredentials.Error())
	case errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, msgTokenExpired)
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrRefreshTokenExpired):
		return status.Error(codes.Unauthenticated, msgInvalidRefreshToken)
	case errors.Is(err, common.ErrNotAuthenticated):
		return status.Error(codes.Unauthenticated, common.ErrNotAuthenticated.Error())
	case errors.Is(err, common.ErrPermissionDenied):
		return status.Error(codes.PermissionDenied, common.ErrPermissionDenied.Error())
	case errors.Is(err, common.ErrRateLimited):
		return status.Error(codes.ResourceExhausted, common.ErrRateLimited.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
