package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/linkedcommunity/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// mapError converts a gRPC error for op into the common taxonomy.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	st, ok := status.FromError(err)
	if !ok {
		return common.NewTransportError(op, err)
	}

	switch st.Code() {
	case codes.NotFound:
		return fmt.Errorf("%s: %w", op, common.ErrNotFound)
	case codes.AlreadyExists:
		return fmt.Errorf("%s: %w", op, common.ErrConflict)
	case codes.InvalidArgument:
		return common.NewValidationError("request", st.Message())
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%s: %w", op, common.ErrNotAuthenticated)
	case codes.ResourceExhausted:
		return fmt.Errorf("%s: %w", op, common.ErrRateLimited)
	case codes.Canceled:
		return fmt.Errorf("%s: %w", op, context.Canceled)
	default:
		return common.NewTransportError(op, err)
	}
}

// mapAuthError is mapError for SignUp and SignIn, where rejections become
// AuthError values.
func mapAuthError(op string, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return mapError(op, err)
	}

	switch {
	case st.Code() == codes.Unauthenticated:
		return common.NewAuthError(common.ErrInvalidCredentials)
	case st.Code() == codes.AlreadyExists:
		return common.NewAuthError(common.ErrEmailTaken)
	case st.Code() == codes.InvalidArgument && st.Message() == common.ErrWeakPassword.Error():
		return common.NewAuthError(common.ErrWeakPassword)
	default:
		return mapError(op, err)
	}
}

func isTokenExpired(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.Unauthenticated && st.Message() == common.ErrTokenExpired.Error()
}
