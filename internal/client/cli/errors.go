package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/linkedcommunity/internal/common"
)

// describeError turns an error into a line fit for the terminal.
func describeError(err error) string {
	var ve *common.ValidationError

	switch {
	case errors.Is(err, common.ErrInvalidCredentials):
		return "invalid email or password"
	case errors.Is(err, common.ErrEmailTaken):
		return "this email is already registered"
	case errors.Is(err, common.ErrWeakPassword):
		return "password must be at least 6 characters"
	case errors.As(err, &ve):
		return ve.Error()
	case errors.Is(err, common.ErrNotAuthenticated):
		return "please log in first"
	case errors.Is(err, common.ErrRateLimited):
		return "too many attempts, try again later"
	case errors.Is(err, common.ErrSuperseded):
		return "your session changed while this was running, try again"
	case errors.Is(err, common.ErrTransport):
		return "server unreachable: " + err.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return err.Error()
	}
}
