// Package common defines shared constants and errors used across client and
// server layers of LinkedCommunity. Callers should use errors.Is / errors.As
// to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Error categories. Typed errors below match them through errors.Is.
	ErrAuth       = errors.New("authentication error")
	ErrTransport  = errors.New("transport error")
	ErrValidation = errors.New("validation error")

	// Auth reasons carried by AuthError.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = errors.New("weak password")

	// Store outcomes.
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")

	// Session lifecycle.
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrPermissionDenied = errors.New("permission denied")
	ErrSuperseded       = errors.New("superseded by a newer session state")

	// Token lifecycle errors.
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	ErrInternal    = errors.New("internal error")
	ErrRateLimited = errors.New("too many requests")
)

// AuthError is returned by sign-in and sign-up when the provider rejects
// the credentials. Reason is one of ErrInvalidCredentials, ErrEmailTaken or
// ErrWeakPassword.
type AuthError struct {
	Reason error
}

func (e *AuthError) Error() string { return fmt.Sprintf("auth: %v", e.Reason) }

func (e *AuthError) Unwrap() error { return e.Reason }

func (e *AuthError) Is(target error) bool { return target == ErrAuth }

// NewAuthError wraps reason into an AuthError.
func NewAuthError(reason error) error {
	return &AuthError{Reason: reason}
}

// TransportError reports that the network or the remote store could not be
// reached. Op names the failed operation.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, ErrTransport)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// NewTransportError wraps err into a TransportError for op.
func NewTransportError(op string, err error) error {
	return &TransportError{Op: op, Err: err}
}

// ValidationError is returned before any remote call when input is rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError builds a ValidationError.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
