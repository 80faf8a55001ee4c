// Package common defines shared constants and sentinel errors used across
// the gamersnet server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorBadRequest   = errors.New("bad request")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Login / refresh flow errors.
	ErrInvalidCredentials  = errors.New("invalid user or password")
	ErrUnknownRefreshToken = errors.New("unknown refresh token")
	ErrRateLimited         = errors.New("too many requests")

	// Validation errors.
	ErrPasswordEmpty = errors.New("password can't be empty")
)
