// Package common defines shared constants and sentinel errors used across
// client and server layers of notesync. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Sync protocol rejections. These fail the whole request; nothing is applied.
	ErrInvalidSyncToken      = errors.New("invalid sync token")
	ErrStorageLimitExceeded  = errors.New("storage limit exceeded")
	ErrVersionConflict       = errors.New("version conflict")

	// Validation / payload errors.
	ErrorIncorrectPayload = errors.New("incorrect payload")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Merge errors. A record that cannot be merged automatically is surfaced
	// to the user as an unresolved conflict, never as a sync failure.
	ErrCannotMerge = errors.New("cannot merge")
)
