// Package apperr defines the error kinds shared by all docbridge operations.
//
// Every operation wraps one of these sentinels with fmt.Errorf and %w, so
// callers distinguish kinds with errors.Is while still seeing a message
// specific to the failure. The HTTP layer maps kinds to status codes; no
// kind is ever collapsed into a generic failure.
package apperr

import "errors"

var (
	// ErrValidation marks malformed or missing input the caller can fix.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a referenced entity that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized marks a caller who is not a party to the entity.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbiddenState marks an operation a party attempted while the
	// entity's current state disallows it.
	ErrForbiddenState = errors.New("forbidden in current state")

	// ErrInvalidTransition marks a status change that is not a legal
	// successor of the current status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrConflict marks a uniqueness violation, typically surfaced by a
	// storage-layer constraint under concurrent writes.
	ErrConflict = errors.New("already exists")
)
