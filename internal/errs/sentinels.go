// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels mapped from backend HTTP status codes.
var (
	// ErrBadRequest indicates the backend rejected the request as malformed.
	ErrBadRequest = errors.New("bad request")

	// ErrUnauthorized indicates missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the session's role lacks the required capability.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates the requested sweet does not exist (stale id).
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates the backend refused the mutation (e.g. insufficient stock).
	ErrConflict = errors.New("conflict")

	// ErrNoSession indicates no user is logged in on this client.
	ErrNoSession = errors.New("no active session")
)
