// Package common defines shared sentinel errors used across the dropspace
// client. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Identity bootstrap errors. ErrIdentityUnavailable is fatal for the
	// session: no further operation can proceed without an identity.
	ErrIdentityUnavailable = errors.New("identity unavailable")
	ErrInvalidToken        = errors.New("invalid token")
	ErrServiceUnavailable  = errors.New("service unavailable")

	// ErrSync marks a recoverable feed subscription failure. The last good
	// snapshot stays available while resubscription is attempted.
	ErrSync = errors.New("sync error")

	// ErrWrite marks a failed metadata write. It is scoped to a single
	// upload task and never affects siblings in the same batch.
	ErrWrite = errors.New("write error")

	// ErrInvalidArgument is returned for caller errors, before any state
	// is mutated.
	ErrInvalidArgument = errors.New("invalid argument")
)
