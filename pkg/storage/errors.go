package storage

import "errors"

var (
	// ErrNotFound is returned when no row matches
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned on a unique constraint violation
	ErrAlreadyExists = errors.New("already exists")

	// ErrAcquireTimeout is returned when the pool cannot hand out a
	// connection within the configured acquire timeout
	ErrAcquireTimeout = errors.New("timed out acquiring database connection")
)
