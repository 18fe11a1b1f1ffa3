// Package storage defines the persistence contract for users and pinpoints.
//
// The API layer depends on the small interfaces here (UserReader,
// UserWriter, PinpointReader, PinpointWriter, and auth.CredentialStore)
// composed into Storage. The postgres subpackage is the only
// implementation.
//
// Backends report misses with ErrNotFound, unique violations with
// ErrAlreadyExists, and pool exhaustion with ErrAcquireTimeout; callers
// match them with errors.Is.
package storage
