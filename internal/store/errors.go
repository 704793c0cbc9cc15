// ABOUTME: Error taxonomy shared by all store implementations and their callers
// ABOUTME: Sentinels for not-found/authorization, typed errors for validation/storage/remote

package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced session or message does not exist.
var ErrNotFound = errors.New("not found")

// ErrUnauthorized is returned when the caller's identity is missing or does
// not own the referenced session.
var ErrUnauthorized = errors.New("unauthorized")

// ValidationError reports rejected input. Validation failures never partially
// mutate state.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StorageError reports a failure of the local persistence medium.
type StorageError struct {
	Op  string // "load", "save"
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// RemoteError reports a network or backend failure, carrying the underlying
// HTTP status when one was received.
type RemoteError struct {
	Op     string
	Status int
	Err    error
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("remote error: %s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("remote error: %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}
