// ABOUTME: Tests for the shared error taxonomy
// ABOUTME: Typed errors must unwrap to their causes for errors.Is checks

package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Field: "title", Reason: "must not be empty"}
	assert.Equal(t, "invalid title: must not be empty", err.Error())
}

func TestStorageErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := &StorageError{Op: "save", Key: "messages", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "save")
	assert.Contains(t, err.Error(), "messages")
}

func TestRemoteErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &RemoteError{Op: "GET /api/sessions", Err: cause}
	assert.ErrorIs(t, err, cause)

	// With a status, the message reports it
	withStatus := &RemoteError{Op: "GET /api/sessions", Status: 502}
	assert.Contains(t, withStatus.Error(), "502")
}
