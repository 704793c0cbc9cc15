// ABOUTME: Two-variant caller identity (authenticated user or anonymous visitor)
// ABOUTME: Provides WithIdentity/FromContext for propagating identity via context

package identity

import (
	"context"
)

// Identity describes who is making a request: an authenticated user or an
// anonymous visitor. The zero value is anonymous.
type Identity struct {
	UserID string
}

// Anonymous is the identity of an unauthenticated visitor.
var Anonymous = Identity{}

// Authenticated returns the identity for the given user id.
func Authenticated(userID string) Identity {
	return Identity{UserID: userID}
}

// IsAuthenticated reports whether the identity belongs to a signed-in user.
func (id Identity) IsAuthenticated() bool {
	return id.UserID != ""
}

// identityKey is the key type for storing Identity in context.Context.
type identityKey struct{}

// WithIdentity returns a new context with the identity attached.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext retrieves the identity from the context. A context without an
// identity is treated as anonymous.
func FromContext(ctx context.Context) Identity {
	val := ctx.Value(identityKey{})
	if val == nil {
		return Anonymous
	}
	id, ok := val.(Identity)
	if !ok {
		return Anonymous
	}
	return id
}
