// ABOUTME: Tests for Identity and its context propagation
// ABOUTME: A context without an identity is treated as anonymous

package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentityIsAuthenticated(t *testing.T) {
	assert.False(t, Anonymous.IsAuthenticated())
	assert.False(t, Identity{}.IsAuthenticated())
	assert.True(t, Authenticated("user-1").IsAuthenticated())
}

func TestContextRoundtrip(t *testing.T) {
	ctx := WithIdentity(context.Background(), Authenticated("user-1"))

	id := FromContext(ctx)
	assert.True(t, id.IsAuthenticated())
	assert.Equal(t, "user-1", id.UserID)
}

func TestFromContextDefaultsToAnonymous(t *testing.T) {
	id := FromContext(context.Background())
	assert.Equal(t, Anonymous, id)
	assert.False(t, id.IsAuthenticated())
}
