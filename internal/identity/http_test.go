// ABOUTME: Tests for the bearer-token HTTP middleware
// ABOUTME: Required auth rejects missing/invalid tokens; optional auth lets anonymous through

package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// identityEcho records the identity the middleware attached.
func identityEcho(got *Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuthValidToken(t *testing.T) {
	verifier := NewJWTVerifier([]byte("secret"))
	token, err := verifier.Generate("user-1", time.Hour)
	require.NoError(t, err)

	var got Identity
	handler := RequireAuth(verifier)(identityEcho(&got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", got.UserID)
}

func TestRequireAuthMissingHeader(t *testing.T) {
	verifier := NewJWTVerifier([]byte("secret"))
	handler := RequireAuth(verifier)(identityEcho(&Identity{}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthBadHeader(t *testing.T) {
	verifier := NewJWTVerifier([]byte("secret"))
	handler := RequireAuth(verifier)(identityEcho(&Identity{}))

	for _, header := range []string{"Basic abc", "Bearer ", "Bearer garbage"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestOptionalAuthAnonymousPassesThrough(t *testing.T) {
	verifier := NewJWTVerifier([]byte("secret"))

	var got Identity
	handler := OptionalAuth(verifier)(identityEcho(&got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, got.IsAuthenticated())
}

func TestOptionalAuthInvalidTokenRejected(t *testing.T) {
	verifier := NewJWTVerifier([]byte("secret"))
	handler := OptionalAuth(verifier)(identityEcho(&Identity{}))

	// A bad token is an error, not a silent downgrade to anonymous
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalAuthValidToken(t *testing.T) {
	verifier := NewJWTVerifier([]byte("secret"))
	token, err := verifier.Generate("user-2", time.Hour)
	require.NoError(t, err)

	var got Identity
	handler := OptionalAuth(verifier)(identityEcho(&got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-2", got.UserID)
}
