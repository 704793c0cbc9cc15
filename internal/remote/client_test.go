// ABOUTME: Integration tests driving the remote client against a real API server
// ABOUTME: Covers CRUD roundtrips, error mapping, and the chat responder

package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hartlabs/chatcore/internal/api"
	"github.com/hartlabs/chatcore/internal/chat"
	"github.com/hartlabs/chatcore/internal/identity"
	"github.com/hartlabs/chatcore/internal/store"
)

// setupAPI starts a session API server over a temp SQLite store plus a fake
// reply backend, and returns a client authenticated as user-1.
func setupAPI(t *testing.T) (*Client, *httptest.Server) {
	t.Helper()

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req api.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_ = json.NewEncoder(w).Encode(api.ChatResponse{Response: "echo: " + req.Message})
	}))
	t.Cleanup(backend.Close)

	verifier := identity.NewJWTVerifier([]byte("test-secret"))
	server := httptest.NewServer(api.NewServer(st, verifier, backend.URL, nil).Handler())
	t.Cleanup(server.Close)

	token, err := verifier.Generate("user-1", time.Hour)
	require.NoError(t, err)

	return NewClient(server.URL, token, nil), server
}

func TestClientSessionCRUD(t *testing.T) {
	client, _ := setupAPI(t)
	ctx := context.Background()

	created, err := client.CreateSession(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, store.DefaultTitle, created.Title)
	assert.Equal(t, "user-1", created.OwnerID)

	time.Sleep(5 * time.Millisecond)
	second, err := client.CreateSession(ctx, "Second")
	require.NoError(t, err)

	sessions, err := client.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, second.ID, sessions[0].ID)
	assert.Equal(t, created.ID, sessions[1].ID)

	renamed, err := client.RenameSession(ctx, created.ID, "Renamed")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", renamed.Title)

	require.NoError(t, client.DeleteSession(ctx, second.ID))

	sessions, err = client.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "Renamed", sessions[0].Title)
}

func TestClientMessages(t *testing.T) {
	client, _ := setupAPI(t)
	ctx := context.Background()

	session, err := client.CreateSession(ctx, "Chat")
	require.NoError(t, err)

	userMsg, err := client.AppendMessage(ctx, session.ID, store.RoleUser, "hello")
	require.NoError(t, err)
	assistantMsg, err := client.AppendMessage(ctx, session.ID, store.RoleAssistant, "hi there")
	require.NoError(t, err)

	messages, err := client.Messages(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, userMsg.ID, messages[0].ID)
	assert.Equal(t, assistantMsg.ID, messages[1].ID)

	// The listing preview carries the latest message
	sessions, err := client.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Len(t, sessions[0].Messages, 1)
	assert.Equal(t, "hi there", sessions[0].Messages[0].Content)
}

func TestClientErrorMapping(t *testing.T) {
	client, server := setupAPI(t)
	ctx := context.Background()

	// Missing session
	_, err := client.Messages(ctx, store.NewSessionID())
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Empty title
	session, err := client.CreateSession(ctx, "Valid")
	require.NoError(t, err)
	_, err = client.RenameSession(ctx, session.ID, "   ")
	var validationErr *store.ValidationError
	assert.ErrorAs(t, err, &validationErr)

	// No token at all
	anonClient := NewClient(server.URL, "", nil)
	_, err = anonClient.ListSessions(ctx)
	assert.ErrorIs(t, err, store.ErrUnauthorized)
}

func TestClientOwnershipMapsToUnauthorized(t *testing.T) {
	client, server := setupAPI(t)
	ctx := context.Background()

	session, err := client.CreateSession(ctx, "Mine")
	require.NoError(t, err)

	verifier := identity.NewJWTVerifier([]byte("test-secret"))
	otherToken, err := verifier.Generate("user-2", time.Hour)
	require.NoError(t, err)
	otherClient := NewClient(server.URL, otherToken, nil)

	// Someone else's session looks like a missing credential, not a 404
	_, err = otherClient.Messages(ctx, session.ID)
	assert.ErrorIs(t, err, store.ErrUnauthorized)
}

func TestClientRespond(t *testing.T) {
	client, _ := setupAPI(t)

	reply, err := client.Respond(context.Background(), chat.RespondRequest{
		Message:   "ping",
		SessionID: "sess-1",
		UserID:    "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "echo: ping", reply)
}

func TestClientRespondBackendDown(t *testing.T) {
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	// Backend that's already gone
	backend := httptest.NewServer(http.NotFoundHandler())
	backend.Close()

	verifier := identity.NewJWTVerifier([]byte("test-secret"))
	server := httptest.NewServer(api.NewServer(st, verifier, backend.URL, nil).Handler())
	t.Cleanup(server.Close)

	client := NewClient(server.URL, "", nil)
	_, err = client.Respond(context.Background(), chat.RespondRequest{Message: "ping"})

	var remoteErr *store.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusBadGateway, remoteErr.Status)
}

func TestClientServerUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "token", nil)

	_, err := client.ListSessions(context.Background())
	var remoteErr *store.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Zero(t, remoteErr.Status)
}
