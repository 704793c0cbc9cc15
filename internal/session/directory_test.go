// ABOUTME: Tests for the session directory and its write-through semantics
// ABOUTME: Covers selection, lazy hydration, failure injection, and the active-session weak reference

package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hartlabs/chatcore/internal/identity"
	"github.com/hartlabs/chatcore/internal/localstore"
	"github.com/hartlabs/chatcore/internal/store"
)

// setupDirectory builds a directory for an authenticated user over an
// in-memory store routed through the dual adapter, matching production wiring.
func setupDirectory(t *testing.T) (*Directory, *store.MockStore) {
	t.Helper()

	id := identity.Authenticated("user-1")
	mock := store.NewMockStore()
	local := store.NewLocalStore(localstore.NewMemStorage(), nil)
	dual := store.NewDualStore(id, mock, local, nil)

	return NewDirectory(dual, id, nil), mock
}

func TestDirectoryCreateSession(t *testing.T) {
	dir, _ := setupDirectory(t)
	ctx := context.Background()

	first, err := dir.CreateSession(ctx, "First")
	require.NoError(t, err)
	assert.Equal(t, "First", first.Title)

	second, err := dir.CreateSession(ctx, "Second")
	require.NoError(t, err)

	// New sessions land at the head and become active
	sessions := dir.Sessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, second.ID, sessions[0].ID)
	assert.Equal(t, first.ID, sessions[1].ID)

	active := dir.Active()
	require.NotNil(t, active)
	assert.Equal(t, second.ID, active.ID)
}

func TestDirectoryRefresh(t *testing.T) {
	dir, mock := setupDirectory(t)
	ctx := context.Background()

	// A session created out of band shows up after a refresh
	storeCtx := identity.WithIdentity(ctx, identity.Authenticated("user-1"))
	created, err := mock.CreateSession(storeCtx, "From elsewhere")
	require.NoError(t, err)

	assert.Empty(t, dir.Sessions())
	require.NoError(t, dir.Refresh(ctx))

	sessions := dir.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, created.ID, sessions[0].ID)
}

func TestDirectoryRefreshClearsStaleSelection(t *testing.T) {
	dir, mock := setupDirectory(t)
	ctx := context.Background()

	session, err := dir.CreateSession(ctx, "Fleeting")
	require.NoError(t, err)
	require.NotNil(t, dir.Active())

	// Deleted out of band; the next refresh drops the selection
	storeCtx := identity.WithIdentity(ctx, identity.Authenticated("user-1"))
	require.NoError(t, mock.DeleteSession(storeCtx, session.ID))

	require.NoError(t, dir.Refresh(ctx))
	assert.Nil(t, dir.Active())
}

func TestDirectorySelectHydratesMessages(t *testing.T) {
	dir, mock := setupDirectory(t)
	ctx := context.Background()

	storeCtx := identity.WithIdentity(ctx, identity.Authenticated("user-1"))
	session, err := mock.CreateSession(storeCtx, "History")
	require.NoError(t, err)
	_, err = mock.AppendMessage(storeCtx, session.ID, store.RoleUser, "first")
	require.NoError(t, err)
	_, err = mock.AppendMessage(storeCtx, session.ID, store.RoleAssistant, "second")
	require.NoError(t, err)

	require.NoError(t, dir.Refresh(ctx))

	// The listing carries only the preview
	sessions := dir.Sessions()
	require.Len(t, sessions, 1)
	assert.Len(t, sessions[0].Messages, 1)

	// Selection loads the full log
	require.NoError(t, dir.SelectSession(ctx, session.ID))
	active := dir.Active()
	require.NotNil(t, active)
	require.Len(t, active.Messages, 2)
	assert.Equal(t, "first", active.Messages[0].Content)
	assert.Equal(t, "second", active.Messages[1].Content)
}

func TestDirectorySelectUnknownSession(t *testing.T) {
	dir, _ := setupDirectory(t)

	err := dir.SelectSession(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Nil(t, dir.Active())
}

func TestDirectoryRenameSession(t *testing.T) {
	dir, _ := setupDirectory(t)
	ctx := context.Background()

	session, err := dir.CreateSession(ctx, "Old")
	require.NoError(t, err)

	renamed, err := dir.RenameSession(ctx, session.ID, "New")
	require.NoError(t, err)
	assert.Equal(t, "New", renamed.Title)
	assert.Equal(t, "New", dir.Sessions()[0].Title)
}

func TestDirectoryRenameEmptyTitleRejected(t *testing.T) {
	dir, mock := setupDirectory(t)
	ctx := context.Background()

	session, err := dir.CreateSession(ctx, "Keep me")
	require.NoError(t, err)

	_, err = dir.RenameSession(ctx, session.ID, "   ")
	var validationErr *store.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "title", validationErr.Field)

	// Neither the directory nor the store changed
	assert.Equal(t, "Keep me", dir.Sessions()[0].Title)

	storeCtx := identity.WithIdentity(ctx, identity.Authenticated("user-1"))
	stored, err := mock.ListSessions(storeCtx)
	require.NoError(t, err)
	assert.Equal(t, "Keep me", stored[0].Title)
}

func TestDirectoryRenameUnknownSession(t *testing.T) {
	dir, _ := setupDirectory(t)

	_, err := dir.RenameSession(context.Background(), "missing", "title")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDirectoryDeleteClearsActiveSelection(t *testing.T) {
	dir, _ := setupDirectory(t)
	ctx := context.Background()

	keep, err := dir.CreateSession(ctx, "Keep")
	require.NoError(t, err)
	doomed, err := dir.CreateSession(ctx, "Doomed")
	require.NoError(t, err)
	require.Equal(t, doomed.ID, dir.Active().ID)

	require.NoError(t, dir.DeleteSession(ctx, doomed.ID))

	// The selection is a weak reference: deleting the active session clears it
	assert.Nil(t, dir.Active())
	sessions := dir.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, keep.ID, sessions[0].ID)
}

func TestDirectoryDeleteOtherSessionKeepsSelection(t *testing.T) {
	dir, _ := setupDirectory(t)
	ctx := context.Background()

	other, err := dir.CreateSession(ctx, "Other")
	require.NoError(t, err)
	active, err := dir.CreateSession(ctx, "Active")
	require.NoError(t, err)

	require.NoError(t, dir.DeleteSession(ctx, other.ID))
	require.NotNil(t, dir.Active())
	assert.Equal(t, active.ID, dir.Active().ID)
}

func TestDirectoryAppendMessage(t *testing.T) {
	dir, _ := setupDirectory(t)
	ctx := context.Background()

	session, err := dir.CreateSession(ctx, "Chat")
	require.NoError(t, err)

	first, err := dir.AppendMessage(ctx, session.ID, store.RoleUser, "hello")
	require.NoError(t, err)
	second, err := dir.AppendMessage(ctx, session.ID, store.RoleAssistant, "hi")
	require.NoError(t, err)

	active := dir.Active()
	require.NotNil(t, active)
	require.Len(t, active.Messages, 2)
	assert.Equal(t, first.ID, active.Messages[0].ID)
	assert.Equal(t, second.ID, active.Messages[1].ID)
	assert.True(t, first.CreatedAt.Before(second.CreatedAt) || first.CreatedAt.Equal(second.CreatedAt))
}

func TestDirectoryAppendFailureLeavesStateUnchanged(t *testing.T) {
	dir, mock := setupDirectory(t)
	ctx := context.Background()

	session, err := dir.CreateSession(ctx, "Chat")
	require.NoError(t, err)

	mock.FailNext = errors.New("write failed")
	_, err = dir.AppendMessage(ctx, session.ID, store.RoleUser, "lost")
	require.Error(t, err)

	// Write-through: a failed persist never leaves a partial in-memory change
	assert.Empty(t, dir.Active().Messages)

	// And the store works again afterwards
	_, err = dir.AppendMessage(ctx, session.ID, store.RoleUser, "kept")
	require.NoError(t, err)
	assert.Len(t, dir.Active().Messages, 1)
}

func TestDirectoryEnsureSession(t *testing.T) {
	dir, _ := setupDirectory(t)
	ctx := context.Background()

	// Empty directory: creates a default-titled session
	created, err := dir.EnsureSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.DefaultTitle, created.Title)
	require.NotNil(t, dir.Active())

	// Active selection: returns it unchanged
	again, err := dir.EnsureSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.Len(t, dir.Sessions(), 1)
}

func TestDirectoryEnsureSessionSelectsNewest(t *testing.T) {
	dir, mock := setupDirectory(t)
	ctx := context.Background()

	storeCtx := identity.WithIdentity(ctx, identity.Authenticated("user-1"))
	_, err := mock.CreateSession(storeCtx, "Older")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	newest, err := mock.CreateSession(storeCtx, "Newest")
	require.NoError(t, err)

	require.NoError(t, dir.Refresh(ctx))
	require.Nil(t, dir.Active())

	// Sessions exist but none selected: pick the newest
	ensured, err := dir.EnsureSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, newest.ID, ensured.ID)
}

func TestDirectoryAnonymousOverLocalStore(t *testing.T) {
	local := store.NewLocalStore(localstore.NewMemStorage(), nil)
	dual := store.NewDualStore(identity.Anonymous, nil, local, nil)
	dir := NewDirectory(dual, identity.Anonymous, nil)
	ctx := context.Background()

	first, err := dir.EnsureSession(ctx)
	require.NoError(t, err)

	_, err = dir.AppendMessage(ctx, first.ID, store.RoleUser, "hello")
	require.NoError(t, err)

	// Creating again reuses the fixed local id without stacking duplicates
	replacement, err := dir.CreateSession(ctx, "Fresh start")
	require.NoError(t, err)
	assert.Equal(t, first.ID, replacement.ID)
	assert.Len(t, dir.Sessions(), 1)
	assert.Empty(t, dir.Active().Messages)
}
