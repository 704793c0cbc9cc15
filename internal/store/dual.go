// ABOUTME: Dual-mode persistence adapter routing between remote and local stores
// ABOUTME: Authenticated identities hit the remote store, anonymous visitors the local mirror

package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hartlabs/chatcore/internal/identity"
)

// DualStore implements Store by routing every call to either the remote store
// (authenticated) or the local ephemeral store (anonymous). It owns no state
// of its own beyond the routing identity.
//
// Signing in mid-process switches routing to the remote store without
// migrating the anonymous history; the local mirror is simply left behind.
type DualStore struct {
	mu     sync.RWMutex
	id     identity.Identity
	remote Store
	local  Store
	logger *slog.Logger
}

// NewDualStore creates the adapter. remote may be nil when the process never
// authenticates; calls routed to a nil side fail with ErrUnauthorized.
func NewDualStore(id identity.Identity, remote, local Store, logger *slog.Logger) *DualStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &DualStore{
		id:     id,
		remote: remote,
		local:  local,
		logger: logger.With("component", "dualstore"),
	}
}

// SetIdentity switches the routing identity, e.g. after a sign-in during a
// live process.
func (d *DualStore) SetIdentity(id identity.Identity) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if id.IsAuthenticated() != d.id.IsAuthenticated() {
		d.logger.Info("persistence mode switched", "authenticated", id.IsAuthenticated())
	}
	d.id = id
}

// Identity returns the current routing identity.
func (d *DualStore) Identity() identity.Identity {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.id
}

// route picks the backing store for the current identity and stamps the
// identity onto the context so the backing store sees the same caller.
func (d *DualStore) route(ctx context.Context) (Store, context.Context, error) {
	d.mu.RLock()
	id := d.id
	d.mu.RUnlock()

	ctx = identity.WithIdentity(ctx, id)
	if id.IsAuthenticated() {
		if d.remote == nil {
			return nil, ctx, ErrUnauthorized
		}
		return d.remote, ctx, nil
	}
	return d.local, ctx, nil
}

func (d *DualStore) ListSessions(ctx context.Context) ([]*Session, error) {
	st, ctx, err := d.route(ctx)
	if err != nil {
		return nil, err
	}
	return st.ListSessions(ctx)
}

func (d *DualStore) CreateSession(ctx context.Context, title string) (*Session, error) {
	st, ctx, err := d.route(ctx)
	if err != nil {
		return nil, err
	}
	return st.CreateSession(ctx, title)
}

func (d *DualStore) RenameSession(ctx context.Context, id, title string) (*Session, error) {
	st, ctx, err := d.route(ctx)
	if err != nil {
		return nil, err
	}
	return st.RenameSession(ctx, id, title)
}

func (d *DualStore) DeleteSession(ctx context.Context, id string) error {
	st, ctx, err := d.route(ctx)
	if err != nil {
		return err
	}
	return st.DeleteSession(ctx, id)
}

func (d *DualStore) Messages(ctx context.Context, sessionID string) ([]*Message, error) {
	st, ctx, err := d.route(ctx)
	if err != nil {
		return nil, err
	}
	return st.Messages(ctx, sessionID)
}

func (d *DualStore) AppendMessage(ctx context.Context, sessionID string, role Role, content string) (*Message, error) {
	st, ctx, err := d.route(ctx)
	if err != nil {
		return nil, err
	}
	return st.AppendMessage(ctx, sessionID, role, content)
}

// Close closes both sides.
func (d *DualStore) Close() error {
	var firstErr error
	if d.remote != nil {
		if err := d.remote.Close(); err != nil {
			firstErr = err
		}
	}
	if err := d.local.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Ensure DualStore implements the Store interface.
var _ Store = (*DualStore)(nil)
