// ABOUTME: Session Directory owning the in-memory session list and active selection
// ABOUTME: All CRUD is write-through: memory changes only after the adapter confirms

package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/hartlabs/chatcore/internal/identity"
	"github.com/hartlabs/chatcore/internal/store"
)

// Directory owns the authoritative list of the caller's sessions and the
// active selection. Every read and write goes through the persistence
// adapter; the in-memory copy is updated only after the adapter confirms, so
// a failed write never leaves a partial mutation.
//
// The active selection is a weak reference: deleting the selected session
// clears it, and sending a message then requires selecting or creating
// another session first.
type Directory struct {
	mu       sync.Mutex
	store    store.Store
	id       identity.Identity
	logger   *slog.Logger
	sessions []*store.Session // newest first
	hydrated map[string]bool  // session id -> full log loaded
	activeID string
}

// NewDirectory creates a directory over the given persistence adapter for the
// given caller identity.
func NewDirectory(st store.Store, id identity.Identity, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{
		store:    st,
		id:       id,
		logger:   logger.With("component", "directory"),
		hydrated: make(map[string]bool),
	}
}

// Refresh reloads the session list from the adapter, newest first. The active
// selection survives if the session is still present; hydration state resets
// because the summaries only carry preview messages.
func (d *Directory) Refresh(ctx context.Context) error {
	sessions, err := d.store.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.sessions = sessions
	d.hydrated = make(map[string]bool)
	if d.activeID != "" && d.findLocked(d.activeID) == nil {
		d.activeID = ""
	}
	return nil
}

// Sessions returns a snapshot of the session list, newest first.
func (d *Directory) Sessions() []*store.Session {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]*store.Session, len(d.sessions))
	copy(out, d.sessions)
	return out
}

// Active returns the selected session, or nil when nothing is selected.
func (d *Directory) Active() *store.Session {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.activeID == "" {
		return nil
	}
	return d.findLocked(d.activeID)
}

// CreateSession persists a new session, inserts it at the head of the list
// and makes it the active selection. On adapter failure the directory is left
// unchanged.
func (d *Directory) CreateSession(ctx context.Context, title string) (*store.Session, error) {
	session, err := d.store.CreateSession(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// LocalStore reuses a fixed id for the ephemeral session; replace any
	// stale entry instead of stacking duplicates.
	d.removeLocked(session.ID)
	d.sessions = append([]*store.Session{session}, d.sessions...)
	d.hydrated[session.ID] = true // brand new, log is empty
	d.activeID = session.ID

	d.logger.Debug("session created", "session_id", session.ID, "title", session.Title)
	return session, nil
}

// SelectSession makes the given session active, lazily fetching its full
// message log on first selection. The selection only changes once hydration
// succeeds.
func (d *Directory) SelectSession(ctx context.Context, sessionID string) error {
	d.mu.Lock()
	session := d.findLocked(sessionID)
	needsHydration := session != nil && !d.hydrated[sessionID]
	d.mu.Unlock()

	if session == nil {
		return store.ErrNotFound
	}

	if needsHydration {
		messages, err := d.store.Messages(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("loading messages: %w", err)
		}

		d.mu.Lock()
		if current := d.findLocked(sessionID); current != nil {
			current.Messages = messages
			d.hydrated[sessionID] = true
		}
		d.mu.Unlock()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.findLocked(sessionID) == nil {
		return store.ErrNotFound
	}
	d.activeID = sessionID
	return nil
}

// RenameSession updates a session's title write-through.
func (d *Directory) RenameSession(ctx context.Context, sessionID, title string) (*store.Session, error) {
	if strings.TrimSpace(title) == "" {
		return nil, &store.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if err := d.checkOwnership(sessionID); err != nil {
		return nil, err
	}

	updated, err := d.store.RenameSession(ctx, sessionID, title)
	if err != nil {
		return nil, fmt.Errorf("renaming session: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if current := d.findLocked(sessionID); current != nil {
		current.Title = updated.Title
	}
	return updated, nil
}

// DeleteSession removes a session write-through. If it was the active
// selection, the selection is cleared.
func (d *Directory) DeleteSession(ctx context.Context, sessionID string) error {
	if err := d.checkOwnership(sessionID); err != nil {
		return err
	}

	if err := d.store.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.removeLocked(sessionID)
	delete(d.hydrated, sessionID)
	if d.activeID == sessionID {
		d.activeID = ""
		d.logger.Debug("active selection cleared", "session_id", sessionID)
	}
	return nil
}

// AppendMessage persists a message write-through and appends it to the
// in-memory log. The adapter assigns the monotonic id and timestamp, so a
// plain append keeps the log sorted.
func (d *Directory) AppendMessage(ctx context.Context, sessionID string, role store.Role, content string) (*store.Message, error) {
	if err := d.checkOwnership(sessionID); err != nil {
		return nil, err
	}

	msg, err := d.store.AppendMessage(ctx, sessionID, role, content)
	if err != nil {
		return nil, fmt.Errorf("appending message: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if current := d.findLocked(sessionID); current != nil {
		current.Messages = append(current.Messages, msg)
	} else {
		// Session vanished between persist and commit (e.g. concurrent
		// delete). The message is stored; only the cache misses it.
		d.logger.Debug("appended message to session no longer in directory", "session_id", sessionID)
	}
	return msg, nil
}

// EnsureSession returns the active session, creating one when the caller has
// none at all. Used on first sign-in and for the implicit anonymous session.
func (d *Directory) EnsureSession(ctx context.Context) (*store.Session, error) {
	d.mu.Lock()
	active := d.activeID
	empty := len(d.sessions) == 0
	var firstID string
	if !empty {
		firstID = d.sessions[0].ID
	}
	d.mu.Unlock()

	if active != "" {
		return d.Active(), nil
	}
	if empty {
		return d.CreateSession(ctx, "")
	}
	if err := d.SelectSession(ctx, firstID); err != nil {
		return nil, err
	}
	return d.Active(), nil
}

// checkOwnership verifies the session exists in the directory and belongs to
// the directory's identity before any mutation.
func (d *Directory) checkOwnership(sessionID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	session := d.findLocked(sessionID)
	if session == nil {
		return store.ErrNotFound
	}
	if session.OwnerID != d.id.UserID {
		return store.ErrUnauthorized
	}
	return nil
}

// findLocked returns the session with the given id. Callers must hold d.mu.
func (d *Directory) findLocked(sessionID string) *store.Session {
	for _, s := range d.sessions {
		if s.ID == sessionID {
			return s
		}
	}
	return nil
}

// removeLocked drops the session with the given id. Callers must hold d.mu.
func (d *Directory) removeLocked(sessionID string) {
	for i, s := range d.sessions {
		if s.ID == sessionID {
			d.sessions = append(d.sessions[:i], d.sessions[i+1:]...)
			return
		}
	}
}
