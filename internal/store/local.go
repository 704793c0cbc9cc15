// ABOUTME: Ephemeral single-session Store for anonymous visitors
// ABOUTME: Mirrors the message list to local key-value storage so it survives reloads

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hartlabs/chatcore/internal/localstore"
)

// messagesKey is the storage key for the anonymous message mirror. It is a
// separate namespace from the quota counter.
const messagesKey = "messages"

// localSessionID is the fixed id of the anonymous session, stable across
// reloads so the mirrored messages keep a consistent parent.
const localSessionID = "local"

// mirrorMessage is the JSON shape of a mirrored message.
type mirrorMessage struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// LocalStore implements Store for anonymous visitors. It holds a single
// ephemeral session whose messages are mirrored to local storage; the session
// title lives only for the process lifetime. Nothing here is ever sent to the
// remote store.
type LocalStore struct {
	mu      sync.Mutex
	storage localstore.Storage
	logger  *slog.Logger
	session *Session
}

// NewLocalStore creates an anonymous store over the given storage. A mirrored
// message list from a previous run is loaded back into the ephemeral session;
// a corrupt mirror is discarded with a warning rather than blocking startup.
func NewLocalStore(storage localstore.Storage, logger *slog.Logger) *LocalStore {
	if logger == nil {
		logger = slog.Default()
	}
	s := &LocalStore{
		storage: storage,
		logger:  logger.With("component", "localstore"),
	}
	s.load()
	return s
}

// load restores the mirrored message list, if any.
func (s *LocalStore) load() {
	raw, ok, err := s.storage.Get(messagesKey)
	if err != nil {
		s.logger.Warn("failed to read message mirror",
			"error", &StorageError{Op: "load", Key: messagesKey, Err: err})
		return
	}
	if !ok || raw == "" {
		return
	}

	var mirrored []mirrorMessage
	if err := json.Unmarshal([]byte(raw), &mirrored); err != nil {
		s.logger.Warn("discarding corrupt message mirror", "error", err)
		return
	}
	if len(mirrored) == 0 {
		return
	}

	session := &Session{
		ID:        localSessionID,
		Title:     DefaultTitle,
		CreatedAt: mirrored[0].CreatedAt,
	}
	for _, m := range mirrored {
		session.Messages = append(session.Messages, &Message{
			ID:        m.ID,
			SessionID: localSessionID,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	s.session = session
	s.logger.Debug("restored anonymous messages", "count", len(mirrored))
}

// persist mirrors the current message list. Mirror failures are logged, not
// returned: the in-memory conversation keeps working for the rest of the
// process even when the medium is unavailable.
func (s *LocalStore) persist() {
	if s.session == nil {
		if err := s.storage.Set(messagesKey, "[]"); err != nil {
			s.logger.Warn("failed to clear message mirror",
				"error", &StorageError{Op: "save", Key: messagesKey, Err: err})
		}
		return
	}

	mirrored := make([]mirrorMessage, 0, len(s.session.Messages))
	for _, m := range s.session.Messages {
		mirrored = append(mirrored, mirrorMessage{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}

	data, err := json.Marshal(mirrored)
	if err != nil {
		s.logger.Warn("failed to encode message mirror", "error", err)
		return
	}
	if err := s.storage.Set(messagesKey, string(data)); err != nil {
		s.logger.Warn("failed to write message mirror",
			"error", &StorageError{Op: "save", Key: messagesKey, Err: err})
	}
}

// ListSessions returns the ephemeral session, if one exists.
func (s *LocalStore) ListSessions(ctx context.Context) ([]*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, nil
	}

	summary := &Session{
		ID:        s.session.ID,
		Title:     s.session.Title,
		CreatedAt: s.session.CreatedAt,
	}
	if latest := s.session.LatestMessage(); latest != nil {
		summary.Messages = []*Message{latest}
	}
	return []*Session{summary}, nil
}

// CreateSession starts a fresh anonymous chat, replacing any previous one and
// clearing the mirror.
func (s *LocalStore) CreateSession(ctx context.Context, title string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}

	s.session = &Session{
		ID:        localSessionID,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
	s.persist()

	return s.snapshotLocked(), nil
}

// RenameSession updates the ephemeral session's title (not mirrored).
func (s *LocalStore) RenameSession(ctx context.Context, id, title string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if s.session == nil || s.session.ID != id {
		return nil, ErrNotFound
	}

	s.session.Title = title
	return s.snapshotLocked(), nil
}

// DeleteSession discards the ephemeral session and clears the mirror.
func (s *LocalStore) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil || s.session.ID != id {
		return ErrNotFound
	}

	s.session = nil
	s.persist()
	return nil
}

// Messages returns the ephemeral session's messages, ascending.
func (s *LocalStore) Messages(ctx context.Context, sessionID string) ([]*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil || s.session.ID != sessionID {
		return nil, ErrNotFound
	}

	out := make([]*Message, len(s.session.Messages))
	copy(out, s.session.Messages)
	return out, nil
}

// AppendMessage appends to the ephemeral session and updates the mirror.
func (s *LocalStore) AppendMessage(ctx context.Context, sessionID string, role Role, content string) (*Message, error) {
	if !role.Valid() {
		return nil, &ValidationError{Field: "role", Reason: fmt.Sprintf("unknown role %q", role)}
	}
	if strings.TrimSpace(content) == "" {
		return nil, &ValidationError{Field: "content", Reason: "must not be empty"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil || s.session.ID != sessionID {
		return nil, ErrNotFound
	}

	msg := &Message{
		ID:        NewMessageID(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	s.session.Messages = append(s.session.Messages, msg)
	s.persist()

	return msg, nil
}

// Close is a no-op; the backing storage has no resources to release.
func (s *LocalStore) Close() error {
	return nil
}

// snapshotLocked returns a copy of the session without its message slice
// aliasing internal state. Callers must hold s.mu.
func (s *LocalStore) snapshotLocked() *Session {
	out := &Session{
		ID:        s.session.ID,
		Title:     s.session.Title,
		CreatedAt: s.session.CreatedAt,
	}
	out.Messages = append(out.Messages, s.session.Messages...)
	return out
}

// Ensure LocalStore implements the Store interface.
var _ Store = (*LocalStore)(nil)
