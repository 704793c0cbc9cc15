// ABOUTME: In-memory Store implementation for testing
// ABOUTME: Same ownership and validation semantics as the SQLite store, plus failure injection

package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hartlabs/chatcore/internal/identity"
)

// MockStore is an in-memory Store with the same semantics as SQLiteStore.
// It is used by tests and anywhere a throwaway store is handy.
type MockStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	messages map[string][]*Message // sessionID -> ascending log

	// FailNext makes the next mutating call return the given error and
	// leave state untouched, for exercising write-through failure paths.
	FailNext error
}

// NewMockStore creates an empty in-memory store.
func NewMockStore() *MockStore {
	return &MockStore{
		sessions: make(map[string]*Session),
		messages: make(map[string][]*Message),
	}
}

// takeFailure consumes FailNext. Callers must hold s.mu.
func (s *MockStore) takeFailure() error {
	err := s.FailNext
	s.FailNext = nil
	return err
}

func (s *MockStore) ListSessions(ctx context.Context) ([]*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := identity.FromContext(ctx)
	if !id.IsAuthenticated() {
		return nil, ErrUnauthorized
	}

	var out []*Session
	for _, session := range s.sessions {
		if session.OwnerID != id.UserID {
			continue
		}
		summary := &Session{
			ID:        session.ID,
			OwnerID:   session.OwnerID,
			Title:     session.Title,
			CreatedAt: session.CreatedAt,
		}
		log := s.messages[session.ID]
		if len(log) > 0 {
			summary.Messages = []*Message{log[len(log)-1]}
		}
		out = append(out, summary)
	}

	// Newest first, id as tiebreaker for deterministic tests
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *MockStore) CreateSession(ctx context.Context, title string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := identity.FromContext(ctx)
	if !id.IsAuthenticated() {
		return nil, ErrUnauthorized
	}
	if err := s.takeFailure(); err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}

	session := &Session{
		ID:        NewSessionID(),
		OwnerID:   id.UserID,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
	s.sessions[session.ID] = session

	return &Session{
		ID:        session.ID,
		OwnerID:   session.OwnerID,
		Title:     session.Title,
		CreatedAt: session.CreatedAt,
	}, nil
}

func (s *MockStore) RenameSession(ctx context.Context, sessionID, title string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, &ValidationError{Field: "title", Reason: "must not be empty"}
	}

	session, err := s.ownedSessionLocked(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.takeFailure(); err != nil {
		return nil, err
	}

	session.Title = title
	return &Session{
		ID:        session.ID,
		OwnerID:   session.OwnerID,
		Title:     session.Title,
		CreatedAt: session.CreatedAt,
	}, nil
}

func (s *MockStore) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedSessionLocked(ctx, sessionID); err != nil {
		return err
	}
	if err := s.takeFailure(); err != nil {
		return err
	}

	delete(s.sessions, sessionID)
	delete(s.messages, sessionID)
	return nil
}

func (s *MockStore) Messages(ctx context.Context, sessionID string) ([]*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedSessionLocked(ctx, sessionID); err != nil {
		return nil, err
	}

	log := s.messages[sessionID]
	out := make([]*Message, len(log))
	copy(out, log)
	return out, nil
}

func (s *MockStore) AppendMessage(ctx context.Context, sessionID string, role Role, content string) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !role.Valid() {
		return nil, &ValidationError{Field: "role", Reason: "unknown role"}
	}
	if strings.TrimSpace(content) == "" {
		return nil, &ValidationError{Field: "content", Reason: "must not be empty"}
	}

	if _, err := s.ownedSessionLocked(ctx, sessionID); err != nil {
		return nil, err
	}
	if err := s.takeFailure(); err != nil {
		return nil, err
	}

	msg := &Message{
		ID:        NewMessageID(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	s.messages[sessionID] = append(s.messages[sessionID], msg)
	return msg, nil
}

func (s *MockStore) Close() error {
	return nil
}

// ownedSessionLocked verifies existence and ownership. Callers must hold s.mu.
func (s *MockStore) ownedSessionLocked(ctx context.Context, sessionID string) (*Session, error) {
	id := identity.FromContext(ctx)
	if !id.IsAuthenticated() {
		return nil, ErrUnauthorized
	}

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	if session.OwnerID != id.UserID {
		return nil, ErrUnauthorized
	}
	return session, nil
}

// Ensure MockStore implements the Store interface.
var _ Store = (*MockStore)(nil)
