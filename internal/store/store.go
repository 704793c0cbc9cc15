// ABOUTME: Core data types and the Store interface for session/message persistence
// ABOUTME: Shared by the SQLite server store, the remote client, and the local mirror

package store

import (
	"context"
	"time"
)

// DefaultTitle is used when a session is created with an empty title.
const DefaultTitle = "New Chat"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Session is a named conversation thread. OwnerID is empty for sessions held
// ephemerally on behalf of an anonymous visitor; those never reach the remote
// store.
type Session struct {
	ID        string
	OwnerID   string
	Title     string
	CreatedAt time.Time

	// Messages is sorted ascending by CreatedAt. List operations populate at
	// most the latest message as a preview; the full log is fetched lazily.
	Messages []*Message
}

// LatestMessage returns the most recent message, or nil if there are none.
func (s *Session) LatestMessage() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return s.Messages[len(s.Messages)-1]
}

// Message is a single entry in a session's log. Messages are immutable once
// created and append-only within a session.
type Message struct {
	ID        string
	SessionID string
	Role      Role
	Content   string
	CreatedAt time.Time
}

// Store defines the persistence contract for sessions and messages. The
// caller's identity travels on the context (see internal/identity); every
// implementation resolves it there, matching how the request handlers do.
type Store interface {
	// ListSessions returns the caller's sessions, most recently created
	// first. Each session carries at most its latest message as a preview.
	ListSessions(ctx context.Context) ([]*Session, error)

	// CreateSession persists a new session. An empty title defaults to
	// DefaultTitle.
	CreateSession(ctx context.Context, title string) (*Session, error)

	// RenameSession updates a session's title. The title must be non-empty
	// after trimming.
	RenameSession(ctx context.Context, id, title string) (*Session, error)

	// DeleteSession removes a session and its messages.
	DeleteSession(ctx context.Context, id string) error

	// Messages returns the full message log for a session, ascending by
	// creation time.
	Messages(ctx context.Context, sessionID string) ([]*Message, error)

	// AppendMessage adds a message to a session and returns the stored copy
	// with its assigned id and timestamp.
	AppendMessage(ctx context.Context, sessionID string, role Role, content string) (*Message, error)

	// Close releases any resources held by the store.
	Close() error
}
