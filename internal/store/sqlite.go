// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides user/session/message persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hartlabs/chatcore/internal/identity"
)

// timeFormat is RFC3339 with a fixed nine-digit fraction. Timestamps are
// compared as strings in ORDER BY, and variable-width fractions do not sort
// chronologically ("…00.1Z" > "…00.15Z" because 'Z' > '5').
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements the Store interface using SQLite. All session
// operations are scoped to the authenticated identity on the context;
// anonymous callers get ErrUnauthorized.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys (needed for ON DELETE CASCADE on messages)
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id)
		);

		CREATE INDEX IF NOT EXISTS idx_sessions_user_created
			ON sessions(user_id, created_at);

		CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_messages_session_id
			ON messages(session_id, id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// UpsertUser creates the user row if it doesn't exist yet. Called lazily on
// the first authenticated request, so sign-up order doesn't matter.
func (s *SQLiteStore) UpsertUser(ctx context.Context, userID, email string) error {
	query := `
		INSERT INTO users (id, email, created_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query, userID, email, time.Now().UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("upserting user: %w", err)
	}
	return nil
}

// ListSessions returns the caller's sessions newest first, each with at most
// its latest message as a preview.
func (s *SQLiteStore) ListSessions(ctx context.Context) ([]*Session, error) {
	id := identity.FromContext(ctx)
	if !id.IsAuthenticated() {
		return nil, ErrUnauthorized
	}

	query := `
		SELECT id, user_id, title, created_at
		FROM sessions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`
	rows, err := s.db.QueryContext(ctx, query, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating session rows: %w", err)
	}

	for _, session := range sessions {
		preview, err := s.latestMessage(ctx, session.ID)
		if err != nil {
			return nil, err
		}
		if preview != nil {
			session.Messages = []*Message{preview}
		}
	}

	return sessions, nil
}

// CreateSession persists a new session owned by the caller.
func (s *SQLiteStore) CreateSession(ctx context.Context, title string) (*Session, error) {
	id := identity.FromContext(ctx)
	if !id.IsAuthenticated() {
		return nil, ErrUnauthorized
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

	query := `INSERT INTO sessions (id, user_id, title, created_at) VALUES (?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		session.ID,
		session.OwnerID,
		session.Title,
		session.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting session: %w", err)
	}

	s.logger.Debug("session created", "session_id", session.ID, "user_id", session.OwnerID)
	return session, nil
}

// RenameSession updates the title of a session owned by the caller.
func (s *SQLiteStore) RenameSession(ctx context.Context, sessionID, title string) (*Session, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, &ValidationError{Field: "title", Reason: "must not be empty"}
	}

	session, err := s.getOwnedSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	query := `UPDATE sessions SET title = ? WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, query, title, sessionID); err != nil {
		return nil, fmt.Errorf("updating session title: %w", err)
	}

	session.Title = title
	s.logger.Debug("session renamed", "session_id", sessionID)
	return session, nil
}

// DeleteSession removes a session owned by the caller along with its messages.
func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := s.getOwnedSession(ctx, sessionID); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}

	s.logger.Debug("session deleted", "session_id", sessionID)
	return nil
}

// Messages returns the full log for a session owned by the caller, ascending
// by creation time.
func (s *SQLiteStore) Messages(ctx context.Context, sessionID string) ([]*Message, error) {
	if _, err := s.getOwnedSession(ctx, sessionID); err != nil {
		return nil, err
	}

	// Message ids are fixed-width monotonic decimals, so id order is
	// creation order regardless of timestamp resolution.
	query := `
		SELECT id, session_id, role, content, created_at
		FROM messages
		WHERE session_id = ?
		ORDER BY id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var messages []*Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating message rows: %w", err)
	}

	return messages, nil
}

// AppendMessage adds a message to a session owned by the caller.
func (s *SQLiteStore) AppendMessage(ctx context.Context, sessionID string, role Role, content string) (*Message, error) {
	if !role.Valid() {
		return nil, &ValidationError{Field: "role", Reason: fmt.Sprintf("unknown role %q", role)}
	}
	if strings.TrimSpace(content) == "" {
		return nil, &ValidationError{Field: "content", Reason: "must not be empty"}
	}

	if _, err := s.getOwnedSession(ctx, sessionID); err != nil {
		return nil, err
	}

	msg := &Message{
		ID:        NewMessageID(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	query := `INSERT INTO messages (id, session_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		msg.ID,
		msg.SessionID,
		string(msg.Role),
		msg.Content,
		msg.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}

	return msg, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// getOwnedSession loads a session and verifies the caller owns it. A session
// belonging to someone else yields ErrUnauthorized, not ErrNotFound, matching
// the remote API contract.
func (s *SQLiteStore) getOwnedSession(ctx context.Context, sessionID string) (*Session, error) {
	id := identity.FromContext(ctx)
	if !id.IsAuthenticated() {
		return nil, ErrUnauthorized
	}

	query := `SELECT id, user_id, title, created_at FROM sessions WHERE id = ?`
	row := s.db.QueryRowContext(ctx, query, sessionID)

	var session Session
	var createdAtStr string
	err := row.Scan(&session.ID, &session.OwnerID, &session.Title, &createdAtStr)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning session: %w", err)
	}

	session.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	if session.OwnerID != id.UserID {
		return nil, ErrUnauthorized
	}

	return &session, nil
}

// latestMessage returns the most recent message of a session, or nil.
func (s *SQLiteStore) latestMessage(ctx context.Context, sessionID string) (*Message, error) {
	query := `
		SELECT id, session_id, role, content, created_at
		FROM messages
		WHERE session_id = ?
		ORDER BY id DESC
		LIMIT 1
	`
	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying latest message: %w", err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanMessage(rows)
}

// rowScanner abstracts *sql.Row and *sql.Rows for the scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanSession scans a session row (without messages).
func scanSession(row rowScanner) (*Session, error) {
	var session Session
	var createdAtStr string

	if err := row.Scan(&session.ID, &session.OwnerID, &session.Title, &createdAtStr); err != nil {
		return nil, fmt.Errorf("scanning session row: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	session.CreatedAt = createdAt

	return &session, nil
}

// scanMessage scans a message row.
func scanMessage(row rowScanner) (*Message, error) {
	var msg Message
	var roleStr string
	var createdAtStr string

	if err := row.Scan(&msg.ID, &msg.SessionID, &roleStr, &msg.Content, &createdAtStr); err != nil {
		return nil, fmt.Errorf("scanning message row: %w", err)
	}
	msg.Role = Role(roleStr)

	createdAt, err := time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	msg.CreatedAt = createdAt

	return &msg, nil
}

// Ensure SQLiteStore implements the Store interface.
var _ Store = (*SQLiteStore)(nil)
