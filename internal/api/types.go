// ABOUTME: JSON wire types for the session API, shared by server and client
// ABOUTME: Field names mirror the stored model (camelCase) and the chat backend (snake_case)

package api

import (
	"time"

	"github.com/hartlabs/chatcore/internal/store"
)

// SessionJSON is the wire shape of a session.
type SessionJSON struct {
	ID        string        `json:"id"`
	UserID    string        `json:"userId"`
	Title     string        `json:"title"`
	CreatedAt time.Time     `json:"createdAt"`
	Messages  []MessageJSON `json:"messages,omitempty"`
}

// MessageJSON is the wire shape of a message.
type MessageJSON struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateSessionRequest is the body of POST /api/sessions.
type CreateSessionRequest struct {
	Title string `json:"title"`
}

// RenameSessionRequest is the body of PATCH /api/sessions/{id}.
type RenameSessionRequest struct {
	Title string `json:"title"`
}

// AppendMessageRequest is the body of POST /api/sessions/{id}/messages.
type AppendMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /api/chat. The snake_case fields match the
// reply-generation backend's contract.
type ChatRequest struct {
	Message   string        `json:"message"`
	SessionID string        `json:"session_id,omitempty"`
	UserID    string        `json:"user_id,omitempty"`
	Context   []MessageJSON `json:"context,omitempty"`
}

// ChatResponse is the reply-generation result.
type ChatResponse struct {
	Response string `json:"response"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SessionToJSON converts a stored session to its wire shape.
func SessionToJSON(s *store.Session) SessionJSON {
	out := SessionJSON{
		ID:        s.ID,
		UserID:    s.OwnerID,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
	}
	for _, m := range s.Messages {
		out.Messages = append(out.Messages, MessageToJSON(m))
	}
	return out
}

// SessionFromJSON converts a wire session back to the stored model.
func SessionFromJSON(s SessionJSON) *store.Session {
	out := &store.Session{
		ID:        s.ID,
		OwnerID:   s.UserID,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
	}
	for _, m := range s.Messages {
		out.Messages = append(out.Messages, MessageFromJSON(m))
	}
	return out
}

// MessageToJSON converts a stored message to its wire shape.
func MessageToJSON(m *store.Message) MessageJSON {
	return MessageJSON{
		ID:        m.ID,
		SessionID: m.SessionID,
		Role:      string(m.Role),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

// MessageFromJSON converts a wire message back to the stored model.
func MessageFromJSON(m MessageJSON) *store.Message {
	return &store.Message{
		ID:        m.ID,
		SessionID: m.SessionID,
		Role:      store.Role(m.Role),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}
