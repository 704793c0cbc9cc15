// ABOUTME: store.Store implementation over the session API
// ABOUTME: One method per route, mirroring the server's handlers

package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hartlabs/chatcore/internal/api"
	"github.com/hartlabs/chatcore/internal/store"
)

// ListSessions returns the caller's sessions, newest first.
func (c *Client) ListSessions(ctx context.Context) ([]*store.Session, error) {
	var wire []api.SessionJSON
	if err := c.do(ctx, http.MethodGet, "/api/sessions", nil, &wire); err != nil {
		return nil, err
	}

	sessions := make([]*store.Session, 0, len(wire))
	for _, s := range wire {
		sessions = append(sessions, api.SessionFromJSON(s))
	}
	return sessions, nil
}

// CreateSession persists a new session.
func (c *Client) CreateSession(ctx context.Context, title string) (*store.Session, error) {
	var wire api.SessionJSON
	err := c.do(ctx, http.MethodPost, "/api/sessions", api.CreateSessionRequest{Title: title}, &wire)
	if err != nil {
		return nil, err
	}
	return api.SessionFromJSON(wire), nil
}

// RenameSession updates a session's title.
func (c *Client) RenameSession(ctx context.Context, id, title string) (*store.Session, error) {
	var wire api.SessionJSON
	err := c.do(ctx, http.MethodPatch, sessionPath(id), api.RenameSessionRequest{Title: title}, &wire)
	if err != nil {
		return nil, err
	}
	return api.SessionFromJSON(wire), nil
}

// DeleteSession removes a session and its messages.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, sessionPath(id), nil, nil)
}

// Messages returns a session's full log, ascending.
func (c *Client) Messages(ctx context.Context, sessionID string) ([]*store.Message, error) {
	var wire []api.MessageJSON
	if err := c.do(ctx, http.MethodGet, sessionPath(sessionID)+"/messages", nil, &wire); err != nil {
		return nil, err
	}

	messages := make([]*store.Message, 0, len(wire))
	for _, m := range wire {
		messages = append(messages, api.MessageFromJSON(m))
	}
	return messages, nil
}

// AppendMessage adds a message to a session.
func (c *Client) AppendMessage(ctx context.Context, sessionID string, role store.Role, content string) (*store.Message, error) {
	var wire api.MessageJSON
	req := api.AppendMessageRequest{Role: string(role), Content: content}
	if err := c.do(ctx, http.MethodPost, sessionPath(sessionID)+"/messages", req, &wire); err != nil {
		return nil, err
	}
	return api.MessageFromJSON(wire), nil
}

// sessionPath builds the route for one session, escaping the id.
func sessionPath(id string) string {
	return fmt.Sprintf("/api/sessions/%s", url.PathEscape(id))
}

// Ensure Client implements the Store interface.
var _ store.Store = (*Client)(nil)
