// ABOUTME: Reply-generation client implementing chat.Responder
// ABOUTME: POSTs /api/chat and returns the assistant's full reply text

package remote

import (
	"context"
	"net/http"

	"github.com/hartlabs/chatcore/internal/api"
	"github.com/hartlabs/chatcore/internal/chat"
)

// Respond sends the message to the chat endpoint and returns the reply.
// Failures come back as store.RemoteError (or ErrUnauthorized for identity
// problems); the controller surfaces them without committing anything.
func (c *Client) Respond(ctx context.Context, req chat.RespondRequest) (string, error) {
	wire := api.ChatRequest{
		Message:   req.Message,
		SessionID: req.SessionID,
		UserID:    req.UserID,
	}
	for _, m := range req.Context {
		wire.Context = append(wire.Context, api.MessageToJSON(m))
	}

	var resp api.ChatResponse
	if err := c.do(ctx, http.MethodPost, "/api/chat", wire, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

// Ensure Client implements the Responder interface.
var _ chat.Responder = (*Client)(nil)
