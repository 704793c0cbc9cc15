// ABOUTME: HTTP client plumbing for the session API
// ABOUTME: Request building, bearer auth, and error mapping to the store taxonomy

package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hartlabs/chatcore/internal/api"
	"github.com/hartlabs/chatcore/internal/store"
)

// defaultTimeout bounds individual API calls.
const defaultTimeout = 30 * time.Second

// Client talks to the session API over HTTP and implements store.Store. The
// identity is fixed at construction: the bearer token names the user, and the
// server enforces ownership.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a session API client for the given base URL and token.
func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger.With("component", "remote"),
	}
}

// do performs a request and decodes the JSON response into out (skipped when
// out is nil). Non-2xx statuses map onto the store error taxonomy.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &store.RemoteError{Op: method + " " + path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.mapStatus(method+" "+path, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &store.RemoteError{Op: method + " " + path, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// mapStatus converts an error response to the matching store error.
func (c *Client) mapStatus(op string, resp *http.Response) error {
	var apiErr api.ErrorResponse
	_ = json.NewDecoder(resp.Body).Decode(&apiErr)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return store.ErrUnauthorized
	case http.StatusNotFound:
		return store.ErrNotFound
	case http.StatusBadRequest:
		reason := apiErr.Error
		if reason == "" {
			reason = "rejected by server"
		}
		return &store.ValidationError{Field: "request", Reason: reason}
	default:
		c.logger.Warn("unexpected API status", "op", op, "status", resp.StatusCode)
		return &store.RemoteError{Op: op, Status: resp.StatusCode}
	}
}

// Close is a no-op; the shared HTTP client holds no dedicated resources.
func (c *Client) Close() error {
	return nil
}
