// ABOUTME: HTTP server exposing the session store API and the chat proxy
// ABOUTME: Route wiring, auth middleware composition, and shared JSON helpers

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hartlabs/chatcore/internal/identity"
	"github.com/hartlabs/chatcore/internal/store"
)

// Server serves the session CRUD routes consumed by the remote persistence
// client, the chat proxy, and the transcript view.
type Server struct {
	store      *store.SQLiteStore
	verifier   identity.TokenVerifier
	backendURL string
	httpClient *http.Client
	logger     *slog.Logger
	mux        *http.ServeMux
}

// NewServer wires the routes. backendURL points at the reply-generation
// service that POST /api/chat forwards to.
func NewServer(st *store.SQLiteStore, verifier identity.TokenVerifier, backendURL string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		store:      st,
		verifier:   verifier,
		backendURL: backendURL,
		httpClient: http.DefaultClient,
		logger:     logger.With("component", "api"),
		mux:        http.NewServeMux(),
	}

	requireAuth := identity.RequireAuth(verifier)
	optionalAuth := identity.OptionalAuth(verifier)

	authed := func(h http.HandlerFunc) http.Handler {
		return requireAuth(s.ensureUser(h))
	}

	s.mux.Handle("GET /api/sessions", authed(s.handleListSessions))
	s.mux.Handle("POST /api/sessions", authed(s.handleCreateSession))
	s.mux.Handle("GET /api/sessions/{id}", authed(s.handleGetSession))
	s.mux.Handle("PATCH /api/sessions/{id}", authed(s.handleRenameSession))
	s.mux.Handle("DELETE /api/sessions/{id}", authed(s.handleDeleteSession))
	s.mux.Handle("GET /api/sessions/{id}/messages", authed(s.handleListMessages))
	s.mux.Handle("POST /api/sessions/{id}/messages", authed(s.handleAppendMessage))
	s.mux.Handle("POST /api/chat", optionalAuth(http.HandlerFunc(s.handleChat)))
	s.mux.Handle("GET /sessions/{id}/transcript", authed(s.handleTranscript))

	return s
}

// Handler returns the root handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// SetBackendTimeout bounds chat proxy calls to the reply backend.
func (s *Server) SetBackendTimeout(d time.Duration) {
	if d > 0 {
		s.httpClient = &http.Client{Timeout: d}
	}
}

// ensureUser lazily provisions the user row on the first authenticated
// request, so sign-up order doesn't matter.
func (s *Server) ensureUser(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := identity.FromContext(r.Context())
		if id.IsAuthenticated() {
			if err := s.store.UpsertUser(r.Context(), id.UserID, ""); err != nil {
				s.logger.Error("failed to upsert user", "user_id", id.UserID, "error", err)
				s.writeError(w, err)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response with the given status.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// writeError maps store errors to HTTP statuses. Ownership mismatches map to
// 401 like missing auth, so the API doesn't leak which sessions exist.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var validationErr *store.ValidationError

	switch {
	case errors.Is(err, store.ErrUnauthorized):
		s.writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	case errors.Is(err, store.ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "session not found"})
	case errors.As(err, &validationErr):
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: validationErr.Error()})
	default:
		s.logger.Error("internal error", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

// decodeBody decodes a JSON request body into v.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return false
	}
	return true
}
