// ABOUTME: Handlers for session CRUD and message routes
// ABOUTME: Thin JSON layer over the SQLite store; ownership enforced by the store

package api

import (
	"net/http"

	"github.com/hartlabs/chatcore/internal/store"
)

// handleListSessions returns the caller's sessions newest first, each with at
// most its latest message as a preview.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.ListSessions(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]SessionJSON, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, SessionToJSON(session))
	}
	s.writeJSON(w, http.StatusOK, out)
}

// handleCreateSession creates a session, defaulting an empty title.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	session, err := s.store.CreateSession(r.Context(), req.Title)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, SessionToJSON(session))
}

// handleGetSession returns one session with its full ascending message log.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	messages, err := s.store.Messages(r.Context(), sessionID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// Messages succeeded, so the session exists and is owned by the caller;
	// list it for the metadata.
	sessions, err := s.store.ListSessions(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	for _, session := range sessions {
		if session.ID == sessionID {
			session.Messages = messages
			s.writeJSON(w, http.StatusOK, SessionToJSON(session))
			return
		}
	}
	s.writeError(w, store.ErrNotFound)
}

// handleRenameSession updates a session title.
func (s *Server) handleRenameSession(w http.ResponseWriter, r *http.Request) {
	var req RenameSessionRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	session, err := s.store.RenameSession(r.Context(), r.PathValue("id"), req.Title)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, SessionToJSON(session))
}

// handleDeleteSession removes a session and its messages.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteSession(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListMessages returns a session's full message log, ascending.
func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := s.store.Messages(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]MessageJSON, 0, len(messages))
	for _, m := range messages {
		out = append(out, MessageToJSON(m))
	}
	s.writeJSON(w, http.StatusOK, out)
}

// handleAppendMessage appends one message to a session.
func (s *Server) handleAppendMessage(w http.ResponseWriter, r *http.Request) {
	var req AppendMessageRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	msg, err := s.store.AppendMessage(r.Context(), r.PathValue("id"), store.Role(req.Role), req.Content)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, MessageToJSON(msg))
}
