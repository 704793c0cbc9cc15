// ABOUTME: Chat proxy handler forwarding reply requests to the generation backend
// ABOUTME: Stamps the authenticated user id onto the request before forwarding

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hartlabs/chatcore/internal/identity"
)

// handleChat forwards the message to the reply-generation backend and relays
// its response. Anonymous requests pass through without a user id; the
// backend generates a reply either way.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.Message == "" {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "message is required"})
		return
	}

	// The backend trusts our user_id, not the client's.
	req.UserID = ""
	if id := identity.FromContext(r.Context()); id.IsAuthenticated() {
		req.UserID = id.UserID
	}

	body, err := json.Marshal(req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	upstream, err := http.NewRequestWithContext(r.Context(), http.MethodPost, s.backendURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		s.writeError(w, err)
		return
	}
	upstream.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(upstream)
	if err != nil {
		s.logger.Error("backend request failed", "error", err)
		s.writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "failed to get response from backend"})
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		s.logger.Error("backend returned error", "status", resp.StatusCode)
		s.writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: fmt.Sprintf("backend error: status %d", resp.StatusCode)})
		return
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		s.writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "invalid backend response"})
		return
	}

	s.writeJSON(w, http.StatusOK, chatResp)
}
