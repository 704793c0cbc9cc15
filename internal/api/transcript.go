// ABOUTME: HTML transcript view of a session with markdown-rendered assistant replies
// ABOUTME: Assistant content goes through goldmark; user content stays escaped text

package api

import (
	"bytes"
	"html/template"
	"net/http"
	"time"

	"github.com/yuin/goldmark"

	"github.com/hartlabs/chatcore/internal/store"
)

// transcriptData holds data for the transcript template.
type transcriptData struct {
	Title    string
	Messages []transcriptMessage
}

// transcriptMessage is one rendered message.
type transcriptMessage struct {
	Role      string
	Content   string        // user messages, escaped by the template
	HTML      template.HTML // assistant messages, rendered from markdown
	CreatedAt time.Time
}

var transcriptTemplate = template.Must(template.New("transcript").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; }
.message { margin: 1rem 0; padding: 0.75rem 1rem; border-radius: 0.5rem; }
.user { background: #eef2ff; }
.assistant { background: #f5f5f5; }
.role { font-size: 0.75rem; color: #666; margin-bottom: 0.25rem; text-transform: uppercase; }
pre { white-space: pre-wrap; margin: 0; font-family: inherit; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{range .Messages}}
<div class="message {{.Role}}">
  <div class="role">{{.Role}} &middot; {{.CreatedAt.Format "Jan 2 15:04"}}</div>
  {{if .HTML}}{{.HTML}}{{else}}<pre>{{.Content}}</pre>{{end}}
</div>
{{end}}
</body>
</html>
`))

// handleTranscript renders a session's full log as a standalone HTML page.
func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	messages, err := s.store.Messages(r.Context(), sessionID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	data := transcriptData{Title: store.DefaultTitle}
	sessions, err := s.store.ListSessions(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	for _, session := range sessions {
		if session.ID == sessionID {
			data.Title = session.Title
		}
	}

	for _, m := range messages {
		tm := transcriptMessage{
			Role:      string(m.Role),
			CreatedAt: m.CreatedAt,
		}
		if m.Role == store.RoleAssistant {
			var htmlBuf bytes.Buffer
			if err := goldmark.Convert([]byte(m.Content), &htmlBuf); err != nil {
				s.logger.Warn("markdown rendering failed", "message_id", m.ID, "error", err)
				tm.Content = m.Content
			} else {
				tm.HTML = template.HTML(htmlBuf.String())
			}
		} else {
			tm.Content = m.Content
		}
		data.Messages = append(data.Messages, tm)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := transcriptTemplate.Execute(w, data); err != nil {
		s.logger.Error("failed to render transcript", "error", err)
	}
}
