// Package api serves the session store over HTTP: ownership-checked session
// and message CRUD for authenticated callers, a chat proxy that stamps the
// verified user id before forwarding to the reply backend, and an HTML
// transcript view with markdown-rendered assistant replies.
package api
