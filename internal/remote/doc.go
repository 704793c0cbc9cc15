// Package remote is the HTTP client for the session API.
//
// Client implements store.Store over the session CRUD routes and
// chat.Responder over POST /api/chat. The bearer token fixed at construction
// names the caller; the server enforces ownership. Response statuses map back
// onto the store error taxonomy (401 -> ErrUnauthorized, 404 -> ErrNotFound,
// 400 -> ValidationError, anything else -> RemoteError) so callers handle
// remote and local stores identically.
package remote
