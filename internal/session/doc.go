// Package session maintains the caller's session list and active selection.
//
// The Directory is the single owner of the in-memory session set. Every
// mutation is write-through: the persistence adapter confirms before memory
// changes, so a failed write never leaves a half-applied state. Listings carry
// only a one-message preview; the full log is hydrated lazily when a session
// is first selected.
//
// The active selection is a weak reference by id. Deleting the selected
// session clears it, and a caller must select or create another session
// before sending again.
package session
