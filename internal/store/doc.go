// Package store provides session and message persistence for chatcore.
//
// # Architecture
//
// A single Store interface has four implementations:
//
//   - SQLiteStore: server-side storage behind the session API
//   - LocalStore: single ephemeral session for anonymous visitors, mirrored
//     to local key-value storage
//   - DualStore: client-side router picking remote or local by identity
//   - MockStore: in-memory store for tests
//
// The caller's identity travels on the context (internal/identity); every
// implementation resolves ownership there. Anonymous sessions (empty OwnerID)
// exist only in LocalStore and are never sent to the remote side.
//
// # Ordering
//
// Messages are append-only and sorted ascending by creation time. Message ids
// are monotonic within a process (see NewMessageID) so ordering by id always
// agrees with ordering by timestamp, which anonymous mode relies on.
//
// # Errors
//
// ErrNotFound and ErrUnauthorized are sentinels checked with errors.Is.
// ValidationError, StorageError and RemoteError carry structured detail and
// unwrap to their cause. Writes are write-through: in-memory state changes
// only after the backing store confirms, so a failed write leaves the last
// confirmed state.
package store
