// ABOUTME: Key-value string storage contract modeling persistent browser-local state
// ABOUTME: Backs the anonymous quota counter and the anonymous message mirror

package localstore

// Storage is a small persistent string key-value store. It is the only state
// shared across client processes: the quota counter and the anonymous message
// mirror each live under their own key. Writes are last-writer-wins; there is
// no cross-process locking.
type Storage interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(key string) (value string, ok bool, err error)

	// Set stores the value for key, replacing any previous value.
	Set(key, value string) error
}
