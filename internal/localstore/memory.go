// ABOUTME: In-memory Storage implementation for tests and storage-less environments
// ABOUTME: Also supports injected failures to exercise degraded-storage paths

package localstore

import "sync"

// MemStorage is an in-memory Storage. The zero value is not usable; call
// NewMemStorage.
type MemStorage struct {
	mu     sync.Mutex
	values map[string]string

	// FailWrites makes Set return the given error, for testing the
	// storage-unavailable paths.
	FailWrites error
}

// NewMemStorage returns an empty in-memory storage.
func NewMemStorage() *MemStorage {
	return &MemStorage{values: make(map[string]string)}
}

// Get returns the value for key.
func (s *MemStorage) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.values[key]
	return value, ok, nil
}

// Set stores the value for key.
func (s *MemStorage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWrites != nil {
		return s.FailWrites
	}
	s.values[key] = value
	return nil
}

// Ensure MemStorage implements the Storage interface.
var _ Storage = (*MemStorage)(nil)
