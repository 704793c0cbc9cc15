// ABOUTME: File-backed Storage implementation storing all keys in one JSON file
// ABOUTME: Loads at open, rewrites the whole file on every Set (values are small)

package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStorage persists keys as a single JSON object on disk.
type FileStorage struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// OpenFile opens (or initializes) file-backed storage at path. A missing file
// starts empty; parent directories are created if needed.
func OpenFile(path string) (*FileStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	s := &FileStorage{
		path:   path,
		values: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading storage file: %w", err)
	}

	if err := json.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("parsing storage file %s: %w", path, err)
	}

	return s, nil
}

// Get returns the value for key.
func (s *FileStorage) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.values[key]
	return value, ok, nil
}

// Set stores the value and rewrites the backing file. The write goes through
// a temp file and rename so a crash never leaves a half-written file.
func (s *FileStorage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value

	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding storage file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("writing storage file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing storage file: %w", err)
	}

	return nil
}

// Ensure FileStorage implements the Storage interface.
var _ Storage = (*FileStorage)(nil)
