// ABOUTME: Tests for the file-backed Storage implementation
// ABOUTME: Covers roundtrips, reload, missing files, and corrupt files

package localstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorageRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s, err := OpenFile(path)
	require.NoError(t, err)

	_, ok, err := s.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("query_count", "3"))
	require.NoError(t, s.Set("messages", `[{"id":"1"}]`))

	value, ok, err := s.Get("query_count")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "3", value)
}

func TestFileStorageReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("key", "value"))
	require.NoError(t, s.Set("key", "updated"))

	reloaded, err := OpenFile(path)
	require.NoError(t, err)

	value, ok, err := reloaded.Get("key")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "updated", value)
}

func TestFileStorageCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "state.json")

	s, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("key", "value"))

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestFileStorageCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0600))

	_, err := OpenFile(path)
	assert.Error(t, err)
}

func TestMemStorageRoundtrip(t *testing.T) {
	s := NewMemStorage()

	_, ok, err := s.Get("key")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("key", "value"))

	value, ok, err := s.Get("key")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "value", value)
}

func TestMemStorageFailWrites(t *testing.T) {
	s := NewMemStorage()
	s.FailWrites = assert.AnError

	err := s.Set("key", "value")
	assert.ErrorIs(t, err, assert.AnError)

	_, ok, err := s.Get("key")
	require.NoError(t, err)
	assert.False(t, ok)
}
