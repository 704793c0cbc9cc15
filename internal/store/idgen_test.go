// ABOUTME: Tests for session and message id generation
// ABOUTME: Message ids must sort lexicographically in creation order

package store

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionID(t *testing.T) {
	id := NewSessionID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	assert.NotEqual(t, id, NewSessionID())
}

func TestNewMessageIDMonotonic(t *testing.T) {
	prev := NewMessageID()
	require.Len(t, prev, 19)

	for i := 0; i < 1000; i++ {
		next := NewMessageID()
		assert.Len(t, next, 19)
		// Fixed width, so string comparison is numeric comparison
		assert.Greater(t, next, prev)
		prev = next
	}
}

func TestNewMessageIDMonotonicConcurrent(t *testing.T) {
	const goroutines = 8
	const perGoroutine = 200

	var wg sync.WaitGroup
	results := make([][]string, goroutines)

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			ids := make([]string, 0, perGoroutine)
			for i := 0; i < perGoroutine; i++ {
				ids = append(ids, NewMessageID())
			}
			results[g] = ids
		}(g)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, ids := range results {
		for _, id := range ids {
			assert.False(t, seen[id], "duplicate id %s", id)
			seen[id] = true
		}
	}
}
