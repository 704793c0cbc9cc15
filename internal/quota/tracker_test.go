// ABOUTME: Tests for the anonymous usage quota tracker
// ABOUTME: Covers limit/warning thresholds, persistence, and degraded-storage behavior

package quota

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hartlabs/chatcore/internal/localstore"
)

func TestTrackerFreshState(t *testing.T) {
	tracker := NewTracker(localstore.NewMemStorage(), 5, nil)

	state := tracker.State()
	assert.Equal(t, 0, state.Count)
	assert.Equal(t, 5, state.Limit)
	assert.Equal(t, 5, state.Remaining())
	assert.False(t, state.LimitReached())
	assert.False(t, state.Warning())
	assert.False(t, tracker.LimitReached())
}

func TestTrackerIncrementToLimit(t *testing.T) {
	tracker := NewTracker(localstore.NewMemStorage(), 5, nil)

	for i := 1; i <= 5; i++ {
		state := tracker.Increment()
		assert.Equal(t, i, state.Count)
	}

	state := tracker.State()
	assert.Equal(t, 0, state.Remaining())
	assert.True(t, state.LimitReached())
	assert.True(t, tracker.LimitReached())

	// Counting past the limit never goes negative on remaining
	state = tracker.Increment()
	assert.Equal(t, 6, state.Count)
	assert.Equal(t, 0, state.Remaining())
}

func TestTrackerWarningThreshold(t *testing.T) {
	tracker := NewTracker(localstore.NewMemStorage(), 5, nil)

	// 5, 4, 3 remaining: no warning
	assert.False(t, tracker.State().Warning())
	tracker.Increment()
	tracker.Increment()
	assert.False(t, tracker.State().Warning())

	// 2 and 1 remaining: warning
	tracker.Increment()
	assert.True(t, tracker.State().Warning())
	tracker.Increment()
	assert.True(t, tracker.State().Warning())

	// 0 remaining: limit reached, not a warning
	tracker.Increment()
	assert.False(t, tracker.State().Warning())
	assert.True(t, tracker.State().LimitReached())
}

func TestTrackerPersistsAcrossInstances(t *testing.T) {
	storage := localstore.NewMemStorage()

	tracker := NewTracker(storage, 5, nil)
	tracker.Increment()
	tracker.Increment()
	tracker.Increment()

	reloaded := NewTracker(storage, 5, nil)
	state := reloaded.State()
	assert.Equal(t, 3, state.Count)
	assert.Equal(t, 2, state.Remaining())
}

func TestTrackerCorruptCountDiscarded(t *testing.T) {
	storage := localstore.NewMemStorage()
	require.NoError(t, storage.Set("query_count", "three"))

	tracker := NewTracker(storage, 5, nil)
	assert.Equal(t, 0, tracker.State().Count)

	require.NoError(t, storage.Set("query_count", "-2"))
	tracker = NewTracker(storage, 5, nil)
	assert.Equal(t, 0, tracker.State().Count)
}

func TestTrackerSurvivesStorageFailure(t *testing.T) {
	storage := localstore.NewMemStorage()
	storage.FailWrites = errors.New("disk full")

	tracker := NewTracker(storage, 2, nil)

	// Persistence fails but the in-memory count keeps gating
	tracker.Increment()
	tracker.Increment()
	assert.True(t, tracker.LimitReached())
}

func TestTrackerDefaultLimit(t *testing.T) {
	tracker := NewTracker(localstore.NewMemStorage(), 0, nil)
	assert.Equal(t, DefaultLimit, tracker.State().Limit)

	tracker = NewTracker(localstore.NewMemStorage(), -1, nil)
	assert.Equal(t, DefaultLimit, tracker.State().Limit)
}
