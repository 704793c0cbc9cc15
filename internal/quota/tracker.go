// ABOUTME: Anonymous usage quota tracking against a fixed free-query budget
// ABOUTME: Persists the counter to local storage; counts only completed assistant turns

package quota

import (
	"log/slog"
	"strconv"
	"sync"

	"github.com/hartlabs/chatcore/internal/localstore"
)

// countKey is the storage key for the persisted counter. Separate namespace
// from the anonymous message mirror.
const countKey = "query_count"

// DefaultLimit is the number of assistant turns an anonymous visitor gets
// before sign-in is required.
const DefaultLimit = 5

// warnThreshold is how many remaining turns trigger a warning.
const warnThreshold = 2

// State is a snapshot of the quota.
type State struct {
	Count int
	Limit int
}

// Remaining returns how many turns are left, never negative.
func (s State) Remaining() int {
	if s.Count >= s.Limit {
		return 0
	}
	return s.Limit - s.Count
}

// LimitReached reports whether the budget is exhausted.
func (s State) LimitReached() bool {
	return s.Remaining() == 0
}

// Warning reports whether the visitor is close to the limit but not over it.
func (s State) Warning() bool {
	r := s.Remaining()
	return r > 0 && r <= warnThreshold
}

// Tracker maintains the anonymous usage counter. The count only ever grows;
// there is no expiry or rolling window. The budget resets by signing in, at
// which point the tracker is simply no longer consulted.
type Tracker struct {
	mu      sync.Mutex
	storage localstore.Storage
	logger  *slog.Logger
	count   int
	limit   int
}

// NewTracker loads any previously persisted count from storage. Absent or
// unreadable state starts the count at zero.
func NewTracker(storage localstore.Storage, limit int, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	t := &Tracker{
		storage: storage,
		logger:  logger.With("component", "quota"),
		limit:   limit,
	}

	raw, ok, err := storage.Get(countKey)
	if err != nil {
		t.logger.Warn("failed to load quota count", "error", err)
		return t
	}
	if !ok {
		return t
	}

	count, err := strconv.Atoi(raw)
	if err != nil || count < 0 {
		t.logger.Warn("discarding corrupt quota count", "value", raw)
		return t
	}
	t.count = count

	return t
}

// State returns the current quota snapshot. No side effects.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return State{Count: t.count, Limit: t.limit}
}

// LimitReached reports whether the budget is exhausted.
func (t *Tracker) LimitReached() bool {
	return t.State().LimitReached()
}

// Increment advances the counter by one and persists it. Persistence failures
// are logged, not returned: the in-memory count still advances for the rest
// of the process, so the gate keeps working without storage.
func (t *Tracker) Increment() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.count++
	if err := t.storage.Set(countKey, strconv.Itoa(t.count)); err != nil {
		t.logger.Warn("failed to persist quota count", "count", t.count, "error", err)
	}

	return State{Count: t.count, Limit: t.limit}
}
