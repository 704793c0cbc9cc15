// ABOUTME: Paced incremental reveal of a fully-known reply text
// ABOUTME: Frame-rate cadence chunking; cancellable without affecting the commit

package chat

import (
	"context"
	"time"
)

const (
	// defaultRevealInterval approximates a 60fps animation frame.
	defaultRevealInterval = 16 * time.Millisecond

	// defaultRevealChunkSize is how many runes appear per frame.
	defaultRevealChunkSize = 1
)

// revealer paces the character-by-character reveal of a reply. It is purely a
// presentation concern: the full text is known before the reveal starts, and
// cancelling it mid-way has no effect on what gets committed.
type revealer struct {
	interval  time.Duration
	chunkSize int
}

// newRevealer applies defaults for zero values. A negative interval disables
// pacing entirely (all chunks are emitted immediately), which tests use.
func newRevealer(interval time.Duration, chunkSize int) revealer {
	if interval == 0 {
		interval = defaultRevealInterval
	}
	if chunkSize <= 0 {
		chunkSize = defaultRevealChunkSize
	}
	return revealer{interval: interval, chunkSize: chunkSize}
}

// run emits text in chunks at the configured cadence until done or ctx is
// cancelled. Chunks split on rune boundaries so multi-byte characters never
// tear.
func (r revealer) run(ctx context.Context, text string, emit func(chunk string)) {
	runes := []rune(text)

	if r.interval < 0 {
		for i := 0; i < len(runes); i += r.chunkSize {
			emit(string(runes[i:min(i+r.chunkSize, len(runes))]))
		}
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for i := 0; i < len(runes); i += r.chunkSize {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			emit(string(runes[i:min(i+r.chunkSize, len(runes))]))
		}
	}
}
