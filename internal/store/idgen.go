// ABOUTME: ID generation for sessions and messages
// ABOUTME: Sessions get UUIDs; message ids are monotonic so id order matches creation order

package store

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// NewSessionID returns a globally unique session id.
func NewSessionID() string {
	return uuid.New().String()
}

var lastMessageNano atomic.Int64

// NewMessageID returns a process-unique message id. Ids are fixed-width
// decimal nanosecond timestamps bumped past the previous id when the clock
// hasn't advanced, so lexicographic order always matches creation order.
// Anonymous mode depends on this: with no server round trip, the id is the
// only ordering tiebreaker.
func NewMessageID() string {
	for {
		now := time.Now().UnixNano()
		last := lastMessageNano.Load()
		if now <= last {
			now = last + 1
		}
		if lastMessageNano.CompareAndSwap(last, now) {
			return fmt.Sprintf("%019d", now)
		}
	}
}
