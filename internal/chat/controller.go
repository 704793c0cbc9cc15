// ABOUTME: Message Stream Controller driving the optimistic send lifecycle
// ABOUTME: Idle -> OptimisticInsert -> AwaitingReply -> Animating -> Committed, with Failed edges

package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hartlabs/chatcore/internal/identity"
	"github.com/hartlabs/chatcore/internal/quota"
	"github.com/hartlabs/chatcore/internal/store"
)

// Controller errors
var (
	// ErrBusy is returned when a send is attempted while another is in flight.
	ErrBusy = errors.New("a send is already in flight")

	// ErrNoSession is returned when an authenticated send has no active session.
	ErrNoSession = errors.New("no session selected")

	// ErrQuotaExceeded is returned when an anonymous visitor has exhausted the
	// free-query budget.
	ErrQuotaExceeded = errors.New("free query limit reached")
)

// State is the controller's position in the send lifecycle.
type State string

const (
	StateIdle             State = "idle"
	StateOptimisticInsert State = "optimistic_insert"
	StateAwaitingReply    State = "awaiting_reply"
	StateAnimating        State = "animating"
	StateCommitted        State = "committed"
	StateFailed           State = "failed"
)

// commitTimeout bounds the persistence call for the assistant turn. It runs
// on its own context so a cancelled caller doesn't lose the reply.
const commitTimeout = 5 * time.Second

// eventSendTimeout bounds how long a terminal event waits for a slow consumer.
const eventSendTimeout = 5 * time.Second

// eventBufferSize is the channel buffer for send event streams.
const eventBufferSize = 16

// EventType identifies what an Event carries.
type EventType string

const (
	// EventUserMessage reports the optimistically inserted user message.
	EventUserMessage EventType = "user_message"
	// EventChunk carries one increment of the revealed reply text.
	EventChunk EventType = "chunk"
	// EventCommitted reports the persisted assistant message; terminal.
	EventCommitted EventType = "committed"
	// EventFailed reports a failed round trip; terminal. The user's message
	// is retained.
	EventFailed EventType = "failed"
)

// Event is one observable step of a send.
type Event struct {
	Type    EventType
	Message *store.Message // user_message, committed
	Chunk   string         // chunk
	Err     error          // failed
	Quota   *quota.State   // committed, anonymous mode only
}

// Directory is what the controller needs from the session directory.
type Directory interface {
	Active() *store.Session
	EnsureSession(ctx context.Context) (*store.Session, error)
	AppendMessage(ctx context.Context, sessionID string, role store.Role, content string) (*store.Message, error)
}

// Responder generates the assistant reply for a user message.
type Responder interface {
	Respond(ctx context.Context, req RespondRequest) (string, error)
}

// RespondRequest carries everything the reply service accepts. SessionID and
// UserID are set for authenticated sends; Context carries the prior local log
// for anonymous sends, where the backend has no stored history to look up.
type RespondRequest struct {
	Message   string
	SessionID string
	UserID    string
	Context   []*store.Message
}

// QuotaGate is what the controller needs from the quota tracker.
type QuotaGate interface {
	LimitReached() bool
	Increment() quota.State
}

// Config tunes the reveal pacing. Zero values pick the defaults in reveal.go.
type Config struct {
	RevealInterval  time.Duration
	RevealChunkSize int
}

// Controller coordinates a single outgoing message at a time: optimistic
// insertion, the outbound request, the paced reveal of the reply, and the
// final commit. At most one send is in flight per controller.
type Controller struct {
	mu    sync.Mutex
	state State

	dir       Directory
	responder Responder
	quota     QuotaGate
	id        identity.Identity
	reveal    revealer
	logger    *slog.Logger
}

// New creates a controller. quota may be nil for a purely authenticated
// process; it must be set when the identity is anonymous.
func New(dir Directory, responder Responder, q QuotaGate, id identity.Identity, cfg Config, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		state:     StateIdle,
		dir:       dir,
		responder: responder,
		quota:     q,
		id:        id,
		reveal:    newRevealer(cfg.RevealInterval, cfg.RevealChunkSize),
		logger:    logger.With("component", "controller"),
	}
}

// State returns the controller's current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Send starts the lifecycle for one user message. Pre-flight rejections
// (empty text, exhausted quota, no session, busy) are returned synchronously
// with no state change and no optimistic insertion. Otherwise progress is
// reported on the returned channel, which closes after a terminal
// EventCommitted or EventFailed.
func (c *Controller) Send(ctx context.Context, text string) (<-chan Event, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &store.ValidationError{Field: "message", Reason: "must not be empty"}
	}
	if !c.id.IsAuthenticated() {
		if c.quota == nil {
			return nil, fmt.Errorf("anonymous send without quota tracker")
		}
		if c.quota.LimitReached() {
			return nil, ErrQuotaExceeded
		}
	}
	if c.id.IsAuthenticated() && c.dir.Active() == nil {
		return nil, ErrNoSession
	}

	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.state = StateOptimisticInsert
	c.mu.Unlock()

	events := make(chan Event, eventBufferSize)
	go c.run(ctx, text, events)
	return events, nil
}

// run executes one send lifecycle and always returns the controller to Idle.
func (c *Controller) run(ctx context.Context, text string, events chan<- Event) {
	defer close(events)

	// Resolve the target session. Anonymous visitors get the implicit
	// ephemeral session created on demand.
	var session *store.Session
	if c.id.IsAuthenticated() {
		session = c.dir.Active()
		if session == nil {
			c.fail(events, ErrNoSession)
			return
		}
	} else {
		var err error
		session, err = c.dir.EnsureSession(ctx)
		if err != nil {
			c.fail(events, fmt.Errorf("preparing anonymous session: %w", err))
			return
		}
	}

	// Prior log is captured before the optimistic insert so the reply
	// request's context excludes the message being sent.
	prior := append([]*store.Message(nil), session.Messages...)

	// Optimistic insert: the user message is visible before the network
	// call resolves.
	userMsg, err := c.dir.AppendMessage(ctx, session.ID, store.RoleUser, text)
	if err != nil {
		c.fail(events, fmt.Errorf("recording message: %w", err))
		return
	}
	c.emit(events, Event{Type: EventUserMessage, Message: userMsg})

	c.setState(StateAwaitingReply)
	req := RespondRequest{Message: text}
	if c.id.IsAuthenticated() {
		req.SessionID = session.ID
		req.UserID = c.id.UserID
	} else {
		req.Context = prior
	}

	reply, err := c.responder.Respond(ctx, req)
	if err != nil {
		// The optimistic user message is retained: the visitor's own text
		// is never discarded on a failed round trip.
		c.fail(events, err)
		return
	}

	// Presentation pacing only; the full reply is already known, so
	// abandoning the reveal can't affect correctness.
	c.setState(StateAnimating)
	c.reveal.run(ctx, reply, func(chunk string) {
		select {
		case events <- Event{Type: EventChunk, Chunk: chunk}:
		default:
			// Slow consumer: drop the chunk, the committed event still
			// carries the full reply.
		}
	})

	// Commit on a fresh context: if the caller tore down during the reveal,
	// the fully received reply must still be persisted.
	commitCtx, cancel := context.WithTimeout(context.Background(), commitTimeout)
	defer cancel()

	assistantMsg, err := c.dir.AppendMessage(commitCtx, session.ID, store.RoleAssistant, reply)
	if err != nil {
		c.fail(events, fmt.Errorf("committing reply: %w", err))
		return
	}

	committed := Event{Type: EventCommitted, Message: assistantMsg}
	if !c.id.IsAuthenticated() {
		// Exactly one increment per completed assistant turn. Failed round
		// trips never reach this point.
		state := c.quota.Increment()
		committed.Quota = &state
	}

	c.setState(StateCommitted)
	c.emit(events, committed)
	c.setState(StateIdle)
}

// fail surfaces a terminal error and returns the controller to Idle.
func (c *Controller) fail(events chan<- Event, err error) {
	c.setState(StateFailed)
	c.logger.Warn("send failed", "error", err)
	c.emit(events, Event{Type: EventFailed, Err: err})
	c.setState(StateIdle)
}

// emit delivers an event, waiting briefly for a slow consumer before
// dropping it so the lifecycle can always finish.
func (c *Controller) emit(events chan<- Event, ev Event) {
	select {
	case events <- ev:
	case <-time.After(eventSendTimeout):
		c.logger.Warn("event channel full, dropping event", "type", ev.Type)
	}
}

// setState records a lifecycle transition.
func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	c.logger.Debug("state transition", "state", s)
}
