// Package chat drives the lifecycle of sending one message and rendering the
// assistant's reply.
//
// # State machine
//
// Each send moves through:
//
//	Idle -> OptimisticInsert -> AwaitingReply -> Animating -> Committed -> Idle
//
// with error edges from OptimisticInsert and AwaitingReply to Failed and back
// to Idle. A second Send while one is in flight is rejected with ErrBusy, so
// operations against the active session are serialized.
//
// # Guarantees
//
// The user's message is inserted (and visible) before the outbound request
// resolves, and it is retained on failure. The assistant message is committed
// exactly once per successful round trip; for anonymous visitors the quota
// counter advances exactly once per committed turn, never on failure. The
// reveal phase is pure presentation: abandoning it (caller teardown) does not
// lose the reply, because the commit runs on its own context.
package chat
