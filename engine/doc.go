// Package engine composes the chat session core into one subscribable state
// container.
//
// # Overview
//
// The Engine is the single entry point for all mutations. UI code issues
// intents (SendMessage, PinChannel, Disconnect); inbound network frames
// arrive through the connection manager. Both paths are serialized through
// one lock, so correctness relies on single-writer ordering rather than
// fine-grained locking: no two mutations of the same channel's state ever
// interleave, and subscribers observe notifications in mutation order.
//
// # Composition
//
//	UI intents ──► Engine ──► channel.Registry / stream.Accumulator / loading.Registry
//	                 ▲
//	conn.Manager ────┘ (inbound frames, connection state)
//
// Subscriptions are explicit: Subscribe returns a buffered event channel and
// an ID for Unsubscribe. Events carry identifiers only; subscribers read
// state through the engine's accessors.
//
// # Policies
//
// Disconnect fails in-flight stream sessions locally with the surface's
// connection-lost message: the transport never replays frames, so a
// stranded session could never finish and would pin its loading key forever.
// The backend is not sent a cancel; that is reserved for explicit
// CancelStream calls.
//
// Sends are idempotent when the caller provides an idempotency key: a
// duplicate within the dedupe window returns ErrDuplicateSend and mutates
// nothing.
package engine
