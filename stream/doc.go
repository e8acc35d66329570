// Package stream turns ordered sequences of partial-text deltas into
// finalized message state.
//
// # Overview
//
// Each in-progress assistant response is a transient session, at most one
// per channel. The Accumulator owns sessions exclusively: Start opens one,
// Append grows its text in arrival order, and Finalize/Cancel/Error destroy
// it, moving the backing message to a terminal status and clearing the
// operation's loading key.
//
// Accumulation is decoupled from rendering: the optional Pacer reads the
// authoritative accumulated text and reveals it at a bounded rate, but the
// final text and completion detection depend only on the accumulator.
//
// # Cancellation
//
// Cancel is terminal and idempotent. The accumulator remembers cancelled
// channels so deltas that were already in flight are dropped silently until
// the backend acknowledges with a terminal frame.
package stream
