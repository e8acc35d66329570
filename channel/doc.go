// Package channel owns the set of conversation channels, their ordered
// message histories, and pin state.
//
// # Overview
//
// A Channel is one independent conversation thread. Its message history is
// append-only and always ordered by creation time; the registry is the only
// component that mutates channel or message state. The stream accumulator
// updates assistant messages through SetMessageContent/SetMessageStatus on
// the registry's behalf.
//
// # Ordering
//
// List returns pinned channels before unpinned ones, pinned ties broken by
// ascending pin time, unpinned channels in creation order. Ordering is
// derived at read time; pinning never reorders stored state.
//
// # History bounds
//
// Per-channel history is capped (DefaultHistoryCap) and trimmed from the
// oldest end, so long-running sessions cannot grow without bound.
package channel
