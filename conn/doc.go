// Package conn owns the lifecycle of the single transport connection to the
// conversational backend.
//
// # Overview
//
// The Manager drives the connection state machine:
//
//	Disconnected --Connect--> Connecting --transport open--> Connected
//	Connected --transport drop--> Reconnecting --backoff expires--> Connecting
//	Connected|Reconnecting|Connecting --Disconnect--> Disconnected
//	Reconnecting --attempts exhausted--> Failed
//
// Failed is terminal until an explicit Connect. Transport-level failures are
// retried automatically and never surfaced per-message; only inbound frames
// of kind "error" become application-level stream failures.
//
// # Backoff
//
// The delay before attempt n is min(base * 2^(n-1), cap) plus up to 20%
// jitter, bounded by the cap, so the sequence for base 1s / cap 30s is
// non-decreasing and never exceeds 30s. The reconnect timer is retained so
// Disconnect cancels it deterministically: no attempt fires after a manual
// disconnect, even if its timer was already scheduled.
//
// # Frame routing
//
// Every inbound frame carries a request and channel ID. The Manager hands
// frames to the OnFrame hook in transport order; this is the only path by
// which stream sessions receive data.
//
// # Tokens
//
// The Manager consumes bearer tokens, it never issues them. When the current
// token is a JWT whose expiry has passed (or is within 30s), the configured
// TokenSource is asked for a fresh one before dialing.
package conn
