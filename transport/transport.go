// ABOUTME: Transport boundary types — duplex frame channel to the conversational backend.
// ABOUTME: Defines the Frame wire format and the Transport interface implementations satisfy.

package transport

import (
	"context"
	"errors"
)

// Frame kinds for inbound traffic. Outbound frames carry KindSend or KindCancel.
const (
	KindDelta    = "delta"
	KindComplete = "complete"
	KindError    = "error"
	KindSend     = "send"
	KindCancel   = "cancel"
)

// ErrClosed is returned by Send/Receive after the transport has been closed.
var ErrClosed = errors.New("transport closed")

// Frame is one unit of traffic on the duplex channel. Every frame is tagged
// with the request and channel it belongs to so independent conversations
// can be multiplexed over a single connection.
type Frame struct {
	RequestID string `json:"request_id"`
	ChannelID string `json:"channel_id"`
	Kind      string `json:"kind"`
	Data      string `json:"data,omitempty"`
}

// Transport is a duplex frame channel to the backend. Implementations must
// deliver frames for a given request in the order they were produced; no
// ordering is guaranteed across requests.
//
// Receive blocks until a frame arrives or the connection drops, in which
// case it returns a non-nil error and the transport is dead. Transports are
// single-use: after Close or a Receive error, Dial a fresh instance.
type Transport interface {
	Dial(ctx context.Context) error
	Send(f Frame) error
	Receive() (Frame, error)
	Close() error
}
