// ABOUTME: In-memory Transport for exercising connection and engine behavior in tests.
// ABOUTME: Gives the far side explicit control over inbound frames and simulated drops.

package transport

import (
	"context"
	"sync"
)

// pipeBufferSize is the per-direction frame buffer. Matches the pending
// response channel sizing used elsewhere.
const pipeBufferSize = 64

// Pipe is an in-memory Transport. The near side implements Transport; the
// far side injects inbound frames with Inject, observes outbound traffic on
// Outbound, and simulates a transport-level drop with Drop.
type Pipe struct {
	inbound  chan Frame
	outbound chan Frame
	done     chan struct{}

	mu      sync.Mutex
	dialErr error
	dialed  bool
	closed  bool
}

// NewPipe creates an open in-memory transport.
func NewPipe() *Pipe {
	return &Pipe{
		inbound:  make(chan Frame, pipeBufferSize),
		outbound: make(chan Frame, pipeBufferSize),
		done:     make(chan struct{}),
	}
}

// FailDial makes the next Dial return err. Used to exercise reconnect paths.
func (p *Pipe) FailDial(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dialErr = err
}

// Dial completes immediately unless FailDial was set.
func (p *Pipe) Dial(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.dialErr != nil {
		return p.dialErr
	}
	p.dialed = true
	return nil
}

// Dialed reports whether Dial succeeded on this pipe.
func (p *Pipe) Dialed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dialed
}

// Send queues an outbound frame for the far side.
func (p *Pipe) Send(f Frame) error {
	select {
	case <-p.done:
		return ErrClosed
	default:
	}

	select {
	case p.outbound <- f:
		return nil
	case <-p.done:
		return ErrClosed
	}
}

// Receive blocks for the next inbound frame or transport death.
func (p *Pipe) Receive() (Frame, error) {
	select {
	case f := <-p.inbound:
		return f, nil
	case <-p.done:
		// Drain any frame that raced with the close
		select {
		case f := <-p.inbound:
			return f, nil
		default:
		}
		return Frame{}, ErrClosed
	}
}

// Close tears down the pipe from the near side. Safe to call more than once.
func (p *Pipe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed {
		p.closed = true
		close(p.done)
	}
	return nil
}

// Drop simulates the backend dropping the connection.
func (p *Pipe) Drop() {
	p.Close()
}

// Inject delivers a frame to the near side, as if it arrived from the
// backend. Frames injected after a drop are discarded.
func (p *Pipe) Inject(f Frame) {
	select {
	case p.inbound <- f:
	case <-p.done:
	}
}

// Outbound exposes frames the near side has sent.
func (p *Pipe) Outbound() <-chan Frame {
	return p.outbound
}
