// ABOUTME: Tests for the in-memory pipe transport.
// ABOUTME: Covers ordered delivery, dial failure, close semantics, and drop behaviour.

package transport

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipe_DeliversInboundFramesInOrder(t *testing.T) {
	p := NewPipe()
	require.NoError(t, p.Dial(testContext(t)))

	for _, data := range []string{"one", "two", "three"} {
		p.Inject(Frame{RequestID: "r1", ChannelID: "c1", Kind: KindDelta, Data: data})
	}

	for _, want := range []string{"one", "two", "three"} {
		f, err := p.Receive()
		require.NoError(t, err)
		assert.Equal(t, want, f.Data)
		assert.Equal(t, KindDelta, f.Kind)
	}
}

func TestPipe_OutboundFramesAreObservable(t *testing.T) {
	p := NewPipe()
	require.NoError(t, p.Dial(testContext(t)))

	require.NoError(t, p.Send(Frame{RequestID: "r1", ChannelID: "c1", Kind: KindSend, Data: "hello"}))

	select {
	case f := <-p.Outbound():
		assert.Equal(t, "hello", f.Data)
		assert.Equal(t, KindSend, f.Kind)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for outbound frame")
	}
}

func TestPipe_FailDial(t *testing.T) {
	p := NewPipe()
	dialErr := errors.New("refused")
	p.FailDial(dialErr)

	err := p.Dial(testContext(t))
	assert.True(t, errors.Is(err, dialErr))
	assert.False(t, p.Dialed())
}

func TestPipe_ReceiveAfterDropFails(t *testing.T) {
	p := NewPipe()
	require.NoError(t, p.Dial(testContext(t)))

	p.Drop()

	_, err := p.Receive()
	assert.True(t, errors.Is(err, ErrClosed))
}

func TestPipe_SendAfterCloseFails(t *testing.T) {
	p := NewPipe()
	require.NoError(t, p.Dial(testContext(t)))
	require.NoError(t, p.Close())
	require.NoError(t, p.Close()) // idempotent

	err := p.Send(Frame{Kind: KindSend})
	assert.True(t, errors.Is(err, ErrClosed))
}

func TestPipe_InjectAfterDropDoesNotBlock(t *testing.T) {
	p := NewPipe()
	p.Drop()

	done := make(chan struct{})
	go func() {
		p.Inject(Frame{Kind: KindDelta, Data: "late"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Inject blocked after drop")
	}
}
