// ABOUTME: Production Transport backed by a gorilla/websocket connection.
// ABOUTME: Frames are JSON text messages; a bearer token may be attached to the dial request.

package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const defaultHandshakeTimeout = 10 * time.Second

// WebSocketConfig configures a WebSocket transport.
type WebSocketConfig struct {
	// URL is the backend endpoint, e.g. "wss://gateway.example.com/ws/chat".
	URL string

	// Token, when non-empty, is sent as a bearer Authorization header on the
	// upgrade request.
	Token string

	// HandshakeTimeout bounds the upgrade handshake. Zero means 10s.
	HandshakeTimeout time.Duration
}

// WebSocket is a Transport over a single websocket connection. It is
// single-use: once Receive returns an error or Close is called, a new
// WebSocket must be dialed.
type WebSocket struct {
	cfg WebSocketConfig

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// NewWebSocket creates an undialed websocket transport.
func NewWebSocket(cfg WebSocketConfig) *WebSocket {
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = defaultHandshakeTimeout
	}
	return &WebSocket{cfg: cfg}
}

// Dial opens the websocket connection.
func (w *WebSocket) Dial(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: w.cfg.HandshakeTimeout,
	}

	var header http.Header
	if w.cfg.Token != "" {
		header = http.Header{}
		header.Set("Authorization", "Bearer "+w.cfg.Token)
	}

	conn, _, err := dialer.DialContext(ctx, w.cfg.URL, header)
	if err != nil {
		return fmt.Errorf("ws dial failed: %w", err)
	}

	w.mu.Lock()
	w.conn = conn
	w.mu.Unlock()
	return nil
}

// Send writes a frame as a JSON text message.
func (w *WebSocket) Send(f Frame) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.conn == nil {
		return ErrClosed
	}

	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling frame: %w", err)
	}
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

// Receive blocks for the next frame. A read error means the connection is
// dead and the transport must be discarded.
func (w *WebSocket) Receive() (Frame, error) {
	w.mu.Lock()
	conn := w.conn
	closed := w.closed
	w.mu.Unlock()

	if closed || conn == nil {
		return Frame{}, ErrClosed
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return Frame{}, fmt.Errorf("ws read: %w", err)
		}

		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			// Skip malformed frames rather than killing the connection
			continue
		}
		return f, nil
	}
}

// Close tears down the connection. Safe to call more than once.
func (w *WebSocket) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.conn == nil {
		return nil
	}
	return w.conn.Close()
}
