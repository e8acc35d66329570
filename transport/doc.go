// Package transport defines the wire boundary between the engine and the
// chat backend.
//
// # Frames
//
// All traffic is framed. A Frame carries a request ID, a channel ID, a kind,
// and an optional data payload:
//
//   - send: a user message dispatched to the backend
//   - delta: a partial-text chunk of an in-progress response
//   - complete: the response for a request finished
//   - error: the response for a request failed; Data carries the reason
//   - cancel: the client asks the backend to stop generating
//
// # Transport
//
// A Transport is a single-use connection: Dial once, Send and Receive until
// Receive returns an error, then discard. Transports never reconnect on
// their own and never replay frames; the connection manager owns recovery.
//
// Two implementations are provided: WebSocket for production, backed by a
// gorilla/websocket connection speaking JSON text messages, and Pipe, an
// in-memory transport for tests.
package transport
