// ABOUTME: Accumulates ordered partial-text deltas into finalized assistant messages.
// ABOUTME: Owns transient stream sessions, one active session per channel at most.

package stream

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/2389/coven-chat/loading"
)

// ErrSessionConflict indicates a stream is already active on the channel.
var ErrSessionConflict = errors.New("stream session already active")

// MessageUpdater is the slice of the channel registry the accumulator needs.
type MessageUpdater interface {
	SetMessageContent(channelID, messageID, content string) error
	SetMessageStatus(channelID, messageID, status string) error
}

// LoadingSetter clears the owning operation's loading key on terminal events.
type LoadingSetter interface {
	Set(key string, value bool)
}

// CancelNotifier tells the backend, best effort, that a generation was
// cancelled client-side. May be nil.
type CancelNotifier func(channelID, requestID string)

// Statuses the accumulator moves messages through. Mirrors the channel
// package constants; declared here so the accumulator depends only on its
// small interfaces.
const (
	statusStreaming = "streaming"
	statusComplete  = "complete"
	statusError     = "error"
	statusCancelled = "cancelled"
)

// session is the transient accumulation state for one in-progress response.
type session struct {
	channelID string
	messageID string
	requestID string
	text      strings.Builder
	startedAt time.Time
}

// Accumulator turns ordered delta sequences into finalized message state.
// All message mutation goes through the injected MessageUpdater.
type Accumulator struct {
	mu       sync.Mutex
	sessions map[string]*session // channelID -> active session
	// cancelled remembers channels whose session was cancelled client-side,
	// keyed by channelID with the cancelled requestID as value, so late
	// frames are dropped silently until the backend goes quiet.
	cancelled map[string]string

	messages MessageUpdater
	loading  LoadingSetter
	notify   CancelNotifier
	logger   *slog.Logger
}

// NewAccumulator wires an accumulator to the message store and loading keys.
func NewAccumulator(messages MessageUpdater, loadingKeys LoadingSetter, notify CancelNotifier, logger *slog.Logger) *Accumulator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Accumulator{
		sessions:  make(map[string]*session),
		cancelled: make(map[string]string),
		messages:  messages,
		loading:   loadingKeys,
		notify:    notify,
		logger:    logger.With("component", "stream"),
	}
}

// Start opens a session for a channel and marks the target message streaming.
// Returns ErrSessionConflict if the channel already has an active session.
func (a *Accumulator) Start(channelID, messageID, requestID string) error {
	a.mu.Lock()
	if _, exists := a.sessions[channelID]; exists {
		a.mu.Unlock()
		return fmt.Errorf("channel %q: %w", channelID, ErrSessionConflict)
	}
	a.sessions[channelID] = &session{
		channelID: channelID,
		messageID: messageID,
		requestID: requestID,
		startedAt: time.Now(),
	}
	// A new generation supersedes any lingering cancel bookkeeping
	delete(a.cancelled, channelID)
	a.mu.Unlock()

	if err := a.messages.SetMessageStatus(channelID, messageID, statusStreaming); err != nil {
		return fmt.Errorf("marking message streaming: %w", err)
	}

	a.logger.Debug("stream started",
		"channel_id", channelID,
		"message_id", messageID,
		"request_id", requestID,
	)
	return nil
}

// Append adds a delta to the session's accumulated text, in arrival order,
// and pushes the new text onto the message. Deltas for cancelled sessions
// are dropped silently; deltas for unknown sessions are logged and dropped.
func (a *Accumulator) Append(channelID, delta string) error {
	a.mu.Lock()
	s, ok := a.sessions[channelID]
	if !ok {
		_, wasCancelled := a.cancelled[channelID]
		a.mu.Unlock()
		if !wasCancelled {
			a.logger.Warn("delta for unknown session dropped", "channel_id", channelID)
		}
		return nil
	}
	s.text.WriteString(delta)
	text := s.text.String()
	messageID := s.messageID
	a.mu.Unlock()

	return a.messages.SetMessageContent(channelID, messageID, text)
}

// Finalize completes an active session: the message becomes complete, the
// session is destroyed, and the send loading key is cleared. Finalizing a
// channel with no session (already cancelled or completed) is a no-op.
func (a *Accumulator) Finalize(channelID string) error {
	s := a.take(channelID)
	if s == nil {
		return nil
	}

	a.loading.Set(loading.SendKey(channelID), false)
	if err := a.messages.SetMessageStatus(channelID, s.messageID, statusComplete); err != nil {
		return fmt.Errorf("finalizing stream: %w", err)
	}

	a.logger.Debug("stream finalized",
		"channel_id", channelID,
		"message_id", s.messageID,
		"elapsed", time.Since(s.startedAt),
	)
	return nil
}

// Cancel ends an active session client-side: the message is marked
// cancelled, the session destroyed, the loading key cleared, and the backend
// notified best-effort. Idempotent; calling after Finalize is a no-op.
func (a *Accumulator) Cancel(channelID string) error {
	a.mu.Lock()
	s, ok := a.sessions[channelID]
	if !ok {
		a.mu.Unlock()
		return nil
	}
	delete(a.sessions, channelID)
	a.cancelled[channelID] = s.requestID
	a.mu.Unlock()

	a.loading.Set(loading.SendKey(channelID), false)
	if a.notify != nil {
		a.notify(channelID, s.requestID)
	}

	if err := a.messages.SetMessageStatus(channelID, s.messageID, statusCancelled); err != nil {
		return fmt.Errorf("cancelling stream: %w", err)
	}

	a.logger.Debug("stream cancelled", "channel_id", channelID, "request_id", s.requestID)
	return nil
}

// Error fails an active session: the message is marked error with the
// reason appended, the session destroyed, and the loading key cleared.
// A terminal error frame arriving after a cancel clears the cancel
// bookkeeping and is otherwise ignored.
func (a *Accumulator) Error(channelID, reason string) error {
	a.mu.Lock()
	delete(a.cancelled, channelID)
	a.mu.Unlock()

	s := a.take(channelID)
	if s == nil {
		return nil
	}

	a.loading.Set(loading.SendKey(channelID), false)
	if s.text.Len() == 0 && reason != "" {
		// Nothing accumulated yet: show the failure reason instead of a blank bubble
		if err := a.messages.SetMessageContent(channelID, s.messageID, reason); err != nil {
			return fmt.Errorf("failing stream: %w", err)
		}
	}
	if err := a.messages.SetMessageStatus(channelID, s.messageID, statusError); err != nil {
		return fmt.Errorf("failing stream: %w", err)
	}

	a.logger.Warn("stream errored",
		"channel_id", channelID,
		"message_id", s.messageID,
		"reason", reason,
	)
	return nil
}

// ClearCancelled drops cancel bookkeeping for a channel once the backend has
// acknowledged the cancellation with a terminal frame.
func (a *Accumulator) ClearCancelled(channelID string) {
	a.mu.Lock()
	delete(a.cancelled, channelID)
	a.mu.Unlock()
}

// Active reports whether a channel has an in-progress session.
func (a *Accumulator) Active(channelID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.sessions[channelID]
	return ok
}

// ActiveChannels returns the channels that currently have a session.
func (a *Accumulator) ActiveChannels() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]string, 0, len(a.sessions))
	for id := range a.sessions {
		out = append(out, id)
	}
	return out
}

// Text returns the authoritative accumulated text for a channel's session.
// The reveal pacer reads from here; correctness never depends on pacing.
func (a *Accumulator) Text(channelID string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.sessions[channelID]
	if !ok {
		return "", false
	}
	return s.text.String(), true
}

// RequestID returns the request ID of a channel's active session.
func (a *Accumulator) RequestID(channelID string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.sessions[channelID]
	if !ok {
		return "", false
	}
	return s.requestID, true
}

// take removes and returns the session for a channel, or nil.
func (a *Accumulator) take(channelID string) *session {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.sessions[channelID]
	if !ok {
		return nil
	}
	delete(a.sessions, channelID)
	return s
}
