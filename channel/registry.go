// ABOUTME: Registry owning all conversation channels, their histories, and pin state.
// ABOUTME: Sole mutation point for channel and message data; listings are computed lazily.

package channel

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// ErrNotFound indicates the requested channel or message does not exist.
var ErrNotFound = errors.New("not found")

// DefaultHistoryCap bounds per-channel history. Oldest messages are trimmed
// once a channel exceeds it; 0 disables trimming.
const DefaultHistoryCap = 1000

// Registry owns the set of channels. All access is through its methods;
// returned channels and messages are copies.
type Registry struct {
	mu         sync.RWMutex
	channels   map[string]*Channel
	active     string
	historyCap int
	nextSeq    uint64
	logger     *slog.Logger
}

// NewRegistry creates an empty registry. historyCap 0 disables history
// trimming; pass a negative value to use DefaultHistoryCap.
func NewRegistry(historyCap int, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if historyCap < 0 {
		historyCap = DefaultHistoryCap
	}
	return &Registry{
		channels:   make(map[string]*Channel),
		historyCap: historyCap,
		logger:     logger.With("component", "channels"),
	}
}

// Create allocates a new unpinned channel with an empty history and returns
// its ID.
func (r *Registry) Create(title string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextSeq++
	ch := &Channel{
		ID:           newChannelID(),
		Title:        title,
		LastActivity: time.Now(),
		createSeq:    r.nextSeq,
	}
	r.channels[ch.ID] = ch

	r.logger.Debug("channel created", "channel_id", ch.ID, "title", title)
	return ch.ID
}

// Select records the active channel for UI purposes.
func (r *Registry) Select(channelID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.channels[channelID]; !ok {
		return fmt.Errorf("selecting channel %q: %w", channelID, ErrNotFound)
	}
	r.active = channelID
	return nil
}

// Active returns the currently selected channel ID, or "" if none.
func (r *Registry) Active() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Get returns a copy of a channel.
func (r *Registry) Get(channelID string) (Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ch, ok := r.channels[channelID]
	if !ok {
		return Channel{}, fmt.Errorf("channel %q: %w", channelID, ErrNotFound)
	}
	return ch.clone(), nil
}

// Append adds a message to a channel's history and bumps its last activity.
// Histories only grow by appending; once past the cap the oldest entries
// are trimmed.
func (r *Registry) Append(channelID string, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.channels[channelID]
	if !ok {
		return fmt.Errorf("appending to channel %q: %w", channelID, ErrNotFound)
	}

	ch.Messages = append(ch.Messages, msg)
	ch.LastActivity = time.Now()

	if r.historyCap > 0 && len(ch.Messages) > r.historyCap {
		overflow := len(ch.Messages) - r.historyCap
		ch.Messages = append([]Message(nil), ch.Messages[overflow:]...)
		r.logger.Debug("trimmed channel history",
			"channel_id", channelID,
			"trimmed", overflow,
		)
	}
	return nil
}

// SetMessageContent replaces a message's content. Used by the stream
// accumulator as deltas arrive.
func (r *Registry) SetMessageContent(channelID, messageID, content string) error {
	return r.updateMessage(channelID, messageID, func(m *Message) {
		m.Content = content
	})
}

// SetMessageStatus moves a message to a new status.
func (r *Registry) SetMessageStatus(channelID, messageID, status string) error {
	return r.updateMessage(channelID, messageID, func(m *Message) {
		m.Status = status
	})
}

func (r *Registry) updateMessage(channelID, messageID string, fn func(*Message)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.channels[channelID]
	if !ok {
		return fmt.Errorf("channel %q: %w", channelID, ErrNotFound)
	}
	for i := range ch.Messages {
		if ch.Messages[i].ID == messageID {
			fn(&ch.Messages[i])
			ch.LastActivity = time.Now()
			return nil
		}
	}
	return fmt.Errorf("message %q in channel %q: %w", messageID, channelID, ErrNotFound)
}

// Pin marks a channel pinned, stamping the pin time. Pinning an already
// pinned channel keeps its original pin position.
func (r *Registry) Pin(channelID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.channels[channelID]
	if !ok {
		return fmt.Errorf("pinning channel %q: %w", channelID, ErrNotFound)
	}
	if ch.Pinned {
		return nil
	}

	now := time.Now()
	ch.Pinned = true
	ch.PinnedAt = &now
	r.nextSeq++
	ch.pinSeq = r.nextSeq
	return nil
}

// Unpin clears a channel's pin state.
func (r *Registry) Unpin(channelID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.channels[channelID]
	if !ok {
		return fmt.Errorf("unpinning channel %q: %w", channelID, ErrNotFound)
	}
	ch.Pinned = false
	ch.PinnedAt = nil
	ch.pinSeq = 0
	return nil
}

// Delete removes a channel and its history.
func (r *Registry) Delete(channelID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.channels[channelID]; !ok {
		return fmt.Errorf("deleting channel %q: %w", channelID, ErrNotFound)
	}
	delete(r.channels, channelID)
	if r.active == channelID {
		r.active = ""
	}
	return nil
}

// List returns copies of all channels: pinned first, pin order ascending,
// then unpinned in creation order. Ordering is computed here at read time;
// pin/unpin never reshuffle stored state.
func (r *Registry) List() []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		out = append(out, ch.clone())
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Pinned != b.Pinned {
			return a.Pinned
		}
		if a.Pinned {
			return a.pinSeq < b.pinSeq
		}
		return a.createSeq < b.createSeq
	})
	return out
}

// PinnedIDs returns the IDs of pinned channels in pin order, for persistence.
func (r *Registry) PinnedIDs() []string {
	var ids []string
	for _, ch := range r.List() {
		if !ch.Pinned {
			break
		}
		ids = append(ids, ch.ID)
	}
	return ids
}
