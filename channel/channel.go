// ABOUTME: Channel and Message data types for the conversation registry.
// ABOUTME: Role and status constants plus constructors for new channels and messages.

package channel

import (
	"time"

	"github.com/google/uuid"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message statuses. A message moves pending → streaming → complete for the
// happy path; error and cancelled are terminal alternatives.
const (
	StatusPending   = "pending"
	StatusStreaming = "streaming"
	StatusComplete  = "complete"
	StatusError     = "error"
	StatusCancelled = "cancelled"
)

// Message is a single entry in a channel's history.
type Message struct {
	ID        string
	ChannelID string
	Role      string
	Content   string
	Status    string
	CreatedAt time.Time
}

func newChannelID() string {
	return uuid.New().String()
}

// NewMessage builds a message with a fresh ID and creation timestamp.
func NewMessage(channelID, role, content, status string) Message {
	return Message{
		ID:        uuid.New().String(),
		ChannelID: channelID,
		Role:      role,
		Content:   content,
		Status:    status,
		CreatedAt: time.Now(),
	}
}

// Channel is one independent conversation thread. Messages are ordered by
// creation time and only ever appended.
type Channel struct {
	ID           string
	Title        string
	Pinned       bool
	PinnedAt     *time.Time
	Messages     []Message
	LastActivity time.Time

	// pinSeq disambiguates pins that land on the same wall-clock instant;
	// it increases monotonically with each pin.
	pinSeq uint64
	// createSeq preserves creation order among unpinned channels.
	createSeq uint64
}

// clone returns a deep copy so callers can never mutate registry state.
func (c *Channel) clone() Channel {
	out := *c
	out.Messages = make([]Message, len(c.Messages))
	copy(out.Messages, c.Messages)
	if c.PinnedAt != nil {
		at := *c.PinnedAt
		out.PinnedAt = &at
	}
	return out
}
