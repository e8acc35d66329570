// ABOUTME: Resolves named chat-surface configurations from a closed set of built-in themes.
// ABOUTME: Resolution is pure and deterministic; resolved configs are immutable values.

package surface

import (
	"errors"
	"fmt"
)

// ErrUnknownTheme is returned when resolving a theme ID that is not registered.
var ErrUnknownTheme = errors.New("unknown theme")

// Theme identifiers for the built-in chat surfaces.
const (
	ThemeGeneral     = "general"
	ThemeAgentAuthor = "agent-author"
)

// StorageKeys names the preference-store keys a surface uses for its
// persisted UI state. Each surface gets its own key set so two surfaces
// never clobber each other's preferences.
type StorageKeys struct {
	PinnedChannels string
	LastChannel    string
	PanelWidth     string
	Layout         string
}

// Labels holds the user-visible strings for a surface's chrome.
type Labels struct {
	Title       string
	Placeholder string
	SendButton  string
	RetryButton string
	EmptyState  string
}

// ConnectionMessages holds the strings shown for connection lifecycle states.
type ConnectionMessages struct {
	Connecting   string
	Connected    string
	Reconnecting string
	Failed       string
	Disconnected string
}

// ResponseMessages holds the strings shown for per-response outcomes.
type ResponseMessages struct {
	Generating     string
	Cancelled      string
	Errored        string
	ConnectionLost string
}

// Config is one resolved chat-surface configuration. It is a plain value:
// callers receive a copy and nothing mutates it after resolution.
type Config struct {
	ThemeID            string
	BoundAgentID       string
	StorageKeys        StorageKeys
	Labels             Labels
	ConnectionMessages ConnectionMessages
	ResponseMessages   ResponseMessages
}

// builtins is the closed set of known surface configurations. Surfaces share
// one engine implementation and differ only in presentation and agent binding.
var builtins = map[string]Config{
	ThemeGeneral: {
		ThemeID:      ThemeGeneral,
		BoundAgentID: "general-assistant",
		StorageKeys: StorageKeys{
			PinnedChannels: "chat.general.pinned",
			LastChannel:    "chat.general.last_channel",
			PanelWidth:     "chat.general.panel_width",
			Layout:         "chat.general.layout",
		},
		Labels: Labels{
			Title:       "Chat",
			Placeholder: "Ask anything…",
			SendButton:  "Send",
			RetryButton: "Retry",
			EmptyState:  "No conversations yet. Start one below.",
		},
		ConnectionMessages: ConnectionMessages{
			Connecting:   "Connecting…",
			Connected:    "Connected",
			Reconnecting: "Connection lost. Reconnecting…",
			Failed:       "Could not reach the server. Try reconnecting.",
			Disconnected: "Disconnected",
		},
		ResponseMessages: ResponseMessages{
			Generating:     "Thinking…",
			Cancelled:      "Response cancelled.",
			Errored:        "Something went wrong generating a response.",
			ConnectionLost: "Connection lost while generating a response.",
		},
	},
	ThemeAgentAuthor: {
		ThemeID:      ThemeAgentAuthor,
		BoundAgentID: "agent-author",
		StorageKeys: StorageKeys{
			PinnedChannels: "chat.author.pinned",
			LastChannel:    "chat.author.last_channel",
			PanelWidth:     "chat.author.panel_width",
			Layout:         "chat.author.layout",
		},
		Labels: Labels{
			Title:       "Assistant Builder",
			Placeholder: "Describe the assistant you want…",
			SendButton:  "Send",
			RetryButton: "Retry",
			EmptyState:  "Describe an assistant to get started.",
		},
		ConnectionMessages: ConnectionMessages{
			Connecting:   "Connecting…",
			Connected:    "Connected",
			Reconnecting: "Connection lost. Reconnecting…",
			Failed:       "Could not reach the server. Try reconnecting.",
			Disconnected: "Disconnected",
		},
		ResponseMessages: ResponseMessages{
			Generating:     "Drafting…",
			Cancelled:      "Draft cancelled.",
			Errored:        "Something went wrong drafting the assistant.",
			ConnectionLost: "Connection lost while drafting.",
		},
	},
}

// Resolve returns the configuration for a theme ID.
// Returns ErrUnknownTheme for identifiers outside the built-in set.
func Resolve(themeID string) (Config, error) {
	cfg, ok := builtins[themeID]
	if !ok {
		return Config{}, fmt.Errorf("resolving theme %q: %w", themeID, ErrUnknownTheme)
	}
	return cfg, nil
}

// Themes lists the registered theme IDs. Order is unspecified.
func Themes() []string {
	out := make([]string, 0, len(builtins))
	for id := range builtins {
		out = append(out, id)
	}
	return out
}
