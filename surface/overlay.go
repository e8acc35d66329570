// ABOUTME: Optional TOML overlay that customizes built-in surface labels and messages.
// ABOUTME: Applied once at startup; resolution remains deterministic afterwards.

package surface

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// overlayTheme mirrors the overridable subset of Config. Only non-empty
// fields replace the built-in values; the theme set itself is closed, so an
// overlay cannot introduce new theme IDs.
type overlayTheme struct {
	BoundAgentID string                `toml:"bound_agent_id"`
	Labels       overlayLabels         `toml:"labels"`
	Connection   overlayConnectionMsgs `toml:"connection_messages"`
	Response     overlayResponseMsgs   `toml:"response_messages"`
}

type overlayLabels struct {
	Title       string `toml:"title"`
	Placeholder string `toml:"placeholder"`
	SendButton  string `toml:"send_button"`
	RetryButton string `toml:"retry_button"`
	EmptyState  string `toml:"empty_state"`
}

type overlayConnectionMsgs struct {
	Connecting   string `toml:"connecting"`
	Connected    string `toml:"connected"`
	Reconnecting string `toml:"reconnecting"`
	Failed       string `toml:"failed"`
	Disconnected string `toml:"disconnected"`
}

type overlayResponseMsgs struct {
	Generating     string `toml:"generating"`
	Cancelled      string `toml:"cancelled"`
	Errored        string `toml:"errored"`
	ConnectionLost string `toml:"connection_lost"`
}

// ApplyOverlay reads a TOML file keyed by theme ID and merges its non-empty
// fields over the built-in configurations. Call once during startup, before
// any Resolve; overlays for unknown theme IDs are rejected.
func ApplyOverlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading surface overlay: %w", err)
	}

	var overlays map[string]overlayTheme
	if err := toml.Unmarshal(data, &overlays); err != nil {
		return fmt.Errorf("parsing surface overlay: %w", err)
	}

	for themeID, o := range overlays {
		cfg, ok := builtins[themeID]
		if !ok {
			return fmt.Errorf("overlay for theme %q: %w", themeID, ErrUnknownTheme)
		}
		mergeOverlay(&cfg, o)
		builtins[themeID] = cfg
	}
	return nil
}

func mergeOverlay(cfg *Config, o overlayTheme) {
	setIf(&cfg.BoundAgentID, o.BoundAgentID)

	setIf(&cfg.Labels.Title, o.Labels.Title)
	setIf(&cfg.Labels.Placeholder, o.Labels.Placeholder)
	setIf(&cfg.Labels.SendButton, o.Labels.SendButton)
	setIf(&cfg.Labels.RetryButton, o.Labels.RetryButton)
	setIf(&cfg.Labels.EmptyState, o.Labels.EmptyState)

	setIf(&cfg.ConnectionMessages.Connecting, o.Connection.Connecting)
	setIf(&cfg.ConnectionMessages.Connected, o.Connection.Connected)
	setIf(&cfg.ConnectionMessages.Reconnecting, o.Connection.Reconnecting)
	setIf(&cfg.ConnectionMessages.Failed, o.Connection.Failed)
	setIf(&cfg.ConnectionMessages.Disconnected, o.Connection.Disconnected)

	setIf(&cfg.ResponseMessages.Generating, o.Response.Generating)
	setIf(&cfg.ResponseMessages.Cancelled, o.Response.Cancelled)
	setIf(&cfg.ResponseMessages.Errored, o.Response.Errored)
	setIf(&cfg.ResponseMessages.ConnectionLost, o.Response.ConnectionLost)
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
