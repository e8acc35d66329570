// ABOUTME: Tests for engine configuration loading.
// ABOUTME: Covers defaults, env expansion, duration parsing, and validation failures.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
transport:
  url: wss://gateway.example.com/ws/chat
  handshake_timeout: 5s
reconnect:
  base: 500ms
  cap: 10s
  max_attempts: 8
  jitter: 0.1
history:
  max_messages_per_channel: 200
prefs:
  path: /tmp/chat/prefs.db
dedupe:
  ttl: 2m
  max_size: 64
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "wss://gateway.example.com/ws/chat", cfg.Transport.URL)
	assert.Equal(t, 5*time.Second, cfg.Transport.HandshakeTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Reconnect.Base)
	assert.Equal(t, 10*time.Second, cfg.Reconnect.Cap)
	assert.Equal(t, 8, cfg.Reconnect.MaxAttempts)
	assert.Equal(t, 0.1, cfg.Reconnect.Jitter)
	require.NotNil(t, cfg.History.MaxMessagesPerChannel)
	assert.Equal(t, 200, *cfg.History.MaxMessagesPerChannel)
	assert.Equal(t, "/tmp/chat/prefs.db", cfg.Prefs.Path)
	assert.Equal(t, 2*time.Minute, cfg.Dedupe.TTL)
	assert.Equal(t, 64, cfg.Dedupe.MaxSize)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_DefaultsApplyWhenOmitted(t *testing.T) {
	path := writeConfig(t, `
transport:
  url: wss://gateway.example.com/ws/chat
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.Reconnect.Base)
	assert.Equal(t, 30*time.Second, cfg.Reconnect.Cap)
	assert.Equal(t, 0.2, cfg.Reconnect.Jitter)
	assert.Equal(t, 0, cfg.Reconnect.MaxAttempts, "attempts unlimited by default")
	assert.Nil(t, cfg.History.MaxMessagesPerChannel)
	assert.Equal(t, 5*time.Minute, cfg.Dedupe.TTL)
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("CHAT_GATEWAY_URL", "wss://env.example.com/ws")
	t.Setenv("CHAT_TOKEN", "secret-token")

	path := writeConfig(t, `
transport:
  url: ${CHAT_GATEWAY_URL}
  token: ${CHAT_TOKEN}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "wss://env.example.com/ws", cfg.Transport.URL)
	assert.Equal(t, "secret-token", cfg.Transport.Token)
}

func TestLoad_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing url", "reconnect:\n  base: 1s\n"},
		{"cap below base", "transport:\n  url: wss://x\nreconnect:\n  base: 10s\n  cap: 1s\n"},
		{"bad jitter", "transport:\n  url: wss://x\nreconnect:\n  jitter: 2.0\n"},
		{"negative attempts", "transport:\n  url: wss://x\nreconnect:\n  max_attempts: -1\n"},
		{"bad duration", "transport:\n  url: wss://x\nreconnect:\n  base: soon\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
