// Package config handles configuration loading for the chat engine.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable
// expansion. The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	transport:
//	  token: "${CHAT_TOKEN}"
//
// Syntax: ${VAR_NAME}. Unset variables expand to the empty string.
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	reconnect:
//	  base: "1s"
//	  cap: "30s"
//
// # Configuration Sections
//
// Transport endpoint:
//
//	transport:
//	  url: "wss://gateway.example.com/ws/chat"
//	  token: "${CHAT_TOKEN}"
//	  handshake_timeout: "10s"
//
// Reconnect schedule:
//
//	reconnect:
//	  base: "1s"
//	  cap: "30s"
//	  jitter: 0.2
//	  max_attempts: 0   # 0 = retry forever
//
// History bound, preferences database, and dedupe cache:
//
//	history:
//	  max_messages_per_channel: 1000
//	prefs:
//	  path: "~/.local/share/coven-chat/prefs.db"
//	dedupe:
//	  ttl: "5m"
//	  max_size: 512
//
// # Validation
//
// Load() validates the transport URL, the backoff ordering (cap >= base),
// the jitter range, and the attempt count.
package config
