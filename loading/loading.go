// ABOUTME: Registry mapping operation identifiers to busy/idle flags.
// ABOUTME: Absence of a key means idle; terminal-event paths clear keys via the engine.

package loading

import "sync"

// SendKey is the conventional loading key for an in-flight send on a channel.
func SendKey(channelID string) string {
	return channelID + ":send"
}

// Registry tracks which named operations are currently in flight.
// Keys are arbitrary operation identifiers, e.g. "<channelID>:send".
// A missing key is equivalent to false.
type Registry struct {
	mu   sync.RWMutex
	busy map[string]bool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		busy: make(map[string]bool),
	}
}

// Set marks a key busy or idle. Setting false removes the entry entirely
// so the map never accumulates dead keys.
func (r *Registry) Set(key string, value bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if value {
		r.busy[key] = true
		return
	}
	delete(r.busy, key)
}

// Get reports whether the key is busy. Unknown keys are idle.
func (r *Registry) Get(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.busy[key]
}

// Snapshot returns a copy of all currently busy keys.
func (r *Registry) Snapshot() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]bool, len(r.busy))
	for k := range r.busy {
		out[k] = true
	}
	return out
}
