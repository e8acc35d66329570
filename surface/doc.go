// Package surface resolves named chat-surface configurations.
//
// A surface is a presentation of the same chat engine: its labels,
// connection and response messages, preference storage keys, and the agent
// it binds to. The set of surfaces is closed and compiled in; Resolve maps
// a theme ID to its configuration and rejects unknown IDs.
//
// Deployments can adjust the wording of a built-in surface with a TOML
// overlay file (see ApplyOverlay). Overlays replace individual strings;
// they cannot introduce new surfaces.
package surface
