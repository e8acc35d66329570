// Package prefs provides persistent key/value preference storage backed by
// SQLite.
//
// The store uses WAL mode for concurrent reads and creates its schema on
// open. Values are strings at the storage layer; typed helpers cover ints
// and string slices (stored as JSON). All methods accept context.Context.
//
// Preference state is UI convenience, not chat state: callers treat write
// failures as non-fatal.
package prefs
