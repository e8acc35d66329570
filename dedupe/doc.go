// Package dedupe provides send deduplication using a time-based cache
// to suppress duplicate dispatches within a configurable window.
package dedupe
