// Package loading tracks named in-flight operations as boolean keys.
// Keys are per-operation, not global; the send operation for channel C
// is keyed with SendKey(C).
package loading
