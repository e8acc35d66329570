// ABOUTME: Exponential backoff schedule for reconnect attempts.
// ABOUTME: min(base * 2^(n-1), cap) with bounded random jitter, never exceeding the cap.

package conn

import (
	"math/rand"
	"time"
)

// Backoff defaults. Base 1s doubling to a 30s ceiling.
const (
	DefaultBackoffBase    = 1 * time.Second
	DefaultBackoffCap     = 30 * time.Second
	DefaultJitterFraction = 0.2
)

// Backoff computes reconnect delays. Attempt counts are uncapped unless
// MaxAttempts is positive, in which case exceeding it moves the connection
// to Failed.
type Backoff struct {
	// Base is the delay for the first attempt.
	Base time.Duration
	// Cap bounds every delay, jitter included.
	Cap time.Duration
	// MaxAttempts limits reconnect attempts; 0 means unlimited.
	MaxAttempts int
	// JitterFraction adds up to this fraction of the computed delay.
	JitterFraction float64
}

// DefaultBackoff returns the standard 1s/30s schedule with 20% jitter.
func DefaultBackoff() Backoff {
	return Backoff{
		Base:           DefaultBackoffBase,
		Cap:            DefaultBackoffCap,
		JitterFraction: DefaultJitterFraction,
	}
}

// Delay returns the delay before attempt n (1-indexed). The sequence is
// non-decreasing and bounded by Cap.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	d := b.Cap
	// Guard the shift: past 62 doublings everything is capped anyway
	if attempt-1 < 62 {
		raw := b.Base << uint(attempt-1)
		if raw > 0 && raw < b.Cap {
			d = raw
		}
	}

	if b.JitterFraction > 0 {
		d += time.Duration(rand.Float64() * b.JitterFraction * float64(d))
		if d > b.Cap {
			d = b.Cap
		}
	}
	return d
}

// Exhausted reports whether attempt n exceeds the configured attempt limit.
func (b Backoff) Exhausted(attempt int) bool {
	return b.MaxAttempts > 0 && attempt > b.MaxAttempts
}
