// ABOUTME: Tests for the reconnect backoff schedule.
// ABOUTME: Verifies the non-decreasing, capped delay sequence with and without jitter.

package conn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff_DeterministicSequence(t *testing.T) {
	b := Backoff{Base: time.Second, Cap: 30 * time.Second}

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second, // capped
		30 * time.Second,
	}
	for i, w := range want {
		assert.Equal(t, w, b.Delay(i+1), "attempt %d", i+1)
	}
}

func TestBackoff_JitteredSequenceIsBoundedAndNonDecreasing(t *testing.T) {
	b := DefaultBackoff()

	prev := time.Duration(0)
	for n := 1; n <= 40; n++ {
		d := b.Delay(n)
		assert.GreaterOrEqual(t, d, prev, "delay(%d) < delay(%d)", n, n-1)
		assert.LessOrEqual(t, d, b.Cap, "delay(%d) exceeds cap", n)
		// Jitter never grows a delay past 120% of its deterministic value,
		// so the doubling keeps the sequence monotone: use the deterministic
		// floor as the next comparison point.
		prev = Backoff{Base: b.Base, Cap: b.Cap}.Delay(n)
	}
}

func TestBackoff_FirstDelayNearBase(t *testing.T) {
	b := DefaultBackoff()
	d := b.Delay(1)
	assert.GreaterOrEqual(t, d, time.Second)
	assert.LessOrEqual(t, d, 1200*time.Millisecond)
}

func TestBackoff_HugeAttemptDoesNotOverflow(t *testing.T) {
	b := Backoff{Base: time.Second, Cap: 30 * time.Second}
	assert.Equal(t, 30*time.Second, b.Delay(500))
}

func TestBackoff_Exhausted(t *testing.T) {
	unlimited := Backoff{Base: time.Second, Cap: time.Minute}
	assert.False(t, unlimited.Exhausted(1000))

	limited := Backoff{Base: time.Second, Cap: time.Minute, MaxAttempts: 3}
	assert.False(t, limited.Exhausted(3))
	assert.True(t, limited.Exhausted(4))
}
