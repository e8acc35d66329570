// ABOUTME: Tests for the loading key registry.
// ABOUTME: Covers absence-means-idle, set/clear, snapshot isolation, and concurrency safety.

package loading

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_UnknownKeyIsIdle(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Get("chan-1:send"))
}

func TestRegistry_SetAndClear(t *testing.T) {
	r := NewRegistry()

	r.Set("chan-1:send", true)
	assert.True(t, r.Get("chan-1:send"))

	r.Set("chan-1:send", false)
	assert.False(t, r.Get("chan-1:send"))

	// Clearing removes the entry rather than storing false
	assert.Empty(t, r.Snapshot())
}

func TestRegistry_SnapshotIsACopy(t *testing.T) {
	r := NewRegistry()
	r.Set("a", true)
	r.Set("b", true)

	snap := r.Snapshot()
	assert.Len(t, snap, 2)

	// Mutating the snapshot must not affect the registry
	delete(snap, "a")
	assert.True(t, r.Get("a"))
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("chan-%d:send", n%5)
			r.Set(key, true)
			r.Get(key)
			r.Set(key, false)
		}(i)
	}
	wg.Wait()

	assert.Empty(t, r.Snapshot())
}
