// ABOUTME: Test helper providing a per-test context.
// ABOUTME: Mirrors t.Context semantics for toolchains without it.

package engine

import (
	"context"
	"testing"
)

// testContext returns a context canceled when the test ends,
// matching the behaviour of testing.T.Context.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
