// ABOUTME: Tests for the SQLite preferences store.
// ABOUTME: Covers round-trips, documented defaults, typed helpers, and persistence across reopen.

package prefs

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := testContext(t)

	require.NoError(t, s.Set(ctx, "chat.general.last_channel", "chan-42"))

	got, err := s.Get(ctx, "chat.general.last_channel")
	require.NoError(t, err)
	assert.Equal(t, "chan-42", got)
}

func TestStore_GetUnsetKey(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get(testContext(t), "never.written")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStore_GetDefault(t *testing.T) {
	s := openTestStore(t)
	ctx := testContext(t)

	got, err := s.GetDefault(ctx, "chat.general.layout", "standard")
	require.NoError(t, err)
	assert.Equal(t, "standard", got)

	require.NoError(t, s.Set(ctx, "chat.general.layout", "compact"))
	got, err = s.GetDefault(ctx, "chat.general.layout", "standard")
	require.NoError(t, err)
	assert.Equal(t, "compact", got)
}

func TestStore_SetOverwrites(t *testing.T) {
	s := openTestStore(t)
	ctx := testContext(t)

	require.NoError(t, s.Set(ctx, "k", "v1"))
	require.NoError(t, s.Set(ctx, "k", "v2"))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", got)
}

func TestStore_Delete(t *testing.T) {
	s := openTestStore(t)
	ctx := testContext(t)

	require.NoError(t, s.Set(ctx, "k", "v"))
	require.NoError(t, s.Delete(ctx, "k"))
	require.NoError(t, s.Delete(ctx, "k")) // absent keys are fine

	_, err := s.Get(ctx, "k")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStore_IntHelpers(t *testing.T) {
	s := openTestStore(t)
	ctx := testContext(t)

	width, err := s.GetInt(ctx, "chat.general.panel_width", 320)
	require.NoError(t, err)
	assert.Equal(t, 320, width)

	require.NoError(t, s.SetInt(ctx, "chat.general.panel_width", 480))
	width, err = s.GetInt(ctx, "chat.general.panel_width", 320)
	require.NoError(t, err)
	assert.Equal(t, 480, width)

	require.NoError(t, s.Set(ctx, "bad", "not-a-number"))
	_, err = s.GetInt(ctx, "bad", 0)
	assert.Error(t, err)
}

func TestStore_StringsHelpers(t *testing.T) {
	s := openTestStore(t)
	ctx := testContext(t)

	pinned, err := s.GetStrings(ctx, "chat.general.pinned")
	require.NoError(t, err)
	assert.Nil(t, pinned)

	require.NoError(t, s.SetStrings(ctx, "chat.general.pinned", []string{"a", "b"}))
	pinned, err = s.GetStrings(ctx, "chat.general.pinned")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, pinned)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")
	ctx := testContext(t)

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "k", "v"))
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestOpen_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "prefs.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(testContext(t), "k", "v"))
}
