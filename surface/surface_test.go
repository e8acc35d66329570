// ABOUTME: Tests for theme resolution and TOML overlay merging.
// ABOUTME: Covers unknown themes, immutability of resolved copies, and partial overlays.

package surface

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_KnownThemes(t *testing.T) {
	for _, themeID := range []string{ThemeGeneral, ThemeAgentAuthor} {
		cfg, err := Resolve(themeID)
		require.NoError(t, err, "theme %s", themeID)
		assert.Equal(t, themeID, cfg.ThemeID)
		assert.NotEmpty(t, cfg.BoundAgentID)
		assert.NotEmpty(t, cfg.Labels.Title)
		assert.NotEmpty(t, cfg.StorageKeys.PinnedChannels)
	}
}

func TestResolve_UnknownTheme(t *testing.T) {
	_, err := Resolve("no-such-theme")
	assert.True(t, errors.Is(err, ErrUnknownTheme))
}

func TestResolve_ReturnsIndependentCopies(t *testing.T) {
	a, err := Resolve(ThemeGeneral)
	require.NoError(t, err)

	a.Labels.Title = "mutated"

	b, err := Resolve(ThemeGeneral)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", b.Labels.Title)
}

func TestResolve_SurfacesUseDistinctStorageKeys(t *testing.T) {
	general, err := Resolve(ThemeGeneral)
	require.NoError(t, err)
	author, err := Resolve(ThemeAgentAuthor)
	require.NoError(t, err)

	assert.NotEqual(t, general.StorageKeys.PinnedChannels, author.StorageKeys.PinnedChannels)
	assert.NotEqual(t, general.StorageKeys.LastChannel, author.StorageKeys.LastChannel)
}

func TestApplyOverlay_PartialOverride(t *testing.T) {
	before, err := Resolve(ThemeAgentAuthor)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "overlay.toml")
	overlay := `
["agent-author"]
bound_agent_id = "agent-author-v2"

["agent-author".labels]
title = "Builder"
`
	require.NoError(t, os.WriteFile(path, []byte(overlay), 0644))
	require.NoError(t, ApplyOverlay(path))

	// Restore built-ins for other tests
	t.Cleanup(func() {
		cfg := before
		builtins[ThemeAgentAuthor] = cfg
	})

	after, err := Resolve(ThemeAgentAuthor)
	require.NoError(t, err)
	assert.Equal(t, "agent-author-v2", after.BoundAgentID)
	assert.Equal(t, "Builder", after.Labels.Title)

	// Untouched fields keep their built-in values
	assert.Equal(t, before.Labels.Placeholder, after.Labels.Placeholder)
	assert.Equal(t, before.ResponseMessages.Generating, after.ResponseMessages.Generating)
}

func TestApplyOverlay_UnknownThemeRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay.toml")
	require.NoError(t, os.WriteFile(path, []byte("[mystery]\nbound_agent_id = \"x\"\n"), 0644))

	err := ApplyOverlay(path)
	assert.True(t, errors.Is(err, ErrUnknownTheme))
}

func TestThemes_ListsBuiltins(t *testing.T) {
	themes := Themes()
	assert.Contains(t, themes, ThemeGeneral)
	assert.Contains(t, themes, ThemeAgentAuthor)
}
