package memory

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStore_UpdateSectionCreatesThenReplaces(t *testing.T) {
	store := NewStore(t.TempDir())
	cwd := filepath.Join(t.TempDir(), "project-a")

	require.NoError(t, store.UpdateSection(cwd, "Preferences", "Likes dark mode."))
	content, err := store.Load(cwd, 0)
	require.NoError(t, err)
	require.Contains(t, content, "## Preferences\nLikes dark mode.")

	require.NoError(t, store.UpdateSection(cwd, "Preferences", "Likes dark mode and tabs."))
	content, err = store.Load(cwd, 0)
	require.NoError(t, err)
	require.Contains(t, content, "Likes dark mode and tabs.")
	require.NotContains(t, content, "Likes dark mode.\n")
}

func TestStore_UpdateSectionIdempotent(t *testing.T) {
	store := NewStore(t.TempDir())
	cwd := filepath.Join(t.TempDir(), "project-b")

	require.NoError(t, store.UpdateSection(cwd, "Facts", "The repo uses Go 1.24."))
	require.NoError(t, store.UpdateSection(cwd, "Facts", "The repo uses Go 1.24."))

	first, err := store.Load(cwd, 0)
	require.NoError(t, err)
	require.NoError(t, store.UpdateSection(cwd, "Facts", "The repo uses Go 1.24."))
	second, err := store.Load(cwd, 0)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestStore_UpdateSectionPreservesOtherSections(t *testing.T) {
	store := NewStore(t.TempDir())
	cwd := filepath.Join(t.TempDir(), "project-c")

	require.NoError(t, store.UpdateSection(cwd, "Alpha", "alpha content"))
	require.NoError(t, store.UpdateSection(cwd, "Beta", "beta content"))
	require.NoError(t, store.UpdateSection(cwd, "Alpha", "alpha updated"))

	content, err := store.Load(cwd, 0)
	require.NoError(t, err)
	require.Contains(t, content, "## Alpha\nalpha updated")
	require.Contains(t, content, "## Beta\nbeta content")
}

func TestStore_LoadMissingFileReturnsEmpty(t *testing.T) {
	store := NewStore(t.TempDir())
	content, err := store.Load(filepath.Join(t.TempDir(), "never-written"), 100)
	require.NoError(t, err)
	require.Equal(t, "", content)
}

func TestStore_LoadTruncatesLongFiles(t *testing.T) {
	store := NewStore(t.TempDir())
	cwd := filepath.Join(t.TempDir(), "project-d")

	require.NoError(t, store.Save(cwd, "line1\nline2\nline3\nline4\nline5", false))
	content, err := store.Load(cwd, 2)
	require.NoError(t, err)
	require.Contains(t, content, "line1\nline2\n")
	require.Contains(t, content, "truncated")
}

func TestStore_SaveAppendInsertsBlankLine(t *testing.T) {
	store := NewStore(t.TempDir())
	cwd := filepath.Join(t.TempDir(), "project-e")

	require.NoError(t, store.Save(cwd, "first entry", false))
	require.NoError(t, store.Save(cwd, "second entry", true))

	content, err := store.Load(cwd, 0)
	require.NoError(t, err)
	require.Equal(t, "first entry\n\nsecond entry", content)
}

func TestStore_ClearReportsExistence(t *testing.T) {
	store := NewStore(t.TempDir())
	cwd := filepath.Join(t.TempDir(), "project-f")

	existed, err := store.Clear(cwd)
	require.NoError(t, err)
	require.False(t, existed)

	require.NoError(t, store.Save(cwd, "something", false))
	existed, err = store.Clear(cwd)
	require.NoError(t, err)
	require.True(t, existed)

	content, err := store.Load(cwd, 0)
	require.NoError(t, err)
	require.Equal(t, "", content)
}
