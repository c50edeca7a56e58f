package watcher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/searchdock/searchdock/internal/chunker"
	"github.com/searchdock/searchdock/internal/search"
	"github.com/searchdock/searchdock/internal/store"
)

func TestRelevantEvents(t *testing.T) {
	assert.True(t, relevant(fsnotify.Event{Op: fsnotify.Create}))
	assert.True(t, relevant(fsnotify.Event{Op: fsnotify.Write}))
	assert.True(t, relevant(fsnotify.Event{Op: fsnotify.Remove}))
	assert.True(t, relevant(fsnotify.Event{Op: fsnotify.Rename}))
	assert.False(t, relevant(fsnotify.Event{Op: fsnotify.Chmod}))
}

func TestNewMissingDirectory(t *testing.T) {
	engine := search.NewEngine(search.BackendNative, 5, 50)

	_, err := New(filepath.Join(t.TempDir(), "nope"), "", chunker.DefaultParams(), engine)
	assert.Error(t, err)
}

func TestRebuildSwapsIndex(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("# Alpha\n\ninsulin therapy notes"), 0644))

	engine := search.NewEngine(search.BackendNative, 5, 50)
	indexPath := filepath.Join(t.TempDir(), "index.json")

	w, err := New(dir, indexPath, chunker.DefaultParams(), engine)
	require.NoError(t, err)
	defer w.fsw.Close()

	w.rebuild()

	status := engine.Status()
	assert.True(t, status.IndexLoaded)
	assert.Equal(t, 1, status.Documents)

	// The rebuilt index is also persisted.
	idx, err := store.Load(indexPath)
	require.NoError(t, err)
	assert.Len(t, idx.Documents, 1)
}

func TestRebuildPicksUpChanges(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("original topic"), 0644))

	engine := search.NewEngine(search.BackendNative, 5, 50)
	w, err := New(dir, "", chunker.DefaultParams(), engine)
	require.NoError(t, err)
	defer w.fsw.Close()

	w.rebuild()

	result, err := engine.Search("original", 0)
	require.NoError(t, err)
	require.Len(t, result.Matches, 1)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("replacement topic"), 0644))
	w.rebuild()

	result, err = engine.Search("original", 0)
	require.NoError(t, err)
	assert.Empty(t, result.Matches)

	result, err = engine.Search("replacement", 0)
	require.NoError(t, err)
	assert.Len(t, result.Matches, 1)
}

func TestRebuildFailureKeepsServing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("stable content"), 0644))

	engine := search.NewEngine(search.BackendNative, 5, 50)
	w, err := New(dir, "", chunker.DefaultParams(), engine)
	require.NoError(t, err)
	defer w.fsw.Close()

	w.rebuild()
	require.True(t, engine.Status().IndexLoaded)

	// A vanished directory aborts the rebuild; the old index survives.
	w.docsDir = filepath.Join(dir, "gone")
	w.rebuild()

	result, err := engine.Search("stable", 0)
	require.NoError(t, err)
	assert.Len(t, result.Matches, 1)
}
