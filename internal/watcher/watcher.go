/*
Package watcher rebuilds the search index when the document directory
changes on disk.

Filesystem events are debounced so an editor save burst triggers one
rebuild. The rebuild happens off to the side and the new index is
swapped in atomically; a failed rebuild leaves the previous index
serving.
*/
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"log/slog"

	"github.com/fsnotify/fsnotify"

	"github.com/searchdock/searchdock/internal/chunker"
	"github.com/searchdock/searchdock/internal/ingest"
	"github.com/searchdock/searchdock/internal/search"
	"github.com/searchdock/searchdock/internal/store"
)

// debounceWindow is how long to wait after the last event before
// rebuilding.
const debounceWindow = 500 * time.Millisecond

// Watcher keeps an engine's index in sync with a document directory.
type Watcher struct {
	docsDir   string
	indexPath string
	params    chunker.Params
	engine    *search.Engine

	fsw *fsnotify.Watcher
}

// New creates a watcher over docsDir feeding the given engine. The
// rebuilt index is also persisted to indexPath; pass "" to skip
// persistence.
func New(docsDir string, indexPath string, params chunker.Params, engine *search.Engine) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem watcher: %w", err)
	}

	w := &Watcher{
		docsDir:   docsDir,
		indexPath: indexPath,
		params:    params,
		engine:    engine,
		fsw:       fsw,
	}

	if err := w.addRecursive(docsDir); err != nil {
		fsw.Close()
		return nil, err
	}

	return w, nil
}

// addRecursive registers docsDir and every subdirectory.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := w.fsw.Add(path); err != nil {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
		}
		return nil
	})
}

// Run blocks, rebuilding on changes, until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}

			// New directories must be watched too.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(event.Name); err != nil {
						slog.Warn("failed to watch new directory", "path", event.Name, "error", err)
					}
				}
			}

			slog.Debug("document change detected", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounceWindow)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("filesystem watcher error", "error", err)

		case <-timerC:
			timer = nil
			timerC = nil
			w.rebuild()
		}
	}
}

// relevant filters out events that cannot affect the index.
func relevant(event fsnotify.Event) bool {
	return event.Op.Has(fsnotify.Create) ||
		event.Op.Has(fsnotify.Write) ||
		event.Op.Has(fsnotify.Remove) ||
		event.Op.Has(fsnotify.Rename)
}

// rebuild reindexes the directory and swaps the result in. Failures are
// logged and the previous index keeps serving.
func (w *Watcher) rebuild() {
	start := time.Now()

	docs, err := ingest.LoadDir(w.docsDir)
	if err != nil {
		slog.Error("rebuild aborted: failed to load documents", "error", err)
		return
	}

	fingerprint, err := ingest.Fingerprint(w.docsDir)
	if err != nil {
		slog.Error("rebuild aborted: failed to fingerprint documents", "error", err)
		return
	}

	idx, err := search.Build(docs, fingerprint, w.params)
	if err != nil {
		slog.Error("rebuild aborted: failed to build index", "error", err)
		return
	}

	if err := w.engine.Swap(idx); err != nil {
		slog.Error("rebuild aborted: failed to install index", "error", err)
		return
	}

	slog.Info("index rebuilt",
		"documents", len(idx.Documents),
		"chunks", len(idx.Chunks),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	if w.indexPath == "" {
		return
	}
	if err := store.Save(idx, w.indexPath); err != nil {
		// Persistence failures degrade restart time, not serving.
		slog.Warn("failed to persist rebuilt index", "error", err)
	}
}
