// ABOUTME: SnapshotWatcher reloads the snapshot when the catalog file changes
// ABOUTME: fsnotify events are debounced so a burst of writes triggers one reload
package core

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce is the quiet period before a reload fires
const DefaultWatchDebounce = 2 * time.Second

// SnapshotWatcher watches a catalog file and calls reload after changes settle
type SnapshotWatcher struct {
	path     string
	debounce time.Duration
	reload   func(context.Context) error
}

// NewSnapshotWatcher creates a watcher for path
func NewSnapshotWatcher(path string, debounce time.Duration, reload func(context.Context) error) *SnapshotWatcher {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	return &SnapshotWatcher{path: path, debounce: debounce, reload: reload}
}

// Run blocks until ctx is cancelled.
// The parent directory is watched so SQLite's -wal and -journal files count too.
func (w *SnapshotWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	log.Printf("[Watcher] Watching %s (debounce: %s)", w.path, w.debounce)

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.debounce, func() {
			if ctx.Err() != nil {
				return
			}
			if err := w.reload(ctx); err != nil {
				log.Printf("[Watcher] Reload failed: %v", err)
				return
			}
			log.Printf("[Watcher] Snapshot reloaded after change to %s", filepath.Base(w.path))
		})
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if w.relevant(event) {
				trigger()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("[Watcher] Error: %v", err)
		}
	}
}

func (w *SnapshotWatcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	return strings.HasPrefix(filepath.Base(event.Name), filepath.Base(w.path))
}
