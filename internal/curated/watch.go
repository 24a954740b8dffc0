package curated

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"studyqa/internal/contextutil"
)

// Watch reloads the external entries whenever the curated file is written,
// created, renamed or removed. It watches the parent directory so editors
// that replace the file atomically are picked up. Watch blocks until ctx is
// done.
func (m *Matcher) Watch(ctx context.Context) error {
	if m.path == "" {
		return nil
	}
	logger := contextutil.LoggerFromContext(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	dir := filepath.Dir(m.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	logger.InfoContext(ctx, "watching curated file", "path", m.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !m.handleEvent(ev) {
				continue
			}
			count, err := m.Reload()
			if err != nil {
				logger.WarnContext(ctx, "failed to reload curated entries", "path", m.path, "error", err)
				continue
			}
			logger.InfoContext(ctx, "reloaded curated entries", "path", m.path, "count", count)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.WarnContext(ctx, "curated watcher error", "error", err)
		}
	}
}

// handleEvent reports whether ev concerns the curated file and changes its content.
func (m *Matcher) handleEvent(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != filepath.Clean(m.path) {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove)
}
