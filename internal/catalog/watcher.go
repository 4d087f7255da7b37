package catalog

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch runs an fsnotify watcher on the catalog directory until ctx is
// cancelled, resetting the cached index whenever index.json changes on
// disk. Version documents are immutable and need no invalidation.
func (c *Cached) Watch(ctx context.Context, dir string, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("catalog watcher started", "dir", dir)

	for {
		select {
		case <-ctx.Done():
			logger.Info("catalog watcher stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != indexFile {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			c.Reset()
			logger.Debug("catalog index cache reset", "op", ev.Op.String())

		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("catalog watcher error", "error", werr)
		}
	}
}
