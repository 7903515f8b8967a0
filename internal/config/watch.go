package config

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a Config from path whenever the file changes, notifying a
// callback with the freshly loaded Config. Editors tend to replace a file
// (rename over it) rather than write in place, so the watcher re-adds the
// watch after a Remove/Rename event, matching common fsnotify usage.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	log     *slog.Logger
}

// NewWatcher starts watching path for changes.
func NewWatcher(path string, log *slog.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(path); err != nil {
		_ = w.Close()
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{path: path, watcher: w, log: log}, nil
}

// Run blocks until ctx is cancelled, invoking onReload with a newly parsed
// Config each time path changes on disk. A reload that fails to parse is
// logged and skipped; the previous in-memory Config is left untouched by the
// caller.
func (w *Watcher) Run(ctx context.Context, onReload func(*Config)) {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.reload(onReload)
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				_ = w.watcher.Add(w.path)
				w.reload(onReload)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("config watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload(onReload func(*Config)) {
	cfg, err := Load(w.path)
	if err != nil {
		w.log.Warn("config reload failed, keeping previous configuration", "path", w.path, "error", err)
		return
	}
	onReload(cfg)
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
