package session

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch observes the credential file backing store and reloads the Manager
// when another process writes or removes it. This keeps concurrent ansuz
// processes (gateway, CLI) agreeing on the session, the way browser tabs
// agree through storage events.
//
// Events are debounced because editors and atomic renames produce bursts.
// Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, m *Manager, store *FileStore, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch the parent directory: the file itself may not exist yet, and
	// atomic renames replace the inode.
	dir := filepath.Dir(store.Path())
	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("session watcher: started", slog.String("path", store.Path()))

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(200 * time.Millisecond)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("session watcher: stopped")
			return nil

		case <-reloadCh:
			m.Reload()
			logger.Debug("session watcher: credential reloaded")

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Name != store.Path() {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				scheduleReload()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("session watcher: error", slog.String("error", err.Error()))
		}
	}
}
