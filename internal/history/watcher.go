package history

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/schedulectx/internal/models"
	"github.com/starford/schedulectx/internal/schedule"
	"github.com/starford/schedulectx/internal/storage"
)

// debounce collapses editor save bursts (truncate, write, rename) into one
// observation.
const debounce = 150 * time.Millisecond

// EventCallback is called after a watcher-driven revision was recorded.
type EventCallback func(rev models.Revision)

// Watch starts an fsnotify watcher on dir and records schedule revisions
// until ctx is cancelled. The directory is watched rather than the file so
// that atomic replaces and re-creations are seen.
func Watch(ctx context.Context, db Log, store storage.Provider, dir string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("dir", dir), slog.String("file", schedule.FileName))

	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			timer, timerCh = nil, nil
			rev, obsErr := Observe(db, store)
			if obsErr != nil {
				logger.Warn("watcher: observe failed", slog.String("error", obsErr.Error()))
				continue
			}
			if rev == nil {
				continue
			}
			logger.Debug("watcher: recorded",
				slog.String("kind", rev.Kind),
				slog.String("checksum", rev.Checksum))
			if cb != nil {
				cb(*rev)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != schedule.FileName || storage.IsTemp(ev.Name) {
				continue
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerCh = timer.C
			} else {
				timer.Reset(debounce)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
