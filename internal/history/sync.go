package history

import (
	"errors"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/schedulectx/internal/models"
	"github.com/starford/schedulectx/internal/schedule"
	"github.com/starford/schedulectx/internal/storage"
)

// observeMu makes the Latest → Record sequence in Observe atomic between the
// watcher and service-initiated updates.
var observeMu sync.Mutex

// Observe compares the schedule file on disk with the latest recorded
// revision and records a new one when they differ:
//   - file appeared (first time or after a delete) → created
//   - checksum changed → updated
//   - file vanished → deleted
//
// It returns the recorded revision, or nil when nothing changed.
func Observe(db Log, store storage.Provider) (*models.Revision, error) {
	observeMu.Lock()
	defer observeMu.Unlock()

	latest, err := db.Latest()
	if err != nil {
		return nil, err
	}
	live := latest != nil && latest.Kind != models.RevisionDeleted

	var rev models.Revision
	meta, err := store.Stat(schedule.FileName)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if !live {
			return nil, nil
		}
		rev.Kind = models.RevisionDeleted
	case err != nil:
		return nil, err
	default:
		if live && latest.Checksum == meta.Checksum {
			return nil, nil
		}
		rev.Kind = models.RevisionUpdated
		if !live {
			rev.Kind = models.RevisionCreated
		}
		rev.Checksum = meta.Checksum
		rev.Size = meta.Size
	}

	rev.ObservedAt = time.Now().UTC()
	id, err := db.Record(rev)
	if err != nil {
		return nil, err
	}
	rev.ID = id
	return &rev, nil
}

// Sync records the current schedule state once, typically at startup.
func Sync(db Log, store storage.Provider, logger *slog.Logger) error {
	rev, err := Observe(db, store)
	if err != nil {
		return err
	}
	if rev != nil {
		logger.Info("history: recorded revision",
			slog.String("kind", rev.Kind),
			slog.String("checksum", rev.Checksum))
	} else {
		logger.Debug("history: schedule unchanged")
	}
	return nil
}
