package history

import "github.com/starford/schedulectx/internal/models"

// Log defines the revision store used by the service and watcher.
// Consumers should depend on this interface rather than the concrete *DB type.
type Log interface {
	Record(rev models.Revision) (int64, error)
	Latest() (*models.Revision, error)
	List(limit, offset int) ([]models.Revision, int, error)
	Close() error
}

// Verify *DB satisfies Log at compile time.
var _ Log = (*DB)(nil)
