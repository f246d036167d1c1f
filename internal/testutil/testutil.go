// Package testutil provides shared test helpers for schedule directories and databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/schedulectx/internal/history"
	"github.com/starford/schedulectx/internal/schedule"
	"github.com/starford/schedulectx/internal/storage"
)

// TestDB creates a temporary SQLite history database that is automatically cleaned up.
func TestDB(t *testing.T) *history.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "schedulectx-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := history.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestDir creates a temporary schedule directory with a storage.Provider.
func TestDir(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// WriteSchedule writes content to the schedule file in dir.
func WriteSchedule(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, schedule.FileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
