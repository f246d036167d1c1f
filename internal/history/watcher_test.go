package history

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/schedulectx/internal/models"
	"github.com/starford/schedulectx/internal/schedule"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatcher_RecordsLifecycle(t *testing.T) {
	db := testDB(t)
	dir, store := testStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var kinds []string

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Watch(ctx, db, store, dir, quietLogger(), func(rev models.Revision) {
			mu.Lock()
			kinds = append(kinds, rev.Kind)
			mu.Unlock()
		})
	}()

	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, schedule.FileName)
	_ = os.WriteFile(path, []byte("Game 1: Mon vs Rivals"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		rev, _ := db.Latest()
		return rev != nil && rev.Kind == models.RevisionCreated
	}, "created revision not recorded")

	_ = os.WriteFile(path, []byte("Game 1: Mon vs Rivals\nGame 2: Thu @ Hawks"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		rev, _ := db.Latest()
		return rev != nil && rev.Kind == models.RevisionUpdated
	}, "updated revision not recorded")

	_ = os.Remove(path)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		rev, _ := db.Latest()
		return rev != nil && rev.Kind == models.RevisionDeleted
	}, "deleted revision not recorded")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(kinds) >= 3
	}, "callback not invoked for every revision")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	db := testDB(t)
	dir, store := testStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, db, store, dir, quietLogger(), nil)

	time.Sleep(100 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(dir, "notes.md"), []byte("unrelated"), 0o644)
	time.Sleep(400 * time.Millisecond)

	if rev, _ := db.Latest(); rev != nil {
		t.Errorf("unrelated file recorded revision %+v", rev)
	}
}
