package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/mpq/internal/models"
	"github.com/desertthunder/mpq/internal/queue"
	"github.com/desertthunder/mpq/internal/repositories"
	"github.com/desertthunder/mpq/internal/shared"
)

type savedState struct {
	entries []queue.SavedEntry
	current int
}

// memoryStore is an in-memory [StateStore].
type memoryStore struct {
	mu    sync.Mutex
	saved map[string]savedState
	saves int
	err   error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{saved: map[string]savedState{}}
}

func (s *memoryStore) Save(ctx context.Context, name string, entries []queue.SavedEntry, current int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saves++
	s.saved[name] = savedState{entries: entries, current: current}
	return nil
}

func (s *memoryStore) Load(ctx context.Context, name string) ([]queue.SavedEntry, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.saved[name]
	if !ok {
		return nil, 0, shared.ErrNoSnapshot
	}
	return st.entries, st.current, nil
}

func (s *memoryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func newTestKeeper(t *testing.T, store StateStore) (*StateKeeper, *Loop) {
	t.Helper()
	l, q := startLoop(t, queue.Options{})
	k := NewStateKeeper(l, store, testLogger())
	if err := l.Do(context.Background(), func(*queue.Queue) error {
		q.Subscribe(k)
		return nil
	}); err != nil {
		t.Fatalf("failed to subscribe: %v", err)
	}
	return k, l
}

func appendURIs(t *testing.T, l *Loop, uris ...string) {
	t.Helper()
	err := l.Do(context.Background(), func(q *queue.Queue) error {
		for _, uri := range uris {
			if _, err := q.Append(&models.Track{URI: uri}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to append: %v", err)
	}
}

func TestStateKeeper(t *testing.T) {
	ctx := context.Background()

	t.Run("save and restore", func(t *testing.T) {
		store := newMemoryStore()
		k, l := newTestKeeper(t, store)
		appendURIs(t, l, "a", "b", "c")
		if err := l.Do(ctx, func(q *queue.Queue) error {
			if err := q.SetPriorityID(2, 7); err != nil {
				return err
			}
			return q.SetCurrent(2)
		}); err != nil {
			t.Fatalf("failed to edit: %v", err)
		}

		n, err := k.Save(ctx, "party")
		if err != nil || n != 3 {
			t.Fatalf("expected 3 saved entries, got %d (%v)", n, err)
		}
		if !k.Dirty() {
			t.Error("named saves should not clear the dirty flag")
		}

		if err := l.Do(ctx, func(q *queue.Queue) error { q.Clear(); return nil }); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}
		if n, err := k.Restore(ctx, "party"); err != nil || n != 3 {
			t.Fatalf("expected 3 restored entries, got %d (%v)", n, err)
		}

		v := l.View()
		if got := viewURIs(v); !sameStrings(got, []string{"a", "b", "c"}) {
			t.Errorf("unexpected content %v", got)
		}
		e, _ := v.At(1)
		if e.Priority != 7 {
			t.Errorf("expected priority 7, got %d", e.Priority)
		}
		if id, pos := v.Current(); pos != 1 || id != e.ID {
			t.Errorf("expected current at 1, got id %d pos %d", id, pos)
		}
		if e.ID <= 3 {
			t.Errorf("restored entries should get fresh ids, got %d", e.ID)
		}
	})

	t.Run("missing snapshot", func(t *testing.T) {
		k, _ := newTestKeeper(t, newMemoryStore())
		if _, err := k.Restore(ctx, "nope"); !errors.Is(err, shared.ErrNoSnapshot) {
			t.Errorf("expected ErrNoSnapshot, got %v", err)
		}
		if err := k.RestoreOnStart(ctx); err != nil {
			t.Errorf("missing state should start empty, got %v", err)
		}
	})

	t.Run("flush only when dirty", func(t *testing.T) {
		store := newMemoryStore()
		k, l := newTestKeeper(t, store)

		if err := k.Flush(ctx); err != nil || store.count() != 0 {
			t.Fatalf("clean flush saved: %d (%v)", store.count(), err)
		}
		appendURIs(t, l, "a")
		if !k.Dirty() {
			t.Fatal("change did not mark the state dirty")
		}
		if err := k.Flush(ctx); err != nil {
			t.Fatalf("failed to flush: %v", err)
		}
		if store.count() != 1 || k.Dirty() {
			t.Errorf("expected one save and a clean state, got %d saves", store.count())
		}
		if _, ok := store.saved[repositories.StateSnapshot]; !ok {
			t.Error("flush did not write the state snapshot")
		}
		if err := k.Flush(ctx); err != nil || store.count() != 1 {
			t.Errorf("second flush saved again: %d (%v)", store.count(), err)
		}

		if err := l.Do(ctx, func(q *queue.Queue) error { return q.SetCurrent(1) }); err != nil {
			t.Fatalf("failed to set current: %v", err)
		}
		if !k.Dirty() {
			t.Error("cursor change did not mark the state dirty")
		}
	})

	t.Run("failed save stays dirty", func(t *testing.T) {
		store := newMemoryStore()
		store.err = errors.New("disk full")
		k, l := newTestKeeper(t, store)
		appendURIs(t, l, "a")

		if err := k.Flush(ctx); err == nil {
			t.Fatal("expected an error")
		}
		if !k.Dirty() {
			t.Error("failed save cleared the dirty flag")
		}
	})

	t.Run("periodic save", func(t *testing.T) {
		store := newMemoryStore()
		k, l := newTestKeeper(t, store)
		appendURIs(t, l, "a")

		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			k.Run(runCtx, 5*time.Millisecond)
		}()

		deadline := time.Now().Add(2 * time.Second)
		for store.count() == 0 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		cancel()
		<-done

		if store.count() == 0 {
			t.Error("periodic save never ran")
		}
	})
}

func TestStateKeeperWithRepository(t *testing.T) {
	ctx := context.Background()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	k, l := newTestKeeper(t, repositories.NewQueueStateRepository(db))
	appendURIs(t, l, "x", "y")
	if err := k.Flush(ctx); err != nil {
		t.Fatalf("failed to flush: %v", err)
	}

	other, l2 := newTestKeeper(t, repositories.NewQueueStateRepository(db))
	if err := other.RestoreOnStart(ctx); err != nil {
		t.Fatalf("failed to restore: %v", err)
	}
	if got := viewURIs(l2.View()); !sameStrings(got, []string{"x", "y"}) {
		t.Errorf("expected [x y], got %v", got)
	}
}
