package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/mpq/internal/queue"
	"github.com/desertthunder/mpq/internal/repositories"
	"github.com/desertthunder/mpq/internal/shared"
)

// StateStore persists named queue snapshots.
type StateStore interface {
	Save(ctx context.Context, name string, entries []queue.SavedEntry, current int) error
	Load(ctx context.Context, name string) ([]queue.SavedEntry, int, error)
}

// StateKeeper saves and restores the queue. Subscribed to the queue, it tracks whether
// the server's own state snapshot is behind.
type StateKeeper struct {
	loop   *Loop
	store  StateStore
	logger *log.Logger
	dirty  atomic.Bool
}

// NewStateKeeper creates a keeper. Subscribe it to the queue so it sees changes.
func NewStateKeeper(loop *Loop, store StateStore, logger *log.Logger) *StateKeeper {
	return &StateKeeper{loop: loop, store: store, logger: logger}
}

func (k *StateKeeper) OnQueueChanged(uint32) { k.dirty.Store(true) }

func (k *StateKeeper) OnEntryRemoved(uint32) {}

func (k *StateKeeper) OnCurrentChanged(uint32) { k.dirty.Store(true) }

// Dirty reports whether the queue changed since the state snapshot was last written.
func (k *StateKeeper) Dirty() bool { return k.dirty.Load() }

func snapshotName(name string) string {
	if name == "" {
		return repositories.StateSnapshot
	}
	return name
}

// Save writes the queue under name ("" for the server's own state) and returns the entry count.
func (k *StateKeeper) Save(ctx context.Context, name string) (int, error) {
	name = snapshotName(name)

	var (
		entries []queue.SavedEntry
		current int
	)
	err := k.loop.Do(ctx, func(q *queue.Queue) error {
		entries = q.Serialize()
		_, current = q.Current()
		if name == repositories.StateSnapshot {
			k.dirty.Store(false)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if err := k.store.Save(ctx, name, entries, current); err != nil {
		if name == repositories.StateSnapshot {
			k.dirty.Store(true)
		}
		return 0, err
	}

	k.logger.Debug("queue saved", "name", name, "entries", len(entries))
	return len(entries), nil
}

// Restore replaces the queue with the snapshot called name ("" for the server's own state)
// and returns the entry count.
func (k *StateKeeper) Restore(ctx context.Context, name string) (int, error) {
	name = snapshotName(name)

	entries, current, err := k.store.Load(ctx, name)
	if err != nil {
		return 0, err
	}

	err = k.loop.Do(ctx, func(q *queue.Queue) error {
		if err := q.Load(entries); err != nil {
			return err
		}
		if e, ok := q.At(current); ok {
			if err := q.SetCurrent(e.ID); err != nil {
				return err
			}
		}
		if name == repositories.StateSnapshot {
			k.dirty.Store(false)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	k.logger.Info("queue restored", "name", name, "entries", len(entries))
	return len(entries), nil
}

// RestoreOnStart restores the server's own state, treating a missing snapshot as an empty queue.
func (k *StateKeeper) RestoreOnStart(ctx context.Context) error {
	_, err := k.Restore(ctx, "")
	if errors.Is(err, shared.ErrNoSnapshot) {
		k.logger.Info("no saved queue state, starting empty")
		return nil
	}
	return err
}

// Flush saves the server's own state if it is behind.
func (k *StateKeeper) Flush(ctx context.Context) error {
	if !k.dirty.Load() {
		return nil
	}
	_, err := k.Save(ctx, "")
	return err
}

// Run flushes every interval until ctx is done. A zero interval only waits.
func (k *StateKeeper) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := k.Flush(ctx); err != nil {
				k.logger.Error("failed to save queue state", "error", err)
			}
		}
	}
}
