package server

import (
	"context"
	"sync"
	"time"

	"github.com/desertthunder/mpq/internal/metrics"
	"github.com/desertthunder/mpq/internal/queue"
)

// Broadcaster wakes long-poll waiters when the queue or its cursor changes. Subscribe it to the queue.
type Broadcaster struct {
	mu      sync.Mutex
	changed chan struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{changed: make(chan struct{})}
}

func (b *Broadcaster) OnQueueChanged(uint32) { b.wake() }

func (b *Broadcaster) OnCurrentChanged(uint32) { b.wake() }

func (b *Broadcaster) wake() {
	b.mu.Lock()
	defer b.mu.Unlock()
	close(b.changed)
	b.changed = make(chan struct{})
}

func (b *Broadcaster) OnEntryRemoved(uint32) {}

func (b *Broadcaster) wait() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.changed
}

// Wait blocks until the published version differs from version or the current entry differs
// from current, timeout passes or ctx ends, and returns the snapshot it saw last.
func (b *Broadcaster) Wait(ctx context.Context, view func() *queue.ChangeView, version, current uint32, timeout time.Duration) *queue.ChangeView {
	metrics.IdleWaiters.Inc()
	defer metrics.IdleWaiters.Dec()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		// Take the channel before reading the view so a change in between is not missed.
		changed := b.wait()
		v := view()
		if id, _ := v.Current(); v.Version() != version || id != current {
			return v
		}

		select {
		case <-changed:
		case <-timer.C:
			return view()
		case <-ctx.Done():
			return view()
		}
	}
}
