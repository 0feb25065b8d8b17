package metrics

import (
	"context"
	"time"

	"github.com/desertthunder/mpq/internal/queue"
	"github.com/desertthunder/mpq/internal/tasks"
)

// QueueObserver keeps the queue gauges current. Subscribe it to the queue.
type QueueObserver struct {
	view func() *queue.ChangeView
}

// NewQueueObserver creates an observer reading published snapshots from view.
func NewQueueObserver(view func() *queue.ChangeView) *QueueObserver {
	o := &QueueObserver{view: view}
	o.update()
	return o
}

func (o *QueueObserver) update() {
	v := o.view()
	QueueLength.Set(float64(v.Len()))
	QueueVersion.Set(float64(v.Version()))
	QueueEpoch.Set(float64(v.Epoch()))
}

func (o *QueueObserver) OnQueueChanged(uint32) {
	QueueChangesTotal.Inc()
	o.update()
}

func (o *QueueObserver) OnEntryRemoved(uint32) {
	QueueEntriesRemovedTotal.Inc()
}

// instrumentedStore counts saves and loads of the wrapped store.
type instrumentedStore struct {
	next tasks.StateStore
}

// InstrumentStateStore wraps store so every save and load is counted.
func InstrumentStateStore(store tasks.StateStore) tasks.StateStore {
	return &instrumentedStore{next: store}
}

func (s *instrumentedStore) Save(ctx context.Context, name string, entries []queue.SavedEntry, current int) error {
	err := s.next.Save(ctx, name, entries, current)
	StateSavesTotal.WithLabelValues(status(err)).Inc()
	if err == nil {
		StateLastSaveTimestamp.Set(float64(time.Now().Unix()))
	}
	return err
}

func (s *instrumentedStore) Load(ctx context.Context, name string) ([]queue.SavedEntry, int, error) {
	entries, current, err := s.next.Load(ctx, name)
	StateLoadsTotal.WithLabelValues(status(err)).Inc()
	return entries, current, err
}
