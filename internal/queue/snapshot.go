package queue

import (
	"fmt"

	"github.com/desertthunder/mpq/internal/models"
)

// SavedEntry is the persistent form of an entry. Ids and versions are not persisted.
type SavedEntry struct {
	Track    *models.Track
	Priority uint8
	Range    PlayRange
}

// Serialize returns the queue content in order, for state file saves.
func (q *Queue) Serialize() []SavedEntry {
	out := make([]SavedEntry, 0, len(q.entries))
	for _, e := range q.entries {
		out = append(out, SavedEntry{Track: e.Track, Priority: e.Priority, Range: e.Range})
	}
	return out
}

// Load replaces the queue content with saved as one bulk edit. Every entry gets a fresh id.
//
// Nothing is changed if any saved entry is invalid or the queue cannot hold them all.
func (q *Queue) Load(saved []SavedEntry) error {
	if len(saved) > q.maxLength {
		return fmt.Errorf("%w: %d entries exceed the max size of %d", ErrQueueFull, len(saved), q.maxLength)
	}
	if uint64(len(saved)) > q.alloc.remaining() {
		return fmt.Errorf("%w: id space exhausted", ErrQueueFull)
	}
	for i, s := range saved {
		if s.Track == nil {
			return fmt.Errorf("entry %d: %w", i, errNilTrack)
		}
		if !s.Range.Valid() {
			return fmt.Errorf("entry %d: %w", i, ErrInvalidRange)
		}
	}

	return q.Bulk(func() error {
		q.Clear()
		for _, s := range saved {
			id, err := q.Insert(s.Track, AtEnd)
			if err != nil {
				return err
			}
			pos, _ := q.ids.Lookup(id)
			q.entries[pos].Priority = s.Priority
			q.entries[pos].Range = s.Range
		}
		return nil
	})
}
