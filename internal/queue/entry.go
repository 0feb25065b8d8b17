package queue

import (
	"time"

	"github.com/desertthunder/mpq/internal/models"
)

// PlayRange limits playback of one queued instance to [Start, End) of its track.
// A zero End plays to the end of the track.
type PlayRange struct {
	Start time.Duration
	End   time.Duration
}

// NewPlayRange truncates both offsets to whole milliseconds.
func NewPlayRange(start, end time.Duration) PlayRange {
	return PlayRange{Start: start.Truncate(time.Millisecond), End: end.Truncate(time.Millisecond)}
}

// IsZero reports whether the range covers the whole track.
func (r PlayRange) IsZero() bool {
	return r.Start == 0 && r.End == 0
}

// Valid reports whether both offsets are non-negative and End is zero or after Start.
func (r PlayRange) Valid() bool {
	if r.Start < 0 || r.End < 0 {
		return false
	}
	return r.End == 0 || r.End > r.Start
}

// Entry is one queued track reference plus its queue-local metadata.
type Entry struct {
	ID       uint32
	Track    *models.Track
	Priority uint8
	// Version is the queue version at which this entry was created or last changed.
	Version uint32
	Range   PlayRange
}

// Item converts the entry at pos to its wire form.
func (e Entry) Item(pos int) models.QueueItem {
	item := models.QueueItem{
		Position: pos,
		ID:       e.ID,
		Priority: e.Priority,
		Version:  e.Version,
		Track:    e.Track,
	}
	if !e.Range.IsZero() {
		item.Range = &models.PlayRange{
			StartMS: e.Range.Start.Milliseconds(),
			EndMS:   e.Range.End.Milliseconds(),
		}
	}
	return item
}
