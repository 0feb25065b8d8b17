package queue

import (
	"fmt"
	"slices"
	"time"

	"github.com/desertthunder/mpq/internal/models"
)

// Insert adds track at position at ([AtEnd] appends) and returns the new entry's id.
func (q *Queue) Insert(track *models.Track, at int) (uint32, error) {
	if track == nil {
		return 0, errNilTrack
	}

	n := len(q.entries)
	if at == AtEnd {
		at = n
	}
	if at < 0 || at > n {
		return 0, fmt.Errorf("%w: %d (queue length %d)", ErrInvalidPosition, at, n)
	}
	if n >= q.maxLength {
		return 0, fmt.Errorf("%w: queue is at the max size of %d", ErrQueueFull, q.maxLength)
	}

	id, err := q.alloc.take()
	if err != nil {
		return 0, err
	}

	v := q.bump()
	q.entries = slices.Insert(q.entries, at, Entry{ID: id, Track: track, Version: v})
	q.reindex(at, n+1)
	if at < n {
		q.log.add(v, at+1, ToEnd)
	}

	q.commit()
	return id, nil
}

// Append is Insert at [AtEnd].
func (q *Queue) Append(track *models.Track) (uint32, error) {
	return q.Insert(track, AtEnd)
}

// DeleteRange removes positions [start, end). end may be [ToEnd] or past the tail.
func (q *Queue) DeleteRange(start, end int) error {
	n := len(q.entries)
	if end == ToEnd || end > n {
		end = n
	}
	if start < 0 || start >= n || start > end {
		return fmt.Errorf("%w: %d:%d (queue length %d)", ErrOutOfRange, start, end, n)
	}
	if start == end {
		return nil
	}

	gone := make([]uint32, 0, end-start)
	for _, e := range q.entries[start:end] {
		gone = append(gone, e.ID)
		q.ids.Remove(e.ID)
		if e.ID == q.current {
			q.current = 0
			q.moved = true
		}
	}

	q.entries = slices.Delete(q.entries, start, end)
	q.reindex(start, len(q.entries))

	v := q.bump()
	q.log.add(v, start, ToEnd)

	q.removed(gone)
	q.commit()
	return nil
}

// DeleteID removes the entry with the given id.
func (q *Queue) DeleteID(id uint32) error {
	pos, ok := q.ids.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoSuchID, id)
	}
	return q.DeleteRange(pos, pos+1)
}

// MoveRange relocates [start, end) so the block begins at dest.
//
// A negative dest is relative to the current entry: -1 places the block right after it.
// A dest inside [start, end), or a current entry inside the block for a relative dest,
// overlaps the source and is a silent no-op.
func (q *Queue) MoveRange(start, end, dest int) error {
	n := len(q.entries)
	if end == ToEnd {
		end = n
	}
	if start < 0 || start >= end || end > n {
		return fmt.Errorf("%w: %d:%d (queue length %d)", ErrOutOfRange, start, end, n)
	}
	count := end - start

	if start <= dest && dest < end {
		return nil
	}
	if dest < 0 {
		_, cur := q.Current()
		if cur < 0 {
			return fmt.Errorf("%w: no current song to move relative to", ErrOutOfRange)
		}
		if start <= cur && cur < end {
			return nil
		}
		dest = (cur - dest) % n
		if start < dest {
			dest -= count
		}
	}
	if dest < 0 || dest+count > n {
		return fmt.Errorf("%w: destination %d", ErrOutOfRange, dest)
	}
	if dest == start {
		return nil
	}

	block := slices.Clone(q.entries[start:end])
	q.entries = slices.Delete(q.entries, start, end)
	q.entries = slices.Insert(q.entries, dest, block...)

	lo, hi := min(start, dest), max(end, dest+count)
	q.reindex(lo, hi)

	v := q.bump()
	q.log.add(v, lo, hi)

	q.commit()
	return nil
}

// MoveID relocates a single entry; dest follows [Queue.MoveRange] semantics.
func (q *Queue) MoveID(id uint32, dest int) error {
	pos, ok := q.ids.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoSuchID, id)
	}
	return q.MoveRange(pos, pos+1, dest)
}

// SwapPositions exchanges the entries at p1 and p2.
func (q *Queue) SwapPositions(p1, p2 int) error {
	n := len(q.entries)
	if p1 < 0 || p1 >= n || p2 < 0 || p2 >= n {
		return fmt.Errorf("%w: %d, %d (queue length %d)", ErrOutOfRange, p1, p2, n)
	}
	if p1 == p2 {
		return nil
	}

	q.entries[p1], q.entries[p2] = q.entries[p2], q.entries[p1]
	q.ids.Set(q.entries[p1].ID, p1)
	q.ids.Set(q.entries[p2].ID, p2)

	v := q.bump()
	q.log.add(v, p1, p1+1)
	q.log.add(v, p2, p2+1)

	q.commit()
	return nil
}

// SwapIDs exchanges the positions of two entries.
func (q *Queue) SwapIDs(id1, id2 uint32) error {
	p1, ok := q.ids.Lookup(id1)
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoSuchID, id1)
	}
	p2, ok := q.ids.Lookup(id2)
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoSuchID, id2)
	}
	return q.SwapPositions(p1, p2)
}

func checkPriority(priority int) error {
	if priority < 0 || priority > 255 {
		return fmt.Errorf("%w: priority %d outside 0..255", ErrInvalidRange, priority)
	}
	return nil
}

// SetPriorityRange sets the priority of every entry in [start, end).
func (q *Queue) SetPriorityRange(start, end, priority int) error {
	return q.SetPriorityRanges([]Range{{Start: start, End: end}}, priority)
}

// SetPriorityRanges applies one priority to several ranges. All ranges are validated before any is changed.
//
// Only entries whose priority actually changes get a new version.
func (q *Queue) SetPriorityRanges(ranges []Range, priority int) error {
	if err := checkPriority(priority); err != nil {
		return err
	}

	resolved := make([]Range, 0, len(ranges))
	for _, r := range ranges {
		c, ok := q.clampRange(r)
		if !ok {
			return fmt.Errorf("%w: %d:%d (queue length %d)", ErrOutOfRange, r.Start, r.End, len(q.entries))
		}
		resolved = append(resolved, c)
	}

	positions := make([]int, 0)
	for _, r := range resolved {
		for p := r.Start; p < r.End; p++ {
			positions = append(positions, p)
		}
	}
	q.reprioritize(positions, uint8(priority))
	return nil
}

// SetPriorityID sets the priority of a single entry.
func (q *Queue) SetPriorityID(id uint32, priority int) error {
	return q.SetPriorityIDs([]uint32{id}, priority)
}

// SetPriorityIDs applies one priority to several entries. Every id must exist.
func (q *Queue) SetPriorityIDs(ids []uint32, priority int) error {
	if err := checkPriority(priority); err != nil {
		return err
	}

	positions := make([]int, 0, len(ids))
	for _, id := range ids {
		pos, ok := q.ids.Lookup(id)
		if !ok {
			return fmt.Errorf("%w: %d", ErrNoSuchID, id)
		}
		positions = append(positions, pos)
	}
	q.reprioritize(positions, uint8(priority))
	return nil
}

func (q *Queue) reprioritize(positions []int, priority uint8) {
	changed := make([]int, 0, len(positions))
	for _, p := range positions {
		if q.entries[p].Priority != priority {
			changed = append(changed, p)
		}
	}
	if len(changed) == 0 {
		return
	}

	v := q.bump()
	for _, p := range changed {
		q.entries[p].Priority = priority
		q.entries[p].Version = v
	}
	q.commit()
}

// Clear removes every entry. The id allocator is not reset.
func (q *Queue) Clear() {
	gone := make([]uint32, 0, len(q.entries))
	for _, e := range q.entries {
		gone = append(gone, e.ID)
	}

	clear(q.entries)
	q.entries = q.entries[:0]
	q.ids.Clear()
	if q.current != 0 {
		q.current = 0
		q.moved = true
	}

	v := q.bump()
	q.log.reset(v)

	q.removed(gone)
	q.commit()
}

// SetPlayRange restricts playback of id to [start, end). A zero end plays to the end, a zero range clears it.
func (q *Queue) SetPlayRange(id uint32, start, end time.Duration) error {
	r := NewPlayRange(start, end)
	if !r.Valid() {
		return fmt.Errorf("%w: %s:%s", ErrInvalidRange, start, end)
	}
	pos, ok := q.ids.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoSuchID, id)
	}

	v := q.bump()
	q.entries[pos].Range = r
	q.entries[pos].Version = v

	q.commit()
	return nil
}
