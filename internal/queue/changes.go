package queue

import (
	"slices"

	"github.com/desertthunder/mpq/internal/models"
)

// structChange records positions [lo, hi) that were disturbed at version without
// their entries' versions changing (shifts, moves, swaps, shuffles).
type structChange struct {
	version uint32
	lo, hi  int
}

// changeLog is a bounded history of structural changes.
// floor is the newest version that can no longer be diffed against.
type changeLog struct {
	floor   uint32
	limit   int
	records []structChange
}

func (l *changeLog) add(version uint32, lo, hi int) {
	if len(l.records) >= l.limit {
		drop := len(l.records) - l.limit + 1
		l.floor = l.records[drop-1].version
		l.records = append(l.records[:0], l.records[drop:]...)
	}
	l.records = append(l.records, structChange{version: version, lo: lo, hi: hi})
}

func (l *changeLog) reset(floor uint32) {
	l.floor = floor
	l.records = l.records[:0]
}

func (l *changeLog) snapshot() []structChange {
	return slices.Clone(l.records)
}

// Change is an entry together with its position in the snapshot.
type Change struct {
	Position int
	Entry    Entry
}

// Slot is the id-only form of a [Change].
type Slot struct {
	Position int
	ID       uint32
	Version  uint32
}

// Diff is the result of a change query. Full means the client's baseline was unreachable:
// Items is then the whole requested range and the client must discard its mirror.
type Diff[T any] struct {
	Full  bool
	Items []T
}

// ChangeView is an immutable snapshot of the queue taken at a scope edge.
type ChangeView struct {
	version    uint32
	epoch      uint32
	current    uint32
	currentPos int
	floor      uint32
	changes    []structChange
	entries    []Entry
}

// Version returns the queue version the snapshot was taken at.
func (v *ChangeView) Version() uint32 { return v.version }

// Epoch counts version wraparounds. A changed epoch invalidates every client baseline.
func (v *ChangeView) Epoch() uint32 { return v.epoch }

// Floor returns the oldest version still reachable; baselines at or below it get a full range.
func (v *ChangeView) Floor() uint32 { return v.floor }

// Len returns the number of entries in the snapshot.
func (v *ChangeView) Len() int { return len(v.entries) }

// Current returns the playing entry's id and position, or 0 and -1.
func (v *ChangeView) Current() (uint32, int) {
	if v.current == 0 {
		return 0, -1
	}
	return v.current, v.currentPos
}

// At returns the entry at pos.
func (v *ChangeView) At(pos int) (Entry, bool) {
	if pos < 0 || pos >= len(v.entries) {
		return Entry{}, false
	}
	return v.entries[pos], true
}

// ByID finds an entry by id. Snapshots carry no id index, so this is a linear scan.
func (v *ChangeView) ByID(id uint32) (Change, bool) {
	for p, e := range v.entries {
		if e.ID == id {
			return Change{Position: p, Entry: e}, true
		}
	}
	return Change{}, false
}

// Info returns the entries in [start, end).
func (v *ChangeView) Info(start, end int) []Change {
	s, e := v.window(start, end)
	out := make([]Change, 0, e-s)
	for p := s; p < e; p++ {
		out = append(out, Change{Position: p, Entry: v.entries[p]})
	}
	return out
}

// Find returns the entries whose track satisfies match, in queue order.
func (v *ChangeView) Find(match func(*models.Track) bool) []Change {
	var out []Change
	for p, e := range v.entries {
		if match(e.Track) {
			out = append(out, Change{Position: p, Entry: e})
		}
	}
	return out
}

// SinceVersion returns the entries in [start, end) that a client at version cv of epoch has not
// seen: those whose version is at least cv and those whose position was disturbed at or after cv.
// A baseline from another epoch predates a wraparound and always gets the full range.
func (v *ChangeView) SinceVersion(epoch, cv uint32, start, end int) Diff[Change] {
	var d Diff[Change]
	d.Full = v.since(epoch, cv, start, end, func(p int) {
		d.Items = append(d.Items, Change{Position: p, Entry: v.entries[p]})
	})
	return d
}

// SinceVersionIDs is [ChangeView.SinceVersion] without the track payload.
func (v *ChangeView) SinceVersionIDs(epoch, cv uint32, start, end int) Diff[Slot] {
	var d Diff[Slot]
	d.Full = v.since(epoch, cv, start, end, func(p int) {
		e := v.entries[p]
		d.Items = append(d.Items, Slot{Position: p, ID: e.ID, Version: e.Version})
	})
	return d
}

// Status summarizes the snapshot for the wire.
func (v *ChangeView) Status() models.QueueStatus {
	id, pos := v.Current()
	return models.QueueStatus{
		Version:   v.version,
		Epoch:     v.epoch,
		Length:    len(v.entries),
		Floor:     v.floor,
		CurrentID: id,
		Current:   pos,
	}
}

func (v *ChangeView) window(start, end int) (int, int) {
	n := len(v.entries)
	if end == ToEnd || end > n {
		end = n
	}
	if start < 0 {
		start = 0
	}
	if start > end {
		start = end
	}
	return start, end
}

type span struct{ lo, hi int }

// disturbed merges the structural changes at or after cv into sorted, disjoint spans.
func (v *ChangeView) disturbed(cv uint32) []span {
	n := len(v.entries)
	spans := make([]span, 0, len(v.changes))
	for _, c := range v.changes {
		if c.version < cv {
			continue
		}
		hi := c.hi
		if hi == ToEnd || hi > n {
			hi = n
		}
		if c.lo < hi {
			spans = append(spans, span{lo: c.lo, hi: hi})
		}
	}
	slices.SortFunc(spans, func(a, b span) int { return a.lo - b.lo })

	merged := spans[:0]
	for _, s := range spans {
		if len(merged) > 0 && s.lo <= merged[len(merged)-1].hi {
			merged[len(merged)-1].hi = max(merged[len(merged)-1].hi, s.hi)
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

func (v *ChangeView) since(epoch, cv uint32, start, end int, emit func(pos int)) bool {
	stale := epoch != v.epoch
	if cv > v.version && !stale {
		return false
	}
	s, e := v.window(start, end)

	if stale || cv <= v.floor {
		for p := s; p < e; p++ {
			emit(p)
		}
		return true
	}

	spans := v.disturbed(cv)
	k := 0
	for p := s; p < e; p++ {
		for k < len(spans) && spans[k].hi <= p {
			k++
		}
		if v.entries[p].Version >= cv || (k < len(spans) && spans[k].lo <= p) {
			emit(p)
		}
	}
	return false
}
