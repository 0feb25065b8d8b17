package queue

import (
	"math"
	"math/rand/v2"
	"sync/atomic"
)

const (
	// AtEnd appends when passed as an insert position.
	AtEnd = -1
	// ToEnd extends a range to the tail of the queue.
	ToEnd = -1

	DefaultMaxLength = 16384
	DefaultChangeLog = 256
)

// Range is a half-open position range. End == [ToEnd] means "to the tail".
type Range struct {
	Start int
	End   int
}

// All covers the whole queue.
var All = Range{Start: 0, End: ToEnd}

// Listener receives queue notifications on the writer's goroutine.
type Listener interface {
	// OnQueueChanged fires once per externally visible change (once per outermost bulk edit).
	OnQueueChanged(version uint32)
	// OnEntryRemoved fires for every id that left the queue.
	OnEntryRemoved(id uint32)
}

// CurrentListener is implemented by listeners that also follow the player cursor.
// OnCurrentChanged fires after the view carrying the new cursor is published; id 0 means none.
type CurrentListener interface {
	OnCurrentChanged(id uint32)
}

// Options configures a [Queue].
type Options struct {
	MaxLength int        // Maximum number of entries, 0 means [DefaultMaxLength]
	ChangeLog int        // Structural changes retained for incremental diffs, 0 means [DefaultChangeLog]
	Rand      *rand.Rand // Shuffle source, nil uses a randomly seeded PCG
	Listeners []Listener
}

// Queue is the ordered, versioned playback queue.
//
// A Queue has exactly one writer. Readers on other goroutines must go through [Queue.View],
// which returns the snapshot published at the last scope edge.
type Queue struct {
	entries   []Entry
	ids       IDTable
	alloc     allocator
	version   uint32
	epoch     uint32
	current   uint32
	maxLength int
	log       changeLog
	rng       *rand.Rand
	listeners []Listener

	// maxVersion is the wraparound point; tests lower it.
	maxVersion uint32

	bulk  int
	dirty bool
	stale bool
	moved bool

	view atomic.Pointer[ChangeView]
}

// New creates an empty queue at version 0.
func New(opts Options) *Queue {
	if opts.MaxLength <= 0 {
		opts.MaxLength = DefaultMaxLength
	}
	if opts.ChangeLog <= 0 {
		opts.ChangeLog = DefaultChangeLog
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	q := &Queue{
		entries:    make([]Entry, 0, 64),
		ids:        NewIDTable(64),
		alloc:      newAllocator(),
		maxLength:  opts.MaxLength,
		log:        changeLog{limit: opts.ChangeLog},
		rng:        opts.Rand,
		listeners:  append([]Listener(nil), opts.Listeners...),
		maxVersion: math.MaxUint32,
	}
	q.publish()
	return q
}

// Subscribe adds a listener. It must be called from the writer.
func (q *Queue) Subscribe(l Listener) {
	q.listeners = append(q.listeners, l)
}

// Len returns the number of entries.
func (q *Queue) Len() int { return len(q.entries) }

// Version returns the global change version.
func (q *Queue) Version() uint32 { return q.version }

// MaxLength returns the configured size limit.
func (q *Queue) MaxLength() int { return q.maxLength }

// At returns the entry at pos.
func (q *Queue) At(pos int) (Entry, bool) {
	if pos < 0 || pos >= len(q.entries) {
		return Entry{}, false
	}
	return q.entries[pos], true
}

// Lookup returns the position of id.
func (q *Queue) Lookup(id uint32) (int, bool) {
	return q.ids.Lookup(id)
}

// Current returns the id of the playing entry and its position, or 0 and -1.
func (q *Queue) Current() (uint32, int) {
	if q.current == 0 {
		return 0, -1
	}
	pos, _ := q.ids.Lookup(q.current)
	return q.current, pos
}

// SetCurrent records which entry the player is on. Zero clears it.
//
// The cursor is player state, so it is published to readers without a version bump.
func (q *Queue) SetCurrent(id uint32) error {
	if id != 0 {
		if _, ok := q.ids.Lookup(id); !ok {
			return ErrNoSuchID
		}
	}
	if q.current == id {
		return nil
	}
	q.current = id
	q.stale = true
	q.moved = true
	q.commit()
	return nil
}

// bump advances the global version, wrapping when the version space is exhausted.
func (q *Queue) bump() uint32 {
	if q.version >= q.maxVersion {
		q.wrap()
	}
	q.version++
	q.dirty = true
	q.stale = true
	return q.version
}

// wrap restarts versioning. Every client baseline becomes unreachable, which readers detect via the epoch.
func (q *Queue) wrap() {
	for i := range q.entries {
		q.entries[i].Version = 0
	}
	q.version = 0
	q.epoch++
	q.log.reset(0)
}

// commit ends a primitive: outside a bulk edit it publishes and notifies immediately.
func (q *Queue) commit() {
	if q.bulk > 0 {
		return
	}
	q.flush()
}

func (q *Queue) flush() {
	if q.stale {
		q.stale = false
		q.publish()
	}
	if q.dirty {
		q.dirty = false
		for _, l := range q.listeners {
			l.OnQueueChanged(q.version)
		}
	}
	if q.moved {
		q.moved = false
		for _, l := range q.listeners {
			if cl, ok := l.(CurrentListener); ok {
				cl.OnCurrentChanged(q.current)
			}
		}
	}
}

func (q *Queue) removed(ids []uint32) {
	for _, id := range ids {
		for _, l := range q.listeners {
			l.OnEntryRemoved(id)
		}
	}
}

// reindex refreshes the id table for positions [from, to).
func (q *Queue) reindex(from, to int) {
	for p := from; p < to; p++ {
		q.ids.Set(q.entries[p].ID, p)
	}
}

// clampRange resolves [ToEnd] and reports whether the range lies inside the queue.
func (q *Queue) clampRange(r Range) (Range, bool) {
	n := len(q.entries)
	if r.End == ToEnd {
		r.End = n
	}
	if r.Start < 0 || r.End > n || r.Start > r.End {
		return r, false
	}
	return r, true
}

func (q *Queue) publish() {
	entries := make([]Entry, len(q.entries))
	copy(entries, q.entries)
	_, pos := q.Current()
	q.view.Store(&ChangeView{
		version:    q.version,
		epoch:      q.epoch,
		current:    q.current,
		currentPos: pos,
		floor:      q.log.floor,
		changes:    q.log.snapshot(),
		entries:    entries,
	})
}

// View returns the snapshot published at the last scope edge. It is safe for concurrent use.
func (q *Queue) View() *ChangeView {
	return q.view.Load()
}
