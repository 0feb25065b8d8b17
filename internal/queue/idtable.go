package queue

import (
	"fmt"
	"math"
)

// IDTable maps stable entry ids to their current positions.
//
// Position to id is implicit in the entry slice, so the table only stores one direction.
type IDTable struct {
	pos map[uint32]int
}

// NewIDTable returns an empty table sized for capacity entries.
func NewIDTable(capacity int) IDTable {
	return IDTable{pos: make(map[uint32]int, capacity)}
}

// Lookup returns the position of id.
func (t *IDTable) Lookup(id uint32) (int, bool) {
	p, ok := t.pos[id]
	return p, ok
}

// Set records that id now lives at pos.
func (t *IDTable) Set(id uint32, pos int) {
	t.pos[id] = pos
}

// Remove forgets id.
func (t *IDTable) Remove(id uint32) {
	delete(t.pos, id)
}

// Len returns the number of ids in the table.
func (t *IDTable) Len() int {
	return len(t.pos)
}

// Clear forgets every id.
func (t *IDTable) Clear() {
	clear(t.pos)
}

// allocator hands out ids in increasing order and never reuses one.
type allocator struct {
	next      uint32
	exhausted bool
}

func newAllocator() allocator {
	return allocator{next: 1}
}

func (a *allocator) take() (uint32, error) {
	if a.exhausted {
		return 0, fmt.Errorf("%w: id space exhausted", ErrQueueFull)
	}
	id := a.next
	if a.next == math.MaxUint32 {
		a.exhausted = true
	} else {
		a.next++
	}
	return id, nil
}

// remaining reports how many ids can still be handed out.
func (a *allocator) remaining() uint64 {
	if a.exhausted {
		return 0
	}
	return uint64(math.MaxUint32) - uint64(a.next) + 1
}
