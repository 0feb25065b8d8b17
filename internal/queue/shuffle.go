package queue

import "fmt"

// Shuffle applies a uniformly random permutation to positions [start, end).
//
// Entries keep their ids and versions. Ranges shorter than two entries are left alone.
func (q *Queue) Shuffle(start, end int) error {
	r, ok := q.clampRange(Range{Start: start, End: end})
	if !ok {
		return fmt.Errorf("%w: %d:%d (queue length %d)", ErrOutOfRange, start, end, len(q.entries))
	}
	if r.End-r.Start < 2 {
		return nil
	}

	// Fisher-Yates over the window.
	for i := r.End - 1; i > r.Start; i-- {
		j := r.Start + q.rng.IntN(i-r.Start+1)
		q.entries[i], q.entries[j] = q.entries[j], q.entries[i]
	}
	q.reindex(r.Start, r.End)

	v := q.bump()
	q.log.add(v, r.Start, r.End)

	q.commit()
	return nil
}
