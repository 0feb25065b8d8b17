package queue

// BulkEdit suspends change notification and snapshot publication until the outermost scope ends.
//
//	b := q.BeginBulkEdit()
//	defer b.End()
type BulkEdit struct {
	q    *Queue
	done bool
}

// BeginBulkEdit opens a (possibly nested) bulk edit scope.
func (q *Queue) BeginBulkEdit() *BulkEdit {
	q.bulk++
	return &BulkEdit{q: q}
}

// End closes the scope. Calling End more than once has no further effect.
//
// When the outermost scope closes, readers see one new snapshot and listeners get one
// OnQueueChanged, but only if something inside the scope changed the version.
func (b *BulkEdit) End() {
	if b == nil || b.done {
		return
	}
	b.done = true
	b.q.bulk--
	if b.q.bulk == 0 {
		b.q.flush()
	}
}

// Bulk runs fn inside a bulk edit scope that is closed however fn returns.
func (q *Queue) Bulk(fn func() error) error {
	b := q.BeginBulkEdit()
	defer b.End()
	return fn()
}

// InBulkEdit reports whether a scope is open.
func (q *Queue) InBulkEdit() bool {
	return q.bulk > 0
}
