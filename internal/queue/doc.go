// Package queue implements the versioned playback queue shared by every connected client.
//
// # Identity and positions
//
// Every [Entry] gets an id from a monotonic allocator when it is inserted. Ids are never
// reused while the [Queue] lives, not even across [Queue.Clear]; running out of ids is
// reported as [ErrQueueFull]. Positions are dense and change whenever entries before them
// move. The [IDTable] keeps id to position lookups O(1) and is updated only for the
// positions an operation touches.
//
// # Versions
//
// The queue carries a global version that advances once per mutating call. An entry's own
// version is set when it is created or its content changes (priority, play range). Pure
// reordering (move, swap, shuffle, shifts caused by insert and delete) leaves entry
// versions alone and is recorded in a bounded structural change log instead.
//
// A [ChangeView] answers "what changed since version V" from the entry versions plus that
// log. When V is older than the log reaches back ([ChangeView.Floor]) the answer degrades
// to the full range with [Diff.Full] set, telling the client to rebuild its mirror. When
// the version space wraps, the epoch advances and every baseline is invalidated.
//
// # Writers and readers
//
// A Queue has a single writer. Mutations publish an immutable [ChangeView] and notify
// [Listener]s when they finish; inside a [BulkEdit] both are deferred to the end of the
// outermost scope, so readers calling [Queue.View] never observe a half-applied edit.
//
// # Errors
//
// Every operation validates before mutating. Failures wrap one of [ErrInvalidPosition],
// [ErrOutOfRange], [ErrNoSuchID], [ErrInvalidRange], [ErrQueueFull]; [Kind] maps them to
// stable names for protocol responses.
package queue
