// Package tasks runs the queue and the work around it.
//
// # Command loop
//
// [Loop] owns the [queue.Queue] and executes every mutation on one goroutine. Callers submit
// closures with [Loop.Do]; readers use the published [queue.ChangeView] without going through the loop.
//
// # Commands
//
// [QueueEditor] composes queue primitives into the operations clients send: adding a single
// resource with an optional destination ([QueueEditor.AddAndRelocate]), adding a selection of the
// music collection in one bulk edit ([QueueEditor.AddFromSelection]) and dispatching between the
// two ([QueueEditor.ResolveAddTarget]). Argument parsers for tags, time ranges and position spans
// live in args.go.
//
// # Persistence
//
// [StateKeeper] listens to the queue, marks it dirty on change and writes it to a [StateStore]
// periodically and on shutdown. Named snapshots go through the same store.
//
// # Indexing
//
// [Indexer] walks a music directory, reads tags with a bounded worker group and prunes tracks
// whose files are gone.
//
// # Progress Reporting
//
// Long operations take an optional channel of [ProgressUpdate]. Sends never block; a slow
// reader misses updates rather than stalling the operation.
package tasks
