// Package services holds the collaborators that sit between the queue and the outside world.
//
// # Track Loading
//
// [Loader] turns a direct URI into a [models.Track]. [TagLoader] reads embedded tags with
// dhowden/tag for absolute paths and file:// URLs, and builds a bare track for stream URLs.
// Files without readable tags fall back to a track titled after the file name.
//
// [Index] resolves relative selectors (a file or a directory of the music collection) to tracks.
// The SQLite track repository implements it.
//
// # Queue Client
//
// [QueueClient] is the HTTP client for the queue protocol used by the CLI and the watcher.
// Failed requests surface as [*APIError], whose Unwrap maps the wire error kind back to the
// matching sentinel, so callers can test them with [errors.Is]:
//   - [queue.ErrNoSuchID] : no entry has the id
//   - [queue.ErrOutOfRange] : position or range outside the queue
//   - [shared.ErrNotFound] : unknown track or snapshot
//   - [shared.ErrInvalidInput] : malformed request or unloadable track
//
// [Mirror] keeps a client-side copy of the queue current through incremental change queries,
// discarding it whenever the server reports a full listing or a new epoch.
package services
