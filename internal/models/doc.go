// Package models contains the plain data types that cross package boundaries.
//
// [Track] is the track reference stored in queue entries and in the content index.
// [Tags] carries per-request metadata overrides. The Queue* types are the JSON wire
// form of the queue used by the HTTP protocol layer and its client:
//   - [QueueItem] : one entry at a position
//   - [QueueSlot] : position, id and version only
//   - [QueueStatus] : version, epoch and length used to decide on a resync
//   - [ChangeSet] : the answer to a "what changed since version V" query
package models
