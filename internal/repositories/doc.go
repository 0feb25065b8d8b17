// Package repositories implements SQLite persistence for the content index and saved queue states.
//
// Key Implementations:
//   - [TrackRepository] : the content index of the music collection, queried by URI prefix
//   - [QueueStateRepository] : named queue snapshots, including the one the server restores at startup
//
// Rows carry uuid primary keys from [shared.GenerateID]; URIs and snapshot names are the natural keys
// callers use.
package repositories
