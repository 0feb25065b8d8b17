// package models defines the data shared by the queue core, the content index and the wire protocol
package models

import (
	"strings"
	"time"
)

// Track is a resolved reference to playable content: a library file or a remote stream.
//
// The queue treats a *Track as opaque and never mutates it; edits produce copies.
type Track struct {
	URI      string        `json:"uri"`
	Title    string        `json:"title,omitempty"`
	Artist   string        `json:"artist,omitempty"`
	Album    string        `json:"album,omitempty"`
	Genre    string        `json:"genre,omitempty"`
	Year     int           `json:"year,omitempty"`
	Number   int           `json:"track,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// Tags holds caller supplied metadata that overrides what was read from the resource.
type Tags struct {
	Title  string `json:"title,omitempty"`
	Artist string `json:"artist,omitempty"`
	Album  string `json:"album,omitempty"`
	Genre  string `json:"genre,omitempty"`
	Year   int    `json:"year,omitempty"`
	Number int    `json:"track,omitempty"`
}

// IsEmpty reports whether no override is set.
func (t Tags) IsEmpty() bool {
	return t == Tags{}
}

// WithTags returns a copy of the track with every non-empty override applied.
func (t *Track) WithTags(tags Tags) *Track {
	out := *t
	if tags.Title != "" {
		out.Title = tags.Title
	}
	if tags.Artist != "" {
		out.Artist = tags.Artist
	}
	if tags.Album != "" {
		out.Album = tags.Album
	}
	if tags.Genre != "" {
		out.Genre = tags.Genre
	}
	if tags.Year != 0 {
		out.Year = tags.Year
	}
	if tags.Number != 0 {
		out.Number = tags.Number
	}
	return &out
}

// DisplayName returns "Artist - Title", falling back to the last URI segment.
func (t *Track) DisplayName() string {
	if t == nil {
		return ""
	}
	if t.Title == "" {
		name := t.URI
		if i := strings.LastIndex(name, "/"); i >= 0 && i < len(name)-1 {
			name = name[i+1:]
		}
		return name
	}
	if t.Artist == "" {
		return t.Title
	}
	return t.Artist + " - " + t.Title
}

// PlayRange is the wire form of a per-entry playback window, in milliseconds.
type PlayRange struct {
	StartMS int64 `json:"start_ms"`
	EndMS   int64 `json:"end_ms,omitempty"`
}

// QueueItem is one queue entry at a position, as sent to protocol clients.
type QueueItem struct {
	Position int        `json:"pos"`
	ID       uint32     `json:"id"`
	Priority uint8      `json:"prio,omitempty"`
	Version  uint32     `json:"version"`
	Range    *PlayRange `json:"range,omitempty"`
	Track    *Track     `json:"track"`
}

// QueueSlot is the position/id pair returned by id-only change queries.
type QueueSlot struct {
	Position int    `json:"pos"`
	ID       uint32 `json:"id"`
	Version  uint32 `json:"version"`
}

// QueueStatus summarizes the queue for clients deciding whether to resync.
type QueueStatus struct {
	Version   uint32 `json:"version"`
	Epoch     uint32 `json:"epoch"`
	Length    int    `json:"length"`
	Floor     uint32 `json:"floor"`
	CurrentID uint32 `json:"current_id,omitempty"`
	Current   int    `json:"current"`
}

// Baseline is the point a client last synchronized at.
//
// A baseline from an earlier epoch always gets a full change set.
type Baseline struct {
	Epoch   uint32 `json:"epoch"`
	Version uint32 `json:"version"`
}

// ChangeSet is the response to an incremental change query.
//
// Full signals that the client's baseline is no longer reachable and its mirror must be discarded.
type ChangeSet struct {
	Status QueueStatus `json:"status"`
	Full   bool        `json:"full"`
	Items  []QueueItem `json:"items,omitempty"`
	Slots  []QueueSlot `json:"slots,omitempty"`
}

// Window selects a slice of an ordered result. A zero Limit means no limit.
type Window struct {
	Offset int `json:"offset,omitempty"`
	Limit  int `json:"limit,omitempty"`
}

// Bounds returns the [start, end) of the window over n items.
func (w Window) Bounds(n int) (int, int) {
	start := min(max(w.Offset, 0), n)
	end := n
	if w.Limit > 0 {
		end = min(start+w.Limit, n)
	}
	return start, end
}
