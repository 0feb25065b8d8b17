package models

import "time"

// Span is a position range on the wire. A nil End reaches the tail of the queue.
type Span struct {
	Start int  `json:"start"`
	End   *int `json:"end,omitempty"`
}

// AddRequest adds a track, a directory or the whole collection.
//
// Position only applies to single-track adds; it may be negative to place the track
// relative to the playing entry.
type AddRequest struct {
	URI      string `json:"uri"`
	Tags     Tags   `json:"tags,omitzero"`
	Position *int   `json:"position,omitempty"`
	Window   Window `json:"window,omitzero"`
}

// AddResponse lists the ids of the new entries in queue order.
type AddResponse struct {
	IDs    []uint32    `json:"ids"`
	Status QueueStatus `json:"status"`
}

type MoveRequest struct {
	Span
	To int `json:"to"`
}

type MoveIDRequest struct {
	ID uint32 `json:"id"`
	To int    `json:"to"`
}

type SwapRequest struct {
	A int `json:"a"`
	B int `json:"b"`
}

type SwapIDRequest struct {
	A uint32 `json:"a"`
	B uint32 `json:"b"`
}

type PrioRequest struct {
	Priority int    `json:"priority"`
	Ranges   []Span `json:"ranges"`
}

type PrioIDRequest struct {
	Priority int      `json:"priority"`
	IDs      []uint32 `json:"ids"`
}

// RangeIDRequest sets a play range given as "START:END" in seconds; either side may be empty.
type RangeIDRequest struct {
	ID    uint32 `json:"id"`
	Range string `json:"range"`
}

type IDRequest struct {
	ID uint32 `json:"id"`
}

// SnapshotRequest names a saved queue state. An empty name means the server's own state.
type SnapshotRequest struct {
	Name string `json:"name,omitempty"`
}

// ErrorResponse is the body of every failed request. Error is a stable kind, Message is for humans.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SnapshotSummary describes a saved queue without its entries.
type SnapshotSummary struct {
	Name    string    `json:"name"`
	Entries int       `json:"entries"`
	SavedAt time.Time `json:"saved_at"`
}
