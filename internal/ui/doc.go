// Package ui implements a terminal queue watcher using bubbletea's Elm architecture.
//
// The (view) [Model] keeps a [services.Mirror] of the server's queue. It fetches a full listing once,
// then alternates between long polls (GET /queue/idle) and incremental change queries, so each update
// transfers only the entries that changed. A change of epoch or a mirror that no longer fits the
// server's listing forces a full resync.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, d, s, r, q) with help rendered by
// charmbracelet/bubbles/help. Commands issued from the watcher go straight to the server; the
// watcher sees their effect through the next change query like any other client's edit.
package ui
