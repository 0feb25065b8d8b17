package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ResolveTarget Phase = iota
	InsertTracks
	ScanLibrary
	ReadTags
	PruneIndex
)

func (p Phase) String() string {
	switch p {
	case ResolveTarget:
		return "resolve_target"
	case InsertTracks:
		return "insert_tracks"
	case ScanLibrary:
		return "scan_library"
	case ReadTags:
		return "read_tags"
	case PruneIndex:
		return "prune_index"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func resolveUpdate(uri string) ProgressUpdate {
	if uri == "" {
		uri = "the whole collection"
	}
	return ProgressUpdate{
		Phase:   ResolveTarget,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Resolving %s...", uri),
	}
}

func insertUpdate(step, total int, uri string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   InsertTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, uri),
	}
}

func scanUpdate(found int, dir string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScanLibrary,
		Step:    found,
		Total:   found,
		Message: fmt.Sprintf("Found %d audio files in %s", found, dir),
	}
}

func readTagsUpdate(step, total int, uri string, err error) ProgressUpdate {
	if err != nil {
		return ProgressUpdate{
			Phase:   ReadTags,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, uri, err),
		}
	}
	return ProgressUpdate{
		Phase:   ReadTags,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, uri),
	}
}

func pruneUpdate(removed int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PruneIndex,
		Step:    removed,
		Total:   removed,
		Message: fmt.Sprintf("Removed %d missing tracks from the index", removed),
	}
}
