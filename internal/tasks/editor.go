package tasks

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/mpq/internal/models"
	"github.com/desertthunder/mpq/internal/queue"
	"github.com/desertthunder/mpq/internal/services"
	"github.com/desertthunder/mpq/internal/shared"
)

// QueueEditor composes queue primitives into protocol level commands.
//
// Track resolution (tag reads, index queries) happens on the caller's goroutine;
// only the queue mutations are sent to the [Loop].
type QueueEditor struct {
	loop   *Loop
	loader services.Loader
	index  services.Index
	logger *log.Logger
}

// NewQueueEditor creates an editor that mutates the queue owned by loop.
func NewQueueEditor(loop *Loop, loader services.Loader, index services.Index, logger *log.Logger) *QueueEditor {
	return &QueueEditor{
		loop:   loop,
		loader: loader,
		index:  index,
		logger: logger,
	}
}

// Apply runs fn on the command loop.
func (e *QueueEditor) Apply(ctx context.Context, fn func(q *queue.Queue) error) error {
	return e.loop.Do(ctx, fn)
}

// View returns the last published queue snapshot.
func (e *QueueEditor) View() *queue.ChangeView {
	return e.loop.View()
}

// IsDirect reports whether uri names a single resource for the loader (a URL with a scheme or
// an absolute path) rather than a selector into the music collection.
func IsDirect(uri string) bool {
	if filepath.IsAbs(uri) {
		return true
	}
	u, err := url.Parse(uri)
	return err == nil && u.Scheme != "" && u.Opaque == ""
}

// normalizeURI maps "/" to the empty selector, which means the whole collection.
func normalizeURI(uri string) string {
	if uri == "/" {
		return ""
	}
	return uri
}

// resolveTrack loads a single track and applies tag overrides.
func (e *QueueEditor) resolveTrack(ctx context.Context, uri string, tags models.Tags) (*models.Track, error) {
	var track *models.Track
	if IsDirect(uri) {
		t, err := e.loader.Load(ctx, uri)
		if err != nil {
			return nil, err
		}
		track = t
	} else {
		// The exact URI sorts before anything below it as a directory.
		tracks, err := e.index.Select(ctx, uri, models.Window{Limit: 1})
		if err != nil {
			return nil, err
		}
		if len(tracks) == 0 || tracks[0].URI != uri {
			return nil, fmt.Errorf("%w: no track %q", shared.ErrNotFound, uri)
		}
		track = tracks[0]
	}

	if !tags.IsEmpty() {
		track = track.WithTags(tags)
	}
	return track, nil
}

// addTarget is the subset of [queue.Queue] used by the add-and-relocate sequence.
type addTarget interface {
	Append(track *models.Track) (uint32, error)
	MoveID(id uint32, dest int) error
	DeleteID(id uint32) error
}

// AddAndRelocate appends a single track and, when dest is set, moves it there.
//
// If the move fails the new entry is deleted again and the move error returned; the queue content is
// unchanged but its version has advanced twice. If that delete fails too the result is
// [queue.ErrInternalConsistency].
func (e *QueueEditor) AddAndRelocate(ctx context.Context, uri string, tags models.Tags, dest *int) (uint32, error) {
	uri = normalizeURI(uri)
	if uri == "" {
		return 0, fmt.Errorf("%w: uri", shared.ErrMissingArgument)
	}

	track, err := e.resolveTrack(ctx, uri, tags)
	if err != nil {
		return 0, err
	}

	var id uint32
	err = e.loop.Do(ctx, func(q *queue.Queue) error {
		var err error
		id, err = e.addAndRelocate(q, track, dest)
		return err
	})
	if err != nil {
		return 0, err
	}

	e.logger.Debug("added track", "id", id, "uri", uri)
	return id, nil
}

func (e *QueueEditor) addAndRelocate(q addTarget, track *models.Track, dest *int) (uint32, error) {
	id, err := q.Append(track)
	if err != nil {
		return 0, err
	}
	if dest == nil {
		return id, nil
	}

	if err := q.MoveID(id, *dest); err != nil {
		if derr := q.DeleteID(id); derr != nil {
			e.logger.Error("failed to roll back add", "id", id, "move", err, "delete", derr)
			return 0, fmt.Errorf("%w: rolling back id %d after %w: %w", queue.ErrInternalConsistency, id, err, derr)
		}
		return 0, err
	}
	return id, nil
}

// AddFromSelection appends every indexed track matched by selector, inside one bulk edit.
//
// An empty match is [shared.ErrNotFound], including the whole collection of an empty index.
// A queue error part way through keeps the tracks already added; their ids are returned with the error.
func (e *QueueEditor) AddFromSelection(ctx context.Context, selector string, window models.Window, progress chan<- ProgressUpdate) ([]uint32, error) {
	tracks, err := e.index.Select(ctx, selector, window)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		if selector == "" {
			return nil, fmt.Errorf("%w: the collection is empty", shared.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: nothing matches %q", shared.ErrNotFound, selector)
	}

	ids := make([]uint32, 0, len(tracks))
	err = e.loop.Do(ctx, func(q *queue.Queue) error {
		return q.Bulk(func() error {
			for i, t := range tracks {
				id, err := q.Append(t)
				if err != nil {
					return err
				}
				ids = append(ids, id)
				sendProgress(progress, insertUpdate(i+1, len(tracks), t.URI))
			}
			return nil
		})
	})
	if err != nil {
		e.logger.Warn("selection add stopped early", "selector", selector, "added", len(ids), "of", len(tracks), "error", err)
		return ids, err
	}

	e.logger.Debug("added selection", "selector", selector, "count", len(ids))
	return ids, nil
}

// ResolveAddTarget adds whatever uri names: a single resource for the loader, or a selector
// into the collection ("" or "/" for all of it). Tags only apply to single resources.
func (e *QueueEditor) ResolveAddTarget(ctx context.Context, uri string, tags models.Tags, window models.Window, progress chan<- ProgressUpdate) ([]uint32, error) {
	uri = normalizeURI(uri)
	sendProgress(progress, resolveUpdate(uri))

	if !IsDirect(uri) {
		return e.AddFromSelection(ctx, uri, window, progress)
	}

	track, err := e.resolveTrack(ctx, uri, tags)
	if err != nil {
		return nil, err
	}

	var id uint32
	err = e.loop.Do(ctx, func(q *queue.Queue) error {
		var err error
		id, err = q.Append(track)
		return err
	})
	if err != nil {
		return nil, err
	}

	sendProgress(progress, insertUpdate(1, 1, uri))
	return []uint32{id}, nil
}
