package tasks

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/mpq/internal/models"
	"github.com/desertthunder/mpq/internal/services"
)

// AudioExtensions lists the file extensions the indexer reads.
var AudioExtensions = []string{".mp3", ".flac", ".ogg", ".oga", ".opus", ".m4a", ".mp4", ".aac", ".wav", ".dsf"}

// TrackStore is the persistence the indexer writes to.
type TrackStore interface {
	Upsert(ctx context.Context, track *models.Track) error
	URIs(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, uri string) error
}

// IndexResult summarizes one indexing run.
type IndexResult struct {
	Found   int
	Indexed int
	Failed  []string
	Pruned  int
}

// Indexer walks a music directory and records every audio file under its path relative
// to that directory, with slashes, which is what relative add selectors match against.
type Indexer struct {
	store   TrackStore
	workers int
	logger  *log.Logger
}

// NewIndexer creates an indexer reading at most workers files at once.
func NewIndexer(store TrackStore, workers int, logger *log.Logger) *Indexer {
	if workers < 1 {
		workers = 1
	}
	return &Indexer{store: store, workers: workers, logger: logger}
}

func isAudio(name string) bool {
	return slices.Contains(AudioExtensions, strings.ToLower(filepath.Ext(name)))
}

// scan returns the relative slash paths of all audio files under dir, sorted.
func scan(ctx context.Context, dir string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !isAudio(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		found = append(found, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(found)
	return found, nil
}

// Index reads the tags of every audio file under dir into the store, then removes
// stored tracks whose file is gone. Files that fail to read are reported, not fatal.
func (ix *Indexer) Index(ctx context.Context, dir string, progress chan<- ProgressUpdate) (*IndexResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("music directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("music directory: %s is not a directory", dir)
	}

	uris, err := scan(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	sendProgress(progress, scanUpdate(len(uris), dir))
	ix.logger.Info("scanned music directory", "dir", dir, "files", len(uris))

	result := &IndexResult{Found: len(uris)}
	var (
		mu      sync.Mutex
		done    atomic.Int64
		indexed atomic.Int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.workers)
	for _, uri := range uris {
		g.Go(func() error {
			err := ix.indexFile(gctx, dir, uri)
			step := int(done.Add(1))
			sendProgress(progress, readTagsUpdate(step, len(uris), uri, err))

			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				ix.logger.Warn("failed to index file", "uri", uri, "error", err)
				mu.Lock()
				result.Failed = append(result.Failed, uri)
				mu.Unlock()
				return nil
			}
			indexed.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	result.Indexed = int(indexed.Load())
	slices.Sort(result.Failed)

	pruned, err := ix.prune(ctx, uris)
	if err != nil {
		return nil, err
	}
	result.Pruned = pruned
	sendProgress(progress, pruneUpdate(pruned))

	ix.logger.Info("indexed music directory", "indexed", result.Indexed, "failed", len(result.Failed), "pruned", pruned)
	return result, nil
}

func (ix *Indexer) indexFile(ctx context.Context, dir, uri string) error {
	path := filepath.Join(dir, filepath.FromSlash(uri))
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	track, err := services.ReadTags(f, path)
	if err != nil {
		return err
	}
	track.URI = uri
	return ix.store.Upsert(ctx, track)
}

// prune deletes stored tracks not in present.
func (ix *Indexer) prune(ctx context.Context, present []string) (int, error) {
	stored, err := ix.store.URIs(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, uri := range stored {
		if _, ok := slices.BinarySearch(present, uri); ok {
			continue
		}
		if err := ix.store.Delete(ctx, uri); err != nil {
			return removed, fmt.Errorf("failed to prune %s: %w", uri, err)
		}
		removed++
	}
	return removed, nil
}
