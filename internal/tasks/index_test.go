package tasks

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/desertthunder/mpq/internal/models"
)

// memoryTracks is an in-memory [TrackStore], safe for the indexer's workers.
type memoryTracks struct {
	mu     sync.Mutex
	tracks map[string]*models.Track
}

func newMemoryTracks(uris ...string) *memoryTracks {
	m := &memoryTracks{tracks: map[string]*models.Track{}}
	for _, uri := range uris {
		m.tracks[uri] = &models.Track{URI: uri}
	}
	return m
}

func (m *memoryTracks) Upsert(ctx context.Context, track *models.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracks[track.URI] = track
	return nil
}

func (m *memoryTracks) URIs(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.tracks))
	for uri := range m.tracks {
		out = append(out, uri)
	}
	slices.Sort(out)
	return out, nil
}

func (m *memoryTracks) Delete(ctx context.Context, uri string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tracks, uri)
	return nil
}

func writeFile(t *testing.T, dir, rel string, data []byte) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", rel, err)
	}
}

func TestIndexer(t *testing.T) {
	untagged := bytes.Repeat([]byte("plain audio bytes "), 16)
	// An ID3v2 header promising a 2 KiB tag that is not there.
	truncated := append([]byte("ID3\x04\x00\x00\x00\x00\x10\x00"), []byte("short")...)

	dir := t.TempDir()
	writeFile(t, dir, "Band/Album/Band - First.mp3", untagged)
	writeFile(t, dir, "Band/Album/02 Second.FLAC", untagged)
	writeFile(t, dir, "loose.ogg", untagged)
	writeFile(t, dir, "Band/cover.jpg", untagged)
	writeFile(t, dir, ".hidden/secret.mp3", untagged)
	writeFile(t, dir, "broken.mp3", truncated)

	store := newMemoryTracks("gone/old.mp3")
	ix := NewIndexer(store, 2, testLogger())
	progress := make(chan ProgressUpdate, 32)

	result, err := ix.Index(context.Background(), dir, progress)
	if err != nil {
		t.Fatalf("failed to index: %v", err)
	}

	if result.Found != 4 || result.Indexed != 3 || result.Pruned != 1 {
		t.Errorf("unexpected result %+v", result)
	}
	if !slices.Equal(result.Failed, []string{"broken.mp3"}) {
		t.Errorf("expected broken.mp3 to fail, got %v", result.Failed)
	}

	uris, _ := store.URIs(context.Background())
	want := []string{"Band/Album/02 Second.FLAC", "Band/Album/Band - First.mp3", "loose.ogg"}
	if !slices.Equal(uris, want) {
		t.Errorf("expected %v, got %v", want, uris)
	}

	first := store.tracks["Band/Album/Band - First.mp3"]
	if first.Artist != "Band" || first.Title != "First" || first.Album != "Album" {
		t.Errorf("unexpected tags %+v", first)
	}

	close(progress)
	seen := map[Phase]int{}
	for u := range progress {
		seen[u.Phase]++
	}
	if seen[ScanLibrary] != 1 || seen[ReadTags] != 4 || seen[PruneIndex] != 1 {
		t.Errorf("unexpected progress %v", seen)
	}
}

func TestIndexerBadDirectory(t *testing.T) {
	ix := NewIndexer(newMemoryTracks(), 0, testLogger())
	if _, err := ix.Index(context.Background(), filepath.Join(t.TempDir(), "missing"), nil); err == nil {
		t.Error("expected an error for a missing directory")
	}

	file := filepath.Join(t.TempDir(), "file.mp3")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := ix.Index(context.Background(), file, nil); err == nil {
		t.Error("expected an error for a regular file")
	}
}
