package services

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/mpq/internal/shared"
)

// untaggedData is long enough for the ID3v1 trailer probe and carries no tags.
var untaggedData = bytes.Repeat([]byte("not really audio data "), 16)

func writeUntagged(t *testing.T, dir, rel string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, untaggedData, 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return path
}

func TestTagLoader(t *testing.T) {
	ctx := context.Background()
	loader := NewTagLoader()
	dir := t.TempDir()

	t.Run("Absolute Path Without Tags", func(t *testing.T) {
		path := writeUntagged(t, dir, "Some Album/Band - Song.mp3")

		track, err := loader.Load(ctx, path)
		if err != nil {
			t.Fatalf("failed to load: %v", err)
		}
		if track.URI != path {
			t.Errorf("expected uri %s, got %s", path, track.URI)
		}
		if track.Title != "Song" || track.Artist != "Band" || track.Album != "Some Album" {
			t.Errorf("unexpected fallback tags %+v", track)
		}
	})

	t.Run("File URL", func(t *testing.T) {
		path := writeUntagged(t, dir, "plain.flac")
		uri := "file://" + filepath.ToSlash(path)

		track, err := loader.Load(ctx, uri)
		if err != nil {
			t.Fatalf("failed to load: %v", err)
		}
		if track.URI != uri || track.Title != "plain" {
			t.Errorf("unexpected track %+v", track)
		}
	})

	t.Run("Stream URL", func(t *testing.T) {
		track, err := loader.Load(ctx, "https://radio.example/live/stream.ogg")
		if err != nil {
			t.Fatalf("failed to load: %v", err)
		}
		if track.Title != "stream.ogg" {
			t.Errorf("expected title stream.ogg, got %s", track.Title)
		}

		track, err = loader.Load(ctx, "http://radio.example")
		if err != nil {
			t.Fatalf("failed to load: %v", err)
		}
		if track.Title != "radio.example" {
			t.Errorf("expected host as title, got %s", track.Title)
		}
	})

	t.Run("Missing File", func(t *testing.T) {
		_, err := loader.Load(ctx, filepath.Join(dir, "missing.mp3"))
		if !errors.Is(err, shared.ErrLoad) {
			t.Errorf("expected ErrLoad, got %v", err)
		}
	})

	t.Run("Unsupported", func(t *testing.T) {
		for _, uri := range []string{"relative/file.mp3", "smb://share/x.mp3"} {
			if _, err := loader.Load(ctx, uri); !errors.Is(err, shared.ErrUnsupported) {
				t.Errorf("%s: expected ErrUnsupported, got %v", uri, err)
			}
		}
	})

	t.Run("Canceled Context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := loader.Load(cctx, "http://radio.example"); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
