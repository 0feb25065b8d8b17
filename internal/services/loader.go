package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"github.com/desertthunder/mpq/internal/models"
	"github.com/desertthunder/mpq/internal/shared"
)

// streamSchemes are added without being read.
var streamSchemes = map[string]bool{"http": true, "https": true}

// TagLoader reads embedded tags from local files and accepts stream URLs as-is.
type TagLoader struct{}

// NewTagLoader creates a [TagLoader].
func NewTagLoader() *TagLoader {
	return &TagLoader{}
}

// Load resolves uri to a track.
//
// Local files keep their original URI. Files without tags are named after the file,
// stream URLs after their last path segment.
func (l *TagLoader) Load(ctx context.Context, uri string) (*models.Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if filepath.IsAbs(uri) {
		return l.loadFile(uri, uri)
	}

	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" {
		return nil, fmt.Errorf("%w: %q", shared.ErrUnsupported, uri)
	}

	switch {
	case u.Scheme == "file":
		return l.loadFile(u.Path, uri)
	case streamSchemes[u.Scheme]:
		return &models.Track{URI: uri, Title: streamTitle(u)}, nil
	default:
		return nil, fmt.Errorf("%w: scheme %q", shared.ErrUnsupported, u.Scheme)
	}
}

func (l *TagLoader) loadFile(path, uri string) (*models.Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrLoad, err)
	}
	defer f.Close()

	t, err := ReadTags(f, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", shared.ErrLoad, path, err)
	}
	t.URI = uri
	return t, nil
}

// ReadTags reads the embedded tags of r. Untagged files fall back to names derived from path:
// "Artist - Title.ext" and the parent directory as album.
func ReadTags(r io.ReadSeeker, path string) (*models.Track, error) {
	m, err := tag.ReadFrom(r)
	if errors.Is(err, tag.ErrNoTagsFound) {
		return fallbackTrack(path), nil
	}
	if err != nil {
		return nil, err
	}

	t := &models.Track{
		Title:  strings.TrimSpace(m.Title()),
		Artist: strings.TrimSpace(m.Artist()),
		Album:  strings.TrimSpace(m.Album()),
		Genre:  strings.TrimSpace(m.Genre()),
		Year:   m.Year(),
	}
	t.Number, _ = m.Track()

	if t.Title == "" {
		fb := fallbackTrack(path)
		t.Title = fb.Title
		if t.Artist == "" {
			t.Artist = fb.Artist
		}
	}
	return t, nil
}

func fallbackTrack(path string) *models.Track {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	t := &models.Track{Title: name}
	if artist, title, ok := strings.Cut(name, " - "); ok {
		t.Artist = strings.TrimSpace(artist)
		t.Title = strings.TrimSpace(title)
	}
	if dir := filepath.Base(filepath.Dir(path)); dir != "." && dir != string(filepath.Separator) {
		t.Album = dir
	}
	return t
}

func streamTitle(u *url.URL) string {
	name := strings.Trim(u.Path, "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return u.Host
	}
	return name
}
