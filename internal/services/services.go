package services

import (
	"context"

	"github.com/desertthunder/mpq/internal/models"
)

// Loader resolves a single URI (a stream URL, a file:// URL or an absolute path) to a track.
type Loader interface {
	Load(ctx context.Context, uri string) (*models.Track, error)
}

// Index resolves selectors relative to the music collection.
//
// An empty selector means the whole collection.
type Index interface {
	Select(ctx context.Context, selector string, window models.Window) ([]*models.Track, error)
}
