package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/mpq/internal/models"
	"github.com/desertthunder/mpq/internal/shared"
)

// rowScanner is satisfied by both [sql.Row] and [sql.Rows].
type rowScanner interface {
	Scan(dest ...any) error
}

// trackColumns are the track fields shared by the tracks and queue_snapshot_entries tables.
const trackColumns = "uri, title, artist, album, genre, year, number, duration_ms"

// scanTrack reads [trackColumns] plus any trailing destinations.
func scanTrack(s rowScanner, extra ...any) (*models.Track, error) {
	var (
		t          models.Track
		durationMS int64
	)

	dest := append([]any{&t.URI, &t.Title, &t.Artist, &t.Album, &t.Genre, &t.Year, &t.Number, &durationMS}, extra...)
	if err := s.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	t.Duration = time.Duration(durationMS) * time.Millisecond
	return &t, nil
}

// trackArgs returns the values for [trackColumns].
func trackArgs(t *models.Track) []any {
	return []any{t.URI, t.Title, t.Artist, t.Album, t.Genre, t.Year, t.Number, t.Duration.Milliseconds()}
}
