package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/mpq/internal/models"
	"github.com/desertthunder/mpq/internal/shared"
)

// TrackRepository is the content index: one row per known track, keyed by URI.
//
// URIs are relative to the music directory and use "/" separators, so a directory
// selector is a URI prefix ending at a path boundary.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Upsert inserts track or refreshes the tags of the row with the same URI.
func (r *TrackRepository) Upsert(ctx context.Context, track *models.Track) error {
	if track == nil || track.URI == "" {
		return fmt.Errorf("%w: track without uri", shared.ErrInvalidInput)
	}

	query := `
		INSERT INTO tracks (id, ` + trackColumns + `, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(uri) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			album = excluded.album,
			genre = excluded.genre,
			year = excluded.year,
			number = excluded.number,
			duration_ms = excluded.duration_ms,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC()
	args := append([]any{shared.GenerateID()}, trackArgs(track)...)
	args = append(args, now, now)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert track %s: %w", track.URI, err)
	}
	return nil
}

// Get returns the track with the given URI, or [shared.ErrNotFound].
func (r *TrackRepository) Get(ctx context.Context, uri string) (*models.Track, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+trackColumns+" FROM tracks WHERE uri = ?", uri)
	t, err := scanTrack(row)
	if err != nil {
		return nil, fmt.Errorf("track %s: %w", uri, err)
	}
	return t, nil
}

// Select resolves a selector against the index, ordered by URI.
//
// An empty selector matches every track. Otherwise it matches the track with exactly that
// URI and every track below it as a directory.
func (r *TrackRepository) Select(ctx context.Context, selector string, window models.Window) ([]*models.Track, error) {
	selector = strings.Trim(selector, "/")

	query := "SELECT " + trackColumns + " FROM tracks"
	args := []any{}
	if selector != "" {
		prefix := selector + "/"
		query += " WHERE uri = ? OR substr(uri, 1, ?) = ?"
		args = append(args, selector, len(prefix), prefix)
	}
	query += " ORDER BY uri ASC"

	if window.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, window.Limit)
	} else if window.Offset > 0 {
		query += " LIMIT -1"
	}
	if window.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, window.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return tracks, nil
}

// URIs returns every indexed URI.
func (r *TrackRepository) URIs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT uri FROM tracks")
	if err != nil {
		return nil, fmt.Errorf("failed to query uris: %w", err)
	}
	defer rows.Close()

	var uris []string
	for rows.Next() {
		var uri string
		if err := rows.Scan(&uri); err != nil {
			return nil, fmt.Errorf("failed to scan uri: %w", err)
		}
		uris = append(uris, uri)
	}
	return uris, rows.Err()
}

// Delete removes the track with the given URI.
func (r *TrackRepository) Delete(ctx context.Context, uri string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM tracks WHERE uri = ?", uri)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("track %s: %w", uri, shared.ErrNotFound)
	}
	return nil
}

// Count returns the number of indexed tracks.
func (r *TrackRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tracks").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return n, nil
}
