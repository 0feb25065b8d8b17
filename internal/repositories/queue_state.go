package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/mpq/internal/queue"
	"github.com/desertthunder/mpq/internal/shared"
)

// StateSnapshot is the name of the snapshot the server saves and restores on its own.
const StateSnapshot = "state"

// SnapshotInfo describes a saved queue without its entries.
type SnapshotInfo struct {
	ID      string
	Name    string
	Entries int
	Current int
	SavedAt time.Time
}

// QueueStateRepository persists named queue snapshots.
type QueueStateRepository struct {
	db *sql.DB
}

// NewQueueStateRepository creates a new QueueStateRepository with the given database connection
func NewQueueStateRepository(db *sql.DB) *QueueStateRepository {
	return &QueueStateRepository{db: db}
}

// Save replaces the snapshot called name with entries. current is the playing position or -1.
func (r *QueueStateRepository) Save(ctx context.Context, name string, entries []queue.SavedEntry, current int) error {
	if name == "" {
		return fmt.Errorf("%w: snapshot name is empty", shared.ErrInvalidInput)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM queue_snapshots WHERE name = ?", name); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	id := shared.GenerateID()
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO queue_snapshots (id, name, current_pos, saved_at) VALUES (?, ?, ?, ?)",
		id, name, current, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO queue_snapshot_entries (snapshot_id, position, `+trackColumns+`, priority, start_ms, end_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare entry insert: %w", err)
	}
	defer stmt.Close()

	for pos, e := range entries {
		args := append([]any{id, pos}, trackArgs(e.Track)...)
		args = append(args, e.Priority, e.Range.Start.Milliseconds(), e.Range.End.Milliseconds())
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert entry %d: %w", pos, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// Load returns the entries and current position of the snapshot called name, or [shared.ErrNoSnapshot].
func (r *QueueStateRepository) Load(ctx context.Context, name string) ([]queue.SavedEntry, int, error) {
	var (
		id      string
		current int
	)
	err := r.db.QueryRowContext(ctx, "SELECT id, current_pos FROM queue_snapshots WHERE name = ?", name).Scan(&id, &current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, -1, fmt.Errorf("%w: %s", shared.ErrNoSnapshot, name)
	}
	if err != nil {
		return nil, -1, fmt.Errorf("failed to read snapshot: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+trackColumns+`, priority, start_ms, end_ms
		FROM queue_snapshot_entries
		WHERE snapshot_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, -1, fmt.Errorf("failed to query snapshot entries: %w", err)
	}
	defer rows.Close()

	var entries []queue.SavedEntry
	for rows.Next() {
		var (
			priority       uint8
			startMS, endMS int64
		)
		t, err := scanTrack(rows, &priority, &startMS, &endMS)
		if err != nil {
			return nil, -1, err
		}
		entries = append(entries, queue.SavedEntry{
			Track:    t,
			Priority: priority,
			Range:    queue.NewPlayRange(time.Duration(startMS)*time.Millisecond, time.Duration(endMS)*time.Millisecond),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, -1, fmt.Errorf("row iteration error: %w", err)
	}

	if current >= len(entries) {
		current = -1
	}
	return entries, current, nil
}

// List returns every saved snapshot, newest first.
func (r *QueueStateRepository) List(ctx context.Context) ([]SnapshotInfo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.name, s.current_pos, s.saved_at, COUNT(e.position)
		FROM queue_snapshots s
		LEFT JOIN queue_snapshot_entries e ON e.snapshot_id = s.id
		GROUP BY s.id
		ORDER BY s.saved_at DESC, s.name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var out []SnapshotInfo
	for rows.Next() {
		var s SnapshotInfo
		if err := rows.Scan(&s.ID, &s.Name, &s.Current, &s.SavedAt, &s.Entries); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes the snapshot called name and its entries.
func (r *QueueStateRepository) Delete(ctx context.Context, name string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM queue_snapshots WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrNoSnapshot, name)
	}
	return nil
}
