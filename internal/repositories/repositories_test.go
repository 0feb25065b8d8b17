package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/mpq/internal/models"
	"github.com/desertthunder/mpq/internal/queue"
	"github.com/desertthunder/mpq/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func seedTracks(t *testing.T, repo *TrackRepository, uris ...string) {
	t.Helper()
	for _, uri := range uris {
		if err := repo.Upsert(context.Background(), &models.Track{URI: uri, Title: uri}); err != nil {
			t.Fatalf("failed to seed %s: %v", uri, err)
		}
	}
}

func trackURIs(tracks []*models.Track) []string {
	out := make([]string, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, t.URI)
	}
	return out
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestTrackRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Upsert And Get", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))
		track := &models.Track{
			URI:      "Artist/Album/01 Song.flac",
			Title:    "Song",
			Artist:   "Artist",
			Album:    "Album",
			Year:     1999,
			Number:   1,
			Duration: 3*time.Minute + 1500*time.Millisecond,
		}

		if err := repo.Upsert(ctx, track); err != nil {
			t.Fatalf("failed to upsert track: %v", err)
		}

		got, err := repo.Get(ctx, track.URI)
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}
		if *got != *track {
			t.Errorf("expected %+v, got %+v", track, got)
		}

		track.Title = "Renamed"
		if err := repo.Upsert(ctx, track); err != nil {
			t.Fatalf("failed to update track: %v", err)
		}
		if got, _ := repo.Get(ctx, track.URI); got.Title != "Renamed" {
			t.Errorf("expected updated title, got %s", got.Title)
		}
		if n, _ := repo.Count(ctx); n != 1 {
			t.Errorf("expected 1 track, got %d", n)
		}
	})

	t.Run("Get NotFound", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))
		if _, err := repo.Get(ctx, "missing.mp3"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Upsert Without URI", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))
		if err := repo.Upsert(ctx, &models.Track{Title: "x"}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Select", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))
		seedTracks(t, repo, "b/2.mp3", "a/1.mp3", "a/sub/3.mp3", "ab/4.mp3", "c.mp3")

		tc := []struct {
			name     string
			selector string
			window   models.Window
			want     []string
		}{
			{"everything", "", models.Window{}, []string{"a/1.mp3", "a/sub/3.mp3", "ab/4.mp3", "b/2.mp3", "c.mp3"}},
			{"directory", "a", models.Window{}, []string{"a/1.mp3", "a/sub/3.mp3"}},
			{"trailing slash", "a/", models.Window{}, []string{"a/1.mp3", "a/sub/3.mp3"}},
			{"single file", "c.mp3", models.Window{}, []string{"c.mp3"}},
			{"limit", "", models.Window{Limit: 2}, []string{"a/1.mp3", "a/sub/3.mp3"}},
			{"offset", "", models.Window{Offset: 3}, []string{"b/2.mp3", "c.mp3"}},
			{"offset and limit", "", models.Window{Offset: 1, Limit: 2}, []string{"a/sub/3.mp3", "ab/4.mp3"}},
			{"no match", "zzz", models.Window{}, nil},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				got, err := repo.Select(ctx, tt.selector, tt.window)
				if err != nil {
					t.Fatalf("failed to select: %v", err)
				}
				if uris := trackURIs(got); !sameStrings(uris, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, uris)
				}
			})
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))
		seedTracks(t, repo, "a.mp3", "b.mp3")

		if err := repo.Delete(ctx, "a.mp3"); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if err := repo.Delete(ctx, "a.mp3"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}

		uris, err := repo.URIs(ctx)
		if err != nil {
			t.Fatalf("failed to list uris: %v", err)
		}
		if !sameStrings(uris, []string{"b.mp3"}) {
			t.Errorf("expected [b.mp3], got %v", uris)
		}
	})
}

func TestQueueStateRepository(t *testing.T) {
	ctx := context.Background()
	entries := []queue.SavedEntry{
		{Track: &models.Track{URI: "a.flac", Title: "A", Duration: time.Minute}},
		{Track: &models.Track{URI: "http://radio.example/stream", Title: "Radio"}, Priority: 200},
		{Track: &models.Track{URI: "b.flac"}, Range: queue.NewPlayRange(1500*time.Millisecond, 30*time.Second)},
	}

	t.Run("Save And Load", func(t *testing.T) {
		repo := NewQueueStateRepository(setupTestDB(t))

		if err := repo.Save(ctx, StateSnapshot, entries, 1); err != nil {
			t.Fatalf("failed to save: %v", err)
		}

		got, current, err := repo.Load(ctx, StateSnapshot)
		if err != nil {
			t.Fatalf("failed to load: %v", err)
		}
		if current != 1 {
			t.Errorf("expected current 1, got %d", current)
		}
		if len(got) != len(entries) {
			t.Fatalf("expected %d entries, got %d", len(entries), len(got))
		}
		for i := range entries {
			if *got[i].Track != *entries[i].Track {
				t.Errorf("entry %d: expected track %+v, got %+v", i, entries[i].Track, got[i].Track)
			}
			if got[i].Priority != entries[i].Priority || got[i].Range != entries[i].Range {
				t.Errorf("entry %d: expected %+v, got %+v", i, entries[i], got[i])
			}
		}
	})

	t.Run("Save Replaces", func(t *testing.T) {
		repo := NewQueueStateRepository(setupTestDB(t))

		if err := repo.Save(ctx, "mix", entries, -1); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
		if err := repo.Save(ctx, "mix", entries[:1], 0); err != nil {
			t.Fatalf("failed to save again: %v", err)
		}

		got, _, err := repo.Load(ctx, "mix")
		if err != nil {
			t.Fatalf("failed to load: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("expected 1 entry after replace, got %d", len(got))
		}

		list, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(list) != 1 || list[0].Name != "mix" || list[0].Entries != 1 {
			t.Errorf("unexpected snapshot list %+v", list)
		}
	})

	t.Run("Load Missing", func(t *testing.T) {
		repo := NewQueueStateRepository(setupTestDB(t))
		if _, _, err := repo.Load(ctx, "nope"); !errors.Is(err, shared.ErrNoSnapshot) {
			t.Errorf("expected ErrNoSnapshot, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewQueueStateRepository(setupTestDB(t))
		if err := repo.Save(ctx, "gone", entries, -1); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
		if err := repo.Delete(ctx, "gone"); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if err := repo.Delete(ctx, "gone"); !errors.Is(err, shared.ErrNoSnapshot) {
			t.Errorf("expected ErrNoSnapshot, got %v", err)
		}
	})

	t.Run("Empty Name", func(t *testing.T) {
		repo := NewQueueStateRepository(setupTestDB(t))
		if err := repo.Save(ctx, "", entries, -1); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}
