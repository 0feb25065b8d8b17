package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/mpq/internal/models"
)

type fakeClient struct {
	changes  models.ChangeSet
	idle     models.QueueStatus
	err      error
	since    []uint32
	current  uint32
	deleted  []uint32
	shuffled bool
}

func (f *fakeClient) Changes(ctx context.Context, since models.Baseline, start int, end *int, idsOnly bool) (models.ChangeSet, error) {
	f.since = append(f.since, since.Version)
	return f.changes, f.err
}

func (f *fakeClient) Idle(ctx context.Context, seen models.QueueStatus, timeout time.Duration) (models.QueueStatus, error) {
	return f.idle, f.err
}

func (f *fakeClient) SetCurrent(ctx context.Context, id uint32) (models.QueueStatus, error) {
	f.current = id
	return models.QueueStatus{}, f.err
}

func (f *fakeClient) DeleteID(ctx context.Context, id uint32) (models.QueueStatus, error) {
	f.deleted = append(f.deleted, id)
	return models.QueueStatus{}, f.err
}

func (f *fakeClient) Shuffle(ctx context.Context, span models.Span) (models.QueueStatus, error) {
	f.shuffled = true
	return models.QueueStatus{}, f.err
}

func fullListing(version uint32, titles ...string) models.ChangeSet {
	cs := models.ChangeSet{
		Status: models.QueueStatus{Version: version, Length: len(titles), Current: -1},
		Full:   true,
	}
	for i, title := range titles {
		cs.Items = append(cs.Items, models.QueueItem{
			Position: i,
			ID:       uint32(i + 1),
			Version:  version,
			Track:    &models.Track{URI: title, Title: title},
		})
	}
	return cs
}

// run executes cmd and returns its message; batches are not followed.
func run(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	return cmd()
}

func TestModel(t *testing.T) {
	ctx := context.Background()

	t.Run("initial fetch fills the list", func(t *testing.T) {
		client := &fakeClient{changes: fullListing(3, "a", "b")}
		m := NewModel(ctx, client)
		m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

		msg := run(t, m.Init())
		m.Update(msg)

		if len(client.since) != 1 || client.since[0] != 0 {
			t.Errorf("expected a full fetch, got %v", client.since)
		}
		if len(m.list.Items()) != 2 {
			t.Errorf("expected 2 items, got %d", len(m.list.Items()))
		}
		if m.mirror.Since().Version != 4 {
			t.Errorf("expected next baseline 4, got %d", m.mirror.Since().Version)
		}
		if view := m.View(); !strings.Contains(view, "v0.3") {
			t.Errorf("status line missing, got %s", view)
		}
	})

	t.Run("idle without change waits again", func(t *testing.T) {
		client := &fakeClient{changes: fullListing(3, "a")}
		m := NewModel(ctx, client)
		m.Update(run(t, m.Init()))

		client.idle = models.QueueStatus{Version: 3, Length: 1}
		_, cmd := m.handleIdle(queueIdle{status: client.idle})
		if msg, ok := run(t, cmd).(Msg); !ok || msg.kind != MsgQueueIdle {
			t.Errorf("expected another idle wait, got %+v", msg)
		}
	})

	t.Run("idle with a cursor change refreshes", func(t *testing.T) {
		client := &fakeClient{changes: fullListing(3, "a")}
		m := NewModel(ctx, client)
		m.Update(run(t, m.Init()))

		client.changes = models.ChangeSet{Status: models.QueueStatus{Version: 3, Length: 1, CurrentID: 1, Current: 0}}
		_, cmd := m.handleIdle(queueIdle{status: client.changes.Status})
		msg, ok := run(t, cmd).(Msg)
		if !ok || msg.kind != MsgChangesFetched {
			t.Fatalf("expected a change fetch, got %+v", msg)
		}
		m.Update(msg)

		if got := client.since[len(client.since)-1]; got != 4 {
			t.Errorf("expected a diff from 4, got %d", got)
		}
		if m.mirror.Status().CurrentID != 1 {
			t.Errorf("expected current 1, got %+v", m.mirror.Status())
		}
	})

	t.Run("idle with a change fetches the diff", func(t *testing.T) {
		client := &fakeClient{changes: fullListing(3, "a")}
		m := NewModel(ctx, client)
		m.Update(run(t, m.Init()))

		client.changes = models.ChangeSet{
			Status: models.QueueStatus{Version: 4, Length: 2, Current: -1},
			Items:  []models.QueueItem{{Position: 1, ID: 2, Version: 4, Track: &models.Track{Title: "b"}}},
		}
		_, cmd := m.handleIdle(queueIdle{status: models.QueueStatus{Version: 4, Length: 2}})
		m.Update(run(t, cmd))

		if got := client.since[len(client.since)-1]; got != 4 {
			t.Errorf("expected a diff from 4, got %d", got)
		}
		if len(m.mirror.Items()) != 2 || m.mirror.Items()[1].Track.Title != "b" {
			t.Errorf("diff not applied: %+v", m.mirror.Items())
		}
	})

	t.Run("epoch change resyncs", func(t *testing.T) {
		client := &fakeClient{changes: fullListing(3, "a")}
		m := NewModel(ctx, client)
		m.Update(run(t, m.Init()))

		_, cmd := m.handleIdle(queueIdle{status: models.QueueStatus{Version: 1, Epoch: 1}})
		run(t, cmd)
		if got := client.since[len(client.since)-1]; got != 0 {
			t.Errorf("expected a full fetch after the epoch changed, got %d", got)
		}
	})

	t.Run("keys issue commands", func(t *testing.T) {
		client := &fakeClient{changes: fullListing(3, "a", "b")}
		m := NewModel(ctx, client)
		m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
		m.Update(run(t, m.Init()))

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		run(t, cmd)
		if client.current != 1 {
			t.Errorf("expected id 1 to become current, got %d", client.current)
		}

		_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
		run(t, cmd)
		if len(client.deleted) != 1 || client.deleted[0] != 1 {
			t.Errorf("expected id 1 deleted, got %v", client.deleted)
		}

		_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
		run(t, cmd)
		if !client.shuffled {
			t.Error("shuffle not sent")
		}
	})

	t.Run("failed command shows a notice", func(t *testing.T) {
		m := NewModel(ctx, &fakeClient{})
		m.Update(commandDoneMsg("delete", errors.New("gone")))
		if !strings.Contains(m.View(), "delete failed") {
			t.Errorf("notice missing, got %s", m.View())
		}
	})

	t.Run("fetch error is shown", func(t *testing.T) {
		client := &fakeClient{err: errors.New("connection refused")}
		m := NewModel(ctx, client)
		m.Update(run(t, m.Init()))
		if !strings.Contains(m.View(), "connection refused") {
			t.Errorf("error missing, got %s", m.View())
		}
	})
}
