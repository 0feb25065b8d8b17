package queue

import (
	"errors"
	"fmt"
	"testing"
)

func TestBulkEdit(t *testing.T) {
	t.Run("one notification for many inserts", func(t *testing.T) {
		q, rec := newTestQueue(t)
		before := q.View()

		b := q.BeginBulkEdit()
		for i := range 100 {
			if _, err := q.Append(track(fmt.Sprint(i))); err != nil {
				t.Fatalf("failed to append: %v", err)
			}
			if q.View() != before {
				t.Fatal("view published inside the scope")
			}
		}
		b.End()

		if len(rec.versions) != 1 || rec.versions[0] != 100 {
			t.Errorf("expected one notification at 100, got %v", rec.versions)
		}
		if q.View().Len() != 100 {
			t.Errorf("expected 100 entries in the view, got %d", q.View().Len())
		}
		checkInvariants(t, q)
	})

	t.Run("nested scopes notify at the outermost end", func(t *testing.T) {
		q, rec := newTestQueue(t, "a")

		outer := q.BeginBulkEdit()
		inner := q.BeginBulkEdit()
		if _, err := q.Append(track("b")); err != nil {
			t.Fatalf("failed to append: %v", err)
		}
		inner.End()
		if len(rec.versions) != 0 {
			t.Error("inner scope end notified")
		}
		if !q.InBulkEdit() {
			t.Error("outer scope should still be open")
		}
		if err := q.DeleteRange(0, 1); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		outer.End()

		if len(rec.versions) != 1 {
			t.Errorf("expected one notification, got %v", rec.versions)
		}
		if q.InBulkEdit() {
			t.Error("scope still open")
		}
	})

	t.Run("no change means no notification", func(t *testing.T) {
		q, rec := newTestQueue(t, "a")
		err := q.Bulk(func() error {
			return q.SetPriorityID(1, 0)
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rec.versions) != 0 {
			t.Errorf("expected no notification, got %v", rec.versions)
		}
	})

	t.Run("end is idempotent", func(t *testing.T) {
		q, _ := newTestQueue(t)
		outer := q.BeginBulkEdit()
		inner := q.BeginBulkEdit()
		inner.End()
		inner.End()
		if !q.InBulkEdit() {
			t.Error("double End closed the outer scope")
		}
		outer.End()
		if q.InBulkEdit() {
			t.Error("scope still open")
		}
	})

	t.Run("scope closes when fn fails", func(t *testing.T) {
		q, rec := newTestQueue(t)
		boom := errors.New("boom")
		err := q.Bulk(func() error {
			if _, err := q.Append(track("a")); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		if q.InBulkEdit() {
			t.Error("scope left open")
		}
		if len(rec.versions) != 1 || q.View().Len() != 1 {
			t.Error("applied changes should still be published")
		}
	})
}
