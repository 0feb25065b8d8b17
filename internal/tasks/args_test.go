package tasks

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/mpq/internal/models"
	"github.com/desertthunder/mpq/internal/queue"
	"github.com/desertthunder/mpq/internal/shared"
)

func TestParseTags(t *testing.T) {
	tc := []struct {
		name  string
		input string
		want  models.Tags
		err   bool
	}{
		{"empty", "", models.Tags{}, false},
		{"title and track", `{"title": "Live", "track": 3}`, models.Tags{Title: "Live", Number: 3}, false},
		{"all fields", `{"title":"t","artist":"a","album":"b","genre":"g","year":1999}`,
			models.Tags{Title: "t", Artist: "a", Album: "b", Genre: "g", Year: 1999}, false},
		{"not an object", `["title"]`, models.Tags{}, true},
		{"unknown field", `{"mood": "sad"}`, models.Tags{}, true},
		{"bad json", `{"title": }`, models.Tags{}, true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTags(tt.input)
			if tt.err {
				if !errors.Is(err, shared.ErrInvalidArgument) {
					t.Errorf("expected ErrInvalidArgument, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestParseTimeRange(t *testing.T) {
	tc := []struct {
		input      string
		start, end time.Duration
		err        bool
	}{
		{"1.5:", 1500 * time.Millisecond, 0, false},
		{":3", 0, 3 * time.Second, false},
		{":", 0, 0, false},
		{"2.3:10", 2300 * time.Millisecond, 10 * time.Second, false},
		{"5:3", 0, 0, true},
		{"5:5", 0, 0, true},
		{"-1:", 0, 0, true},
		{"NaN:", 0, 0, true},
		{"abc:1", 0, 0, true},
		{"12", 0, 0, true},
	}

	for _, tt := range tc {
		t.Run(tt.input, func(t *testing.T) {
			start, end, err := ParseTimeRange(tt.input)
			if tt.err {
				if !errors.Is(err, queue.ErrInvalidRange) {
					t.Errorf("expected ErrInvalidRange, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if start != tt.start || end != tt.end {
				t.Errorf("expected %s-%s, got %s-%s", tt.start, tt.end, start, end)
			}
		})
	}
}

func TestParseSpan(t *testing.T) {
	tc := []struct {
		input      string
		start, end int
		err        bool
	}{
		{"3", 3, 4, false},
		{"1:4", 1, 4, false},
		{"2:", 2, queue.ToEnd, false},
		{"0:0", 0, 0, false},
		{"-1", 0, 0, true},
		{"a:2", 0, 0, true},
		{"1:b", 0, 0, true},
		{"", 0, 0, true},
	}

	for _, tt := range tc {
		t.Run(tt.input, func(t *testing.T) {
			span, err := ParseSpan(tt.input)
			if tt.err {
				if !errors.Is(err, shared.ErrInvalidArgument) {
					t.Errorf("expected ErrInvalidArgument, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if span.Start != tt.start || SpanEnd(span) != tt.end {
				t.Errorf("expected [%d,%d), got [%d,%d)", tt.start, tt.end, span.Start, SpanEnd(span))
			}
		})
	}
}
