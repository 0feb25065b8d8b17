package formatter

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/mpq/internal/models"
	"github.com/desertthunder/mpq/internal/shared"
	th "github.com/desertthunder/mpq/internal/testing"
)

func testExport() *QueueExport {
	return &QueueExport{
		Name:   "Friday",
		Status: models.QueueStatus{Version: 7, Length: 2, CurrentID: 4, Current: 1},
		Items: []models.QueueItem{
			{
				Position: 0,
				ID:       3,
				Priority: 5,
				Track: &models.Track{
					URI:      "rock/one.mp3",
					Title:    "Song One",
					Artist:   "Artist One",
					Album:    "Album One",
					Duration: 3 * time.Minute,
				},
				Range: &models.PlayRange{StartMS: 1500},
			},
			{
				Position: 1,
				ID:       4,
				Track: &models.Track{
					URI:   "https://radio.example/live",
					Title: "Live",
				},
			},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(testExport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Position,ID,Priority,URI,Title,Artist,Album,Duration,Range") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "0,3,5,rock/one.mp3,Song One,Artist One,Album One,180000,0:02-") {
			t.Errorf("CSV missing first entry, got: %s", output)
		}
		if !strings.Contains(output, "1,4,0,https://radio.example/live,Live,,,0,") {
			t.Errorf("CSV missing stream entry, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(testExport())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "# Friday") {
			t.Errorf("Markdown missing title")
		}
		if !strings.Contains(output, "**Entries**: 2") {
			t.Errorf("Markdown missing entry count")
		}
		if !strings.Contains(output, "1. Artist One - Song One (Album One) [3:00] *prio 5*") {
			t.Errorf("Markdown missing first entry, got: %s", output)
		}
		if !strings.Contains(output, "2. Live **(playing)**") {
			t.Errorf("Markdown missing playing marker, got: %s", output)
		}
	})

	t.Run("ExportToM3U", func(t *testing.T) {
		data, err := ExportToM3U(testExport())
		if err != nil {
			t.Fatalf("ExportToM3U failed: %v", err)
		}

		output := string(data)

		if !strings.HasPrefix(output, "#EXTM3U\n") {
			t.Errorf("M3U missing header")
		}
		if !strings.Contains(output, "#EXTINF:180,Artist One - Song One\nrock/one.mp3\n") {
			t.Errorf("M3U missing first entry, got: %s", output)
		}
		if !strings.Contains(output, "#EXTINF:-1,Live\nhttps://radio.example/live\n") {
			t.Errorf("M3U missing stream entry, got: %s", output)
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(testExport())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Friday (version 7)") {
			t.Errorf("Text missing title")
		}
		if !strings.Contains(output, "    0. [3] Artist One - Song One") {
			t.Errorf("Text missing first entry, got: %s", output)
		}
		if !strings.Contains(output, ">   1. [4] Live") {
			t.Errorf("Text missing playing marker, got: %s", output)
		}
	})

	t.Run("EmptyQueue", func(t *testing.T) {
		data, err := ExportToText(&QueueExport{})
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}
		if !strings.Contains(string(data), "Queue (version 0)") {
			t.Errorf("Text missing default title, got: %s", data)
		}
	})
}

func TestParseFormat(t *testing.T) {
	tc := []struct {
		input string
		want  Format
		err   bool
	}{
		{"", Text, false},
		{"txt", Text, false},
		{"CSV", CSV, false},
		{"md", Markdown, false},
		{"markdown", Markdown, false},
		{"m3u8", M3U, false},
		{"xml", Text, true},
	}

	for _, tt := range tc {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.err {
				if !errors.Is(err, shared.ErrInvalidArgument) {
					t.Errorf("expected ErrInvalidArgument, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, %v; want %v", tt.input, got, err, tt.want)
			}
		})
	}
}

func TestWriteExport(t *testing.T) {
	t.Run("WithDefaultPath", func(t *testing.T) {
		t.Chdir(t.TempDir())

		path, err := WriteExport(M3U, testExport(), "")
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if path != "Friday.m3u" {
			t.Errorf("expected Friday.m3u, got %s", path)
		}
		if content := th.MustReadFile(t, path); !strings.HasPrefix(content, "#EXTM3U") {
			t.Errorf("unexpected content %s", content)
		}
	})

	t.Run("WithCustomPath", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "exports", "queue.csv")

		got, err := WriteExport(CSV, testExport(), path)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if got != path {
			t.Errorf("expected %s, got %s", path, got)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("file not written: %v", err)
		}
	})

	t.Run("UnwritablePath", func(t *testing.T) {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "file")
		th.MustWriteFile(t, blocker, []byte("x"))

		if _, err := WriteExport(Text, testExport(), filepath.Join(blocker, "out.txt")); err == nil {
			t.Error("expected an error writing below a regular file")
		}
	})
}
