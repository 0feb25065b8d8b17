// package formatter renders queue listings as CSV, Markdown, M3U or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/mpq/internal/models"
	"github.com/desertthunder/mpq/internal/shared"
)

// Format is an export format.
type Format int

const (
	Text Format = iota
	CSV
	Markdown
	M3U
)

func (f Format) String() string {
	switch f {
	case Text:
		return "text"
	case CSV:
		return "csv"
	case Markdown:
		return "markdown"
	case M3U:
		return "m3u"
	default:
		return ""
	}
}

// Extension returns the file extension for f, with the dot.
func (f Format) Extension() string {
	switch f {
	case CSV:
		return ".csv"
	case Markdown:
		return ".md"
	case M3U:
		return ".m3u"
	default:
		return ".txt"
	}
}

// ParseFormat parses a format name. "md" and "txt" are accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "text", "txt":
		return Text, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "m3u", "m3u8":
		return M3U, nil
	default:
		return Text, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

// QueueExport is a queue listing with the status it was taken at.
type QueueExport struct {
	Name   string
	Status models.QueueStatus
	Items  []models.QueueItem
}

func (e *QueueExport) title() string {
	if e.Name == "" {
		return "Queue"
	}
	return e.Name
}

func playRange(r *models.PlayRange) string {
	if r == nil {
		return ""
	}
	start := shared.FormatDuration(time.Duration(r.StartMS) * time.Millisecond)
	if r.EndMS == 0 {
		return start + "-"
	}
	return start + "-" + shared.FormatDuration(time.Duration(r.EndMS)*time.Millisecond)
}

// Render renders export in format f.
func Render(f Format, export *QueueExport) ([]byte, error) {
	switch f {
	case CSV:
		return ExportToCSV(export)
	case Markdown:
		return ExportToMarkdown(export)
	case M3U:
		return ExportToM3U(export)
	default:
		return ExportToText(export)
	}
}

// ExportToCSV converts a queue listing to CSV with columns: Position, ID, Priority, URI, Title, Artist, Album, Duration, Range
func ExportToCSV(export *QueueExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "ID", "Priority", "URI", "Title", "Artist", "Album", "Duration", "Range"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range export.Items {
		t := item.Track
		record := []string{
			strconv.Itoa(item.Position),
			strconv.FormatUint(uint64(item.ID), 10),
			strconv.Itoa(int(item.Priority)),
			t.URI,
			t.Title,
			t.Artist,
			t.Album,
			strconv.FormatInt(t.Duration.Milliseconds(), 10),
			playRange(item.Range),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a queue listing to a numbered Markdown list. The playing entry is marked.
func ExportToMarkdown(export *QueueExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", export.title())
	fmt.Fprintf(&buf, "**Entries**: %d\n", len(export.Items))
	fmt.Fprintf(&buf, "**Version**: %d\n\n", export.Status.Version)

	buf.WriteString("## Tracks\n\n")
	for i, item := range export.Items {
		t := item.Track
		line := fmt.Sprintf("%d. %s", i+1, t.DisplayName())
		if t.Album != "" {
			line += fmt.Sprintf(" (%s)", t.Album)
		}
		if t.Duration > 0 {
			line += fmt.Sprintf(" [%s]", shared.FormatDuration(t.Duration))
		}
		if item.Priority > 0 {
			line += fmt.Sprintf(" *prio %d*", item.Priority)
		}
		if item.ID == export.Status.CurrentID {
			line += " **(playing)**"
		}
		fmt.Fprintf(&buf, "%s\n", line)
	}

	return buf.Bytes(), nil
}

// ExportToM3U converts a queue listing to an extended M3U playlist.
func ExportToM3U(export *QueueExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("#EXTM3U\n")
	fmt.Fprintf(&buf, "#PLAYLIST:%s\n", export.title())
	for _, item := range export.Items {
		t := item.Track
		secs := -1
		if t.Duration > 0 {
			secs = int(t.Duration.Round(time.Second) / time.Second)
		}
		fmt.Fprintf(&buf, "#EXTINF:%d,%s\n%s\n", secs, t.DisplayName(), t.URI)
	}

	return buf.Bytes(), nil
}

// ExportToText converts a queue listing to plain text.
func ExportToText(export *QueueExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s (version %d)\n", export.title(), export.Status.Version)
	fmt.Fprintf(&buf, "Entries: %d\n\n", len(export.Items))

	for _, item := range export.Items {
		marker := " "
		if item.ID == export.Status.CurrentID {
			marker = ">"
		}
		fmt.Fprintf(&buf, "%s %3d. [%d] %s\n", marker, item.Position, item.ID, item.Track.DisplayName())
	}

	return buf.Bytes(), nil
}

// WriteExport renders export and writes it to path.
//
// Defaults to {name}{ext} in the working directory, "queue" when the export has no name.
func WriteExport(f Format, export *QueueExport, path string) (string, error) {
	if path == "" {
		base := export.Name
		if base == "" {
			base = "queue"
		}
		path = base + f.Extension()
	}

	data, err := Render(f, export)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", f, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}

	return path, nil
}
