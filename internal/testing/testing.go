// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/mpq/internal/models"
	"github.com/desertthunder/mpq/internal/shared"
)

// MockLoader is a test double for [services.Loader]. Unknown URIs fail with [shared.ErrLoad].
type MockLoader struct {
	Tracks map[string]*models.Track
	Err    error
	Calls  []string
}

func (m *MockLoader) Load(ctx context.Context, uri string) (*models.Track, error) {
	m.Calls = append(m.Calls, uri)
	if m.Err != nil {
		return nil, m.Err
	}
	if t, ok := m.Tracks[uri]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrLoad, uri)
}

// MockIndex is a test double for [services.Index] over a fixed, ordered list of URIs.
type MockIndex struct {
	URIs []string
	Err  error
}

func (m *MockIndex) Select(ctx context.Context, selector string, window models.Window) ([]*models.Track, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	var matched []*models.Track
	for _, uri := range m.URIs {
		if selector == "" || uri == selector || strings.HasPrefix(uri, selector+"/") {
			matched = append(matched, &models.Track{URI: uri, Title: uri})
		}
	}
	start, end := window.Bounds(len(matched))
	return matched[start:end], nil
}

// Tracks builds tracks named after uris.
func Tracks(uris ...string) map[string]*models.Track {
	out := make(map[string]*models.Track, len(uris))
	for _, uri := range uris {
		out[uri] = &models.Track{URI: uri, Title: uri}
	}
	return out
}

// RecordingListener is a queue listener that remembers every notification. It is safe for concurrent use.
type RecordingListener struct {
	mu       sync.Mutex
	versions []uint32
	removed  []uint32
	currents []uint32
}

func (l *RecordingListener) OnQueueChanged(version uint32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.versions = append(l.versions, version)
}

func (l *RecordingListener) OnEntryRemoved(id uint32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.removed = append(l.removed, id)
}

func (l *RecordingListener) OnCurrentChanged(id uint32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.currents = append(l.currents, id)
}

// Currents returns the ids seen by OnCurrentChanged.
func (l *RecordingListener) Currents() []uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]uint32(nil), l.currents...)
}

// Versions returns the versions seen by OnQueueChanged.
func (l *RecordingListener) Versions() []uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]uint32(nil), l.versions...)
}

// Removed returns the ids seen by OnEntryRemoved.
func (l *RecordingListener) Removed() []uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]uint32(nil), l.removed...)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func MustWriteFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}
