package tasks

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/mpq/internal/queue"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

// startLoop runs a loop over a fresh queue until the test ends.
func startLoop(t *testing.T, opts queue.Options) (*Loop, *queue.Queue) {
	t.Helper()
	q := queue.New(opts)
	l := NewLoop(q, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		l.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return l, q
}

func viewURIs(v *queue.ChangeView) []string {
	out := make([]string, 0, v.Len())
	for i := range v.Len() {
		e, _ := v.At(i)
		out = append(out, e.Track.URI)
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
