package queue

import (
	"errors"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"
)

func TestShuffle(t *testing.T) {
	t.Run("keeps ids and versions", func(t *testing.T) {
		q, _ := newTestQueue(t, "a", "b", "c", "d", "e", "f")
		versions := map[uint32]uint32{}
		for _, e := range q.entries {
			versions[e.ID] = e.Version
		}

		if err := q.Shuffle(0, ToEnd); err != nil {
			t.Fatalf("failed to shuffle: %v", err)
		}
		got := ids(q)
		slices.Sort(got)
		if !equal(got, []uint32{1, 2, 3, 4, 5, 6}) {
			t.Errorf("shuffle lost ids: %v", got)
		}
		for _, e := range q.entries {
			if versions[e.ID] != e.Version {
				t.Errorf("entry %d version changed", e.ID)
			}
		}
		checkInvariants(t, q)
	})

	t.Run("outside the window is untouched", func(t *testing.T) {
		q, _ := newTestQueue(t, "a", "b", "c", "d", "e", "f")
		if err := q.Shuffle(2, 4); err != nil {
			t.Fatalf("failed to shuffle: %v", err)
		}
		got := titles(q)
		if got[0] != "a" || got[1] != "b" || got[4] != "e" || got[5] != "f" {
			t.Errorf("entries outside [2,4) moved: %v", got)
		}
	})

	t.Run("short ranges are a no-op", func(t *testing.T) {
		q, rec := newTestQueue(t, "a", "b")
		if err := q.Shuffle(1, 2); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rec.versions) != 0 {
			t.Error("single entry shuffle notified")
		}
	})

	t.Run("bad range", func(t *testing.T) {
		q, _ := newTestQueue(t, "a", "b")
		if err := q.Shuffle(1, 5); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("expected ErrOutOfRange, got %v", err)
		}
	})
}

// TestShuffleUniform checks the permutation distribution of a 4 entry queue with a chi-square test.
func TestShuffleUniform(t *testing.T) {
	const trials = 24000

	q := New(Options{Rand: rand.New(rand.NewPCG(7, 11))})
	for _, name := range []string{"a", "b", "c", "d"} {
		if _, err := q.Append(track(name)); err != nil {
			t.Fatalf("failed to append: %v", err)
		}
	}

	counts := map[string]int{}
	for range trials {
		if err := q.Shuffle(0, ToEnd); err != nil {
			t.Fatalf("failed to shuffle: %v", err)
		}
		counts[strings.Join(titles(q), "")]++
	}

	if len(counts) != 24 {
		t.Fatalf("expected all 24 permutations, saw %d", len(counts))
	}

	expected := float64(trials) / 24
	var chi2 float64
	for _, c := range counts {
		d := float64(c) - expected
		chi2 += d * d / expected
	}
	// 23 degrees of freedom; p=0.001 critical value is about 49.7.
	if chi2 > 60 {
		t.Errorf("permutations are not uniform: chi2=%.1f", chi2)
	}
}
