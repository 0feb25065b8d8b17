package models

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// FilterTags are the tag names a [TagFilter] understands. "any" checks every tag and the uri.
var FilterTags = []string{"any", "uri", "title", "artist", "album", "genre", "year", "track"}

// TagFilter selects tracks by one tag.
//
// Without Fold the tag must equal Value exactly. With Fold, Value matches any case-folded substring.
type TagFilter struct {
	Tag   string `json:"tag"`
	Value string `json:"value"`
	Fold  bool   `json:"fold,omitempty"`
}

// Validate reports an unknown tag or a missing value.
func (f TagFilter) Validate() error {
	if !slices.Contains(FilterTags, f.Tag) {
		return fmt.Errorf("unknown tag %q (want one of %s)", f.Tag, strings.Join(FilterTags, ", "))
	}
	if f.Value == "" {
		return fmt.Errorf("empty value for tag %q", f.Tag)
	}
	return nil
}

// Matcher returns a predicate for f. The predicate is not safe for concurrent use.
func (f TagFilter) Matcher() func(*Track) bool {
	caser := cases.Fold()
	needle := f.Value
	if f.Fold {
		needle = caser.String(needle)
	}

	return func(t *Track) bool {
		if t == nil {
			return false
		}
		for _, v := range tagValues(t, f.Tag) {
			if f.Fold {
				if strings.Contains(caser.String(v), needle) {
					return true
				}
			} else if v == needle {
				return true
			}
		}
		return false
	}
}

func tagValues(t *Track, tag string) []string {
	number := func(n int) string {
		if n == 0 {
			return ""
		}
		return strconv.Itoa(n)
	}

	switch tag {
	case "uri":
		return []string{t.URI}
	case "title":
		return []string{t.Title}
	case "artist":
		return []string{t.Artist}
	case "album":
		return []string{t.Album}
	case "genre":
		return []string{t.Genre}
	case "year":
		return []string{number(t.Year)}
	case "track":
		return []string{number(t.Number)}
	case "any":
		return []string{t.URI, t.Title, t.Artist, t.Album, t.Genre, number(t.Year), number(t.Number)}
	default:
		return nil
	}
}
