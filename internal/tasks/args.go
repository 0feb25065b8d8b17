package tasks

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/mpq/internal/models"
	"github.com/desertthunder/mpq/internal/queue"
	"github.com/desertthunder/mpq/internal/shared"
)

// ParseTags parses a JSON object of tag overrides such as {"title": "Live", "track": 3}.
// An empty string yields empty tags.
func ParseTags(s string) (models.Tags, error) {
	var tags models.Tags
	s = strings.TrimSpace(s)
	if s == "" {
		return tags, nil
	}
	if !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
		return tags, fmt.Errorf("%w: tags must be a JSON object", shared.ErrInvalidArgument)
	}

	dec := json.NewDecoder(strings.NewReader(s))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&tags); err != nil {
		return tags, fmt.Errorf("%w: parse json %s: %w", shared.ErrInvalidArgument, s, err)
	}
	return tags, nil
}

// ParseTimeRange parses "START:END", both optional non-negative offsets in fractional seconds.
// Omitted values are zero; END must be zero or after START.
func ParseTimeRange(s string) (time.Duration, time.Duration, error) {
	startStr, endStr, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q is not START:END", queue.ErrInvalidRange, s)
	}

	start, err := parseSeconds(startStr)
	if err != nil {
		return 0, 0, err
	}
	end, err := parseSeconds(endStr)
	if err != nil {
		return 0, 0, err
	}

	if end != 0 && end <= start {
		return 0, 0, fmt.Errorf("%w: end %s is not after start %s", queue.ErrInvalidRange, end, start)
	}
	return start, end, nil
}

func parseSeconds(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: bad offset %q", queue.ErrInvalidRange, s)
	}
	return time.Duration(math.Round(f*1000)) * time.Millisecond, nil
}

// ParseSpan parses a position range: "N" is the single position N, "START:END" is half-open,
// and "START:" reaches the tail.
func ParseSpan(s string) (models.Span, error) {
	startStr, endStr, isRange := strings.Cut(s, ":")

	start, err := strconv.Atoi(startStr)
	if err != nil || start < 0 {
		return models.Span{}, fmt.Errorf("%w: bad position %q", shared.ErrInvalidArgument, startStr)
	}

	if !isRange {
		end := start + 1
		return models.Span{Start: start, End: &end}, nil
	}
	if endStr == "" {
		return models.Span{Start: start}, nil
	}

	end, err := strconv.Atoi(endStr)
	if err != nil || end < 0 {
		return models.Span{}, fmt.Errorf("%w: bad position %q", shared.ErrInvalidArgument, endStr)
	}
	return models.Span{Start: start, End: &end}, nil
}

// SpanEnd resolves a wire span end to a queue range end.
func SpanEnd(span models.Span) int {
	if span.End == nil {
		return queue.ToEnd
	}
	return *span.End
}
