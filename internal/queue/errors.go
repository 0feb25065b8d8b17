package queue

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPosition = fmt.Errorf("invalid position")
	ErrOutOfRange      = fmt.Errorf("bad song index")
	ErrNoSuchID        = fmt.Errorf("no such song")
	ErrInvalidRange    = fmt.Errorf("bad range")
	ErrQueueFull       = fmt.Errorf("queue is full")

	// ErrInternalConsistency marks a failed compensating action. It signals a bug and must not be retried.
	ErrInternalConsistency = fmt.Errorf("internal consistency error")

	errNilTrack = fmt.Errorf("nil track")
)

// Kind returns the stable name of the queue error wrapped by err, or "unknown".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInternalConsistency):
		return "internal_consistency"
	case errors.Is(err, ErrInvalidPosition):
		return "invalid_position"
	case errors.Is(err, ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, ErrNoSuchID):
		return "no_such_id"
	case errors.Is(err, ErrInvalidRange):
		return "invalid_range"
	case errors.Is(err, ErrQueueFull):
		return "queue_full"
	default:
		return "unknown"
	}
}
