package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/mpq/internal/queue"
)

// ErrLoopStopped is returned for commands submitted after the loop exited.
var ErrLoopStopped = fmt.Errorf("command loop stopped")

type command struct {
	fn   func(q *queue.Queue) error
	done chan error
}

// Loop owns a [queue.Queue] and runs every mutation on one goroutine.
//
// Readers do not go through the loop: [Loop.View] returns the last published snapshot.
type Loop struct {
	q       *queue.Queue
	cmds    chan command
	stopped chan struct{}
	logger  *log.Logger
}

// NewLoop creates a loop for q. Nothing runs until [Loop.Run] is called.
func NewLoop(q *queue.Queue, logger *log.Logger) *Loop {
	return &Loop{
		q:       q,
		cmds:    make(chan command),
		stopped: make(chan struct{}),
		logger:  logger,
	}
}

// Run executes commands until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.stopped)
	l.logger.Debug("command loop started")

	for {
		select {
		case <-ctx.Done():
			l.logger.Debug("command loop stopped")
			return ctx.Err()
		case c := <-l.cmds:
			c.done <- l.exec(c.fn)
		}
	}
}

func (l *Loop) exec(fn func(q *queue.Queue) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("queue command panicked", "panic", r)
			err = fmt.Errorf("%w: panic: %v", queue.ErrInternalConsistency, r)
		}
	}()
	return fn(l.q)
}

// Do runs fn on the loop goroutine and returns its error.
//
// ctx only bounds the wait for the loop to accept fn. Once accepted, fn is in-memory work
// that runs to completion, and Do reports its real outcome.
func (l *Loop) Do(ctx context.Context, fn func(q *queue.Queue) error) error {
	c := command{fn: fn, done: make(chan error, 1)}

	select {
	case l.cmds <- c:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrLoopStopped
	}

	return <-c.done
}

// View returns the last published queue snapshot.
func (l *Loop) View() *queue.ChangeView {
	return l.q.View()
}
