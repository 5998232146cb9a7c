package resilience

import (
	"context"
	"fmt"
	"sync"
	"time"

	qrerrors "github.com/standardbeagle/quickreply/internal/errors"
)

// cell holds the first resolution of a race; later resolutions are dropped
type cell[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

func newCell[T any]() *cell[T] {
	return &cell[T]{done: make(chan struct{})}
}

// resolve stores the outcome if nothing has won yet and reports whether it did
func (c *cell[T]) resolve(value T, err error) bool {
	won := false
	c.once.Do(func() {
		c.value = value
		c.err = err
		won = true
		close(c.done)
	})
	return won
}

// Race runs fn against a timer. Whichever finishes first decides the
// outcome; the other is discarded even if it completes later. On timeout
// Race returns ErrTimeout immediately and cancels the context passed to fn,
// which may keep running in the background. A panic in fn is returned as
// an error. timeout <= 0 disables the timer.
func Race[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	result := newCell[T]()

	go func() {
		var zero T
		defer func() {
			if r := recover(); r != nil {
				result.resolve(zero, fmt.Errorf("panic: %v", r))
			}
		}()
		v, err := fn(runCtx)
		result.resolve(v, err)
	}()

	var timerC <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timerC = timer.C
	}

	var zero T
	select {
	case <-result.done:
	case <-timerC:
		result.resolve(zero, qrerrors.ErrTimeout)
	case <-ctx.Done():
		result.resolve(zero, ctx.Err())
	}

	<-result.done
	return result.value, result.err
}
