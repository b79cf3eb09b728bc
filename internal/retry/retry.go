package retry

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

var ErrTooManyAttempts = errors.New("too many retry attempts")

// Callable is retried while it keeps returning errors created with Error.
// Any other error aborts the loop immediately.
type Callable func(attempt int) error

type attemptError struct {
	error
	attempt int
}

// Error marks err as retryable, recording the attempt it came from.
func Error(err error, attempt int) error {
	if err == nil {
		return nil
	}

	return &attemptError{error: err, attempt: attempt}
}

// Attempts paces a retry loop: Next yields the pause before the following
// attempt and reports when no attempts are left.
type Attempts interface {
	Next() (time.Duration, bool)
	Current() int
}

func Start(ctx context.Context, a Attempts, cb Callable) error {
	for {
		err := cb(a.Current())
		if err == nil {
			return nil
		}

		// callable gave up with an unrecoverable error
		if _, ok := err.(*attemptError); !ok {
			return errors.Wrapf(err, "retry %d failed", a.Current())
		}

		pause, exhausted := a.Next()
		if exhausted {
			return ErrTooManyAttempts
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pause):
		}
	}
}

// Incremental retries cb with pauses growing by step until maxAttempts
// is reached.
func Incremental(ctx context.Context, step time.Duration, maxAttempts int, cb Callable) error {
	return Start(ctx, IncrementalAttempts(step, maxAttempts), cb)
}

type incrementalAttempts struct {
	mu   sync.Mutex
	prev time.Duration
	step time.Duration
	max  int
	curr int
}

func (a *incrementalAttempts) Next() (time.Duration, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.curr++
	if a.curr > a.max {
		return 0, true
	}

	a.prev += a.step

	return a.prev, false
}

func (a *incrementalAttempts) Current() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.curr
}

func IncrementalAttempts(step time.Duration, max int) Attempts {
	return &incrementalAttempts{
		step: step,
		max:  max,
		curr: 1,
	}
}
