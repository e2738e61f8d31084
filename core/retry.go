package core

import (
	"context"
	"time"
)

// ReadRetryDelay is the pause before the single retry of a read.
var ReadRetryDelay = 200 * time.Millisecond

// RetryRead calls fn and, when it fails with an *IOError, calls it exactly once more.
// Writes must not go through here: a failed write may have been applied.
func RetryRead[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	res, err := fn(ctx)
	if err == nil || !IsIOError(err) {
		return res, err
	}

	timer := time.NewTimer(ReadRetryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return res, err
	case <-timer.C:
	}
	return fn(ctx)
}
