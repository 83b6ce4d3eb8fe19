package browser

import (
	"context"
	"fmt"
	"time"
)

type outcome[T any] struct {
	value T
	err   error
}

// RaceTimeout runs fn in its own goroutine and returns whichever finishes first:
// fn or the timeout. A lost race abandons fn rather than cancelling it, since
// the browser cannot abort work that is already in flight. If the abandoned fn
// later succeeds, its value is handed to discard so the caller can release it.
func RaceTimeout[T any](
	ctx context.Context,
	timeout time.Duration,
	fn func(context.Context) (T, error),
	discard func(T),
) (T, error) {
	raceCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result := make(chan outcome[T], 1)
	go func() {
		v, err := fn(raceCtx)
		result <- outcome[T]{value: v, err: err}
	}()

	select {
	case out := <-result:
		return out.value, out.err
	case <-raceCtx.Done():
		if discard != nil {
			go func() {
				if out := <-result; out.err == nil {
					discard(out.value)
				}
			}()
		}

		var zero T
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		return zero, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
}

// RaceTimeoutErr is RaceTimeout for operations without a result.
func RaceTimeoutErr(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	_, err := RaceTimeout(ctx, timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}, nil)
	return err
}
