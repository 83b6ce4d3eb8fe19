package retry_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonesrussell/north-cloud/harvester/infrastructure/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSleeper captures requested delays without waiting.
type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func testConfig(s *recordingSleeper) retry.Config {
	return retry.Config{
		MaxAttempts: 4,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		Sleep:       s.sleep,
	}
}

func TestDo_AlwaysFailingInvokedExactlyMaxAttempts(t *testing.T) {
	t.Parallel()

	sleeper := &recordingSleeper{}
	opErr := errors.New("connection reset by peer")
	calls := 0

	err := retry.Do(context.Background(), testConfig(sleeper), func(context.Context) error {
		calls++
		return opErr
	})

	assert.Equal(t, 4, calls)
	assert.Same(t, opErr, err, "final error must be the operation's own error")
	assert.Len(t, sleeper.delays, 3, "one delay per retry")
}

func TestDo_SuccessHasNoDelay(t *testing.T) {
	t.Parallel()

	sleeper := &recordingSleeper{}
	calls := 0

	err := retry.Do(context.Background(), testConfig(sleeper), func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, sleeper.delays)
}

func TestDoValue_SucceedsAfterTransientFailures(t *testing.T) {
	t.Parallel()

	sleeper := &recordingSleeper{}
	calls := 0

	got, err := retry.DoValue(context.Background(), testConfig(sleeper), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("i/o timeout")
		}
		return "feed-body", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "feed-body", got)
	assert.Equal(t, 3, calls)
	require.Len(t, sleeper.delays, 2)
	assert.GreaterOrEqual(t, sleeper.delays[0], 100*time.Millisecond)
	assert.GreaterOrEqual(t, sleeper.delays[1], 200*time.Millisecond)
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	t.Parallel()

	sleeper := &recordingSleeper{}
	notPDF := errors.New("content type mismatch")
	calls := 0

	err := retry.Do(context.Background(), testConfig(sleeper), func(context.Context) error {
		calls++
		return retry.Permanent(notPDF)
	})

	assert.Equal(t, 1, calls)
	assert.Same(t, notPDF, err)
	assert.Empty(t, sleeper.delays)
}

func TestDo_IsRetryableFalseStopsImmediately(t *testing.T) {
	t.Parallel()

	sleeper := &recordingSleeper{}
	cfg := testConfig(sleeper)
	cfg.IsRetryable = func(error) bool { return false }
	calls := 0

	err := retry.Do(context.Background(), cfg, func(context.Context) error {
		calls++
		return errors.New("404")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelledDuringDelay(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sleeper := &recordingSleeper{}
	opErr := errors.New("boom")

	err := retry.Do(ctx, testConfig(sleeper), func(context.Context) error {
		return opErr
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, opErr)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoff_NeverExceedsMaxDelay(t *testing.T) {
	t.Parallel()

	cfg := retry.Config{
		MaxAttempts: 10,
		BaseDelay:   250 * time.Millisecond,
		MaxDelay:    3 * time.Second,
	}

	for k := range 64 {
		for _, j := range []time.Duration{0, 500 * time.Millisecond, 999 * time.Millisecond} {
			d := retry.Backoff(cfg, k, j)
			assert.LessOrEqual(t, d, cfg.MaxDelay, "k=%d jitter=%s", k, j)
			assert.Positive(t, d)
		}
	}
}

func TestBackoff_ExponentialGrowth(t *testing.T) {
	t.Parallel()

	cfg := retry.Config{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Minute}

	assert.Equal(t, 100*time.Millisecond, retry.Backoff(cfg, 0, 0))
	assert.Equal(t, 200*time.Millisecond, retry.Backoff(cfg, 1, 0))
	assert.Equal(t, 800*time.Millisecond, retry.Backoff(cfg, 3, 0))
	assert.Equal(t, 850*time.Millisecond, retry.Backoff(cfg, 3, 50*time.Millisecond))
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := retry.DefaultConfig()
	assert.Equal(t, retry.DefaultMaxAttempts, cfg.MaxAttempts)
	assert.Equal(t, retry.DefaultMaxJitter, cfg.MaxJitter)
	assert.Nil(t, retry.Permanent(nil))
}
