package browser_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonesrussell/north-cloud/harvester/internal/browser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRaceTimeout_ResultWins(t *testing.T) {
	t.Parallel()

	got, err := browser.RaceTimeout(context.Background(), time.Second,
		func(context.Context) (string, error) { return "done", nil }, nil)

	require.NoError(t, err)
	assert.Equal(t, "done", got)
}

func TestRaceTimeout_PropagatesOperationError(t *testing.T) {
	t.Parallel()

	opErr := errors.New("execution context destroyed")
	err := browser.RaceTimeoutErr(context.Background(), time.Second,
		func(context.Context) error { return opErr })

	assert.ErrorIs(t, err, opErr)
}

func TestRaceTimeout_TimerWinsAndLateValueIsDiscarded(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	var discarded atomic.Int32

	_, err := browser.RaceTimeout(context.Background(), 10*time.Millisecond,
		func(context.Context) (int, error) {
			<-release
			return 42, nil
		},
		func(v int) { discarded.Store(int32(v)) },
	)
	require.ErrorIs(t, err, browser.ErrTimeout)

	close(release)
	assert.Eventually(t, func() bool { return discarded.Load() == 42 }, time.Second, time.Millisecond)
}

func TestRaceTimeout_ParentCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := browser.RaceTimeoutErr(ctx, time.Second, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, browser.ErrTimeout)
}

func TestConfig_WithDefaults(t *testing.T) {
	t.Parallel()

	cfg := browser.DefaultConfig()
	assert.True(t, cfg.Headless)
	assert.True(t, cfg.BlockResources)
	assert.Equal(t, 30*time.Second, cfg.NavigationTimeout)
	assert.Positive(t, cfg.PageTimeout)
	assert.Positive(t, cfg.CloseTimeout)

	opts := browser.Config{LaunchArgs: []string{"--lang=en-US"}}.WithDefaults().LaunchOptions()
	assert.Empty(t, opts.BlockedResourceTypes)
	assert.Equal(t, []string{"--lang=en-US"}, opts.Args)
}
