package bootstrap_test

import (
	"context"
	"testing"
	"time"

	infralogger "github.com/jonesrussell/north-cloud/harvester/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/harvester/internal/bootstrap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSchedule_InvalidSpec(t *testing.T) {
	t.Parallel()

	err := bootstrap.RunSchedule(context.Background(), &recordingRunner{}, "every tuesday", []string{"tariffs"}, infralogger.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `parse schedule "every tuesday"`)
}

func TestRunSchedule_RunsTopicsOnTick(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := &recordingRunner{onRun: cancel}

	done := make(chan error, 1)
	go func() {
		done <- bootstrap.RunSchedule(ctx, runner, "@every 1s", []string{"tariffs", "ai chips"}, infralogger.NewNop())
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("schedule did not stop after the first run")
	}

	calls := runner.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"tariffs", "ai chips"}, calls[0])
}

func TestRunSchedule_StopsWithoutRunning(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &recordingRunner{}
	err := bootstrap.RunSchedule(ctx, runner, "@daily", []string{"tariffs"}, infralogger.NewNop())
	require.NoError(t, err)
	assert.Empty(t, runner.calls())
}
