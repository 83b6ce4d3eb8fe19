package browser_test

import (
	"context"
	"errors"
	"testing"
	"time"

	infralogger "github.com/jonesrussell/north-cloud/harvester/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/harvester/internal/browser"
	"github.com/jonesrussell/north-cloud/harvester/internal/browser/browsertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() browser.Config {
	return browser.Config{
		Headless:       true,
		BlockResources: true,
		PageTimeout:    50 * time.Millisecond,
		CloseTimeout:   50 * time.Millisecond,
		LaunchTimeout:  50 * time.Millisecond,
	}
}

func TestSessionManager_LaunchesLazilyAndOnce(t *testing.T) {
	t.Parallel()

	launcher := &browsertest.Launcher{}
	m := browser.NewSessionManager(launcher, fastConfig(), infralogger.NewNop())
	assert.Equal(t, 0, launcher.Launches(), "no browser before first use")

	first, err := m.NewPage(context.Background())
	require.NoError(t, err)
	second, err := m.NewPage(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, launcher.Launches())
	assert.Equal(t, 1, first.(*browsertest.Page).CloseCalls(), "opening a page closes the previous one")
	assert.Zero(t, second.(*browsertest.Page).CloseCalls())

	opts := launcher.LastOptions()
	assert.True(t, opts.Headless)
	assert.Equal(t, browser.DefaultUserAgent, opts.UserAgent)
	assert.Equal(t, browser.DefaultBlockedResourceTypes, opts.BlockedResourceTypes)
}

func TestSessionManager_LaunchFailureWrapsErrLaunch(t *testing.T) {
	t.Parallel()

	launcher := &browsertest.Launcher{Err: errors.New("chrome not found")}
	m := browser.NewSessionManager(launcher, fastConfig(), infralogger.NewNop())

	_, err := m.NewPage(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, browser.ErrLaunch)
	assert.Contains(t, err.Error(), "chrome not found")
}

func TestSessionManager_LaunchTimeout(t *testing.T) {
	t.Parallel()

	m := browser.NewSessionManager(&browsertest.Launcher{Hang: true}, fastConfig(), infralogger.NewNop())

	_, err := m.EnsureSession(context.Background())
	require.ErrorIs(t, err, browser.ErrLaunch)
	assert.ErrorIs(t, err, browser.ErrTimeout)
}

func TestSessionManager_CloseFailureRestartsSession(t *testing.T) {
	t.Parallel()

	restarts := 0
	launcher := &browsertest.Launcher{
		NewSession: func(n int) *browsertest.Session {
			if n == 0 {
				return &browsertest.Session{NewPageFunc: func() *browsertest.Page {
					return &browsertest.Page{CloseHang: true}
				}}
			}
			return &browsertest.Session{}
		},
	}
	m := browser.NewSessionManager(launcher, fastConfig(), infralogger.NewNop(),
		browser.WithRestartHook(func() { restarts++ }))

	page, err := m.NewPage(context.Background())
	require.NoError(t, err)

	m.ClosePage(page, 20*time.Millisecond)
	assert.Equal(t, 1, m.Restarts())
	assert.Equal(t, 1, restarts)

	_, err = m.NewPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, launcher.Launches(), "next page request launches a fresh session")
	assert.Equal(t, 2, m.Launches())

	old := launcher.Sessions()[0]
	assert.Eventually(t, old.Closed, time.Second, 5*time.Millisecond, "old session is disposed")
}

func TestSessionManager_PageOpenTimeoutRetriesOnFreshSession(t *testing.T) {
	t.Parallel()

	launcher := &browsertest.Launcher{
		NewSession: func(n int) *browsertest.Session {
			return &browsertest.Session{PageHang: n == 0}
		},
	}
	m := browser.NewSessionManager(launcher, fastConfig(), infralogger.NewNop())

	page, err := m.NewPage(context.Background())
	require.NoError(t, err)
	require.NotNil(t, page)

	assert.Equal(t, 2, launcher.Launches())
	assert.Equal(t, 1, m.Restarts())
}

func TestSessionManager_PageOpenErrorIsNotLaunchError(t *testing.T) {
	t.Parallel()

	launcher := &browsertest.Launcher{
		NewSession: func(int) *browsertest.Session {
			return &browsertest.Session{PageErr: errors.New("target crashed")}
		},
	}
	m := browser.NewSessionManager(launcher, fastConfig(), infralogger.NewNop())

	_, err := m.NewPage(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, browser.ErrLaunch)
	assert.Equal(t, 1, launcher.Launches())
}

func TestSessionManager_ShutdownIsIdempotent(t *testing.T) {
	t.Parallel()

	launcher := &browsertest.Launcher{}
	m := browser.NewSessionManager(launcher, fastConfig(), infralogger.NewNop())

	page, err := m.NewPage(context.Background())
	require.NoError(t, err)

	m.Shutdown()
	m.Shutdown()

	assert.Equal(t, 1, page.(*browsertest.Page).CloseCalls())
	assert.True(t, launcher.Sessions()[0].Closed())

	_, err = m.EnsureSession(context.Background())
	assert.ErrorIs(t, err, browser.ErrSessionClosed)
}

func TestSessionManager_ShutdownWithoutSession(t *testing.T) {
	t.Parallel()

	launcher := &browsertest.Launcher{}
	m := browser.NewSessionManager(launcher, fastConfig(), infralogger.NewNop())

	m.Shutdown()
	assert.Equal(t, 0, launcher.Launches())
}
