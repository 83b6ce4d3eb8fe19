package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	infralogger "github.com/jonesrussell/north-cloud/harvester/infrastructure/logger"
)

// SessionManager supervises the browser session of a single run.
//
// The session is launched on first use. At most one page is open at a time:
// opening a new page closes the previous one. A page that cannot be closed in
// time marks the session invalid, and the next page request launches a fresh
// browser. All methods are safe for concurrent use, although the pipeline only
// ever drives the manager from one goroutine.
type SessionManager struct {
	launcher  Launcher
	cfg       Config
	log       infralogger.Logger
	onRestart func()

	mu       sync.Mutex
	session  Session
	valid    bool
	page     Page
	closed   bool
	launches int
	restarts int
}

// Option configures a SessionManager.
type Option func(*SessionManager)

// WithRestartHook registers fn to run every time the session is replaced.
func WithRestartHook(fn func()) Option {
	return func(m *SessionManager) {
		m.onRestart = fn
	}
}

// NewSessionManager creates a manager. No browser is started until a page is requested.
func NewSessionManager(launcher Launcher, cfg Config, log infralogger.Logger, opts ...Option) *SessionManager {
	m := &SessionManager{
		launcher: launcher,
		cfg:      cfg.WithDefaults(),
		log:      log.With(infralogger.Component("browser")),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// EnsureSession returns the live session, launching one if needed.
// Launch failures wrap ErrLaunch.
func (m *SessionManager) EnsureSession(ctx context.Context) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.ensureLocked(ctx)
}

func (m *SessionManager) ensureLocked(ctx context.Context) (Session, error) {
	if m.closed {
		return nil, ErrSessionClosed
	}
	if m.session != nil && m.valid {
		return m.session, nil
	}

	opts := m.cfg.LaunchOptions()
	session, err := RaceTimeout(ctx, m.cfg.LaunchTimeout, func(ctx context.Context) (Session, error) {
		return m.launcher.Launch(ctx, opts)
	}, func(s Session) {
		_ = s.Close()
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLaunch, err)
	}

	m.session = session
	m.valid = true
	m.launches++
	m.log.Info("Browser session launched",
		infralogger.Int("launches", m.launches),
		infralogger.Bool("headless", opts.Headless),
	)

	return session, nil
}

// NewPage opens a page on the live session. When opening times out the
// session is replaced and the open is attempted once more.
func (m *SessionManager) NewPage(ctx context.Context) (Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.page != nil {
		m.closePageLocked(m.page, m.cfg.CloseTimeout)
	}

	var lastErr error
	for attempt := range 2 {
		session, err := m.ensureLocked(ctx)
		if err != nil {
			return nil, err
		}

		page, err := RaceTimeout(ctx, m.cfg.PageTimeout, session.NewPage, func(p Page) {
			_ = p.Close(context.Background())
		})
		if err == nil {
			m.page = page
			return page, nil
		}

		lastErr = err
		if ctx.Err() != nil || !errors.Is(err, ErrTimeout) {
			break
		}

		m.log.Warn("Opening page timed out, restarting session",
			infralogger.Int("attempt", attempt+1),
			infralogger.Error(err),
		)
		m.restartLocked()
	}

	return nil, fmt.Errorf("open page: %w", lastErr)
}

// ClosePage closes page within timeout. A close that fails or hangs
// invalidates the session; it is never retried.
func (m *SessionManager) ClosePage(page Page, timeout time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closePageLocked(page, timeout)
}

func (m *SessionManager) closePageLocked(page Page, timeout time.Duration) {
	if page == nil {
		return
	}
	if m.page == page {
		m.page = nil
	}

	err := RaceTimeoutErr(context.Background(), timeout, page.Close)
	if err == nil {
		return
	}

	m.log.Warn("Closing page failed, restarting session", infralogger.Error(err))
	m.restartLocked()
}

// Restart discards the current session. The next page request launches a new one.
func (m *SessionManager) Restart() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.restartLocked()
}

func (m *SessionManager) restartLocked() {
	old := m.session
	m.session = nil
	m.valid = false
	m.page = nil
	m.restarts++

	if m.onRestart != nil {
		m.onRestart()
	}
	if old != nil {
		go m.dispose(old)
	}
}

// dispose closes a session that is no longer tracked, waiting at most CloseTimeout.
func (m *SessionManager) dispose(session Session) {
	err := RaceTimeoutErr(context.Background(), m.cfg.CloseTimeout, func(context.Context) error {
		return session.Close()
	})
	if err != nil {
		m.log.Warn("Disposing browser session failed", infralogger.Error(err))
	}
}

// Shutdown closes the open page and the session. Errors are logged, not
// returned. Calling Shutdown more than once is a no-op.
func (m *SessionManager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true

	if m.page != nil {
		if err := RaceTimeoutErr(context.Background(), m.cfg.CloseTimeout, m.page.Close); err != nil {
			m.log.Warn("Closing page during shutdown failed", infralogger.Error(err))
		}
		m.page = nil
	}

	if m.session != nil {
		m.dispose(m.session)
		m.session = nil
		m.valid = false
	}

	m.log.Info("Browser session shut down",
		infralogger.Int("launches", m.launches),
		infralogger.Int("restarts", m.restarts),
	)
}

// Launches reports how many sessions have been started.
func (m *SessionManager) Launches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.launches
}

// Restarts reports how many times the session was replaced.
func (m *SessionManager) Restarts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.restarts
}
