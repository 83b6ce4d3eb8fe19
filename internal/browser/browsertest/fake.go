// Package browsertest provides scriptable in-memory implementations of the
// browser interfaces.
package browsertest

import (
	"context"
	"sync"
	"time"

	"github.com/jonesrussell/north-cloud/harvester/internal/browser"
)

// Launcher records launches and hands out fake sessions.
type Launcher struct {
	// Err fails every launch.
	Err error
	// Hang blocks Launch until its context is done.
	Hang bool
	// NewSession builds the n-th session (0-based). Nil yields an empty Session.
	NewSession func(n int) *Session

	mu       sync.Mutex
	sessions []*Session
	opts     []browser.LaunchOptions
}

// Launch implements browser.Launcher.
func (l *Launcher) Launch(ctx context.Context, opts browser.LaunchOptions) (browser.Session, error) {
	if l.Hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if l.Err != nil {
		return nil, l.Err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	s := &Session{}
	if l.NewSession != nil {
		s = l.NewSession(len(l.sessions))
	}
	l.sessions = append(l.sessions, s)
	l.opts = append(l.opts, opts)

	return s, nil
}

// Launches reports the number of successful launches.
func (l *Launcher) Launches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sessions)
}

// Sessions returns every launched session in order.
func (l *Launcher) Sessions() []*Session {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Session(nil), l.sessions...)
}

// LastOptions returns the options of the most recent launch.
func (l *Launcher) LastOptions() browser.LaunchOptions {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.opts) == 0 {
		return browser.LaunchOptions{}
	}
	return l.opts[len(l.opts)-1]
}

// Session is a fake browser process.
type Session struct {
	// PageErr fails every NewPage.
	PageErr error
	// PageHang blocks NewPage until its context is done.
	PageHang bool
	// NewPageFunc builds each page. Nil yields an empty Page.
	NewPageFunc func() *Page
	// CloseErr is returned by Close.
	CloseErr error

	mu     sync.Mutex
	pages  []*Page
	closed bool
}

// NewPage implements browser.Session.
func (s *Session) NewPage(ctx context.Context) (browser.Page, error) {
	if s.PageHang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.PageErr != nil {
		return nil, s.PageErr
	}

	p := &Page{}
	if s.NewPageFunc != nil {
		p = s.NewPageFunc()
	}

	s.mu.Lock()
	s.pages = append(s.pages, p)
	s.mu.Unlock()

	return p, nil
}

// Close implements browser.Session.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return s.CloseErr
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Pages returns every page opened on the session.
func (s *Session) Pages() []*Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Page(nil), s.pages...)
}

// Page is a fake tab with canned responses.
type Page struct {
	// HTML is returned by Content.
	HTML       string
	ContentErr error

	// GotoErr fails Goto. GotoFailures fails only the first n calls.
	GotoErr      error
	GotoFailures int
	GotoHang     bool

	// URLs are returned by successive URL calls; the last one repeats.
	// When empty, URL reports the last Goto target.
	URLs []string
	// URLErr fails URL. URLFailures fails only the first n calls.
	URLErr      error
	URLFailures int

	// EvalResult and EvalErr are returned by Evaluate.
	EvalResult string
	EvalErr    error

	// NavigateTo is delivered by WaitForNavigation after NavigateDelay.
	// An empty value means no navigation ever happens.
	NavigateTo    string
	NavigateDelay time.Duration
	NavigateErr   error

	CloseErr  error
	CloseHang bool

	mu         sync.Mutex
	current    string
	gotoCalls  int
	urlCalls   int
	urlErrs    int
	evalCalls  int
	closeCalls int
}

// Goto implements browser.Page.
func (p *Page) Goto(ctx context.Context, url string) error {
	if p.GotoHang {
		<-ctx.Done()
		return ctx.Err()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.gotoCalls++
	if p.GotoErr != nil && (p.GotoFailures == 0 || p.gotoCalls <= p.GotoFailures) {
		return p.GotoErr
	}
	p.current = url

	return nil
}

// URL implements browser.Page.
func (p *Page) URL(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.URLErr != nil && (p.URLFailures == 0 || p.urlErrs < p.URLFailures) {
		p.urlErrs++
		return "", p.URLErr
	}

	p.urlCalls++
	if len(p.URLs) == 0 {
		return p.current, nil
	}
	i := min(p.urlCalls, len(p.URLs)) - 1

	return p.URLs[i], nil
}

// Content implements browser.Page.
func (p *Page) Content(context.Context) (string, error) {
	if p.ContentErr != nil {
		return "", p.ContentErr
	}
	return p.HTML, nil
}

// Evaluate implements browser.Page.
func (p *Page) Evaluate(context.Context, string) (string, error) {
	p.mu.Lock()
	p.evalCalls++
	p.mu.Unlock()

	if p.EvalErr != nil {
		return "", p.EvalErr
	}
	return p.EvalResult, nil
}

// WaitForNavigation implements browser.Page.
func (p *Page) WaitForNavigation(ctx context.Context) (string, error) {
	if p.NavigateErr != nil {
		return "", p.NavigateErr
	}
	if p.NavigateTo == "" {
		<-ctx.Done()
		return "", ctx.Err()
	}

	timer := time.NewTimer(p.NavigateDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return p.NavigateTo, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close implements browser.Page.
func (p *Page) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closeCalls++
	p.mu.Unlock()

	if p.CloseHang {
		<-ctx.Done()
		return ctx.Err()
	}
	return p.CloseErr
}

// GotoCalls reports how many times Goto ran.
func (p *Page) GotoCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gotoCalls
}

// EvalCalls reports how many times Evaluate ran.
func (p *Page) EvalCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.evalCalls
}

// CloseCalls reports how many times Close ran.
func (p *Page) CloseCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeCalls
}
