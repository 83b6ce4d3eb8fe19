// Package browser owns the headless browser used to load article pages.
//
// The engine sits behind three small interfaces (Launcher, Session, Page) so
// that the chromedp implementation can be swapped for a scripted fake in tests.
// SessionManager supervises the one live Session of a run: it launches lazily,
// keeps at most one Page open and replaces the Session when a page cannot be
// closed.
package browser

import (
	"context"
	"errors"
)

var (
	// ErrLaunch is returned when no browser session can be constructed.
	// It is the only browser failure that is allowed to abort a run.
	ErrLaunch = errors.New("browser launch failed")
	// ErrSessionClosed is returned after Shutdown.
	ErrSessionClosed = errors.New("browser session manager is shut down")
	// ErrTimeout is returned when a raced operation loses to its timeout.
	ErrTimeout = errors.New("browser operation timed out")
)

// Launcher starts a browser process.
type Launcher interface {
	Launch(ctx context.Context, opts LaunchOptions) (Session, error)
}

// Session is one live browser process.
type Session interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is a single browser tab.
type Page interface {
	// Goto navigates and returns once DOMContentLoaded has fired.
	Goto(ctx context.Context, url string) error
	// URL reports the page's current location.
	URL(ctx context.Context) (string, error)
	// Content returns the serialized document HTML.
	Content(ctx context.Context) (string, error)
	// Evaluate runs a script that returns a string.
	Evaluate(ctx context.Context, expression string) (string, error)
	// WaitForNavigation blocks until the next main-frame navigation completes
	// and returns the URL it landed on.
	WaitForNavigation(ctx context.Context) (string, error)
	// Close closes the tab.
	Close(ctx context.Context) error
}

// LaunchOptions configures a browser process and the pages it opens.
type LaunchOptions struct {
	Headless       bool
	ExecPath       string
	Args           []string
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	// BlockedResourceTypes are request types aborted before they hit the network.
	BlockedResourceTypes []string
}

// Resource types blocked by default.
const (
	ResourceImage      = "Image"
	ResourceStylesheet = "Stylesheet"
	ResourceFont       = "Font"
	ResourceMedia      = "Media"
)

// DefaultBlockedResourceTypes are aborted to cut page load time.
var DefaultBlockedResourceTypes = []string{ResourceImage, ResourceStylesheet, ResourceFont, ResourceMedia}
