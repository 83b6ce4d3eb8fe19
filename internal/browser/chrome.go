package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// ChromeLauncher starts Chrome through chromedp.
type ChromeLauncher struct{}

// NewChromeLauncher creates a launcher for a locally installed Chrome or Chromium.
func NewChromeLauncher() *ChromeLauncher {
	return &ChromeLauncher{}
}

// Launch starts a browser process and waits until it accepts commands.
func (l *ChromeLauncher) Launch(ctx context.Context, opts LaunchOptions) (Session, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(opts.ViewportWidth, opts.ViewportHeight),
		chromedp.UserAgent(opts.UserAgent),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	for _, arg := range opts.Args {
		name, value := parseFlag(arg)
		if name != "" {
			allocOpts = append(allocOpts, chromedp.Flag(name, value))
		}
	}

	// The browser outlives the launch context; it is torn down by Close.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	if err := run(ctx, browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	return &chromeSession{
		opts:          opts,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
	}, nil
}

// parseFlag turns "--name=value" or "--name" into a chromedp flag.
func parseFlag(arg string) (string, any) {
	arg = strings.TrimLeft(strings.TrimSpace(arg), "-")
	name, value, found := strings.Cut(arg, "=")
	if !found {
		return name, true
	}
	return name, value
}

// run executes actions on target while honouring ctx, which chromedp itself
// only consults between actions.
func run(ctx, target context.Context, actions ...chromedp.Action) error {
	done := make(chan error, 1)
	go func() {
		done <- chromedp.Run(target, actions...)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type chromeSession struct {
	opts          LaunchOptions
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
}

func (s *chromeSession) NewPage(ctx context.Context) (Page, error) {
	tabCtx, cancel := chromedp.NewContext(s.browserCtx)
	p := &chromePage{
		ctx:       tabCtx,
		cancel:    cancel,
		domReady:  make(chan struct{}, 1),
		navigated: make(chan string, 1),
		block:     len(s.opts.BlockedResourceTypes) > 0,
	}
	chromedp.ListenTarget(tabCtx, p.handleEvent)

	actions := []chromedp.Action{
		emulation.SetUserAgentOverride(s.opts.UserAgent),
		chromedp.EmulateViewport(int64(s.opts.ViewportWidth), int64(s.opts.ViewportHeight)),
	}
	if p.block {
		patterns := make([]*fetch.RequestPattern, 0, len(s.opts.BlockedResourceTypes))
		for _, rt := range s.opts.BlockedResourceTypes {
			patterns = append(patterns, &fetch.RequestPattern{
				URLPattern:   "*",
				ResourceType: network.ResourceType(rt),
			})
		}
		actions = append(actions, fetch.Enable().WithPatterns(patterns))
	}

	if err := run(ctx, tabCtx, actions...); err != nil {
		cancel()
		return nil, fmt.Errorf("open tab: %w", err)
	}

	return p, nil
}

func (s *chromeSession) Close() error {
	err := chromedp.Cancel(s.browserCtx)
	s.browserCancel()
	s.allocCancel()
	return err
}

type chromePage struct {
	ctx       context.Context
	cancel    context.CancelFunc
	domReady  chan struct{}
	navigated chan string
	block     bool
}

func (p *chromePage) handleEvent(ev any) {
	switch e := ev.(type) {
	case *fetch.EventRequestPaused:
		if !p.block {
			return
		}
		go func() {
			c := chromedp.FromContext(p.ctx)
			execCtx := cdp.WithExecutor(p.ctx, c.Target)
			_ = fetch.FailRequest(e.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx)
		}()
	case *page.EventDomContentEventFired:
		select {
		case p.domReady <- struct{}{}:
		default:
		}
	case *page.EventFrameNavigated:
		if e.Frame == nil || e.Frame.ParentID != "" {
			return
		}
		select {
		case p.navigated <- e.Frame.URL:
		default:
		}
	}
}

func (p *chromePage) Goto(ctx context.Context, url string) error {
	drain(p.domReady)

	err := run(ctx, p.ctx, chromedp.ActionFunc(func(c context.Context) error {
		_, _, errorText, err := page.Navigate(url).Do(c)
		if err != nil {
			return err
		}
		if errorText != "" {
			return fmt.Errorf("navigate %s: %s", url, errorText)
		}
		return nil
	}))
	if err != nil {
		return err
	}

	select {
	case <-p.domReady:
		// Navigations up to DOMContentLoaded belong to the load itself.
		drain(p.navigated)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *chromePage) URL(ctx context.Context) (string, error) {
	var location string
	if err := run(ctx, p.ctx, chromedp.Location(&location)); err != nil {
		return "", err
	}
	return location, nil
}

func (p *chromePage) Content(ctx context.Context) (string, error) {
	return p.Evaluate(ctx, "document.documentElement ? document.documentElement.outerHTML : ''")
}

func (p *chromePage) Evaluate(ctx context.Context, expression string) (string, error) {
	var out string
	if err := run(ctx, p.ctx, chromedp.Evaluate(expression, &out)); err != nil {
		return "", err
	}
	return out, nil
}

func (p *chromePage) WaitForNavigation(ctx context.Context) (string, error) {
	select {
	case url := <-p.navigated:
		return url, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (p *chromePage) Close(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		err := chromedp.Cancel(p.ctx)
		p.cancel()
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func drain[T any](ch chan T) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}
