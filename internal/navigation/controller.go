// Package navigation loads a page and follows the aggregator's client-side
// redirect to the publisher.
package navigation

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	infralogger "github.com/jonesrussell/north-cloud/harvester/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/harvester/infrastructure/retry"
	"github.com/jonesrussell/north-cloud/harvester/internal/browser"
)

// Controller drives a page to its final location.
type Controller struct {
	cfg   Config
	retry retry.Config
	log   infralogger.Logger
}

// NewController creates a navigation controller.
func NewController(cfg Config, retryCfg retry.Config, log infralogger.Logger) *Controller {
	return &Controller{
		cfg:   cfg.WithDefaults(),
		retry: retryCfg,
		log:   log.With(infralogger.Component("navigation")),
	}
}

type result struct {
	url string
	err error
}

// lastSeen tracks the most recent location reported by the page.
type lastSeen struct {
	mu  sync.Mutex
	url string
}

func (l *lastSeen) set(u string) {
	l.mu.Lock()
	l.url = u
	l.mu.Unlock()
}

func (l *lastSeen) get() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.url
}

// LoadAndResolve navigates page to rawURL and waits for the redirect away from
// the aggregator. Each load attempt and the redirect wait are bounded by
// timeout. A redirect that never happens is not an error: the last location
// seen is returned instead.
func (c *Controller) LoadAndResolve(ctx context.Context, page browser.Page, rawURL string, timeout time.Duration) (string, error) {
	err := retry.Do(ctx, c.retry, func(ctx context.Context) error {
		return browser.RaceTimeoutErr(ctx, timeout, func(ctx context.Context) error {
			return page.Goto(ctx, rawURL)
		})
	})
	if err != nil {
		return "", fmt.Errorf("load %s: %w", rawURL, err)
	}

	return c.resolve(ctx, page, rawURL, timeout)
}

func (c *Controller) resolve(ctx context.Context, page browser.Page, rawURL string, timeout time.Duration) (string, error) {
	raceCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	seen := &lastSeen{url: rawURL}
	results := make(chan result, 2)

	go c.pollLocation(raceCtx, page, seen, results)
	go func() {
		u, err := page.WaitForNavigation(raceCtx)
		results <- result{url: u, err: err}
	}()

	select {
	case r := <-results:
		switch {
		case r.err == nil && r.url != "":
			c.log.Debug("Redirect resolved", infralogger.URL(rawURL), infralogger.String("final_url", r.url))
			return r.url, nil
		case raceCtx.Err() == nil && r.err != nil:
			return "", fmt.Errorf("resolve %s: %w", rawURL, r.err)
		}
	case <-raceCtx.Done():
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	final := seen.get()
	c.log.Debug("No redirect before timeout, keeping last location",
		infralogger.URL(rawURL),
		infralogger.String("final_url", final),
		infralogger.Duration("timeout", timeout),
	)

	return final, nil
}

// pollLocation reports the page location once it leaves the aggregator. A
// failed sample is skipped: reading the location throws while a redirect
// replaces the document.
func (c *Controller) pollLocation(ctx context.Context, page browser.Page, seen *lastSeen, results chan<- result) {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		current, err := page.URL(ctx)
		if err != nil {
			if ctx.Err() == nil {
				c.log.Debug("Location sample failed", infralogger.Error(err))
			}
			current = ""
		}

		if host := hostOf(current); host != "" {
			seen.set(current)
			if !c.isAggregator(host) {
				results <- result{url: current}
				return
			}
		}

		select {
		case <-ctx.Done():
			results <- result{err: ctx.Err()}
			return
		case <-ticker.C:
		}
	}
}

func (c *Controller) isAggregator(host string) bool {
	agg := strings.ToLower(c.cfg.AggregatorHost)
	return host == agg || strings.HasSuffix(host, "."+agg)
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
