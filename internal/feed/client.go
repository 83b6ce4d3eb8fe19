// Package feed discovers candidate articles for topic keywords from the
// Google News RSS search endpoint.
package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	infrahttp "github.com/jonesrussell/north-cloud/harvester/infrastructure/http"
	infralogger "github.com/jonesrussell/north-cloud/harvester/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/harvester/infrastructure/retry"
	"github.com/jonesrussell/north-cloud/harvester/internal/domain"
)

// ErrAllTopicsFailed is returned when not a single topic could be fetched.
var ErrAllTopicsFailed = errors.New("all topic feeds failed")

// Client queries the topic feed.
type Client struct {
	cfg     Config
	http    *resty.Client
	limiter *rate.Limiter
	retry   retry.Config
	log     infralogger.Logger
}

// NewClient creates a feed client. Queries are throttled to
// cfg.RequestsPerSecond across all topics.
func NewClient(cfg Config, retryCfg retry.Config, log infralogger.Logger) *Client {
	cfg = cfg.WithDefaults()
	return &Client{
		cfg: cfg,
		http: infrahttp.NewRestyClient(&infrahttp.ClientConfig{
			Timeout:   cfg.RequestTimeout,
			UserAgent: cfg.UserAgent,
		}),
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		retry:   retryCfg,
		log:     log.With(infralogger.Component("feed")),
	}
}

// QueryURL builds the search URL for a topic.
func (c *Client) QueryURL(topic string) string {
	langBase, _, _ := strings.Cut(c.cfg.Language, "-")

	q := url.Values{}
	q.Set("q", topic+" when:"+c.cfg.Period)
	q.Set("hl", c.cfg.Language)
	q.Set("gl", c.cfg.Region)
	q.Set("ceid", c.cfg.Region+":"+langBase)

	return c.cfg.BaseURL + "?" + q.Encode()
}

// FetchCandidates returns the candidates for every topic, deduplicated by
// exact URL with the first occurrence kept. A topic that fails contributes
// nothing; ErrAllTopicsFailed is returned only when every topic failed.
func (c *Client) FetchCandidates(ctx context.Context, topics []string) ([]domain.Candidate, error) {
	var (
		all       []domain.Candidate
		attempted int
		failed    int
	)

	for _, raw := range topics {
		topic := strings.TrimSpace(raw)
		if topic == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		attempted++
		candidates, err := c.fetchTopic(ctx, topic)
		if err != nil {
			failed++
			c.log.Warn("Topic feed failed", infralogger.Topic(topic), infralogger.Error(err))
			continue
		}

		c.log.Info("Topic feed fetched", infralogger.Topic(topic), infralogger.Int("items", len(candidates)))
		all = append(all, candidates...)
	}

	if attempted > 0 && failed == attempted {
		return nil, fmt.Errorf("%w (%d topics)", ErrAllTopicsFailed, attempted)
	}

	return DedupeByURL(all), nil
}

func (c *Client) fetchTopic(ctx context.Context, topic string) ([]domain.Candidate, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	queryURL := c.QueryURL(topic)
	body, err := retry.DoValue(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		return c.get(ctx, queryURL)
	})
	if err != nil {
		return nil, err
	}

	return ParseCandidates(bytes.NewReader(body), topic, c.cfg.MaxResultsPerTopic)
}

func (c *Client) get(ctx context.Context, queryURL string) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/rss+xml, application/xml;q=0.9, */*;q=0.8").
		Get(queryURL)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}

	status := resp.StatusCode()
	if status >= http.StatusBadRequest {
		statusErr := fmt.Errorf("fetch feed: unexpected status %d", status)
		if status < http.StatusInternalServerError && status != http.StatusTooManyRequests {
			return nil, retry.Permanent(statusErr)
		}
		return nil, statusErr
	}

	return resp.Body(), nil
}
