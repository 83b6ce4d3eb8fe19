// Package pipeline turns a list of topics into extracted article records.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	infralogger "github.com/jonesrussell/north-cloud/harvester/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/harvester/internal/browser"
	"github.com/jonesrussell/north-cloud/harvester/internal/domain"
	"github.com/jonesrussell/north-cloud/harvester/internal/metrics"
)

// CandidateSource discovers candidates for topics.
type CandidateSource interface {
	FetchCandidates(ctx context.Context, topics []string) ([]domain.Candidate, error)
}

// DocumentFetcher resolves a candidate URL to its text.
type DocumentFetcher interface {
	GetDocumentText(ctx context.Context, url string) (domain.Document, error)
}

// SessionCloser releases the browser at the end of a run.
type SessionCloser interface {
	Shutdown()
}

// Observer receives run counters.
type Observer interface {
	ObserveCandidates(n int)
	ObserveArticle(outcome string)
}

type nopObserver struct{}

func (nopObserver) ObserveCandidates(int) {}
func (nopObserver) ObserveArticle(string) {}

// Orchestrator runs one acquisition pass.
type Orchestrator struct {
	cfg      Config
	feed     CandidateSource
	fetcher  DocumentFetcher
	sessions SessionCloser
	observer Observer
	log      infralogger.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObserver reports counters to obs.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(
	cfg Config,
	feed CandidateSource,
	fetcher DocumentFetcher,
	sessions SessionCloser,
	log infralogger.Logger,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		cfg:      cfg.WithDefaults(),
		feed:     feed,
		fetcher:  fetcher,
		sessions: sessions,
		observer: nopObserver{},
		log:      log.With(infralogger.Component("pipeline")),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run fetches candidates for topics and extracts each one in feed order.
// Articles with less than MinTextLength characters are dropped. The browser
// session is shut down before Run returns whenever a candidate was found.
// Only a feed failure on every topic or a browser that cannot be launched
// fails the run.
func (o *Orchestrator) Run(ctx context.Context, topics []string) ([]domain.Article, error) {
	start := time.Now()

	candidates, err := o.feed.FetchCandidates(ctx, topics)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}
	o.observer.ObserveCandidates(len(candidates))

	if len(candidates) == 0 {
		o.log.Info("No candidates found", infralogger.Strings("topics", topics))
		return []domain.Article{}, nil
	}

	defer o.sessions.Shutdown()

	articles := make([]domain.Article, 0, len(candidates))
	for i, candidate := range candidates {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("run interrupted after %d of %d candidates: %w", i, len(candidates), ctxErr)
		}

		doc, fetchErr := o.fetch(ctx, candidate.URL)
		if fetchErr != nil {
			if errors.Is(fetchErr, browser.ErrLaunch) {
				return nil, fmt.Errorf("fetch %s: %w", candidate.URL, fetchErr)
			}
			o.log.Warn("Candidate failed",
				infralogger.URL(candidate.URL),
				infralogger.Topic(candidate.Topic),
				infralogger.Error(fetchErr),
			)
			o.observer.ObserveArticle(metrics.OutcomeFailed)
			continue
		}

		article := domain.NewArticle(candidate, doc)
		if length := utf8.RuneCountInString(article.Text); length < o.cfg.MinTextLength {
			o.log.Debug("Dropping short article",
				infralogger.URL(article.URL),
				infralogger.Int("length", length),
			)
			o.observer.ObserveArticle(metrics.OutcomeShort)
			continue
		}

		articles = append(articles, article)
	}

	o.log.Info("Run extracted articles",
		infralogger.Int("candidates", len(candidates)),
		infralogger.Int("articles", len(articles)),
		infralogger.Duration("duration", time.Since(start)),
	)

	return articles, nil
}

// fetch isolates a single candidate so that a panic in one page cannot end the run.
func (o *Orchestrator) fetch(ctx context.Context, url string) (doc domain.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while fetching: %v", r)
		}
	}()
	return o.fetcher.GetDocumentText(ctx, url)
}
