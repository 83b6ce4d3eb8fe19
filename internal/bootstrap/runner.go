package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	infralogger "github.com/jonesrussell/north-cloud/harvester/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/harvester/internal/dedup"
	"github.com/jonesrussell/north-cloud/harvester/internal/domain"
	"github.com/jonesrussell/north-cloud/harvester/internal/history"
	"github.com/jonesrussell/north-cloud/harvester/internal/metrics"
	"github.com/jonesrussell/north-cloud/harvester/internal/output"
)

// ErrEmptyTopics is returned when a run is requested without a usable topic.
var ErrEmptyTopics = errors.New("no topics given")

// pushTimeout bounds the Pushgateway push at the end of a run.
const pushTimeout = 10 * time.Second

// Harvester produces the articles of one run.
type Harvester interface {
	Run(ctx context.Context, topics []string) ([]domain.Article, error)
}

// HarvesterFunc adapts a function to Harvester.
type HarvesterFunc func(ctx context.Context, topics []string) ([]domain.Article, error)

// Run calls f.
func (f HarvesterFunc) Run(ctx context.Context, topics []string) ([]domain.Article, error) {
	return f(ctx, topics)
}

// RunnerConfig holds the settings applied around a harvest.
type RunnerConfig struct {
	DuplicateThreshold float64
	Lookback           time.Duration
	PushgatewayURL     string
	JobName            string
}

// RunResult describes a completed run.
type RunResult struct {
	RunID      string
	Key        string
	Articles   []domain.Article
	Duplicates int
	Duration   time.Duration
}

// Runner executes a harvest, filters already delivered titles, writes the
// output document and records the delivery.
type Runner struct {
	cfg        RunnerConfig
	newHarvest func() Harvester
	sink       output.Sink
	history    history.Store
	metrics    *metrics.Metrics
	log        infralogger.Logger
	now        func() time.Time
}

// NewRunner creates a runner. newHarvest is called once per run, so that each
// run owns its browser session.
func NewRunner(
	cfg RunnerConfig,
	newHarvest func() Harvester,
	sink output.Sink,
	store history.Store,
	m *metrics.Metrics,
	log infralogger.Logger,
) *Runner {
	if cfg.DuplicateThreshold <= 0 {
		cfg.DuplicateThreshold = dedup.DefaultThreshold
	}
	return &Runner{
		cfg:        cfg,
		newHarvest: newHarvest,
		sink:       sink,
		history:    store,
		metrics:    m,
		log:        log.With(infralogger.Component("runner")),
		now:        time.Now,
	}
}

// Run performs one run for topics.
func (r *Runner) Run(ctx context.Context, topics []string) (*RunResult, error) {
	topics = normalizeTopics(topics)
	if len(topics) == 0 {
		return nil, ErrEmptyTopics
	}

	start := r.now()
	runID := uuid.NewString()
	log := r.log.With(infralogger.String("run_id", runID), infralogger.Strings("topics", topics))
	log.Info("Run started")

	result, err := r.run(ctx, log, runID, topics)
	duration := r.now().Sub(start)

	articles := 0
	if result != nil {
		result.Duration = duration
		articles = len(result.Articles)
	}
	r.metrics.ObserveRun(duration, articles, err)
	r.push(ctx, log)

	if err != nil {
		log.Error("Run failed", infralogger.Error(err), infralogger.Duration("duration", duration))
		return nil, err
	}

	log.Info("Run completed",
		infralogger.String("key", result.Key),
		infralogger.Int("articles", articles),
		infralogger.Int("duplicates", result.Duplicates),
		infralogger.Duration("duration", duration),
	)
	return result, nil
}

func (r *Runner) run(ctx context.Context, log infralogger.Logger, runID string, topics []string) (*RunResult, error) {
	articles, err := r.newHarvest().Run(ctx, topics)
	if err != nil {
		return nil, fmt.Errorf("harvest: %w", err)
	}

	delivered, err := r.history.RecentTitles(ctx, r.now().Add(-r.cfg.Lookback))
	if err != nil {
		log.Warn("Delivered titles unavailable, skipping history filter", infralogger.Error(err))
		delivered = nil
	}

	kept, dropped := dedup.Filter(articles, delivered, r.cfg.DuplicateThreshold)
	for range kept {
		r.metrics.ObserveArticle(metrics.OutcomeKept)
	}
	for _, a := range dropped {
		r.metrics.ObserveArticle(metrics.OutcomeDuplicate)
		log.Debug("Dropping duplicate title", infralogger.String("title", a.Title), infralogger.URL(a.URL))
	}

	batch := output.Batch{
		Key:      output.Key(topics),
		RunID:    runID,
		Topics:   topics,
		Articles: kept,
	}
	if err = r.sink.Save(ctx, batch); err != nil {
		return nil, fmt.Errorf("save output: %w", err)
	}

	if err = r.history.Record(ctx, runID, kept); err != nil {
		log.Warn("Failed to record delivered articles", infralogger.Error(err))
	}

	return &RunResult{
		RunID:      runID,
		Key:        batch.Key,
		Articles:   kept,
		Duplicates: len(dropped),
	}, nil
}

func (r *Runner) push(ctx context.Context, log infralogger.Logger) {
	if r.cfg.PushgatewayURL == "" {
		return
	}

	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
	defer cancel()

	if err := r.metrics.Push(pushCtx, r.cfg.PushgatewayURL, r.cfg.JobName); err != nil {
		log.Warn("Metrics push failed", infralogger.Error(err))
	}
}

func normalizeTopics(topics []string) []string {
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
