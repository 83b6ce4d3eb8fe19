// Package metrics holds the Prometheus instrumentation of harvester runs.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Namespace prefixes every harvester metric.
const Namespace = "harvester"

// Article outcomes.
const (
	OutcomeKept      = "kept"
	OutcomeShort     = "short"
	OutcomeFailed    = "failed"
	OutcomeDuplicate = "duplicate"
)

// Run statuses.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Metrics holds all harvester metrics on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	CandidatesTotal      prometheus.Counter
	ArticlesTotal        *prometheus.CounterVec
	FetchErrorsTotal     *prometheus.CounterVec
	SessionRestartsTotal prometheus.Counter
	RunsTotal            *prometheus.CounterVec
	RunDurationSeconds   prometheus.Histogram
	LastRunArticles      prometheus.Gauge
	LastSuccessTimestamp prometheus.Gauge
}

// New creates and registers all harvester metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{registry: reg}

	m.CandidatesTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "candidates_total",
		Help:      "Total number of candidates discovered in topic feeds",
	})

	m.ArticlesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "articles_total",
			Help:      "Total number of processed articles by outcome",
		},
		[]string{"outcome"},
	)

	m.FetchErrorsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "fetch_errors_total",
			Help:      "Total number of document fetch failures by stage",
		},
		[]string{"stage"},
	)

	m.SessionRestartsTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "session_restarts_total",
		Help:      "Total number of browser session restarts",
	})

	m.RunsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "runs_total",
			Help:      "Total number of runs by status",
		},
		[]string{"status"},
	)

	m.RunDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of a run in seconds",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~34min
	})

	m.LastRunArticles = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "last_run_articles",
		Help:      "Number of articles delivered by the most recent run",
	})

	m.LastSuccessTimestamp = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the most recent successful run",
	})

	return m
}

// Registry exposes the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveCandidates counts discovered candidates.
func (m *Metrics) ObserveCandidates(n int) {
	m.CandidatesTotal.Add(float64(n))
}

// ObserveArticle counts one processed article.
func (m *Metrics) ObserveArticle(outcome string) {
	m.ArticlesTotal.WithLabelValues(outcome).Inc()
}

// ObserveFetchError counts one failed fetch stage.
func (m *Metrics) ObserveFetchError(stage string) {
	m.FetchErrorsTotal.WithLabelValues(stage).Inc()
}

// ObserveRestart counts one session restart.
func (m *Metrics) ObserveRestart() {
	m.SessionRestartsTotal.Inc()
}

// ObserveRun records the end of a run.
func (m *Metrics) ObserveRun(duration time.Duration, articles int, err error) {
	m.RunDurationSeconds.Observe(duration.Seconds())
	if err != nil {
		m.RunsTotal.WithLabelValues(StatusFailure).Inc()
		return
	}
	m.RunsTotal.WithLabelValues(StatusSuccess).Inc()
	m.LastRunArticles.Set(float64(articles))
	m.LastSuccessTimestamp.SetToCurrentTime()
}

// Push sends the registry to a Pushgateway, replacing the job's previous group.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
