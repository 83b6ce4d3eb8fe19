package bootstrap

import (
	"context"
	"fmt"

	infralogger "github.com/jonesrussell/north-cloud/harvester/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/harvester/internal/browser"
	"github.com/jonesrussell/north-cloud/harvester/internal/extractor"
	"github.com/jonesrussell/north-cloud/harvester/internal/feed"
	"github.com/jonesrussell/north-cloud/harvester/internal/fetcher"
	"github.com/jonesrussell/north-cloud/harvester/internal/history"
	"github.com/jonesrussell/north-cloud/harvester/internal/metrics"
	"github.com/jonesrussell/north-cloud/harvester/internal/navigation"
	"github.com/jonesrussell/north-cloud/harvester/internal/output"
	"github.com/jonesrussell/north-cloud/harvester/internal/pdf"
	"github.com/jonesrussell/north-cloud/harvester/internal/pipeline"
)

// App holds the long-lived components. The browser session is created per run.
type App struct {
	deps     *CommandDeps
	launcher browser.Launcher
	feed     *feed.Client
	nav      *navigation.Controller
	extract  *extractor.Extractor
	pdfs     *pdf.Downloader
	sink     output.Sink
	history  history.Store
	Metrics  *metrics.Metrics
	Runner   *Runner
}

// AppOption configures an App.
type AppOption func(*App)

// WithLauncher replaces the Chrome launcher.
func WithLauncher(l browser.Launcher) AppOption {
	return func(a *App) {
		a.launcher = l
	}
}

// WithSink replaces the configured output sink.
func WithSink(s output.Sink) AppOption {
	return func(a *App) {
		a.sink = s
	}
}

// NewApp creates every component from deps.
func NewApp(ctx context.Context, deps *CommandDeps, opts ...AppOption) (*App, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	cfg := deps.Config
	log := deps.Logger

	app := &App{
		deps:     deps,
		launcher: browser.NewChromeLauncher(),
		feed:     feed.NewClient(cfg.Feed, cfg.Retry, log),
		nav:      navigation.NewController(cfg.Navigation, cfg.Retry, log),
		extract:  extractor.New(cfg.Extractor, log),
		pdfs:     pdf.NewDownloader(cfg.PDF, cfg.Retry, log),
		Metrics:  metrics.New(),
	}
	for _, opt := range opts {
		opt(app)
	}

	if app.sink == nil {
		sink, err := output.New(ctx, cfg.Output, log)
		if err != nil {
			return nil, fmt.Errorf("setup output: %w", err)
		}
		app.sink = sink
	}

	store, err := history.Open(ctx, cfg.History)
	if err != nil {
		return nil, fmt.Errorf("setup history: %w", err)
	}
	app.history = store

	historyCfg := cfg.History.WithDefaults()
	metricsCfg := cfg.Metrics.WithDefaults()
	app.Runner = NewRunner(
		RunnerConfig{
			DuplicateThreshold: cfg.Pipeline.DuplicateThreshold,
			Lookback:           historyCfg.Lookback,
			PushgatewayURL:     metricsCfg.PushgatewayURL,
			JobName:            metricsCfg.JobName,
		},
		app.NewOrchestrator,
		app.sink,
		app.history,
		app.Metrics,
		log,
	)

	log.Info("Harvester initialized",
		infralogger.String("output_driver", cfg.Output.Driver),
		infralogger.String("history_driver", historyCfg.Driver),
		infralogger.Bool("headless", cfg.Browser.Headless),
		infralogger.Bool("follow_pdf_links", cfg.Fetcher.FollowPDFLinks),
	)

	return app, nil
}

// NewOrchestrator builds an orchestrator with a fresh browser session manager.
func (a *App) NewOrchestrator() Harvester {
	cfg := a.deps.Config
	log := a.deps.Logger

	sessions := browser.NewSessionManager(a.launcher, cfg.Browser, log,
		browser.WithRestartHook(a.Metrics.ObserveRestart),
	)
	docs := fetcher.New(cfg.FetcherConfig(), sessions, a.nav, a.extract, a.pdfs, log,
		fetcher.WithFailureHook(a.Metrics.ObserveFetchError),
	)

	return pipeline.NewOrchestrator(cfg.Pipeline, a.feed, docs, sessions, log,
		pipeline.WithObserver(a.Metrics),
	)
}

// Close releases the history store.
func (a *App) Close() error {
	if a.history == nil {
		return nil
	}
	if err := a.history.Close(); err != nil {
		return fmt.Errorf("close history: %w", err)
	}
	return nil
}

// Logger returns the application logger.
func (a *App) Logger() infralogger.Logger {
	return a.deps.Logger
}
