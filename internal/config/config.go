// Package config assembles the harvester configuration from an optional YAML
// file and the environment using infrastructure/config.
package config

import (
	infraconfig "github.com/jonesrussell/north-cloud/harvester/infrastructure/config"
	infralogger "github.com/jonesrussell/north-cloud/harvester/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/harvester/infrastructure/retry"
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
	"github.com/jonesrussell/north-cloud/harvester/internal/queue"
)

// DefaultPath is the config file read when CONFIG_PATH is unset.
const DefaultPath = "config.yml"

// Config represents the harvester configuration.
type Config struct {
	Feed       feed.Config        `yaml:"feed"`
	Browser    browser.Config     `yaml:"browser"`
	Navigation navigation.Config  `yaml:"navigation"`
	Extractor  extractor.Config   `yaml:"extractor"`
	Fetcher    fetcher.Config     `yaml:"fetcher"`
	PDF        pdf.Config         `yaml:"pdf"`
	Retry      retry.Config       `yaml:"retry"`
	Pipeline   pipeline.Config    `yaml:"pipeline"`
	Output     output.Config      `yaml:"output"`
	History    history.Config     `yaml:"history"`
	Queue      queue.Config       `yaml:"queue"`
	Metrics    metrics.Config     `yaml:"metrics"`
	Logging    infralogger.Config `yaml:"logging"`
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	cfg, err := infraconfig.LoadWithDefaults[Config](path, setDefaults)
	if err != nil {
		return nil, err
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	cfg.Feed = cfg.Feed.WithDefaults()
	cfg.Browser = browser.DefaultConfig()
	cfg.Navigation = cfg.Navigation.WithDefaults()
	cfg.Extractor = cfg.Extractor.WithDefaults()
	cfg.Fetcher.FollowPDFLinks = true
	cfg.PDF = cfg.PDF.WithDefaults()
	cfg.Retry = retry.DefaultConfig()
	cfg.Pipeline = cfg.Pipeline.WithDefaults()
	cfg.Output = cfg.Output.WithDefaults()
	cfg.History = cfg.History.WithDefaults()
	cfg.Queue = cfg.Queue.WithDefaults()
	cfg.Metrics = cfg.Metrics.WithDefaults()
	cfg.Logging.SetDefaults()
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var v infraconfig.Collector

	v.Add(infraconfig.ValidateRequired("feed.base_url", c.Feed.BaseURL))
	v.Add(infraconfig.ValidateRequired("feed.language", c.Feed.Language))
	v.Add(infraconfig.ValidateRequired("feed.region", c.Feed.Region))
	v.Add(infraconfig.ValidatePositive("feed.max_results_per_topic", c.Feed.MaxResultsPerTopic))
	v.Add(infraconfig.ValidatePositive("feed.requests_per_second", c.Feed.RequestsPerSecond))

	v.Add(infraconfig.ValidatePositive("browser.navigation_timeout", c.Browser.NavigationTimeout))
	v.Add(infraconfig.ValidatePositive("browser.close_timeout", c.Browser.CloseTimeout))
	v.Add(infraconfig.ValidatePositive("browser.viewport_width", c.Browser.ViewportWidth))
	v.Add(infraconfig.ValidatePositive("browser.viewport_height", c.Browser.ViewportHeight))

	v.Add(infraconfig.ValidatePositive("retry.max_attempts", c.Retry.MaxAttempts))
	v.Add(infraconfig.ValidatePositive("retry.base_delay", c.Retry.BaseDelay))
	v.Add(infraconfig.ValidatePositive("retry.max_delay", c.Retry.MaxDelay))
	if c.Retry.MaxDelay < c.Retry.BaseDelay {
		v.Add(&infraconfig.ValidationError{Field: "retry.max_delay", Message: "must not be less than retry.base_delay"})
	}

	v.Add(infraconfig.ValidatePositive("pipeline.min_text_length", c.Pipeline.MinTextLength))
	if c.Pipeline.DuplicateThreshold <= 0 || c.Pipeline.DuplicateThreshold > 100 {
		v.Add(&infraconfig.ValidationError{Field: "pipeline.duplicate_threshold", Message: "must be between 0 and 100"})
	}

	v.Add(infraconfig.ValidateOneOf("output.driver", c.Output.Driver, output.DriverFile, output.DriverMinIO))
	if c.Output.Driver == output.DriverMinIO {
		v.Add(infraconfig.ValidateRequired("output.minio.endpoint", c.Output.MinIO.Endpoint))
		v.Add(infraconfig.ValidateRequired("output.minio.bucket", c.Output.MinIO.Bucket))
	}

	v.Add(infraconfig.ValidateOneOf("history.driver", c.History.Driver,
		history.DriverNone, history.DriverPostgres, history.DriverSQLite))
	if c.History.Driver != history.DriverNone {
		v.Add(infraconfig.ValidateRequired("history.dsn", c.History.DSN))
	}

	v.Add(infraconfig.ValidatePort("metrics.listen_port", c.Metrics.ListenPort))
	v.Add(infraconfig.ValidateLogLevel(c.Logging.Level))
	v.Add(infraconfig.ValidateLogFormat(c.Logging.Format))

	return v.Err()
}

// FetcherConfig returns the fetcher settings with the browser timeouts applied.
func (c *Config) FetcherConfig() fetcher.Config {
	f := c.Fetcher
	f.NavigationTimeout = c.Browser.NavigationTimeout
	f.CloseTimeout = c.Browser.CloseTimeout
	return f
}
