package navigation

import "time"

const (
	defaultAggregatorHost = "news.google.com"
	defaultPollInterval   = 100 * time.Millisecond
)

// Config holds redirect resolution settings.
type Config struct {
	// AggregatorHost is the domain whose pages redirect to the publisher.
	AggregatorHost string        `env:"NAVIGATION_AGGREGATOR_HOST" yaml:"aggregator_host"`
	PollInterval   time.Duration `env:"NAVIGATION_POLL_INTERVAL"   yaml:"poll_interval"`
}

// WithDefaults returns a copy of the config with defaults applied to zero-value fields.
func (c Config) WithDefaults() Config {
	if c.AggregatorHost == "" {
		c.AggregatorHost = defaultAggregatorHost
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	return c
}
