package feed

import "time"

const (
	defaultBaseURL            = "https://news.google.com/rss/search"
	defaultLanguage           = "en-US"
	defaultRegion             = "US"
	defaultPeriod             = "1d"
	defaultMaxResultsPerTopic = 10
	defaultRequestTimeout     = 20 * time.Second
	defaultRequestsPerSecond  = 1.0
)

// Config holds topic feed settings.
type Config struct {
	BaseURL            string        `env:"FEED_BASE_URL"              yaml:"base_url"`
	Language           string        `env:"FEED_LANGUAGE"              yaml:"language"`
	Region             string        `env:"FEED_REGION"                yaml:"region"`
	Period             string        `env:"FEED_PERIOD"                yaml:"period"`
	MaxResultsPerTopic int           `env:"FEED_MAX_RESULTS_PER_TOPIC" yaml:"max_results_per_topic"`
	RequestTimeout     time.Duration `env:"FEED_REQUEST_TIMEOUT"       yaml:"request_timeout"`
	RequestsPerSecond  float64       `env:"FEED_REQUESTS_PER_SECOND"   yaml:"requests_per_second"`
	UserAgent          string        `env:"FEED_USER_AGENT"            yaml:"user_agent"`
}

// WithDefaults returns a copy of the config with defaults applied to zero-value fields.
func (c Config) WithDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Language == "" {
		c.Language = defaultLanguage
	}
	if c.Region == "" {
		c.Region = defaultRegion
	}
	if c.Period == "" {
		c.Period = defaultPeriod
	}
	if c.MaxResultsPerTopic <= 0 {
		c.MaxResultsPerTopic = defaultMaxResultsPerTopic
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = defaultRequestsPerSecond
	}
	return c
}
