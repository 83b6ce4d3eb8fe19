package fetcher

import "time"

const (
	defaultNavigationTimeout = 30 * time.Second
	defaultCloseTimeout      = 5 * time.Second
)

// Config holds document fetch settings.
type Config struct {
	// FollowPDFLinks appends the text of the first PDF linked from an HTML page.
	FollowPDFLinks bool `env:"FETCHER_FOLLOW_PDF_LINKS" yaml:"follow_pdf_links"`
	// NavigationTimeout and CloseTimeout mirror the browser settings.
	NavigationTimeout time.Duration `yaml:"-"`
	CloseTimeout      time.Duration `yaml:"-"`
}

// WithDefaults returns a copy of the config with defaults applied to zero-value fields.
func (c Config) WithDefaults() Config {
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = defaultNavigationTimeout
	}
	if c.CloseTimeout <= 0 {
		c.CloseTimeout = defaultCloseTimeout
	}
	return c
}
