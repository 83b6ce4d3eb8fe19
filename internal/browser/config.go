package browser

import "time"

// Default configuration values.
const (
	defaultNavigationTimeout = 30 * time.Second
	defaultPageTimeout       = 15 * time.Second
	defaultCloseTimeout      = 5 * time.Second
	defaultLaunchTimeout     = 45 * time.Second
	defaultViewportWidth     = 1366
	defaultViewportHeight    = 768

	// DefaultUserAgent is a current desktop Chrome user agent.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

// Config holds browser session configuration.
type Config struct {
	Headless          bool          `env:"BROWSER_HEADLESS"           yaml:"headless"`
	ExecPath          string        `env:"BROWSER_EXEC_PATH"          yaml:"exec_path"`
	LaunchArgs        []string      `env:"BROWSER_LAUNCH_ARGS"        yaml:"launch_args"`
	UserAgent         string        `env:"BROWSER_USER_AGENT"         yaml:"user_agent"`
	ViewportWidth     int           `env:"BROWSER_VIEWPORT_WIDTH"     yaml:"viewport_width"`
	ViewportHeight    int           `env:"BROWSER_VIEWPORT_HEIGHT"    yaml:"viewport_height"`
	BlockResources    bool          `env:"BROWSER_BLOCK_RESOURCES"    yaml:"block_resources"`
	NavigationTimeout time.Duration `env:"BROWSER_NAVIGATION_TIMEOUT" yaml:"navigation_timeout"`
	PageTimeout       time.Duration `env:"BROWSER_PAGE_TIMEOUT"       yaml:"page_timeout"`
	CloseTimeout      time.Duration `env:"BROWSER_CLOSE_TIMEOUT"      yaml:"close_timeout"`
	LaunchTimeout     time.Duration `env:"BROWSER_LAUNCH_TIMEOUT"     yaml:"launch_timeout"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Headless:       true,
		BlockResources: true,
	}.WithDefaults()
}

// WithDefaults returns a copy of the config with defaults applied to zero-value fields.
func (c Config) WithDefaults() Config {
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.ViewportWidth <= 0 {
		c.ViewportWidth = defaultViewportWidth
	}
	if c.ViewportHeight <= 0 {
		c.ViewportHeight = defaultViewportHeight
	}
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = defaultNavigationTimeout
	}
	if c.PageTimeout <= 0 {
		c.PageTimeout = defaultPageTimeout
	}
	if c.CloseTimeout <= 0 {
		c.CloseTimeout = defaultCloseTimeout
	}
	if c.LaunchTimeout <= 0 {
		c.LaunchTimeout = defaultLaunchTimeout
	}
	return c
}

// LaunchOptions derives the engine options from the config.
func (c Config) LaunchOptions() LaunchOptions {
	opts := LaunchOptions{
		Headless:       c.Headless,
		ExecPath:       c.ExecPath,
		Args:           c.LaunchArgs,
		UserAgent:      c.UserAgent,
		ViewportWidth:  c.ViewportWidth,
		ViewportHeight: c.ViewportHeight,
	}
	if c.BlockResources {
		opts.BlockedResourceTypes = DefaultBlockedResourceTypes
	}
	return opts
}
