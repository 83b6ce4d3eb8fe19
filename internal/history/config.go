package history

import "time"

// Drivers.
const (
	DriverNone     = "none"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const defaultLookback = 72 * time.Hour

// Config holds delivered-title history settings.
type Config struct {
	Driver string `env:"HISTORY_DRIVER" yaml:"driver"`
	DSN    string `env:"HISTORY_DSN"    yaml:"dsn"`
	// Lookback bounds how far back delivered titles are compared.
	Lookback time.Duration `env:"HISTORY_LOOKBACK" yaml:"lookback"`
}

// WithDefaults returns a copy of the config with defaults applied to zero-value fields.
func (c Config) WithDefaults() Config {
	if c.Driver == "" {
		c.Driver = DriverNone
	}
	if c.Lookback <= 0 {
		c.Lookback = defaultLookback
	}
	return c
}
