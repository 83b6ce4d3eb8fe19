package queue

import (
	"time"

	infraredis "github.com/jonesrussell/north-cloud/harvester/infrastructure/redis"
)

const (
	defaultListKey      = "harvester:jobs"
	defaultBlockTimeout = 5 * time.Second
)

// Config holds the job list settings.
type Config struct {
	Redis infraredis.Config `yaml:"redis"`
	// ListKey is the Redis list that carries job messages.
	ListKey string `env:"QUEUE_LIST_KEY" yaml:"list_key"`
	// FailedKey receives messages that could not be decoded or handled. Empty
	// means ListKey + ":failed".
	FailedKey    string        `env:"QUEUE_FAILED_KEY"    yaml:"failed_key"`
	BlockTimeout time.Duration `env:"QUEUE_BLOCK_TIMEOUT" yaml:"block_timeout"`
}

// WithDefaults returns a copy of the config with defaults applied to zero-value fields.
func (c Config) WithDefaults() Config {
	if c.ListKey == "" {
		c.ListKey = defaultListKey
	}
	if c.FailedKey == "" {
		c.FailedKey = c.ListKey + ":failed"
	}
	if c.BlockTimeout <= 0 {
		c.BlockTimeout = defaultBlockTimeout
	}
	return c
}
