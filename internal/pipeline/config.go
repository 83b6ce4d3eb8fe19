package pipeline

import "github.com/jonesrussell/north-cloud/harvester/internal/dedup"

const defaultMinTextLength = 400

// Config holds run-level filtering settings.
type Config struct {
	// MinTextLength is the minimum number of characters an article needs to be kept.
	MinTextLength int `env:"PIPELINE_MIN_TEXT_LENGTH" yaml:"min_text_length"`
	// DuplicateThreshold is the title similarity percentage above which an
	// article counts as already delivered.
	DuplicateThreshold float64 `env:"PIPELINE_DUPLICATE_THRESHOLD" yaml:"duplicate_threshold"`
}

// WithDefaults returns a copy of the config with defaults applied to zero-value fields.
func (c Config) WithDefaults() Config {
	if c.MinTextLength <= 0 {
		c.MinTextLength = defaultMinTextLength
	}
	if c.DuplicateThreshold <= 0 {
		c.DuplicateThreshold = dedup.DefaultThreshold
	}
	return c
}
