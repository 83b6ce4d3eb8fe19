package extractor

const (
	defaultMinReadabilityLength = 100
	defaultMinBlockLength       = 500
)

// Config holds extraction thresholds, measured in characters.
type Config struct {
	// MinReadabilityLength is the length readability output must exceed to be accepted.
	MinReadabilityLength int `env:"EXTRACTOR_MIN_READABILITY_LENGTH" yaml:"min_readability_length"`
	// MinBlockLength is the length a content container must exceed to beat the body fallback.
	MinBlockLength int `env:"EXTRACTOR_MIN_BLOCK_LENGTH" yaml:"min_block_length"`
}

// WithDefaults returns a copy of the config with defaults applied to zero-value fields.
func (c Config) WithDefaults() Config {
	if c.MinReadabilityLength <= 0 {
		c.MinReadabilityLength = defaultMinReadabilityLength
	}
	if c.MinBlockLength <= 0 {
		c.MinBlockLength = defaultMinBlockLength
	}
	return c
}
