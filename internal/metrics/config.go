package metrics

const (
	defaultJobName    = "harvester"
	defaultListenPort = 9090
)

// Config controls metric export.
type Config struct {
	// PushgatewayURL enables a push at the end of each run when set.
	PushgatewayURL string `env:"METRICS_PUSHGATEWAY_URL" yaml:"pushgateway_url"`
	JobName        string `env:"METRICS_JOB_NAME"        yaml:"job_name"`
	// ListenPort serves /health and /metrics in worker mode.
	ListenPort int `env:"METRICS_LISTEN_PORT" yaml:"listen_port"`
}

// WithDefaults returns a copy of the config with defaults applied to zero-value fields.
func (c Config) WithDefaults() Config {
	if c.JobName == "" {
		c.JobName = defaultJobName
	}
	if c.ListenPort == 0 {
		c.ListenPort = defaultListenPort
	}
	return c
}
