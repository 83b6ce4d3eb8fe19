package output

import "time"

// Drivers.
const (
	DriverFile  = "file"
	DriverMinIO = "minio"
)

const (
	defaultDir           = "output"
	defaultBucket        = "harvester-runs"
	defaultUploadTimeout = 30 * time.Second
)

// MinIOConfig holds object storage settings.
type MinIOConfig struct {
	Endpoint      string        `env:"MINIO_ENDPOINT"       yaml:"endpoint"`
	AccessKey     string        `env:"MINIO_ACCESS_KEY"     yaml:"access_key"`
	SecretKey     string        `env:"MINIO_SECRET_KEY"     yaml:"secret_key"`
	UseSSL        bool          `env:"MINIO_USE_SSL"        yaml:"use_ssl"`
	Region        string        `env:"MINIO_REGION"         yaml:"region"`
	Bucket        string        `env:"MINIO_BUCKET"         yaml:"bucket"`
	Prefix        string        `env:"MINIO_PREFIX"         yaml:"prefix"`
	UploadTimeout time.Duration `env:"MINIO_UPLOAD_TIMEOUT" yaml:"upload_timeout"`
}

// Config selects where run documents are written.
type Config struct {
	Driver string      `env:"OUTPUT_DRIVER" yaml:"driver"`
	Dir    string      `env:"OUTPUT_DIR"    yaml:"dir"`
	MinIO  MinIOConfig `yaml:"minio"`
}

// WithDefaults returns a copy of the config with defaults applied to zero-value fields.
func (c Config) WithDefaults() Config {
	if c.Driver == "" {
		c.Driver = DriverFile
	}
	if c.Dir == "" {
		c.Dir = defaultDir
	}
	if c.MinIO.Bucket == "" {
		c.MinIO.Bucket = defaultBucket
	}
	if c.MinIO.UploadTimeout <= 0 {
		c.MinIO.UploadTimeout = defaultUploadTimeout
	}
	return c
}
