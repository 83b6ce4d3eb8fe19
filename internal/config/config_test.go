package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	infraconfig "github.com/jonesrussell/north-cloud/harvester/infrastructure/config"
	"github.com/jonesrussell/north-cloud/harvester/internal/config"
	"github.com/jonesrussell/north-cloud/harvester/internal/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)

	assert.Equal(t, "en-US", cfg.Feed.Language)
	assert.Equal(t, "US", cfg.Feed.Region)
	assert.Equal(t, "1d", cfg.Feed.Period)
	assert.Equal(t, 10, cfg.Feed.MaxResultsPerTopic)
	assert.True(t, cfg.Browser.Headless)
	assert.True(t, cfg.Browser.BlockResources)
	assert.Equal(t, 30*time.Second, cfg.Browser.NavigationTimeout)
	assert.True(t, cfg.Fetcher.FollowPDFLinks)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 400, cfg.Pipeline.MinTextLength)
	assert.InDelta(t, 87.0, cfg.Pipeline.DuplicateThreshold, 0)
	assert.Equal(t, output.DriverFile, cfg.Output.Driver)
	assert.Equal(t, "none", cfg.History.Driver)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := writeConfig(t, `
feed:
  language: fr-CA
  region: CA
browser:
  headless: false
  launch_args: ["--no-sandbox"]
pipeline:
  min_text_length: 250
fetcher:
  follow_pdf_links: false
`)
	t.Setenv("RETRY_MAX_ATTEMPTS", "5")
	t.Setenv("BROWSER_NAVIGATION_TIMEOUT", "12s")
	t.Setenv("PIPELINE_DUPLICATE_THRESHOLD", "92.5")
	t.Setenv("REDIS_ADDRESS", "redis:6379")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "fr-CA", cfg.Feed.Language)
	assert.Equal(t, "CA", cfg.Feed.Region)
	assert.False(t, cfg.Browser.Headless)
	assert.True(t, cfg.Browser.BlockResources, "keys absent from the file keep their default")
	assert.Equal(t, []string{"--no-sandbox"}, cfg.Browser.LaunchArgs)
	assert.Equal(t, 250, cfg.Pipeline.MinTextLength)
	assert.False(t, cfg.Fetcher.FollowPDFLinks)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.InDelta(t, 92.5, cfg.Pipeline.DuplicateThreshold, 1e-9)
	assert.Equal(t, "redis:6379", cfg.Queue.Redis.Address)

	fc := cfg.FetcherConfig()
	assert.Equal(t, 12*time.Second, fc.NavigationTimeout)
	assert.Equal(t, cfg.Browser.CloseTimeout, fc.CloseTimeout)
}

func TestLoad_InvalidConfig(t *testing.T) {
	path := writeConfig(t, `
output:
  driver: s3
history:
  driver: postgres
retry:
  base_delay: 5s
  max_delay: 1s
`)

	_, err := config.Load(path)
	require.Error(t, err)

	var vErr *infraconfig.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, err.Error(), "output.driver")
	assert.Contains(t, err.Error(), "history.dsn: is required")
	assert.Contains(t, err.Error(), "retry.max_delay: must not be less than retry.base_delay")
}

func TestValidate_MinIORequiresEndpoint(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	cfg.Output.Driver = output.DriverMinIO
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output.minio.endpoint")

	cfg.Output.MinIO.Endpoint = "minio:9000"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_DuplicateThresholdRange(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	cfg.Pipeline.DuplicateThreshold = 120
	assert.ErrorContains(t, cfg.Validate(), "pipeline.duplicate_threshold")
}
