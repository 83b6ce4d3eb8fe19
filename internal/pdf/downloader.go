package pdf

import (
	"context"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"

	infrahttp "github.com/jonesrussell/north-cloud/harvester/infrastructure/http"
	infralogger "github.com/jonesrussell/north-cloud/harvester/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/harvester/infrastructure/retry"
	"github.com/jonesrussell/north-cloud/harvester/internal/extractor"
)

const defaultDownloadTimeout = 60 * time.Second

// Config holds PDF download settings.
type Config struct {
	DownloadTimeout time.Duration `env:"PDF_DOWNLOAD_TIMEOUT" yaml:"download_timeout"`
	UserAgent       string        `env:"PDF_USER_AGENT"       yaml:"user_agent"`
}

// WithDefaults returns a copy of the config with defaults applied to zero-value fields.
func (c Config) WithDefaults() Config {
	if c.DownloadTimeout <= 0 {
		c.DownloadTimeout = defaultDownloadTimeout
	}
	return c
}

// Downloader fetches PDFs over HTTP and returns their cleaned text.
type Downloader struct {
	client *resty.Client
	retry  retry.Config
	log    infralogger.Logger
}

// NewDownloader creates a downloader.
func NewDownloader(cfg Config, retryCfg retry.Config, log infralogger.Logger) *Downloader {
	cfg = cfg.WithDefaults()
	return &Downloader{
		client: infrahttp.NewRestyClient(&infrahttp.ClientConfig{
			Timeout:   cfg.DownloadTimeout,
			UserAgent: cfg.UserAgent,
		}),
		retry: retryCfg,
		log:   log.With(infralogger.Component("pdf")),
	}
}

// FetchText downloads rawURL and extracts its text. Responses that are not
// PDFs fail with ErrNotPDF without being retried.
func (d *Downloader) FetchText(ctx context.Context, rawURL string) (string, error) {
	body, err := retry.DoValue(ctx, d.retry, func(ctx context.Context) ([]byte, error) {
		return d.download(ctx, rawURL)
	})
	if err != nil {
		return "", err
	}

	raw, err := ExtractText(body)
	if err != nil {
		return "", err
	}

	text := extractor.Clean(raw)
	d.log.Debug("Extracted pdf",
		infralogger.URL(rawURL),
		infralogger.Int("bytes", len(body)),
		infralogger.Int("chars", utf8.RuneCountInString(text)),
	)

	return text, nil
}

func (d *Downloader) download(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := d.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/pdf,*/*;q=0.8").
		Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", rawURL, err)
	}

	status := resp.StatusCode()
	switch {
	case status >= http.StatusInternalServerError || status == http.StatusTooManyRequests:
		return nil, fmt.Errorf("download %s: unexpected status %d", rawURL, status)
	case status >= http.StatusBadRequest:
		return nil, retry.Permanent(fmt.Errorf("download %s: unexpected status %d", rawURL, status))
	}

	body := resp.Body()
	if !LooksLikePDF(resp.Header().Get("Content-Type"), body) {
		return nil, retry.Permanent(fmt.Errorf("download %s: %w", rawURL, ErrNotPDF))
	}

	return body, nil
}
