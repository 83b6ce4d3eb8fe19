// Package http builds the outbound HTTP clients used for feed queries and document downloads.
package http

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// DefaultTimeout is the default timeout for a whole request.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxIdleConns is the default maximum number of idle connections.
	DefaultMaxIdleConns = 20

	// DefaultMaxIdleConnsPerHost is the default maximum number of idle connections per host.
	DefaultMaxIdleConnsPerHost = 4

	// DefaultIdleConnTimeout is the default idle connection timeout.
	DefaultIdleConnTimeout = 90 * time.Second

	// DefaultResponseHeaderTimeout is the default response header timeout.
	DefaultResponseHeaderTimeout = 20 * time.Second

	// DefaultTLSHandshakeTimeout is the default TLS handshake timeout.
	DefaultTLSHandshakeTimeout = 10 * time.Second
)

// ClientConfig configures an HTTP client.
type ClientConfig struct {
	// Timeout bounds a whole request including the body read. Zero uses DefaultTimeout.
	Timeout time.Duration
	// UserAgent is sent on every request that does not already set one.
	UserAgent string
	// MaxIdleConnsPerHost limits keep-alive connections per host.
	MaxIdleConnsPerHost int
	// ResponseHeaderTimeout bounds the wait for response headers.
	ResponseHeaderTimeout time.Duration
}

// NewClient creates an HTTP client with pooled transport defaults.
// If cfg is nil, default values are used.
func NewClient(cfg *ClientConfig) *http.Client {
	if cfg == nil {
		cfg = &ClientConfig{}
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	perHost := cfg.MaxIdleConnsPerHost
	if perHost == 0 {
		perHost = DefaultMaxIdleConnsPerHost
	}

	headerTimeout := cfg.ResponseHeaderTimeout
	if headerTimeout == 0 {
		headerTimeout = DefaultResponseHeaderTimeout
	}

	var transport http.RoundTripper = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          DefaultMaxIdleConns,
		MaxIdleConnsPerHost:   perHost,
		IdleConnTimeout:       DefaultIdleConnTimeout,
		ResponseHeaderTimeout: headerTimeout,
		TLSHandshakeTimeout:   DefaultTLSHandshakeTimeout,
		ForceAttemptHTTP2:     true,
	}

	if cfg.UserAgent != "" {
		transport = &userAgentTransport{next: transport, userAgent: cfg.UserAgent}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// userAgentTransport sets a default User-Agent header.
type userAgentTransport struct {
	next      http.RoundTripper
	userAgent string
}

// RoundTrip implements http.RoundTripper.
func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.next.RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return t.next.RoundTrip(clone)
}

// NewRestyClient wraps NewClient in a resty client. Status codes are checked
// by the caller, so resty's own retries stay disabled.
func NewRestyClient(cfg *ClientConfig) *resty.Client {
	client := resty.NewWithClient(NewClient(cfg)).SetRetryCount(0)
	if cfg != nil && cfg.UserAgent != "" {
		// resty sets its own User-Agent before the transport sees the request.
		client.SetHeader("User-Agent", cfg.UserAgent)
	}
	return client
}
