package gin_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	ginpkg "github.com/gin-gonic/gin"
	infragin "github.com/jonesrussell/north-cloud/harvester/infrastructure/gin"
	"github.com/jonesrussell/north-cloud/harvester/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(checks map[string]infragin.HealthChecker) *infragin.Server {
	return infragin.NewServer(&infragin.Config{ServiceName: "harvester", ServiceVersion: "test"}, logger.NewNop(),
		func(r *ginpkg.Engine) {
			infragin.RegisterHealthRoutes(r, infragin.HealthOptions{
				ServiceName:    "harvester",
				ServiceVersion: "test",
				Checks:         checks,
			})
			r.GET("/panic", func(*ginpkg.Context) { panic("boom") })
			r.GET("/test", func(c *ginpkg.Context) { c.String(http.StatusOK, "ok") })
		})
}

func serve(t *testing.T, srv *infragin.Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestRequestIDMiddleware_GeneratesID(t *testing.T) {
	w := serve(t, newServer(nil), httptest.NewRequest(http.MethodGet, "/test", http.NoBody))

	assert.Len(t, w.Header().Get("X-Request-ID"), 36)
}

func TestRequestIDMiddleware_PreservesExistingID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set("X-Request-ID", "trace-from-upstream-abc123")

	w := serve(t, newServer(nil), req)

	assert.Equal(t, "trace-from-upstream-abc123", w.Header().Get("X-Request-ID"))
}

func TestRequestIDMiddleware_RejectsOversizedID(t *testing.T) {
	oversized := strings.Repeat("x", 200)
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set("X-Request-ID", oversized)

	w := serve(t, newServer(nil), req)

	got := w.Header().Get("X-Request-ID")
	assert.NotEmpty(t, got)
	assert.NotEqual(t, oversized, got)
}

func TestRecoveryMiddleware(t *testing.T) {
	w := serve(t, newServer(nil), httptest.NewRequest(http.MethodGet, "/panic", http.NoBody))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}

func TestHealth_AggregatesChecks(t *testing.T) {
	srv := newServer(map[string]infragin.HealthChecker{
		"redis":   infragin.PingChecker("redis", infragin.HealthStatusDegraded, func() error { return nil }),
		"history": infragin.PingChecker("history", infragin.HealthStatusDegraded, func() error { return errors.New("refused") }),
	})

	w := serve(t, srv, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)

	var resp infragin.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, infragin.HealthStatusDegraded, resp.Status)
	assert.Equal(t, "harvester", resp.Service)
	assert.Equal(t, infragin.HealthStatusHealthy, resp.Checks["redis"].Status)
	assert.Contains(t, resp.Checks["history"].Message, "refused")
}

func TestHealth_UnhealthyReturns503(t *testing.T) {
	srv := newServer(map[string]infragin.HealthChecker{
		"redis": infragin.PingChecker("redis", infragin.HealthStatusUnhealthy, func() error { return errors.New("down") }),
	})

	w := serve(t, srv, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = serve(t, srv, httptest.NewRequest(http.MethodHead, "/health", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_ServeAndShutdown(t *testing.T) {
	srv := newServer(nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health/memory")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "goroutines")

	require.NoError(t, srv.Shutdown(context.Background()))
	require.NoError(t, <-done)
}
