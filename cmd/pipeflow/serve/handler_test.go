package serve

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnykmshr/pipeflow/internal/app"
	"github.com/vnykmshr/pipeflow/internal/config"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := config.Load(config.Options{})
	require.NoError(t, err)
	cfg.Serve.Root = dir

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("alpha\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("beta\n"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	return app.New(cfg, io.Discard)
}

func handlerFor(t *testing.T, a *app.App) http.Handler {
	t.Helper()
	h, err := NewHandler(a)
	require.NoError(t, err)
	return h
}

func do(h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, body))
	return rec
}

func TestConcat(t *testing.T) {
	h := handlerFor(t, newTestApp(t))

	rec := do(h, http.MethodGet, "/concat?path=a.txt&path=b.txt&path=a.txt", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alpha\nbeta\nalpha\n", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestConcatErrors(t *testing.T) {
	h := handlerFor(t, newTestApp(t))

	tests := []struct {
		target string
		code   int
	}{
		{"/concat", http.StatusBadRequest},
		{"/concat?path=missing.txt", http.StatusNotFound},
		{"/concat?path=a.txt&path=missing.txt", http.StatusNotFound},
		{"/concat?path=../etc/passwd", http.StatusBadRequest},
		{"/concat?path=sub", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := do(h, http.MethodGet, tt.target, nil)
			assert.Equal(t, tt.code, rec.Code)
			assert.NotContains(t, rec.Body.String(), "alpha")
		})
	}
}

func TestStore(t *testing.T) {
	a := newTestApp(t)
	h := handlerFor(t, a)

	rec := do(h, http.MethodPut, "/files/uploads/c.txt", strings.NewReader("gamma"))
	require.Equal(t, http.StatusCreated, rec.Code)

	data, err := os.ReadFile(filepath.Join(a.Config.Serve.Root, "uploads", "c.txt"))
	require.NoError(t, err)
	assert.Equal(t, "gamma", string(data))

	rec = do(h, http.MethodGet, "/concat?path=uploads/c.txt", nil)
	assert.Equal(t, "gamma", rec.Body.String())
}

func TestMetricsAndHealth(t *testing.T) {
	a := newTestApp(t)
	h := handlerFor(t, a)

	require.Equal(t, http.StatusOK, do(h, http.MethodGet, "/health", nil).Code)
	do(h, http.MethodGet, "/concat?path=a.txt", nil)
	do(h, http.MethodGet, "/concat?path=missing.txt", nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.Metrics.HTTPRequests.WithLabelValues("/concat", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Metrics.HTTPRequests.WithLabelValues("/concat", "404")))

	rec := do(h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "pipeflow_http_requests_total")
	assert.Contains(t, body, `pipeflow_pipe_settled_total{outcome="success",pipe_name="concat"} 1`)
}

func TestMetricsDisabled(t *testing.T) {
	a := newTestApp(t)
	a.Config.Metrics.Enabled = false
	a = app.New(a.Config, io.Discard)

	rec := do(handlerFor(t, a), http.MethodGet, "/metrics", bytes.NewReader(nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStreamLimit(t *testing.T) {
	a := newTestApp(t)
	a.Config.Serve.MaxStreams = 1
	h, err := newHandler(a)
	require.NoError(t, err)

	require.True(t, h.streams.Acquire())
	rec := do(h.engine, http.MethodGet, "/concat?path=a.txt", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	h.streams.Release()
	rec = do(h.engine, http.MethodGet, "/concat?path=a.txt", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, h.streams.InUse())
}

func TestInvalidStreamLimit(t *testing.T) {
	a := newTestApp(t)
	a.Config.Serve.MaxStreams = 0

	_, err := NewHandler(a)
	require.Error(t, err)
}
