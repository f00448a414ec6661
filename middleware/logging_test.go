package middleware_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/wspubsub/core/handler"
	"github.com/dmitrymomot/wspubsub/core/response"
	"github.com/dmitrymomot/wspubsub/core/router"
	"github.com/dmitrymomot/wspubsub/middleware"
)

// testLogHandler captures log entries for testing
type testLogHandler struct {
	mu      sync.Mutex
	entries []map[string]any
}

func (h *testLogHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *testLogHandler) Handle(_ context.Context, r slog.Record) error {
	entry := map[string]any{"level": r.Level.String(), "msg": r.Message}
	r.Attrs(func(a slog.Attr) bool {
		entry[a.Key] = a.Value.Any()
		return true
	})
	h.mu.Lock()
	h.entries = append(h.entries, entry)
	h.mu.Unlock()
	return nil
}

func (h *testLogHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *testLogHandler) WithGroup(string) slog.Handler      { return h }

func (h *testLogHandler) only(t *testing.T) map[string]any {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	require.Len(t, h.entries, 1)
	return h.entries[0]
}

func TestLogging(t *testing.T) {
	t.Parallel()

	logs := &testLogHandler{}
	r := router.New[*router.Context]()
	r.Use(middleware.RequestID[*router.Context]())
	r.Use(middleware.LoggingWithLogger[*router.Context](slog.New(logs)))
	r.Get("/topics", func(*router.Context) handler.Response {
		return response.String("test response")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/topics?x=1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	entry := logs.only(t)
	assert.Equal(t, "HTTP request completed", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/topics", entry["path"])
	assert.Equal(t, "x=1", entry["query"])
	assert.Equal(t, int64(200), entry["status_code"])
	assert.Equal(t, int64(13), entry["bytes_out"])
	assert.Equal(t, "http", entry["component"])
	assert.Equal(t, w.Header().Get("X-Request-ID"), entry["request_id"])
}

func TestLoggingErrorLevels(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		resp   handler.Response
		status int64
		level  string
	}{
		{"written_4xx", response.JSONWithStatus(map[string]string{"error": "x"}, http.StatusNotFound), 404, "WARN"},
		{"returned_http_error", response.Error(response.ErrConflict), 409, "WARN"},
		{"returned_plain_error", response.Error(assert.AnError), 500, "ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			logs := &testLogHandler{}
			r := router.New[*router.Context]()
			r.Use(middleware.LoggingWithLogger[*router.Context](slog.New(logs)))
			r.Get("/x", func(*router.Context) handler.Response { return tc.resp })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

			entry := logs.only(t)
			assert.Equal(t, tc.status, entry["status_code"])
			assert.Equal(t, tc.level, entry["level"])
			assert.Equal(t, int(tc.status), w.Code)
		})
	}
}

func TestLoggingSlowRequest(t *testing.T) {
	t.Parallel()

	logs := &testLogHandler{}
	r := router.New[*router.Context]()
	r.Use(middleware.LoggingWithConfig[*router.Context](middleware.LoggingConfig{
		Logger:               slog.New(logs),
		SlowRequestThreshold: 10 * time.Millisecond,
	}))
	r.Get("/slow", func(ctx *router.Context) handler.Response {
		time.Sleep(20 * time.Millisecond)
		return okHandler(ctx)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/slow", nil))

	entry := logs.only(t)
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, true, entry["slow_request"])
}

func TestLoggingRedactsHeadersAndSkips(t *testing.T) {
	t.Parallel()

	logs := &testLogHandler{}
	r := router.New[*router.Context]()
	r.Use(middleware.LoggingWithConfig[*router.Context](middleware.LoggingConfig{
		Logger:     slog.New(logs),
		LogHeaders: true,
		Skip: func(ctx handler.Context) bool {
			return strings.HasPrefix(ctx.Request().URL.Path, "/health")
		},
	}))
	r.Get("/topics", okHandler)
	r.Get("/health/live", okHandler)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))

	req := httptest.NewRequest(http.MethodGet, "/topics", nil)
	req.Header.Set("X-API-Key", "secret")
	req.Header.Set("User-Agent", "test-agent")
	r.ServeHTTP(httptest.NewRecorder(), req)

	headers, ok := logs.only(t)["headers"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "[REDACTED]", headers["X-Api-Key"])
	assert.Equal(t, "test-agent", headers["User-Agent"])
}
