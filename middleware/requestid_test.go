package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/wspubsub/core/handler"
	"github.com/dmitrymomot/wspubsub/core/router"
	"github.com/dmitrymomot/wspubsub/middleware"
)

func okHandler(ctx *router.Context) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		w.WriteHeader(http.StatusOK)
		return nil
	}
}

func TestRequestIDDefaultConfiguration(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Use(middleware.RequestID[*router.Context]())

	var capturedID string
	r.Get("/test", func(ctx *router.Context) handler.Response {
		id, ok := middleware.GetRequestID(ctx)
		assert.True(t, ok, "Request ID should be present in context")
		capturedID = id
		return okHandler(ctx)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, capturedID, w.Header().Get("X-Request-ID"))
	_, err := uuid.Parse(capturedID)
	assert.NoError(t, err, "default generator produces UUIDs")
}

func TestRequestIDCustomGeneratorAndHeader(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Use(middleware.RequestIDWithConfig[*router.Context](middleware.RequestIDConfig{
		HeaderName: "X-Trace-ID",
		Generator:  func() string { return "custom-123" },
	}))
	r.Get("/test", okHandler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, "custom-123", w.Header().Get("X-Trace-ID"))
	assert.Empty(t, w.Header().Get("X-Request-ID"))
}

func TestRequestIDUseExisting(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Use(middleware.RequestIDWithConfig[*router.Context](middleware.RequestIDConfig{UseExisting: true}))
	r.Get("/test", okHandler)

	t.Run("with existing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Request-ID", "existing-id")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, "existing-id", w.Header().Get("X-Request-ID"))
	})

	t.Run("with empty header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Request-ID", "")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})
}

func TestRequestIDSkip(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Use(middleware.RequestIDWithConfig[*router.Context](middleware.RequestIDConfig{
		Skip: func(ctx handler.Context) bool {
			return strings.HasPrefix(ctx.Request().URL.Path, "/health")
		},
	}))
	r.Get("/health/live", func(ctx *router.Context) handler.Response {
		_, ok := middleware.GetRequestID(ctx)
		assert.False(t, ok)
		return okHandler(ctx)
	})
	r.Get("/topics", okHandler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Empty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/topics", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRequestIDUniquePerRequest(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Use(middleware.RequestID[*router.Context]())
	r.Get("/test", okHandler)

	seen := map[string]bool{}
	for range 5 {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		seen[w.Header().Get("X-Request-ID")] = true
	}
	require.Len(t, seen, 5)
}
