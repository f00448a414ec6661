package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/wspubsub/core/handler"
	"github.com/dmitrymomot/wspubsub/core/response"
	"github.com/dmitrymomot/wspubsub/core/router"
	"github.com/dmitrymomot/wspubsub/middleware"
)

func TestUnavailable(t *testing.T) {
	t.Parallel()

	var down atomic.Bool
	r := router.New[*router.Context]()
	r.Use(middleware.UnavailableWithConfig[*router.Context](middleware.UnavailableConfig{
		Down:    down.Load,
		Message: "Server is shutting down",
		Skip: func(ctx handler.Context) bool {
			return ctx.Request().URL.Path == "/health/live"
		},
	}))
	ok := func(*router.Context) handler.Response { return response.String("ok") }
	r.Post("/topics", ok)
	r.Get("/health/live", ok)

	serve := func(method, path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
		return w
	}

	w := serve(http.MethodPost, "/topics")
	assert.Equal(t, http.StatusOK, w.Code)

	down.Store(true)
	w = serve(http.MethodPost, "/topics")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), http.StatusText(http.StatusServiceUnavailable))

	w = serve(http.MethodGet, "/health/live")
	assert.Equal(t, http.StatusOK, w.Code)

	down.Store(false)
	w = serve(http.MethodPost, "/topics")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnavailable_RequiresDown(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		middleware.UnavailableWithConfig[*router.Context](middleware.UnavailableConfig{})
	})
}
