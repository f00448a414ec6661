package health_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/wspubsub/core/health"
	"github.com/dmitrymomot/wspubsub/core/logger"
	"github.com/dmitrymomot/wspubsub/core/router"
)

func TestLiveness(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Get("/health/live", health.Liveness[*router.Context])

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ALIVE", w.Body.String())
}

func TestReadiness(t *testing.T) {
	t.Parallel()

	var draining bool
	r := router.New[*router.Context]()
	r.Get("/health/ready", health.Readiness[*router.Context](logger.Nop(),
		func(context.Context) error { return nil },
		func(context.Context) error {
			if draining {
				return errors.New("draining")
			}
			return nil
		},
	))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "READY", w.Body.String())

	draining = true
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
