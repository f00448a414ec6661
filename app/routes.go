package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrymomot/wspubsub/core/admin"
	"github.com/dmitrymomot/wspubsub/core/handler"
	"github.com/dmitrymomot/wspubsub/core/health"
	"github.com/dmitrymomot/wspubsub/core/router"
	"github.com/dmitrymomot/wspubsub/middleware"
)

var errDraining = errors.New("draining")

func (a *App) routes(keys middleware.APIKeys) {
	r := a.router
	r.Use(
		middleware.RequestIDWithConfig[*router.Context](middleware.RequestIDConfig{UseExisting: true}),
		middleware.LoggingWithLogger[*router.Context](a.logger),
	)

	// The handshake checks the key itself so that a rejected client
	// receives an UNAUTHORIZED frame.
	r.Get("/ws", func(*router.Context) handler.Response { return a.gateway.Upgrade() })
	r.Get("/metrics", a.metricsHandler)
	r.Get("/health/live", health.Liveness[*router.Context])
	r.Get("/health/ready", health.Readiness[*router.Context](a.logger, a.ready))

	guarded := r.With(
		middleware.UnavailableWithConfig[*router.Context](middleware.UnavailableConfig{
			Down:    a.shutdown.Draining,
			Message: "Server is shutting down",
		}),
		middleware.APIKeyWithConfig[*router.Context](middleware.APIKeyConfig{Keys: keys}),
		middleware.BodyLimitWithSize[*router.Context](a.config.MaxBodySize),
	)
	admin.Mount(guarded, a.admin)
}

func (a *App) metricsHandler(*router.Context) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		a.metrics.Handler().ServeHTTP(w, r)
		return nil
	}
}

func (a *App) ready(context.Context) error {
	if a.shutdown.Draining() {
		return errDraining
	}
	return nil
}
