package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/wspubsub/core/admin"
	"github.com/dmitrymomot/wspubsub/core/broker"
	"github.com/dmitrymomot/wspubsub/core/config"
	"github.com/dmitrymomot/wspubsub/core/gateway"
	"github.com/dmitrymomot/wspubsub/core/logger"
	"github.com/dmitrymomot/wspubsub/core/metrics"
	"github.com/dmitrymomot/wspubsub/core/router"
	"github.com/dmitrymomot/wspubsub/core/server"
	"github.com/dmitrymomot/wspubsub/core/shutdown"
	"github.com/dmitrymomot/wspubsub/middleware"
)

// ErrNoAPIKeys is returned when the allow-list is empty.
var ErrNoAPIKeys = errors.New("at least one API key is required")

// closeTimeout bounds the wait for subscriber workers after the server stops.
const closeTimeout = 5 * time.Second

// App wires the broker, the WebSocket gateway, the admin API and the
// shutdown sequence into one HTTP server.
type App struct {
	config   Config
	logger   *slog.Logger
	router   router.Router[*router.Context]
	server   *server.Server
	broker   *broker.Registry
	metrics  *metrics.Metrics
	shutdown *shutdown.Coordinator
	gateway  *gateway.Gateway
	admin    *admin.Service
}

type AppOption func(*App) error

// NewApp loads Config from the environment, applies opts and builds every
// component that was not supplied.
func NewApp(opts ...AppOption) (*App, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}

	app := &App{config: cfg}
	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	if len(middleware.APIKeys(app.config.APIKeys).Compact()) == 0 {
		return nil, ErrNoAPIKeys
	}

	if app.logger == nil {
		app.logger = newLogger(app.config)
	}
	if app.metrics == nil {
		app.metrics = metrics.New()
	}

	if app.broker == nil {
		reg, err := broker.NewFromConfig(app.config.Broker,
			broker.WithLogger(app.logger),
			broker.WithRecorder(app.metrics),
		)
		if err != nil {
			return nil, fmt.Errorf("broker: %w", err)
		}
		app.broker = reg
	}

	app.shutdown = shutdown.NewFromConfig(app.config.Shutdown, shutdown.WithLogger(app.logger))

	keys := middleware.APIKeys(app.config.APIKeys).Compact()
	app.gateway = gateway.New(app.broker,
		gateway.WithConfig(app.config.Gateway),
		gateway.WithLogger(app.logger),
		gateway.WithAuthenticator(keys.Request),
		gateway.WithTracker(app.shutdown),
		gateway.WithObserver(app.metrics),
	)
	app.admin = admin.New(app.broker, admin.WithLogger(app.logger))

	app.router = router.New[*router.Context](router.WithLogger[*router.Context](app.logger))
	app.routes(keys)

	if app.server == nil {
		s, err := server.NewFromConfig(app.config.Server, server.WithLogger(app.logger))
		if err != nil {
			return nil, err
		}
		app.server = s
	}

	return app, nil
}

// WithConfig replaces the configuration loaded from the environment.
func WithConfig(cfg Config) AppOption {
	return func(app *App) error {
		app.config = cfg
		return nil
	}
}

func WithLogger(logger *slog.Logger) AppOption {
	return func(app *App) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		app.logger = logger
		return nil
	}
}

func WithServer(server *server.Server) AppOption {
	return func(app *App) error {
		if server == nil {
			return errors.New("server cannot be nil")
		}
		app.server = server
		return nil
	}
}

func WithMetrics(m *metrics.Metrics) AppOption {
	return func(app *App) error {
		if m == nil {
			return errors.New("metrics cannot be nil")
		}
		app.metrics = m
		return nil
	}
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler { return a.router }

// Addr returns the server's bound address once it is running.
func (a *App) Addr() string { return a.server.Addr() }

// Run serves until ctx is cancelled, then drains WebSocket sessions, stops
// the HTTP server and releases the broker. The listener stays open while
// draining so new connections get a 503 instead of a refused dial.
func (a *App) Run(ctx context.Context) error {
	srvCtx, stopServer := context.WithCancel(context.WithoutCancel(ctx))
	defer stopServer()

	g, gctx := errgroup.WithContext(srvCtx)
	g.Go(a.server.Run(gctx, a.router))
	g.Go(func() error {
		select {
		case <-gctx.Done():
			// Server failed before a shutdown was requested.
			return nil
		case <-ctx.Done():
		}
		a.logger.Info("shutdown requested", logger.Duration(a.config.Shutdown.Deadline))
		err := a.shutdown.Drain(context.Background())
		stopServer()
		return err
	})

	err := g.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if cerr := a.broker.Close(closeCtx); cerr != nil {
		a.logger.Warn("broker close", logger.Error(cerr))
	}
	return err
}

func newLogger(cfg Config) *slog.Logger {
	opts := make([]logger.Option, 0, 2)
	if cfg.Env == "production" {
		opts = append(opts, logger.WithProduction(cfg.AppName))
	} else {
		opts = append(opts, logger.WithDevelopment(cfg.AppName))
	}
	if cfg.LogLevel != "" {
		opts = append(opts, logger.WithLevel(logger.ParseLevel(cfg.LogLevel)))
	}
	return logger.New(opts...)
}
