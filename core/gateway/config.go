package gateway

import (
	"log/slog"
	"net/http"
	"time"
)

// Config holds WebSocket settings with environment variable support.
type Config struct {
	ReadBufferSize   int           `env:"WS_READ_BUFFER_SIZE" envDefault:"1024"`
	WriteBufferSize  int           `env:"WS_WRITE_BUFFER_SIZE" envDefault:"1024"`
	HandshakeTimeout time.Duration `env:"WS_HANDSHAKE_TIMEOUT" envDefault:"10s"`
	WriteTimeout     time.Duration `env:"WS_WRITE_TIMEOUT" envDefault:"10s"`
	// PingInterval of zero disables keepalive and the idle read deadline.
	PingInterval   time.Duration `env:"WS_PING_INTERVAL" envDefault:"30s"`
	MaxMessageSize int64         `env:"WS_MAX_MESSAGE_SIZE" envDefault:"1048576"`
	// CheckOrigin enables gorilla's same-origin check. Off by default since
	// most clients are not browsers.
	CheckOrigin bool `env:"WS_CHECK_ORIGIN" envDefault:"false"`
}

// DefaultConfig mirrors the envDefault tags.
func DefaultConfig() Config {
	return Config{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		PingInterval:     30 * time.Second,
		MaxMessageSize:   1 << 20,
	}
}

// Option configures a Gateway.
type Option func(*Gateway)

func WithConfig(cfg Config) Option {
	return func(g *Gateway) { g.cfg = cfg }
}

func WithLogger(log *slog.Logger) Option {
	return func(g *Gateway) {
		if log != nil {
			g.log = log
		}
	}
}

// WithAuthenticator sets the check run on every upgrade request.
// Without one every client is accepted.
func WithAuthenticator(fn func(*http.Request) bool) Option {
	return func(g *Gateway) { g.auth = fn }
}

// WithTracker registers sessions with a shutdown coordinator.
func WithTracker(t Tracker) Option {
	return func(g *Gateway) {
		if t != nil {
			g.tracker = t
		}
	}
}

// WithObserver sets the connection metrics sink.
func WithObserver(o Observer) Option {
	return func(g *Gateway) {
		if o != nil {
			g.obs = o
		}
	}
}
