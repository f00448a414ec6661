package app

import (
	"github.com/dmitrymomot/wspubsub/core/broker"
	"github.com/dmitrymomot/wspubsub/core/gateway"
	"github.com/dmitrymomot/wspubsub/core/server"
	"github.com/dmitrymomot/wspubsub/core/shutdown"
)

type Config struct {
	Server   server.Config
	Broker   broker.Config
	Gateway  gateway.Config
	Shutdown shutdown.Config

	AppName  string `env:"APP_NAME" envDefault:"wspubsub"`
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:""`

	// APIKeys guards the admin routes and the WebSocket handshake.
	APIKeys     []string `env:"API_KEYS" envSeparator:"," envDefault:"my-secret-key-123"`
	MaxBodySize int64    `env:"ADMIN_MAX_BODY_SIZE" envDefault:"1048576"`
}
