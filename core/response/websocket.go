package response

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/wspubsub/core/handler"
)

type wsConfig struct {
	upgrader     *websocket.Upgrader
	onConnect    func(context.Context, *websocket.Conn) error
	onDisconnect func(context.Context, *websocket.Conn)
	onError      func(context.Context, error)
}

// WebSocketOption configures the WebSocket upgrade.
type WebSocketOption func(*wsConfig)

func WithWSReadBuffer(size int) WebSocketOption {
	return func(c *wsConfig) {
		c.upgrader.ReadBufferSize = size
	}
}

func WithWSWriteBuffer(size int) WebSocketOption {
	return func(c *wsConfig) {
		c.upgrader.WriteBufferSize = size
	}
}

func WithWSHandshakeTimeout(timeout time.Duration) WebSocketOption {
	return func(c *wsConfig) {
		c.upgrader.HandshakeTimeout = timeout
	}
}

func WithWSOriginCheck(fn func(r *http.Request) bool) WebSocketOption {
	return func(c *wsConfig) {
		c.upgrader.CheckOrigin = fn
	}
}

func WithWSAllowAnyOrigin() WebSocketOption {
	return WithWSOriginCheck(func(*http.Request) bool { return true })
}

// WithWSOnConnect runs fn right after the upgrade; a non-nil error ends the session.
func WithWSOnConnect(fn func(context.Context, *websocket.Conn) error) WebSocketOption {
	return func(c *wsConfig) {
		c.onConnect = fn
	}
}

// WithWSOnDisconnect runs fn after the connection has been closed.
func WithWSOnDisconnect(fn func(context.Context, *websocket.Conn)) WebSocketOption {
	return func(c *wsConfig) {
		c.onDisconnect = fn
	}
}

func WithWSErrorHandler(fn func(context.Context, error)) WebSocketOption {
	return func(c *wsConfig) {
		c.onError = fn
	}
}

// WebSocket upgrades the request and runs messageHandler until it returns.
// The connection is closed afterwards. Upgrade and handler errors go to the
// error option rather than the router, because the HTTP response is gone.
func WebSocket(messageHandler func(context.Context, *websocket.Conn) error, opts ...WebSocketOption) handler.Response {
	cfg := &wsConfig{
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(w http.ResponseWriter, r *http.Request) error {
		conn, err := cfg.upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already replied with an HTTP error.
			cfg.reportError(r.Context(), err)
			return nil
		}
		defer func() {
			_ = conn.Close()
			if cfg.onDisconnect != nil {
				cfg.onDisconnect(r.Context(), conn)
			}
		}()

		if cfg.onConnect != nil {
			if err := cfg.onConnect(r.Context(), conn); err != nil {
				cfg.reportError(r.Context(), err)
				return nil
			}
		}

		if err := messageHandler(r.Context(), conn); err != nil {
			cfg.reportError(r.Context(), err)
		}
		return nil
	}
}

func (c *wsConfig) reportError(ctx context.Context, err error) {
	if c.onError != nil {
		c.onError(ctx, err)
	}
}
