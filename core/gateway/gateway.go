package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/wspubsub/core/handler"
	"github.com/dmitrymomot/wspubsub/core/logger"
	"github.com/dmitrymomot/wspubsub/core/protocol"
	"github.com/dmitrymomot/wspubsub/core/response"
	"github.com/dmitrymomot/wspubsub/core/shutdown"
)

// Rejection reasons reported to the Observer.
const (
	RejectUnauthorized = "unauthorized"
	RejectShuttingDown = "shutting_down"
)

// Tracker is the part of shutdown.Coordinator the gateway uses.
type Tracker interface {
	Track(p shutdown.Peer) bool
	Untrack(p shutdown.Peer)
	Draining() bool
}

// Observer receives connection lifecycle events.
type Observer interface {
	ConnectionOpened()
	ConnectionClosed()
	ConnectionRejected(reason string)
	FrameReceived(frameType string)
}

type authKey struct{}

// Gateway accepts WebSocket clients for a broker.
type Gateway struct {
	cfg     Config
	broker  protocol.Broker
	auth    func(*http.Request) bool
	tracker Tracker
	obs     Observer
	log     *slog.Logger

	ws handler.Response
}

// New creates a gateway serving sessions on b.
func New(b protocol.Broker, opts ...Option) *Gateway {
	g := &Gateway{
		cfg:     DefaultConfig(),
		broker:  b,
		tracker: nopTracker{},
		obs:     nopObserver{},
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.log = g.log.With(logger.Component("gateway"))

	wsOpts := []response.WebSocketOption{
		response.WithWSReadBuffer(g.cfg.ReadBufferSize),
		response.WithWSWriteBuffer(g.cfg.WriteBufferSize),
		response.WithWSHandshakeTimeout(g.cfg.HandshakeTimeout),
		response.WithWSErrorHandler(func(_ context.Context, err error) {
			g.log.Debug("websocket error", logger.Error(err))
		}),
	}
	if !g.cfg.CheckOrigin {
		wsOpts = append(wsOpts, response.WithWSAllowAnyOrigin())
	}
	g.ws = response.WebSocket(g.serve, wsOpts...)
	return g
}

// Upgrade returns the response that upgrades the request and runs a session
// until the connection ends.
func (g *Gateway) Upgrade() handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		if g.tracker.Draining() {
			g.obs.ConnectionRejected(RejectShuttingDown)
			return response.ErrServiceUnavailable.WithMessage("Server is shutting down")
		}
		ok := g.auth == nil || g.auth(r)
		return g.ws(w, r.WithContext(context.WithValue(r.Context(), authKey{}, ok)))
	}
}

func (g *Gateway) serve(ctx context.Context, conn *websocket.Conn) error {
	t := newTransport(conn, g.cfg.WriteTimeout)
	log := g.log.With(logger.RemoteAddr(conn.RemoteAddr().String()))

	if ok, _ := ctx.Value(authKey{}).(bool); !ok {
		g.obs.ConnectionRejected(RejectUnauthorized)
		log.Info("websocket client rejected", logger.Code(protocol.CodeUnauthorized))
		g.reject(ctx, t, protocol.CodeUnauthorized, protocol.MsgUnauthorized)
		return nil
	}

	sess := protocol.NewSession(t, g.broker,
		protocol.WithGate(g.tracker),
		protocol.WithLogger(log),
		protocol.WithFrameObserver(g.obs.FrameReceived),
	)
	if !g.tracker.Track(sess) {
		// Drain started between the pre-upgrade check and here.
		g.obs.ConnectionRejected(RejectShuttingDown)
		g.reject(ctx, t, protocol.CodeShuttingDown, protocol.MsgShuttingDown)
		_ = sess.Close()
		return nil
	}

	g.obs.ConnectionOpened()
	log.Debug("websocket client connected", logger.SessionID(sess.ID()))
	start := time.Now()
	defer func() {
		_ = sess.Close()
		g.tracker.Untrack(sess)
		g.obs.ConnectionClosed()
		log.Debug("websocket client disconnected", logger.SessionID(sess.ID()), logger.Elapsed(start))
	}()

	stop := make(chan struct{})
	defer close(stop)
	g.configureRead(conn)
	if g.cfg.PingInterval > 0 {
		go g.keepalive(t, stop)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			switch {
			case errors.Is(err, websocket.ErrReadLimit):
				log.Info("websocket frame too large", logger.SessionID(sess.ID()))
			case websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
				log.Debug("websocket read failed", logger.SessionID(sess.ID()), logger.Error(err))
			}
			return nil
		}
		g.extendRead(conn)

		if err := sess.Handle(ctx, data); err != nil {
			log.Debug("websocket write failed", logger.SessionID(sess.ID()), logger.Error(err))
			return nil
		}
	}
}

func (g *Gateway) reject(ctx context.Context, t *transport, code, message string) {
	if err := t.WriteFrame(ctx, protocol.NewError(nil, code, message, time.Now())); err != nil {
		g.log.Debug("rejection frame failed", logger.Error(err))
	}
	_ = t.Close()
}

// configureRead sets the frame size limit and, with keepalive enabled, an
// idle deadline that every pong or inbound frame pushes back. Without
// keepalive the deadline left on the hijacked conn by http.Server is cleared.
func (g *Gateway) configureRead(conn *websocket.Conn) {
	if g.cfg.MaxMessageSize > 0 {
		conn.SetReadLimit(g.cfg.MaxMessageSize)
	}
	if g.cfg.PingInterval <= 0 {
		_ = conn.SetReadDeadline(time.Time{})
		return
	}
	g.extendRead(conn)
	conn.SetPongHandler(func(string) error {
		g.extendRead(conn)
		return nil
	})
}

func (g *Gateway) extendRead(conn *websocket.Conn) {
	if g.cfg.PingInterval > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(g.pongWait()))
	}
}

func (g *Gateway) pongWait() time.Duration {
	return g.cfg.PingInterval * 10 / 9
}

func (g *Gateway) keepalive(t *transport, stop <-chan struct{}) {
	ticker := time.NewTicker(g.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := t.ping(); err != nil {
				return
			}
		}
	}
}

type nopTracker struct{}

func (nopTracker) Track(shutdown.Peer) bool { return true }
func (nopTracker) Untrack(shutdown.Peer)    {}
func (nopTracker) Draining() bool           { return false }

type nopObserver struct{}

func (nopObserver) ConnectionOpened()         {}
func (nopObserver) ConnectionClosed()         {}
func (nopObserver) ConnectionRejected(string) {}
func (nopObserver) FrameReceived(string)      {}
