package gateway

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const closeGrace = time.Second

// transport is the protocol.Transport over one WebSocket connection.
// gorilla allows one concurrent writer; mu provides that, except for
// control frames which the library already serializes.
type transport struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	mu     sync.Mutex
	closed atomic.Bool
}

func newTransport(conn *websocket.Conn, writeTimeout time.Duration) *transport {
	return &transport{conn: conn, writeTimeout: writeTimeout}
}

func (t *transport) WriteFrame(ctx context.Context, frame any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.closed.Load() {
		return net.ErrClosed
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	deadline := time.Now().Add(t.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return t.conn.WriteJSON(frame)
}

func (t *transport) ping() error {
	return t.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(t.writeTimeout))
}

// Close sends a close frame and closes the socket without waiting for an
// in-flight write, which fails once the socket is gone.
func (t *transport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	_ = t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(closeGrace))
	return t.conn.Close()
}
