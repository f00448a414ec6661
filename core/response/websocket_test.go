package response_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/wspubsub/core/response"
)

func serveWS(t *testing.T, h func(w http.ResponseWriter, r *http.Request) error) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, h(w, r))
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocket_EchoOnce(t *testing.T) {
	t.Parallel()

	url := serveWS(t, response.WebSocket(func(ctx context.Context, conn *websocket.Conn) error {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		return conn.WriteMessage(mt, data)
	}, response.WithWSAllowAnyOrigin()))

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello")))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestWebSocket_Hooks(t *testing.T) {
	t.Parallel()

	disconnected := make(chan struct{})
	errs := make(chan error, 1)
	connectErr := errors.New("rejected")

	url := serveWS(t, response.WebSocket(
		func(ctx context.Context, conn *websocket.Conn) error {
			t.Error("message handler must not run when onConnect fails")
			return nil
		},
		response.WithWSAllowAnyOrigin(),
		response.WithWSOnConnect(func(ctx context.Context, conn *websocket.Conn) error { return connectErr }),
		response.WithWSOnDisconnect(func(ctx context.Context, conn *websocket.Conn) { close(disconnected) }),
		response.WithWSErrorHandler(func(ctx context.Context, err error) { errs <- err }),
	))

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	select {
	case <-disconnected:
	case <-time.After(2 * time.Second):
		t.Fatal("onDisconnect not called")
	}
	assert.ErrorIs(t, <-errs, connectErr)
}

func TestWebSocket_RejectsPlainHTTP(t *testing.T) {
	t.Parallel()

	errs := make(chan error, 1)
	h := response.WebSocket(func(ctx context.Context, conn *websocket.Conn) error { return nil },
		response.WithWSErrorHandler(func(ctx context.Context, err error) { errs <- err }),
	)

	rec := httptest.NewRecorder()
	require.NoError(t, h(rec, httptest.NewRequest(http.MethodGet, "/ws", nil)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Error(t, <-errs)
}
