package server_test

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/wspubsub/core/server"
)

func hello() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "hello")
	})
}

func TestServerRun(t *testing.T) {
	t.Parallel()

	srv := server.New("127.0.0.1:0", server.WithShutdownTimeout(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, hello())() }()

	require.Eventually(t, srv.Running, time.Second, 5*time.Millisecond)

	resp, err := http.Get("http://" + srv.Addr() + "/")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, srv.Running())
}

func TestServerStartBindFailure(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	srv := server.New(ln.Addr().String())
	err = srv.Start(context.Background(), hello())
	assert.ErrorIs(t, err, server.ErrListen)
	assert.False(t, srv.Running())

	err = srv.Run(context.Background(), hello())()
	assert.ErrorIs(t, err, server.ErrListen)
}

func TestServerAlreadyRunning(t *testing.T) {
	t.Parallel()

	srv := server.New("127.0.0.1:0")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx, hello()) }()
	require.Eventually(t, srv.Running, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, srv.Start(context.Background(), hello()), server.ErrServerAlreadyRunning)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	require.NoError(t, srv.Stop())
	assert.False(t, srv.Running())
}

func TestServerStopWhenIdle(t *testing.T) {
	t.Parallel()

	assert.NoError(t, server.New(":0").Stop())
}
