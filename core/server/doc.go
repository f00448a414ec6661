// Package server wraps http.Server with graceful shutdown and an
// errgroup-friendly Run.
//
// The listener is bound synchronously in Start, so a bad address or a port
// already in use is reported as an error instead of from a background
// goroutine:
//
//	srv, err := server.NewFromConfig(cfg.Server, server.WithLogger(log))
//	if err != nil {
//		return err
//	}
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.Run(ctx, router))
//	return g.Wait()
//
// Stop calls http.Server.Shutdown, which does not wait for hijacked
// connections. WebSocket sessions must be drained separately before the
// server is stopped.
//
// TLS is enabled with WithTLS or by setting SERVER_TLS_CERT_FILE and
// SERVER_TLS_KEY_FILE.
package server
