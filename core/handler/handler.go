package handler

import "net/http"

// Response renders an HTTP response.
// A non-nil error is handed to the router's error handler.
type Response func(w http.ResponseWriter, r *http.Request) error

// HandlerFunc is a request handler bound to a concrete context type.
type HandlerFunc[C Context] func(ctx C) Response

// ErrorHandler turns an error produced by a handler or its Response into an HTTP reply.
type ErrorHandler[C Context] func(ctx C, err error)

// Middleware wraps a handler to add cross-cutting behavior.
type Middleware[C Context] func(next HandlerFunc[C]) HandlerFunc[C]

// Chain applies middlewares so that the first one listed runs first.
func Chain[C Context](h HandlerFunc[C], middlewares ...Middleware[C]) HandlerFunc[C] {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
