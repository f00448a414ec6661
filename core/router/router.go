package router

import (
	"net/http"

	"github.com/dmitrymomot/wspubsub/core/handler"
)

// Router dispatches HTTP requests to typed handlers.
type Router[C handler.Context] interface {
	http.Handler
	Routes

	Get(pattern string, h handler.HandlerFunc[C])
	Post(pattern string, h handler.HandlerFunc[C])
	Put(pattern string, h handler.HandlerFunc[C])
	Patch(pattern string, h handler.HandlerFunc[C])
	Delete(pattern string, h handler.HandlerFunc[C])
	Method(method, pattern string, h handler.HandlerFunc[C])

	// Use appends middleware applied to every route of the router.
	Use(middlewares ...handler.Middleware[C])
	// With returns a router sharing the same routing table whose routes
	// additionally run the given middleware.
	With(middlewares ...handler.Middleware[C]) Router[C]
}

// Routes provides route introspection.
type Routes interface {
	Routes() []Route
}

// Route describes a registered route.
type Route struct {
	Method  string
	Pattern string
}

// New creates a router.
// A context factory is required unless C is *Context.
func New[C handler.Context](opts ...Option[C]) Router[C] {
	return newMux[C](opts...)
}
