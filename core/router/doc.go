// Package router is a generic HTTP router for typed handlers, backed by
// julienschmidt/httprouter for path matching.
//
// Routes take chi-style patterns ("/topics/{name}"); parameters are read
// with ctx.Param. Middleware added with Use runs for every matched route,
// while With returns a view of the same router whose routes additionally
// run the given middleware.
//
//	r := router.New[*router.Context]()
//	r.Use(middleware.RequestID[*router.Context]())
//
//	guarded := r.With(middleware.APIKey[*router.Context](keys))
//	guarded.Post("/topics", createTopic)
//	guarded.Delete("/topics/{name}", deleteTopic)
//
// Errors returned by handlers, unmatched routes and recovered panics are all
// routed through a single ErrorHandler. The default one renders
// {"error": "..."} with the status carried by the error, if any.
//
// The response writer handed to handlers implements http.Hijacker, so
// WebSocket upgrades work on routed endpoints.
package router
