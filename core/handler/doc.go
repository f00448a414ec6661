// Package handler defines the typed request-handling primitives shared by the
// router, the middleware and the administrative endpoints of the broker.
//
// A handler receives a request context and returns a Response, a deferred
// render function. Errors returned while rendering are passed to the
// router's ErrorHandler, so handlers never write error bodies themselves:
//
//	func listTopics(ctx *router.Context) handler.Response {
//		return response.JSON(registry.ListTopics())
//	}
//
// Middleware wraps a HandlerFunc and may short-circuit by returning its own
// Response, which is how the API-key guard rejects requests.
package handler
