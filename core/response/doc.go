// Package response builds handler.Response values for the broker's HTTP
// surface: JSON bodies, plain-text probes, typed HTTP errors and the
// WebSocket upgrade used by the gateway.
//
//	func createTopic(ctx *router.Context) handler.Response {
//		if err := registry.CreateTopic(name); errors.Is(err, broker.ErrTopicExists) {
//			return response.Error(response.ErrConflict.WithMessage("Topic already exists"))
//		}
//		return response.JSONWithStatus(created, http.StatusCreated)
//	}
//
// HTTPError carries a status code, so the router's error handler renders it
// with the right status and the error message as the body.
package response
