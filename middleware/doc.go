// Package middleware provides HTTP middleware for the broker's admin surface.
//
// All middleware follows the same pattern: a generic constructor with
// defaults, a WithConfig variant taking a config struct with a Skip
// function, and context helpers for values stored on the request.
//
//	r := router.New[*router.Context]()
//	r.Use(
//		middleware.RequestID[*router.Context](),
//		middleware.LoggingWithLogger[*router.Context](log),
//		middleware.APIKeyWithConfig[*router.Context](middleware.APIKeyConfig{
//			Keys: keys,
//			Skip: func(ctx handler.Context) bool {
//				return ctx.Request().URL.Path == "/health/live"
//			},
//		}),
//	)
//	r.With(middleware.BodyLimitWithSize[*router.Context](64*middleware.KB)).
//		Post("/topics", createTopic)
//
// APIKeys doubles as the WebSocket authenticator: keys.Request checks the
// X-API-Key header of an upgrade request.
package middleware
