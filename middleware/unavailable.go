package middleware

import (
	"github.com/dmitrymomot/wspubsub/core/handler"
	"github.com/dmitrymomot/wspubsub/core/response"
)

// UnavailableConfig configures the unavailable middleware.
type UnavailableConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool
	// Down reports whether requests should be refused. Required.
	Down func() bool
	// Message is the error message sent with the 503 (default: "Service unavailable")
	Message string
}

// Unavailable refuses requests with 503 while down returns true.
func Unavailable[C handler.Context](down func() bool) handler.Middleware[C] {
	return UnavailableWithConfig[C](UnavailableConfig{Down: down})
}

// UnavailableWithConfig creates an unavailable middleware with custom configuration.
func UnavailableWithConfig[C handler.Context](cfg UnavailableConfig) handler.Middleware[C] {
	if cfg.Down == nil {
		panic("unavailable middleware: down function is required")
	}
	if cfg.Message == "" {
		cfg.Message = "Service unavailable"
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}
			if cfg.Down() {
				return response.Error(response.ErrServiceUnavailable.WithMessage(cfg.Message))
			}
			return next(ctx)
		}
	}
}
