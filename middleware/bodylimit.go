package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrymomot/wspubsub/core/handler"
	"github.com/dmitrymomot/wspubsub/core/response"
)

// Common size constants for convenience
const (
	KB int64 = 1024
	MB       = 1024 * KB
)

// BodyLimitConfig configures the request body limit middleware.
type BodyLimitConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool
	// MaxSize is the maximum allowed size in bytes (default: 1MB)
	MaxSize int64
}

// BodyLimit creates a body limit middleware with the default 1MB limit.
func BodyLimit[C handler.Context]() handler.Middleware[C] {
	return BodyLimitWithConfig[C](BodyLimitConfig{})
}

// BodyLimitWithSize creates a body limit middleware with a specified size limit.
func BodyLimitWithSize[C handler.Context](maxSize int64) handler.Middleware[C] {
	return BodyLimitWithConfig[C](BodyLimitConfig{MaxSize: maxSize})
}

// BodyLimitWithConfig rejects requests whose declared Content-Length exceeds
// the limit and caps the body reader for the rest. Handlers that hit the cap
// while reading get an error matching IsBodyTooLarge.
func BodyLimitWithConfig[C handler.Context](cfg BodyLimitConfig) handler.Middleware[C] {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = MB
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			req := ctx.Request()
			if req.ContentLength > cfg.MaxSize {
				return response.Error(response.ErrRequestEntityTooLarge.WithMessage(
					fmt.Sprintf("Request body too large. Maximum allowed: %d bytes", cfg.MaxSize)))
			}
			if req.Body != nil {
				req.Body = http.MaxBytesReader(ctx.ResponseWriter(), req.Body, cfg.MaxSize)
			}
			return next(ctx)
		}
	}
}

// IsBodyTooLarge reports whether err came from reading past the body limit.
func IsBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
