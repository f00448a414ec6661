package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/dmitrymomot/wspubsub/core/handler"
	"github.com/dmitrymomot/wspubsub/core/response"
)

// DefaultAPIKeyHeader is the header clients send their key in.
const DefaultAPIKeyHeader = "X-API-Key"

// APIKeys is a static allow-list of shared credentials.
type APIKeys []string

// Valid reports whether key is on the list. Comparison is constant time
// per entry; empty keys never match.
func (k APIKeys) Valid(key string) bool {
	if key == "" {
		return false
	}
	found := 0
	for _, allowed := range k {
		if allowed == "" {
			continue
		}
		found |= subtle.ConstantTimeCompare([]byte(allowed), []byte(key))
	}
	return found == 1
}

// Compact returns the keys with surrounding spaces trimmed and empty
// entries removed.
func (k APIKeys) Compact() APIKeys {
	out := make(APIKeys, 0, len(k))
	for _, key := range k {
		if key = strings.TrimSpace(key); key != "" {
			out = append(out, key)
		}
	}
	return out
}

// Request checks the X-API-Key header of r.
func (k APIKeys) Request(r *http.Request) bool {
	return k.Valid(r.Header.Get(DefaultAPIKeyHeader))
}

// APIKeyConfig configures the API key guard.
type APIKeyConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool
	// Keys is the allow-list. With no keys every request is rejected.
	Keys APIKeys
	// HeaderName overrides the header carrying the key (default: "X-API-Key")
	HeaderName string
	// ErrorHandler renders the rejection (default: 401 {"error":"Unauthorized"})
	ErrorHandler func(ctx handler.Context) handler.Response
}

// APIKey rejects requests that do not carry one of keys.
func APIKey[C handler.Context](keys ...string) handler.Middleware[C] {
	return APIKeyWithConfig[C](APIKeyConfig{Keys: keys})
}

// APIKeyWithConfig creates an API key guard with custom configuration.
func APIKeyWithConfig[C handler.Context](cfg APIKeyConfig) handler.Middleware[C] {
	if cfg.HeaderName == "" {
		cfg.HeaderName = DefaultAPIKeyHeader
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(handler.Context) handler.Response {
			return response.Error(response.ErrUnauthorized)
		}
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}
			if !cfg.Keys.Valid(ctx.Request().Header.Get(cfg.HeaderName)) {
				return cfg.ErrorHandler(ctx)
			}
			return next(ctx)
		}
	}
}
