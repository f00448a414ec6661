package handler

import (
	"context"
	"net/http"
)

// Context is the per-request context handed to handlers and middleware.
type Context interface {
	context.Context
	Request() *http.Request
	ResponseWriter() http.ResponseWriter
	Param(key string) string
	SetValue(key, val any)
}
