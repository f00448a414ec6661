package router

import (
	"context"
	"net/http"
	"time"
)

// Context is the default request context.
type Context struct {
	w      http.ResponseWriter
	r      *http.Request
	params map[string]string
}

// Deadline returns the deadline of the request context.
func (c *Context) Deadline() (deadline time.Time, ok bool) {
	return c.r.Context().Deadline()
}

// Done returns the done channel of the request context.
func (c *Context) Done() <-chan struct{} {
	return c.r.Context().Done()
}

// Err returns the error of the request context.
func (c *Context) Err() error {
	return c.r.Context().Err()
}

// Value returns the value stored in the request context for key.
func (c *Context) Value(key any) any {
	return c.r.Context().Value(key)
}

// SetValue stores a value in the request context.
func (c *Context) SetValue(key, val any) {
	c.r = c.r.WithContext(context.WithValue(c.r.Context(), key, val))
}

// Request returns the current request, including values set with SetValue.
func (c *Context) Request() *http.Request {
	return c.r
}

// ResponseWriter returns the response writer.
func (c *Context) ResponseWriter() http.ResponseWriter {
	return c.w
}

// Param returns a path parameter, or "" if absent.
func (c *Context) Param(key string) string {
	if c.params == nil {
		return ""
	}
	return c.params[key]
}

func newContext(w http.ResponseWriter, r *http.Request, params map[string]string) *Context {
	return &Context{w: w, r: r, params: params}
}
