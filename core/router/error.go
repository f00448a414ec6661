package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrymomot/wspubsub/core/handler"
)

var (
	ErrNoContextFactory = errors.New("no context factory provided")
	ErrMethodNotAllowed = errors.New("method not allowed")
	ErrNotFound         = errors.New("not found")
	ErrNilResponse      = errors.New("nil response")
	ErrInvalidPattern   = errors.New("invalid route path pattern")
)

// statusCode is implemented by errors that carry their own HTTP status.
type statusCode interface {
	StatusCode() int
}

// StatusOf returns the HTTP status for err: the error's own status when it
// carries one, 404/405 for routing misses, 500 otherwise.
func StatusOf(err error) int {
	var sc statusCode
	switch {
	case errors.As(err, &sc):
		return sc.StatusCode()
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// defaultErrorHandler renders {"error": "..."}.
// Internal errors are not echoed to the client.
func defaultErrorHandler[C handler.Context](ctx C, err error) {
	w := ctx.ResponseWriter()
	if ww, ok := w.(*responseWriter); ok && ww.Written() {
		return
	}

	status := StatusOf(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		msg = http.StatusText(status)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// PanicError is passed to the error handler when a handler panics.
type PanicError interface {
	error
	Value() any
	Stack() []byte
}

type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

func (e *panicError) Value() any {
	return e.value
}

func (e *panicError) Stack() []byte {
	return e.stack
}

func (e *panicError) Unwrap() error {
	if err, ok := e.value.(error); ok {
		return err
	}
	return nil
}
