package router

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/julienschmidt/httprouter"

	"github.com/dmitrymomot/wspubsub/core/handler"
)

// mux implements Router on top of an httprouter tree.
// Views created by With share the tree and the root's router-wide middleware.
type mux[C handler.Context] struct {
	root   *mux[C]
	inline []handler.Middleware[C]

	// Fields below are only meaningful on the root.
	tree         *httprouter.Router
	middlewares  []handler.Middleware[C]
	errorHandler handler.ErrorHandler[C]
	newContext   func(http.ResponseWriter, *http.Request, map[string]string) C
	logger       *slog.Logger

	mu     sync.RWMutex
	routes []Route
}

func newMux[C handler.Context](opts ...Option[C]) *mux[C] {
	m := &mux[C]{
		tree:         httprouter.New(),
		errorHandler: defaultErrorHandler[C],
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	m.root = m

	for _, opt := range opts {
		opt(m)
	}

	if m.newContext == nil {
		m.newContext = func(w http.ResponseWriter, r *http.Request, params map[string]string) C {
			var zero C
			if _, ok := any(zero).(*Context); ok {
				return any(newContext(w, r, params)).(C)
			}
			panic(ErrNoContextFactory)
		}
	}

	m.tree.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.fail(w, r, ErrNotFound)
	})
	m.tree.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.fail(w, r, ErrMethodNotAllowed)
	})

	return m
}

// ServeHTTP implements http.Handler.
func (m *mux[C]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.root.tree.ServeHTTP(w, r)
}

func (m *mux[C]) Get(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodGet, pattern, h)
}

func (m *mux[C]) Post(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodPost, pattern, h)
}

func (m *mux[C]) Put(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodPut, pattern, h)
}

func (m *mux[C]) Patch(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodPatch, pattern, h)
}

func (m *mux[C]) Delete(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodDelete, pattern, h)
}

func (m *mux[C]) Method(method, pattern string, h handler.HandlerFunc[C]) {
	m.handle(strings.ToUpper(method), pattern, h)
}

func (m *mux[C]) Use(middlewares ...handler.Middleware[C]) {
	if m.root != m {
		m.inline = append(m.inline, middlewares...)
		return
	}
	m.middlewares = append(m.middlewares, middlewares...)
}

func (m *mux[C]) With(middlewares ...handler.Middleware[C]) Router[C] {
	inline := make([]handler.Middleware[C], 0, len(m.inline)+len(middlewares))
	inline = append(inline, m.inline...)
	inline = append(inline, middlewares...)
	return &mux[C]{root: m.root, inline: inline}
}

func (m *mux[C]) Routes() []Route {
	root := m.root
	root.mu.RLock()
	defer root.mu.RUnlock()
	out := make([]Route, len(root.routes))
	copy(out, root.routes)
	return out
}

// handle registers fn under method and pattern.
func (m *mux[C]) handle(method, pattern string, fn handler.HandlerFunc[C]) {
	if pattern == "" || pattern[0] != '/' {
		panic(fmt.Errorf("%w: '%s'", ErrInvalidPattern, pattern))
	}

	root := m.root
	h := handler.Chain(fn, m.inline...)

	root.tree.Handle(method, toTreePath(pattern), func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		root.serve(w, r, ps, h)
	})

	root.mu.Lock()
	root.routes = append(root.routes, Route{Method: method, Pattern: pattern})
	root.mu.Unlock()
}

func (m *mux[C]) serve(w http.ResponseWriter, r *http.Request, ps httprouter.Params, h handler.HandlerFunc[C]) {
	ww := newResponseWriter(w)

	var params map[string]string
	if len(ps) > 0 {
		params = make(map[string]string, len(ps))
		for _, p := range ps {
			params[p.Key] = p.Value
		}
	}

	ctx := m.newContext(ww, r, params)

	defer func() {
		if p := recover(); p != nil {
			perr := &panicError{value: p, stack: debug.Stack()}
			if ww.Written() {
				m.logger.Error("panic after response written",
					"value", perr.value,
					"stack", string(perr.stack),
					"path", r.URL.Path,
					"method", r.Method,
					"status", ww.Status(),
				)
				return
			}
			m.errorHandler(ctx, perr)
		}
	}()

	if len(m.middlewares) > 0 {
		h = handler.Chain(h, m.middlewares...)
	}

	resp := h(ctx)
	if resp == nil {
		m.errorHandler(ctx, ErrNilResponse)
		return
	}

	// Middleware may have replaced the request through SetValue.
	if err := resp(ww, ctx.Request()); err != nil {
		m.errorHandler(ctx, err)
	}
}

func (m *mux[C]) fail(w http.ResponseWriter, r *http.Request, err error) {
	ww := newResponseWriter(w)
	m.errorHandler(m.newContext(ww, r, nil), err)
}

// toTreePath converts "{name}" segments to httprouter's ":name".
func toTreePath(pattern string) string {
	if !strings.Contains(pattern, "{") {
		return pattern
	}
	segments := strings.Split(pattern, "/")
	for i, s := range segments {
		if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
			segments[i] = ":" + s[1:len(s)-1]
		}
	}
	return strings.Join(segments, "/")
}
