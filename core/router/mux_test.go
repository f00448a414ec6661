package router_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/wspubsub/core/handler"
	"github.com/dmitrymomot/wspubsub/core/router"
)

type codedError struct{ status int }

func (e codedError) Error() string   { return "coded" }
func (e codedError) StatusCode() int { return e.status }

func text(s string) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		_, err := w.Write([]byte(s))
		return err
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestMux_Routing(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Get("/topics", func(ctx *router.Context) handler.Response { return text("list") })
	r.Delete("/topics/{name}", func(ctx *router.Context) handler.Response {
		return text("deleted " + ctx.Param("name"))
	})

	t.Run("static_route", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/topics", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "list", rec.Body.String())
	})

	t.Run("path_parameter", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/topics/orders", nil))
		assert.Equal(t, "deleted orders", rec.Body.String())
	})

	t.Run("not_found", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not found", decodeError(t, rec))
	})

	t.Run("method_not_allowed", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/topics", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Contains(t, rec.Header().Get("Allow"), http.MethodGet)
	})

	t.Run("routes_introspection", func(t *testing.T) {
		t.Parallel()
		assert.Contains(t, r.Routes(), router.Route{Method: http.MethodDelete, Pattern: "/topics/{name}"})
	})
}

func TestMux_Errors(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Get("/coded", func(ctx *router.Context) handler.Response {
		return func(w http.ResponseWriter, r *http.Request) error { return codedError{status: http.StatusConflict} }
	})
	r.Get("/internal", func(ctx *router.Context) handler.Response {
		return func(w http.ResponseWriter, r *http.Request) error { return errors.New("db exploded") }
	})
	r.Get("/panic", func(ctx *router.Context) handler.Response { panic("boom") })

	cases := []struct {
		path   string
		status int
		msg    string
	}{
		{"/coded", http.StatusConflict, "coded"},
		{"/internal", http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)},
		{"/panic", http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.msg, decodeError(t, rec))
		})
	}
}

func TestMux_Middleware(t *testing.T) {
	t.Parallel()

	var order []string
	mark := func(name string) handler.Middleware[*router.Context] {
		return func(next handler.HandlerFunc[*router.Context]) handler.HandlerFunc[*router.Context] {
			return func(ctx *router.Context) handler.Response {
				order = append(order, name)
				return next(ctx)
			}
		}
	}
	deny := func(next handler.HandlerFunc[*router.Context]) handler.HandlerFunc[*router.Context] {
		return func(ctx *router.Context) handler.Response {
			return func(w http.ResponseWriter, r *http.Request) error { return codedError{status: http.StatusUnauthorized} }
		}
	}

	r := router.New[*router.Context]()
	r.Use(mark("global"))
	r.With(mark("inline")).Get("/inline", func(ctx *router.Context) handler.Response { return text("ok") })
	r.With(deny).Get("/guarded", func(ctx *router.Context) handler.Response { return text("secret") })
	r.Get("/open", func(ctx *router.Context) handler.Response { return text("open") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inline", nil))
	assert.Equal(t, []string{"global", "inline"}, order)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/guarded", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/open", nil))
	assert.Equal(t, "open", rec.Body.String())
}

func TestMux_SetValueVisibleToResponse(t *testing.T) {
	t.Parallel()

	type key struct{}
	r := router.New[*router.Context]()
	r.Use(func(next handler.HandlerFunc[*router.Context]) handler.HandlerFunc[*router.Context] {
		return func(ctx *router.Context) handler.Response {
			ctx.SetValue(key{}, "from-middleware")
			return next(ctx)
		}
	})
	r.Get("/", func(ctx *router.Context) handler.Response {
		return func(w http.ResponseWriter, req *http.Request) error {
			v, _ := req.Context().Value(key{}).(string)
			_, err := w.Write([]byte(v))
			return err
		}
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "from-middleware", rec.Body.String())
}

func TestNew_PanicsOnInvalidPattern(t *testing.T) {
	t.Parallel()
	r := router.New[*router.Context]()
	assert.Panics(t, func() {
		r.Get("topics", func(ctx *router.Context) handler.Response { return text("x") })
	})
}
