package router_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionguard/core/handler"
	"github.com/dmitrymomot/sessionguard/core/router"
)

type testContext struct {
	w      http.ResponseWriter
	r      *http.Request
	params map[string]string
}

func newTestContext(w http.ResponseWriter, r *http.Request, params map[string]string) *testContext {
	return &testContext{w: w, r: r, params: params}
}

func (c *testContext) Deadline() (deadline time.Time, ok bool) { return c.r.Context().Deadline() }
func (c *testContext) Done() <-chan struct{}                   { return c.r.Context().Done() }
func (c *testContext) Err() error                              { return c.r.Context().Err() }
func (c *testContext) Value(key any) any                       { return c.r.Context().Value(key) }
func (c *testContext) Request() *http.Request                  { return c.r }
func (c *testContext) ResponseWriter() http.ResponseWriter     { return c.w }
func (c *testContext) Param(key string) string                 { return c.params[key] }
func (c *testContext) SetValue(key, val any) {
	c.r = c.r.WithContext(context.WithValue(c.r.Context(), key, val))
}

func newRouter(opts ...router.Option[*testContext]) router.Router[*testContext] {
	return router.New(append([]router.Option[*testContext]{router.WithContextFactory(newTestContext)}, opts...)...)
}

func text(s string) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		_, err := w.Write([]byte(s))
		return err
	}
}

// tag appends name to the X-Trace header on the way in.
func tag(name string) handler.Middleware[*testContext] {
	return func(next handler.HandlerFunc[*testContext]) handler.HandlerFunc[*testContext] {
		return func(ctx *testContext) handler.Response {
			ctx.ResponseWriter().Header().Add("X-Trace", name)
			return next(ctx)
		}
	}
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestRouter_Methods(t *testing.T) {
	t.Parallel()

	r := newRouter()
	r.Get("/items", func(*testContext) handler.Response { return text("get") })
	r.Post("/items", func(*testContext) handler.Response { return text("post") })
	r.Put("/items", func(*testContext) handler.Response { return text("put") })
	r.Patch("/items", func(*testContext) handler.Response { return text("patch") })
	r.Delete("/items", func(*testContext) handler.Response { return text("delete") })
	r.Options("/items", func(*testContext) handler.Response { return text("options") })
	r.Head("/ping", func(*testContext) handler.Response { return text("") })
	r.Handle("/any", func(ctx *testContext) handler.Response { return text(ctx.Request().Method) })
	r.Method("/multi", func(*testContext) handler.Response { return text("multi") }, "get", "POST", "GET")

	for _, method := range []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"} {
		w := serve(r, method, "/items")
		assert.Equal(t, http.StatusOK, w.Code, method)
		assert.Equal(t, strings.ToLower(method), w.Body.String())
	}

	assert.Equal(t, http.StatusOK, serve(r, http.MethodHead, "/ping").Code)
	assert.Equal(t, "TRACE", serve(r, http.MethodTrace, "/any").Body.String())
	assert.Equal(t, "multi", serve(r, http.MethodPost, "/multi").Body.String())

	assert.ElementsMatch(t, []router.Route{
		{Method: "GET", Pattern: "/items"},
		{Method: "POST", Pattern: "/items"},
		{Method: "PUT", Pattern: "/items"},
		{Method: "PATCH", Pattern: "/items"},
		{Method: "DELETE", Pattern: "/items"},
		{Method: "OPTIONS", Pattern: "/items"},
		{Method: "HEAD", Pattern: "/ping"},
		{Method: "*", Pattern: "/any"},
		{Method: "GET", Pattern: "/multi"},
		{Method: "POST", Pattern: "/multi"},
	}, r.Routes())
}

func TestRouter_Params(t *testing.T) {
	t.Parallel()

	r := newRouter()
	r.Get("/users/{id}/files/{path...}", func(ctx *testContext) handler.Response {
		return text(ctx.Param("id") + ":" + ctx.Param("path"))
	})

	w := serve(r, http.MethodGet, "/users/42/files/a/b.txt")
	assert.Equal(t, "42:a/b.txt", w.Body.String())
}

func TestRouter_Errors(t *testing.T) {
	t.Parallel()

	var got error
	r := newRouter(router.WithErrorHandler(func(ctx *testContext, err error) {
		got = err
		ctx.ResponseWriter().WriteHeader(http.StatusTeapot)
	}))
	r.Get("/items", func(*testContext) handler.Response { return text("ok") })
	r.Get("/nil", func(*testContext) handler.Response { return nil })
	r.Get("/fail", func(*testContext) handler.Response {
		return func(http.ResponseWriter, *http.Request) error { return errors.New("boom") }
	})
	r.Get("/panic", func(*testContext) handler.Response { panic("kaboom") })

	t.Run("not found", func(t *testing.T) {
		w := serve(r, http.MethodGet, "/missing")
		assert.Equal(t, http.StatusTeapot, w.Code)
		assert.ErrorIs(t, got, router.ErrNotFound)
	})

	t.Run("method not allowed", func(t *testing.T) {
		w := serve(r, http.MethodPost, "/items")
		assert.ErrorIs(t, got, router.ErrMethodNotAllowed)
		assert.Equal(t, "GET, HEAD", w.Header().Get("Allow"))
	})

	t.Run("nil response", func(t *testing.T) {
		serve(r, http.MethodGet, "/nil")
		assert.ErrorIs(t, got, router.ErrNilResponse)
	})

	t.Run("response error", func(t *testing.T) {
		serve(r, http.MethodGet, "/fail")
		assert.EqualError(t, got, "boom")
	})

	t.Run("panic", func(t *testing.T) {
		require.NotPanics(t, func() { serve(r, http.MethodGet, "/panic") })
		var perr router.PanicError
		require.ErrorAs(t, got, &perr)
		assert.Equal(t, "kaboom", perr.Value())
		assert.NotEmpty(t, perr.Stack())
	})
}

func TestRouter_DefaultErrorHandler(t *testing.T) {
	t.Parallel()

	r := newRouter()
	r.Get("/partial", func(*testContext) handler.Response {
		return func(w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusAccepted)
			return errors.New("late failure")
		}
	})

	w := serve(r, http.MethodGet, "/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(r, http.MethodGet, "/partial")
	assert.Equal(t, http.StatusAccepted, w.Code, "started responses are left alone")
	assert.Empty(t, w.Body.String())
}

func TestRouter_Middleware(t *testing.T) {
	t.Parallel()

	r := newRouter(router.WithMiddleware(tag("option")))
	r.Use(tag("root"))
	r.With(tag("with")).Get("/with", func(*testContext) handler.Response { return text("ok") })
	r.Group(func(g router.Router[*testContext]) {
		g.Use(tag("group"))
		g.With(tag("inner")).Get("/group", func(*testContext) handler.Response { return text("ok") })
	})
	r.Route("/api", func(api router.Router[*testContext]) {
		api.Use(tag("api"))
		api.Get("/me", func(*testContext) handler.Response { return text("me") })
	})

	assert.Equal(t, []string{"option", "root", "with"}, serve(r, http.MethodGet, "/with").Header().Values("X-Trace"))
	assert.Equal(t, []string{"option", "root", "group", "inner"}, serve(r, http.MethodGet, "/group").Header().Values("X-Trace"))

	w := serve(r, http.MethodGet, "/api/me")
	assert.Equal(t, "me", w.Body.String())
	assert.Equal(t, []string{"option", "root", "api"}, w.Header().Values("X-Trace"))

	w = serve(r, http.MethodGet, "/nowhere")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, []string{"option", "root"}, w.Header().Values("X-Trace"), "root middleware wraps misses")
}

func TestRouter_SetValue(t *testing.T) {
	t.Parallel()

	type key struct{}
	r := newRouter()
	r.Use(func(next handler.HandlerFunc[*testContext]) handler.HandlerFunc[*testContext] {
		return func(ctx *testContext) handler.Response {
			ctx.SetValue(key{}, "stored")
			return next(ctx)
		}
	})
	r.Get("/", func(ctx *testContext) handler.Response {
		return func(w http.ResponseWriter, req *http.Request) error {
			v, _ := req.Context().Value(key{}).(string)
			_, err := w.Write([]byte(v))
			return err
		}
	})

	assert.Equal(t, "stored", serve(r, http.MethodGet, "/").Body.String())
}

func TestRouter_RegistrationPanics(t *testing.T) {
	t.Parallel()

	assert.PanicsWithValue(t, router.ErrNoContextFactory, func() { router.New[*testContext]() })

	r := newRouter()
	h := func(*testContext) handler.Response { return text("") }

	assert.Panics(t, func() { r.Get("items", h) })
	assert.Panics(t, func() { r.Method("/x", h) })
	assert.Panics(t, func() { r.Method("/x", h, "FETCH") })
	assert.Panics(t, func() { r.Route("/x", nil) })

	r.Get("/ok", h)
	assert.PanicsWithValue(t, router.ErrRoutesDefined, func() { r.Use(tag("late")) })
}
