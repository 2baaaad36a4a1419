package router

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"sync"

	"github.com/dmitrymomot/sessionguard/core/handler"
	"github.com/dmitrymomot/sessionguard/core/logger"
)

var methods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
	http.MethodConnect,
	http.MethodTrace,
}

// table is the state shared by a root router and its inline routers.
type table[C handler.Context] struct {
	serve        *http.ServeMux
	root         *mux[C]
	errorHandler handler.ErrorHandler[C]
	newContext   func(http.ResponseWriter, *http.Request, map[string]string) C
	logger       *slog.Logger

	mu     sync.Mutex
	routes []Route
}

// mux implements Router. Inline routers share the root's table and keep
// their own prefix and middleware.
type mux[C handler.Context] struct {
	table       *table[C]
	parent      *mux[C]
	prefix      string
	middlewares []handler.Middleware[C]
	hasRoutes   bool
}

func newMux[C handler.Context](opts ...Option[C]) *mux[C] {
	t := &table[C]{
		serve:        http.NewServeMux(),
		errorHandler: defaultErrorHandler[C],
		logger:       logger.Discard(),
	}
	m := &mux[C]{table: t}
	t.root = m

	for _, opt := range opts {
		opt(t)
	}
	if t.newContext == nil {
		panic(ErrNoContextFactory)
	}
	return m
}

// ServeHTTP implements http.Handler. Requests without a matching route go
// through the root middleware and end at the error handler with
// ErrNotFound or ErrMethodNotAllowed.
func (m *mux[C]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if _, pattern := m.table.serve.Handler(r); pattern != "" {
		m.table.serve.ServeHTTP(w, r)
		return
	}

	err := ErrNotFound
	if allowed := m.table.allowed(r); len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
		err = ErrMethodNotAllowed
	}
	m.table.dispatch(w, r, nil, func(C) handler.Response {
		return func(http.ResponseWriter, *http.Request) error { return err }
	})
}

// allowed lists the methods that would match r's path.
func (t *table[C]) allowed(r *http.Request) []string {
	var out []string
	for _, method := range methods {
		if method == r.Method {
			continue
		}
		alt := r.WithContext(r.Context())
		alt.Method = method
		if _, pattern := t.serve.Handler(alt); pattern != "" {
			out = append(out, method)
		}
	}
	return out
}

// dispatch runs fn behind the root middleware and renders its response.
func (t *table[C]) dispatch(w http.ResponseWriter, r *http.Request, params map[string]string, fn handler.HandlerFunc[C]) {
	ww := newResponseWriter(w)
	ctx := t.newContext(ww, r, params)

	defer func() {
		if p := recover(); p != nil {
			perr := &panicError{value: p, stack: debug.Stack()}
			if ww.Written() {
				t.logger.ErrorContext(r.Context(), "panic after response written",
					logger.Component("router"),
					slog.Any("panic", perr.value),
					slog.String("stack", string(perr.stack)),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.StatusCode(ww.Status()))
				return
			}
			t.errorHandler(ctx, perr)
		}
	}()

	if mws := t.root.middlewares; len(mws) > 0 {
		fn = handler.Chain(fn, mws...)
	}

	resp := fn(ctx)
	if resp == nil {
		t.errorHandler(ctx, ErrNilResponse)
		return
	}
	if err := resp(ww, ctx.Request()); err != nil {
		t.errorHandler(ctx, err)
	}
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

func (m *mux[C]) Delete(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodDelete, pattern, h)
}

func (m *mux[C]) Patch(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodPatch, pattern, h)
}

func (m *mux[C]) Head(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodHead, pattern, h)
}

func (m *mux[C]) Options(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodOptions, pattern, h)
}

func (m *mux[C]) Handle(pattern string, h handler.HandlerFunc[C]) {
	m.handle("", pattern, h)
}

func (m *mux[C]) Method(pattern string, h handler.HandlerFunc[C], list ...string) {
	if len(list) == 0 {
		panic(fmt.Errorf("%w: no methods provided", ErrInvalidMethod))
	}

	seen := make(map[string]bool, len(list))
	for _, method := range list {
		method = strings.ToUpper(method)
		if !slices.Contains(methods, method) {
			panic(fmt.Errorf("%w: %s", ErrInvalidMethod, method))
		}
		if seen[method] {
			continue
		}
		seen[method] = true
		m.handle(method, pattern, h)
	}
}

func (m *mux[C]) Use(middlewares ...handler.Middleware[C]) {
	if m.hasRoutes {
		panic(ErrRoutesDefined)
	}
	m.middlewares = append(m.middlewares, middlewares...)
}

func (m *mux[C]) With(middlewares ...handler.Middleware[C]) Router[C] {
	return &mux[C]{
		table:       m.table,
		parent:      m,
		prefix:      m.prefix,
		middlewares: middlewares,
	}
}

func (m *mux[C]) Group(fn func(r Router[C])) Router[C] {
	im := m.With()
	if fn != nil {
		fn(im)
	}
	return im
}

func (m *mux[C]) Route(pattern string, fn func(r Router[C])) Router[C] {
	if fn == nil {
		panic(fmt.Errorf("%w on '%s'", ErrNilSubrouter, pattern))
	}
	checkPattern(pattern)

	im := &mux[C]{
		table:  m.table,
		parent: m,
		prefix: joinPattern(m.prefix, pattern),
	}
	fn(im)
	return im
}

func (m *mux[C]) Routes() []Route {
	m.table.mu.Lock()
	defer m.table.mu.Unlock()
	return append([]Route(nil), m.table.routes...)
}

// handle registers h on the shared ServeMux. An empty method matches every
// method. Middleware of inline routers is bound here, outermost first; root
// middleware is applied per request by dispatch.
func (m *mux[C]) handle(method, pattern string, h handler.HandlerFunc[C]) {
	checkPattern(pattern)
	full := joinPattern(m.prefix, pattern)

	var chain []handler.Middleware[C]
	for cur := m; cur != nil && cur.parent != nil; cur = cur.parent {
		chain = append(append([]handler.Middleware[C](nil), cur.middlewares...), chain...)
	}
	if len(chain) > 0 {
		h = handler.Chain(h, chain...)
	}
	m.hasRoutes = true

	names := wildcards(full)
	t := m.table
	serve := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var params map[string]string
		if len(names) > 0 {
			params = make(map[string]string, len(names))
			for _, name := range names {
				params[name] = r.PathValue(name)
			}
		}
		t.dispatch(w, r, params, h)
	})

	registered := full
	routeMethod := "*"
	if method != "" {
		registered = method + " " + full
		routeMethod = method
	}
	t.serve.Handle(registered, serve)

	t.mu.Lock()
	t.routes = append(t.routes, Route{Method: routeMethod, Pattern: full})
	t.mu.Unlock()
}

func checkPattern(pattern string) {
	if pattern == "" || pattern[0] != '/' {
		panic(fmt.Errorf("%w: '%s'", ErrInvalidPattern, pattern))
	}
}

// joinPattern appends pattern to prefix without doubling the slash.
func joinPattern(prefix, pattern string) string {
	if prefix == "" {
		return pattern
	}
	return strings.TrimSuffix(prefix, "/") + pattern
}

// wildcards returns the names of the {name} and {name...} segments.
func wildcards(pattern string) []string {
	var names []string
	for {
		start := strings.IndexByte(pattern, '{')
		if start < 0 {
			return names
		}
		end := strings.IndexByte(pattern[start:], '}')
		if end < 0 {
			return names
		}
		name := strings.TrimSuffix(pattern[start+1:start+end], "...")
		if name != "" && name != "$" {
			names = append(names, name)
		}
		pattern = pattern[start+end+1:]
	}
}
