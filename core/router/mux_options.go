package router

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/sessionguard/core/handler"
)

// Option configures the root router.
type Option[C handler.Context] func(*table[C])

// WithErrorHandler sets the handler for errors returned by responses.
func WithErrorHandler[C handler.Context](h handler.ErrorHandler[C]) Option[C] {
	return func(t *table[C]) {
		if h != nil {
			t.errorHandler = h
		}
	}
}

// WithMiddleware adds root middleware, same as calling Use before any route.
func WithMiddleware[C handler.Context](middlewares ...handler.Middleware[C]) Option[C] {
	return func(t *table[C]) {
		t.root.middlewares = append(t.root.middlewares, middlewares...)
	}
}

// WithContextFactory sets how the request context is built. params holds
// the path wildcards of the matched route.
func WithContextFactory[C handler.Context](f func(w http.ResponseWriter, r *http.Request, params map[string]string) C) Option[C] {
	return func(t *table[C]) {
		t.newContext = f
	}
}

// WithLogger sets the logger used for panics that happen after the
// response was started.
func WithLogger[C handler.Context](logger *slog.Logger) Option[C] {
	return func(t *table[C]) {
		if logger != nil {
			t.logger = logger
		}
	}
}
