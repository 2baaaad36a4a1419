package router

import (
	"net/http"

	"github.com/dmitrymomot/sessionguard/core/handler"
)

// Router registers typed handlers and serves them as an http.Handler.
//
// Patterns use net/http.ServeMux syntax without the method prefix:
// "/api/me", "/users/{id}", "/static/" (prefix match) or "/{$}".
type Router[C handler.Context] interface {
	http.Handler
	Routes

	Get(pattern string, h handler.HandlerFunc[C])
	Post(pattern string, h handler.HandlerFunc[C])
	Put(pattern string, h handler.HandlerFunc[C])
	Delete(pattern string, h handler.HandlerFunc[C])
	Patch(pattern string, h handler.HandlerFunc[C])
	Head(pattern string, h handler.HandlerFunc[C])
	Options(pattern string, h handler.HandlerFunc[C])

	// Handle registers h for every method.
	Handle(pattern string, h handler.HandlerFunc[C])
	// Method registers h for the listed methods.
	Method(pattern string, h handler.HandlerFunc[C], methods ...string)

	// Use appends middleware. It panics once routes were registered on
	// this router. Middleware added to the root router also wraps not
	// found and method not allowed errors.
	Use(middlewares ...handler.Middleware[C])
	// With returns an inline router whose routes get extra middleware.
	With(middlewares ...handler.Middleware[C]) Router[C]
	// Group calls fn with an inline router.
	Group(fn func(r Router[C])) Router[C]
	// Route calls fn with an inline router prefixed by pattern.
	Route(pattern string, fn func(r Router[C])) Router[C]
}

// Routes lists registered routes.
type Routes interface {
	Routes() []Route
}

// Route describes one registration. Method is "*" for Handle.
type Route struct {
	Method  string
	Pattern string
}

// New creates a router. WithContextFactory is required; New panics with
// ErrNoContextFactory without it.
func New[C handler.Context](opts ...Option[C]) Router[C] {
	return newMux[C](opts...)
}
