package handler

import (
	"context"
	"net/http"
)

// Response writes headers, status and body. A returned error is passed to
// the router's ErrorHandler, which only writes when nothing was written yet.
type Response func(w http.ResponseWriter, r *http.Request) error

// HandlerFunc serves a request through a typed context.
type HandlerFunc[C Context] func(ctx C) Response

// ErrorHandler renders errors returned by a Response, including router
// errors such as not found and recovered panics.
type ErrorHandler[C Context] func(ctx C, err error)

// Middleware wraps a HandlerFunc. It may short-circuit by returning its own
// Response or decorate the Response returned by next.
type Middleware[C Context] func(next HandlerFunc[C]) HandlerFunc[C]

// Context is the request context handed to handlers and middleware.
// Values stored with SetValue are visible through Value and through the
// context of the request returned by Request.
type Context interface {
	context.Context
	Request() *http.Request
	ResponseWriter() http.ResponseWriter
	Param(key string) string
	SetValue(key, val any)
}

// Chain wraps h so that the first middleware is the outermost.
func Chain[C Context](h HandlerFunc[C], mws ...Middleware[C]) HandlerFunc[C] {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
