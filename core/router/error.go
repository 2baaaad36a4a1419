package router

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrymomot/sessionguard/core/handler"
)

// routeError is a router failure that carries its HTTP status.
type routeError struct {
	msg    string
	status int
}

func (e *routeError) Error() string   { return e.msg }
func (e *routeError) StatusCode() int { return e.status }

var (
	ErrNotFound         error = &routeError{"not found", http.StatusNotFound}
	ErrMethodNotAllowed error = &routeError{"method not allowed", http.StatusMethodNotAllowed}
	ErrNilResponse      error = &routeError{"nil response", http.StatusInternalServerError}
)

// Registration errors. The router panics with them.
var (
	ErrNoContextFactory = errors.New("router: no context factory provided")
	ErrInvalidMethod    = errors.New("router: invalid http method")
	ErrInvalidPattern   = errors.New("router: invalid route pattern")
	ErrNilSubrouter     = errors.New("router: nil subrouter func")
	ErrRoutesDefined    = errors.New("router: middleware must be added before routes")
)

type statusCode interface {
	StatusCode() int
}

// defaultErrorHandler writes err as plain text unless the response was
// already started.
func defaultErrorHandler[C handler.Context](ctx C, err error) {
	w := ctx.ResponseWriter()
	if ww, ok := w.(*responseWriter); ok && ww.Written() {
		return
	}

	status := http.StatusInternalServerError
	var sc statusCode
	if errors.As(err, &sc) {
		status = sc.StatusCode()
	}
	http.Error(w, http.StatusText(status), status)
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

func (e *panicError) Error() string { return fmt.Sprintf("panic: %v", e.value) }
func (e *panicError) Value() any    { return e.value }
func (e *panicError) Stack() []byte { return e.stack }

func (e *panicError) Unwrap() error {
	if err, ok := e.value.(error); ok {
		return err
	}
	return nil
}
