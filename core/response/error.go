package response

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/sessionguard/core/handler"
)

// Error returns a Response that hands err to the router's error handler.
func Error(err error) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		return err
	}
}

type statusCode interface {
	StatusCode() int
}

type written interface {
	Written() bool
}

// ToHTTPError maps err to the HTTPError rendered by ErrorHandler. An
// HTTPError is kept; an error with a StatusCode method gets the matching
// predefined error; anything else becomes a 500 so internal messages never
// reach clients.
func ToHTTPError(err error) HTTPError {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var sc statusCode
	if errors.As(err, &sc) {
		if e, ok := httpErrorsByStatus[sc.StatusCode()]; ok {
			return e
		}
	}
	return ErrInternalServerError
}

// ErrorHandler renders err as a JSON HTTPError. It does nothing when the
// response was already started.
func ErrorHandler[C handler.Context](ctx C, err error) {
	if w, ok := ctx.ResponseWriter().(written); ok && w.Written() {
		return
	}
	httpErr := ToHTTPError(err)
	Render(ctx, JSONWithStatus(httpErr, httpErr.Status))
}

// Render runs resp against the context's writer. A render failure becomes a
// plain 500.
func Render(ctx handler.Context, resp handler.Response) {
	if err := resp(ctx.ResponseWriter(), ctx.Request()); err != nil {
		http.Error(ctx.ResponseWriter(), http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
