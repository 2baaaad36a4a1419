package middleware

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/sessionguard/core/handler"
)

var errNilResponse = errors.New("middleware: handler returned nil response")

// SkipFunc reports whether a middleware should pass the request straight
// through.
type SkipFunc func(ctx handler.Context) bool

// render runs resp, treating a nil Response as an error instead of a panic.
func render(resp handler.Response, w http.ResponseWriter, r *http.Request) error {
	if resp == nil {
		return errNilResponse
	}
	return resp(w, r)
}
