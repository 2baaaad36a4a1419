package guard

import (
	"context"
	"net/http"
	"time"
)

// Context is the per-request context handed to guard handlers. Values set by
// middleware are stored on the request's context.
type Context struct {
	w      http.ResponseWriter
	r      *http.Request
	params map[string]string
}

func (c *Context) Deadline() (deadline time.Time, ok bool) {
	return c.r.Context().Deadline()
}

func (c *Context) Done() <-chan struct{} {
	return c.r.Context().Done()
}

func (c *Context) Err() error {
	return c.r.Context().Err()
}

func (c *Context) Value(key any) any {
	return c.r.Context().Value(key)
}

// SetValue stores a value in the request's context.
func (c *Context) SetValue(key, val any) {
	c.r = c.r.WithContext(context.WithValue(c.r.Context(), key, val))
}

func (c *Context) Request() *http.Request {
	return c.r
}

func (c *Context) ResponseWriter() http.ResponseWriter {
	return c.w
}

// Param returns the path wildcard named key, or "".
func (c *Context) Param(key string) string {
	return c.params[key]
}

func newContext(w http.ResponseWriter, r *http.Request, params map[string]string) *Context {
	return &Context{w: w, r: r, params: params}
}
