package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionguard/core/handler"
)

type ctx struct {
	context.Context
	w http.ResponseWriter
	r *http.Request
}

func (c *ctx) Request() *http.Request              { return c.r }
func (c *ctx) ResponseWriter() http.ResponseWriter { return c.w }
func (c *ctx) Param(string) string                 { return "" }
func (c *ctx) SetValue(key, val any)               { c.Context = context.WithValue(c.Context, key, val) }

func TestChain(t *testing.T) {
	t.Parallel()

	var order []string
	mw := func(name string) handler.Middleware[*ctx] {
		return func(next handler.HandlerFunc[*ctx]) handler.HandlerFunc[*ctx] {
			return func(c *ctx) handler.Response {
				order = append(order, name)
				return next(c)
			}
		}
	}

	h := handler.Chain(func(c *ctx) handler.Response {
		order = append(order, "handler")
		return func(w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}
	}, mw("outer"), mw("inner"))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := h(&ctx{Context: r.Context(), w: w, r: r})
	require.NoError(t, resp(w, r))

	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
