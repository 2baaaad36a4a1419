package response_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionguard/core/response"
)

type testContext struct {
	context.Context
	w http.ResponseWriter
	r *http.Request
}

func newTestContext(w http.ResponseWriter) *testContext {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	return &testContext{Context: r.Context(), w: w, r: r}
}

func (c *testContext) Request() *http.Request              { return c.r }
func (c *testContext) ResponseWriter() http.ResponseWriter { return c.w }
func (c *testContext) Param(string) string                 { return "" }
func (c *testContext) SetValue(key, val any) {
	c.r = c.r.WithContext(context.WithValue(c.r.Context(), key, val))
	c.Context = c.r.Context()
}

// startedWriter reports that a response was already written.
type startedWriter struct {
	*httptest.ResponseRecorder
}

func (startedWriter) Written() bool { return true }

type teapotError struct{}

func (teapotError) Error() string   { return "teapot" }
func (teapotError) StatusCode() int { return http.StatusNotFound }

func TestJSON(t *testing.T) {
	t.Parallel()

	t.Run("writes status and body", func(t *testing.T) {
		w := httptest.NewRecorder()
		resp := response.JSONWithStatus(map[string]string{"a": "b"}, http.StatusCreated)
		require.NoError(t, resp(w, httptest.NewRequest(http.MethodGet, "/", nil)))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"a":"b"}`, w.Body.String())
	})

	t.Run("zero status defaults", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)

		w := httptest.NewRecorder()
		require.NoError(t, response.JSONWithStatus([]int{1}, 0)(w, r))
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		require.NoError(t, response.JSONWithStatus(nil, 0)(w, r))
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("ok", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, response.JSON(true)(w, httptest.NewRequest(http.MethodGet, "/", nil)))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "true\n", w.Body.String())
	})
}

func TestNoContent(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	require.NoError(t, response.NoContent()(w, httptest.NewRequest(http.MethodDelete, "/", nil)))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestError(t *testing.T) {
	t.Parallel()

	err := errors.New("boom")
	got := response.Error(err)(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Same(t, err, got)
}

func TestErrorHandler(t *testing.T) {
	t.Parallel()

	t.Run("http error", func(t *testing.T) {
		w := httptest.NewRecorder()
		err := response.ErrBadRequest.WithMessage("email is required").
			WithDetails(map[string]any{"field": "email"})
		response.ErrorHandler(newTestContext(w), err)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "bad_request", body["code"])
		assert.Equal(t, "email is required", body["message"])
		assert.Equal(t, map[string]any{"field": "email"}, body["details"])
	})

	t.Run("plain error is hidden", func(t *testing.T) {
		w := httptest.NewRecorder()
		response.ErrorHandler(newTestContext(w), errors.New("db password is hunter2"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "hunter2")
	})

	t.Run("wrapped http error", func(t *testing.T) {
		w := httptest.NewRecorder()
		response.ErrorHandler(newTestContext(w), errors.Join(errors.New("ctx"), response.ErrServiceUnavailable))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("status code interface", func(t *testing.T) {
		w := httptest.NewRecorder()
		response.ErrorHandler(newTestContext(w), teapotError{})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "not_found")
		assert.NotContains(t, w.Body.String(), "teapot")
	})

	t.Run("skips started responses", func(t *testing.T) {
		rec := httptest.NewRecorder()
		response.ErrorHandler(newTestContext(startedWriter{rec}), response.ErrBadRequest)
		assert.Empty(t, rec.Body.String())
	})
}

func TestHTTPError(t *testing.T) {
	t.Parallel()

	e := response.NewHTTPError(http.StatusTeapot, "teapot", "short and stout")
	assert.Equal(t, "short and stout", e.Error())
	assert.Equal(t, http.StatusTeapot, e.StatusCode())
	assert.Equal(t, e, response.ToHTTPError(e))
}
