package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionguard/core/cookie"
	"github.com/dmitrymomot/sessionguard/core/handler"
	"github.com/dmitrymomot/sessionguard/core/response"
	"github.com/dmitrymomot/sessionguard/core/router"
	"github.com/dmitrymomot/sessionguard/pkg/ratelimiter"
	"github.com/dmitrymomot/sessionguard/pkg/secrets"
)

const cookieSecret = "middleware-test-secret-32-chars!"

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: testNow} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newCookies(t *testing.T) *cookie.Manager {
	t.Helper()
	cfg := secrets.DefaultConfig()
	cfg.ScryptN = 1 << 4
	engine, err := secrets.New([]byte(cookieSecret), cfg)
	require.NoError(t, err)

	m, err := cookie.NewWithOptions([]string{cookieSecret}, nil, cookie.WithCipher(engine))
	require.NoError(t, err)
	return m
}

func providerToken(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"exp": exp.Unix()}
	if sub != "" {
		claims["sub"] = sub
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("provider-key"))
	require.NoError(t, err)
	return s
}

// sessionRequest returns a request carrying value as the encrypted session cookie.
func sessionRequest(t *testing.T, m *cookie.Manager, name, value string) *http.Request {
	t.Helper()
	w := httptest.NewRecorder()
	require.NoError(t, m.SetEncrypted(w, name, value))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func clearedCookie(w *httptest.ResponseRecorder, name string) bool {
	for _, c := range w.Result().Cookies() {
		if c.Name == name && c.MaxAge < 0 {
			return true
		}
	}
	return false
}

func newBucket(t *testing.T, cfg ratelimiter.Config) (*ratelimiter.Bucket, *ratelimiter.MemoryStore, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	store := ratelimiter.NewMemoryStore(ratelimiter.WithClock(clock.Now))
	b, err := ratelimiter.NewBucket(store, cfg, ratelimiter.WithBucketClock(clock.Now))
	require.NoError(t, err)
	return b, store, clock
}

type failingStore struct{}

var errStoreDown = errors.New("connection refused")

func (failingStore) Increment(context.Context, string, time.Duration) (ratelimiter.Counter, error) {
	return ratelimiter.Counter{}, errStoreDown
}

func (failingStore) Get(context.Context, string) (ratelimiter.Counter, bool, error) {
	return ratelimiter.Counter{}, false, errStoreDown
}

func (failingStore) Reset(context.Context, string) error { return errStoreDown }

type testContext struct {
	w      http.ResponseWriter
	r      *http.Request
	params map[string]string
}

func newTestContext(w http.ResponseWriter, r *http.Request, params map[string]string) *testContext {
	return &testContext{w: w, r: r, params: params}
}

func (c *testContext) Deadline() (time.Time, bool)         { return c.r.Context().Deadline() }
func (c *testContext) Done() <-chan struct{}               { return c.r.Context().Done() }
func (c *testContext) Err() error                          { return c.r.Context().Err() }
func (c *testContext) Value(key any) any                   { return c.r.Context().Value(key) }
func (c *testContext) Request() *http.Request              { return c.r }
func (c *testContext) ResponseWriter() http.ResponseWriter { return c.w }
func (c *testContext) Param(key string) string             { return c.params[key] }
func (c *testContext) SetValue(key, val any) {
	c.r = c.r.WithContext(context.WithValue(c.r.Context(), key, val))
}

type (
	ctxHandler    = handler.HandlerFunc[*testContext]
	ctxMiddleware = handler.Middleware[*testContext]
)

// mount serves h for every method and path behind mws, with JSON errors.
func mount(h ctxHandler, mws ...ctxMiddleware) http.Handler {
	r := router.New(
		router.WithContextFactory(newTestContext),
		router.WithErrorHandler(response.ErrorHandler[*testContext]),
	)
	r.With(mws...).Handle("/", h)
	return r
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func okHandler() ctxHandler {
	return func(*testContext) handler.Response {
		return func(w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusOK)
			return nil
		}
	}
}
