package middleware_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionguard/core/handler"
	"github.com/dmitrymomot/sessionguard/middleware"
	"github.com/dmitrymomot/sessionguard/pkg/ratelimiter"
)

func TestRateLimit_Boundary(t *testing.T) {
	t.Parallel()

	bucket, _, clock := newBucket(t, ratelimiter.Config{Name: "auth", MaxRequests: 5, Window: 15 * time.Minute})
	h := mount(okHandler(), middleware.RateLimit[*testContext](middleware.RateLimitConfig{Bucket: bucket}))

	do := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/session", nil))
		return w
	}

	for i := 1; i <= 5; i++ {
		w := do()
		require.Equal(t, http.StatusOK, w.Code, "request %d", i)
		assert.Equal(t, "5", w.Header().Get(middleware.HeaderRateLimitLimit))
		assert.Equal(t, strconv.Itoa(5-i), w.Header().Get(middleware.HeaderRateLimitRemaining))
		assert.Equal(t, "900", w.Header().Get(middleware.HeaderRateLimitReset))
		assert.Empty(t, w.Header().Get(middleware.HeaderRetryAfter))
	}

	w := do()
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "5", w.Header().Get(middleware.HeaderRateLimitLimit))
	assert.Equal(t, "0", w.Header().Get(middleware.HeaderRateLimitRemaining))
	assert.Equal(t, "900", w.Header().Get(middleware.HeaderRateLimitReset))
	assert.Equal(t, "900", w.Header().Get(middleware.HeaderRetryAfter))

	var body middleware.TooManyRequestsBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Too Many Requests", body.Error)
	assert.Equal(t, http.StatusTooManyRequests, body.StatusCode)
	assert.Equal(t, 900, body.RetryAfter)
	assert.Equal(t, "Too many requests, please try again in 15 minutes.", body.Message)
	assert.Empty(t, body.Details)

	clock.Advance(15*time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, do().Code)
}

func TestRateLimit_SecondsMessage(t *testing.T) {
	t.Parallel()

	bucket, _, clock := newBucket(t, ratelimiter.Config{Name: "feature", MaxRequests: 1, Window: time.Minute})
	h := mount(okHandler(), middleware.RateLimit[*testContext](middleware.RateLimitConfig{Bucket: bucket, Message: "Slow down"}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	clock.Advance(15 * time.Second)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "45", w.Header().Get(middleware.HeaderRetryAfter))
	assert.Contains(t, w.Body.String(), "Slow down, please try again in 45 seconds.")
}

func TestRateLimit_StoreFailure(t *testing.T) {
	t.Parallel()

	cfg := ratelimiter.Config{Name: "global", MaxRequests: 10, Window: time.Minute}
	bucket, err := ratelimiter.NewBucket(failingStore{}, cfg)
	require.NoError(t, err)

	t.Run("fails closed", func(t *testing.T) {
		called := false
		h := mount(func(ctx *testContext) handler.Response {
			called = true
			return okHandler()(ctx)
		}, middleware.RateLimit[*testContext](middleware.RateLimitConfig{Bucket: bucket}))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.False(t, called)
		require.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "60", w.Header().Get(middleware.HeaderRetryAfter))

		var body middleware.TooManyRequestsBody
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Rate limit store unavailable", body.Details)
		assert.NotContains(t, w.Body.String(), errStoreDown.Error())
	})

	t.Run("fail open", func(t *testing.T) {
		h := mount(okHandler(), middleware.RateLimit[*testContext](middleware.RateLimitConfig{Bucket: bucket, FailOpen: true}))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRateLimit_Skip(t *testing.T) {
	t.Parallel()

	bucket, store, _ := newBucket(t, ratelimiter.Config{Name: "global", MaxRequests: 1, Window: time.Minute})
	h := mount(okHandler(), middleware.RateLimit[*testContext](middleware.RateLimitConfig{
		Bucket: bucket,
		Skip:   middleware.SkipAny(nil, middleware.SkipPathPrefixes("/static/"), middleware.SkipLoopback),
	}))

	for range 3 {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/app.js", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get(middleware.HeaderRateLimitLimit))

		r := httptest.NewRequest(http.MethodGet, "/api", nil)
		r.RemoteAddr = "127.0.0.1:4000"
		w = httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 0, store.Stats().ActiveCounters)
}

func TestRateLimit_DisableHeaders(t *testing.T) {
	t.Parallel()

	bucket, _, _ := newBucket(t, ratelimiter.Config{Name: "health", MaxRequests: 1, Window: time.Minute})
	h := mount(okHandler(), middleware.RateLimit[*testContext](middleware.RateLimitConfig{Bucket: bucket, DisableHeaders: true}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, w.Header().Get(middleware.HeaderRateLimitLimit))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRetryAfter))
}

func TestRateLimit_LogsDigestOnly(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	bucket, _, _ := newBucket(t, ratelimiter.Config{Name: "auth", MaxRequests: 1, Window: time.Minute})
	h := mount(okHandler(), middleware.RateLimit[*testContext](middleware.RateLimitConfig{
		Bucket:       bucket,
		KeyExtractor: middleware.KeyByIPAndEmail("email"),
		Logger:       log,
	}))

	for range 2 {
		r := httptest.NewRequest(http.MethodPost, "/auth/session", strings.NewReader(`{"email":"alice@example.com"}`))
		r.Header.Set("Content-Type", "application/json")
		r.RemoteAddr = "203.0.113.9:5000"
		h.ServeHTTP(httptest.NewRecorder(), r)
	}

	out := buf.String()
	assert.Contains(t, out, "rate limit exceeded")
	assert.Contains(t, out, `"bucket":"auth"`)
	assert.NotContains(t, out, "203.0.113.9")
	assert.NotContains(t, out, "alice@example.com")
}

func TestKeyByIPAndEmail(t *testing.T) {
	t.Parallel()

	extract := middleware.KeyByIPAndEmail("email")
	keyOf := func(r *http.Request) string {
		return extract(newTestContext(httptest.NewRecorder(), r, nil))
	}

	jsonRequest := func(body string) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json; charset=utf-8")
		r.RemoteAddr = "198.51.100.7:1000"
		return r
	}

	t.Run("different emails differ", func(t *testing.T) {
		a := keyOf(jsonRequest(`{"email":"a@example.com"}`))
		b := keyOf(jsonRequest(`{"email":"b@example.com"}`))
		assert.NotEqual(t, a, b)
		assert.Equal(t, ratelimiter.IPEmailKey("198.51.100.7", "a@example.com"), a)
	})

	t.Run("normalized", func(t *testing.T) {
		assert.Equal(t,
			keyOf(jsonRequest(`{"email":" A@Example.COM "}`)),
			keyOf(jsonRequest(`{"email":"a@example.com"}`)))
	})

	t.Run("missing field is anonymous", func(t *testing.T) {
		assert.Equal(t, ratelimiter.IPEmailKey("198.51.100.7", ""), keyOf(jsonRequest(`{"other":1}`)))
		assert.Equal(t, ratelimiter.IPEmailKey("198.51.100.7", ""), keyOf(jsonRequest(`not json`)))
	})

	t.Run("form body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("email=a%40example.com&token=x"))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		r.RemoteAddr = "198.51.100.7:1000"
		assert.Equal(t, ratelimiter.IPEmailKey("198.51.100.7", "a@example.com"), keyOf(r))
	})

	t.Run("body is restored", func(t *testing.T) {
		const body = `{"email":"a@example.com","token":"abc"}`
		r := jsonRequest(body)
		keyOf(r)

		got, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, body, string(got))
		assert.NoError(t, r.Body.Close())
	})

	t.Run("matches json field names like the decoder", func(t *testing.T) {
		victim := ratelimiter.IPEmailKey("198.51.100.7", "victim@example.com")
		assert.Equal(t, victim, keyOf(jsonRequest(`{"EMAIL":"victim@example.com"}`)))
		assert.Equal(t, victim, keyOf(jsonRequest(`{"Email":"victim@example.com"}`)))
		assert.Equal(t, victim, keyOf(jsonRequest(`{"email":"decoy@x.io","EMAIL":"victim@example.com"}`)))
		assert.Equal(t, victim, keyOf(jsonRequest(`{"email":"decoy@x.io","email":"victim@example.com"}`)))
	})

	t.Run("trailing data after the json value", func(t *testing.T) {
		assert.Equal(t,
			ratelimiter.IPEmailKey("198.51.100.7", "victim@example.com"),
			keyOf(jsonRequest(`{"email":"victim@example.com"} trailing`)))
	})

	t.Run("json body with form content type", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"victim@example.com","x":"&email=decoy"}`))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		r.RemoteAddr = "198.51.100.7:1000"
		assert.Equal(t, ratelimiter.IPEmailKey("198.51.100.7", "victim@example.com"), keyOf(r))
	})

	t.Run("no body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "198.51.100.7:1000"
		assert.Equal(t, ratelimiter.IPEmailKey("198.51.100.7", ""), keyOf(r))
	})
}

func TestRateLimit_IPAndEmailBuckets(t *testing.T) {
	t.Parallel()

	bucket, _, _ := newBucket(t, ratelimiter.Config{Name: "auth", MaxRequests: 1, Window: time.Minute})
	h := mount(okHandler(), middleware.RateLimit[*testContext](middleware.RateLimitConfig{
		Bucket:       bucket,
		KeyExtractor: middleware.KeyByIPAndEmail("email"),
	}))

	send := func(email string) int {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"`+email+`"}`))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("a@example.com"))
	assert.Equal(t, http.StatusOK, send("b@example.com"))
	assert.Equal(t, http.StatusTooManyRequests, send("a@example.com"))
}

func TestRateLimit_EmailKeyCannotBeDodged(t *testing.T) {
	t.Parallel()

	bucket, _, _ := newBucket(t, ratelimiter.Config{Name: "auth", MaxRequests: 5, Window: 15 * time.Minute})

	// The handler decodes the body the way an API handler would, so the
	// email it sees is the one the limiter must count.
	var seen []string
	h := mount(func(ctx *testContext) handler.Response {
		var req struct {
			Email string `json:"email"`
		}
		_ = json.NewDecoder(ctx.Request().Body).Decode(&req)
		seen = append(seen, req.Email)
		return okHandler()(ctx)
	}, middleware.RateLimit[*testContext](middleware.RateLimitConfig{
		Bucket:       bucket,
		KeyExtractor: middleware.KeyByIPAndEmail("email"),
	}))

	var codes []int
	for i := range 20 {
		body := fmt.Sprintf(`{"email":"decoy%d@x.io","EMAIL":"victim@example.com"}`, i)
		r := httptest.NewRequest(http.MethodPost, "/auth/session", strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
		r.RemoteAddr = "203.0.113.50:1234"
		codes = append(codes, serve(h, r).Code)
	}

	for i, code := range codes {
		if i < 5 {
			assert.Equal(t, http.StatusOK, code, "request %d", i+1)
		} else {
			assert.Equal(t, http.StatusTooManyRequests, code, "request %d", i+1)
		}
	}
	require.Len(t, seen, 5)
	for _, email := range seen {
		assert.Equal(t, "victim@example.com", email)
	}
}

func TestRateLimit_RequiresBucket(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { middleware.RateLimit[*testContext](middleware.RateLimitConfig{}) })
}
