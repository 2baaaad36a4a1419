package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/sessionguard/core/handler"
	"github.com/dmitrymomot/sessionguard/core/logger"
	"github.com/dmitrymomot/sessionguard/core/response"
	"github.com/dmitrymomot/sessionguard/pkg/clientip"
	"github.com/dmitrymomot/sessionguard/pkg/ratelimiter"
)

// Rate limit response headers.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
	HeaderRetryAfter         = "Retry-After"
)

// KeyExtractor returns the counter key of a request. Keys must already be
// digests (see ratelimiter.IPKey); they are stored and logged as returned.
type KeyExtractor func(ctx handler.Context) string

// RateLimitConfig configures the rate limiting middleware.
type RateLimitConfig struct {
	// Bucket is the quota applied to every request passing this middleware
	Bucket *ratelimiter.Bucket
	// KeyExtractor defines how to extract the rate limiting key (default: KeyByIP)
	KeyExtractor KeyExtractor
	// Skip bypasses counting for allow-listed requests; checked before key extraction
	Skip SkipFunc
	// DisableHeaders omits the X-RateLimit-* headers
	DisableHeaders bool
	// FailOpen admits requests when the store errors; the default rejects them
	FailOpen bool
	// Message leads the human readable 429 message (default: "Too many requests")
	Message string
	Logger  *slog.Logger
	// ErrorHandler builds the rejection. result is nil when err is a store failure.
	ErrorHandler func(ctx handler.Context, result *ratelimiter.Result, err error) handler.Response
}

// TooManyRequestsBody is the JSON body of a rejected request.
type TooManyRequestsBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter"`
	StatusCode int    `json:"statusCode"`
	Details    string `json:"details,omitempty"`
}

// RateLimit enforces cfg.Bucket on each request. Panics if no bucket is provided.
//
// Every counted response carries X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset (seconds until the window resets). Rejections also carry
// Retry-After and a 429 JSON body.
//
//	auth := middleware.RateLimit[*guard.Context](middleware.RateLimitConfig{
//		Bucket:       limiter.MustBucket("auth"),
//		KeyExtractor: middleware.KeyByIPAndEmail("email"),
//	})
func RateLimit[C handler.Context](cfg RateLimitConfig) handler.Middleware[C] {
	if cfg.Bucket == nil {
		panic("ratelimit middleware: bucket is required")
	}
	if cfg.KeyExtractor == nil {
		cfg.KeyExtractor = KeyByIP
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}
	if cfg.Message == "" {
		cfg.Message = "Too many requests"
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultRateLimitHandler(cfg.Message, cfg.Bucket.Config().Window)
	}

	bucket := cfg.Bucket.Name()
	limit := strconv.Itoa(cfg.Bucket.Config().MaxRequests)

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			key := cfg.KeyExtractor(ctx)
			if key == "" {
				key = KeyByIP(ctx)
			}

			result, err := cfg.Bucket.Allow(ctx, key)
			if err != nil {
				if cfg.FailOpen {
					cfg.Logger.WarnContext(ctx, "rate limit store unavailable, admitting request",
						logger.Component("ratelimit"),
						logger.Bucket(bucket),
						logger.Error(err))
					return next(ctx)
				}

				cfg.Logger.ErrorContext(ctx, "rate limit store unavailable",
					logAttrs(ctx, bucket, key, logger.Error(err))...)
				resp := cfg.ErrorHandler(ctx, nil, err)
				if cfg.DisableHeaders {
					return resp
				}
				return func(w http.ResponseWriter, r *http.Request) error {
					w.Header().Set(HeaderRateLimitLimit, limit)
					return render(resp, w, r)
				}
			}

			if !result.Allowed() {
				cfg.Logger.WarnContext(ctx, "rate limit exceeded",
					logAttrs(ctx, bucket, key, logger.RetryAfter(result.RetryAfter()))...)
				return wrapWithRateLimitHeaders(cfg.ErrorHandler(ctx, result, nil), result, !cfg.DisableHeaders)
			}

			return wrapWithRateLimitHeaders(next(ctx), result, !cfg.DisableHeaders)
		}
	}
}

// wrapWithRateLimitHeaders sets the X-RateLimit-* headers when counters is
// true, and Retry-After on rejections, before resp writes.
func wrapWithRateLimitHeaders(resp handler.Response, result *ratelimiter.Result, counters bool) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		h := w.Header()
		if counters {
			h.Set(HeaderRateLimitLimit, strconv.Itoa(result.Limit))
			h.Set(HeaderRateLimitRemaining, strconv.Itoa(max(0, result.Remaining)))
			h.Set(HeaderRateLimitReset, strconv.Itoa(int(math.Ceil(result.ResetAfter().Seconds()))))
		}
		if !result.Allowed() {
			h.Set(HeaderRetryAfter, strconv.Itoa(ratelimiter.RetryAfterSeconds(result.RetryAfter())))
		}
		return render(resp, w, r)
	}
}

func logAttrs(ctx handler.Context, bucket, key string, extra ...slog.Attr) []any {
	r := ctx.Request()
	attrs := []any{
		logger.Component("ratelimit"),
		logger.Bucket(bucket),
		logger.KeyDigest(key),
		logger.Method(r.Method),
		logger.Path(r.URL.Path),
	}
	if id, ok := GetRequestID(ctx); ok {
		attrs = append(attrs, logger.RequestID(id))
	}
	for _, a := range extra {
		attrs = append(attrs, a)
	}
	return attrs
}

func defaultRateLimitHandler(message string, window time.Duration) func(handler.Context, *ratelimiter.Result, error) handler.Response {
	return func(ctx handler.Context, result *ratelimiter.Result, err error) handler.Response {
		retry := window
		details := ""
		if result != nil {
			retry = result.RetryAfter()
		}
		if err != nil {
			details = "Rate limit store unavailable"
			if !errors.Is(err, ratelimiter.ErrStoreUnavailable) {
				details = "Rate limit check failed"
			}
		}

		body := response.JSONWithStatus(TooManyRequestsBody{
			Error:      http.StatusText(http.StatusTooManyRequests),
			Message:    fmt.Sprintf("%s, please try again in %s.", message, ratelimiter.FormatRetryAfter(retry)),
			RetryAfter: ratelimiter.RetryAfterSeconds(retry),
			StatusCode: http.StatusTooManyRequests,
			Details:    details,
		}, http.StatusTooManyRequests)

		if err == nil {
			return body
		}
		return func(w http.ResponseWriter, r *http.Request) error {
			w.Header().Set(HeaderRetryAfter, strconv.Itoa(ratelimiter.RetryAfterSeconds(retry)))
			return body(w, r)
		}
	}
}

// KeyByIP keys requests by client IP.
func KeyByIP(ctx handler.Context) string {
	return ratelimiter.IPKey(RequestIP(ctx.Request()))
}

// SkipLoopback allow-lists requests from loopback addresses.
func SkipLoopback(ctx handler.Context) bool {
	return clientip.IsLoopback(RequestIP(ctx.Request()))
}

// SkipPathPrefixes allow-lists requests whose path starts with any prefix.
func SkipPathPrefixes(prefixes ...string) SkipFunc {
	return func(ctx handler.Context) bool {
		path := ctx.Request().URL.Path
		for _, p := range prefixes {
			if strings.HasPrefix(path, p) {
				return true
			}
		}
		return false
	}
}

// SkipAny allow-lists a request when any predicate matches. Nil entries are
// ignored.
func SkipAny(fns ...SkipFunc) SkipFunc {
	return func(ctx handler.Context) bool {
		for _, fn := range fns {
			if fn != nil && fn(ctx) {
				return true
			}
		}
		return false
	}
}
