package middleware

import (
	"fmt"
	"net/http"

	"github.com/dmitrymomot/sessionguard/core/handler"
	"github.com/dmitrymomot/sessionguard/core/response"
)

// DefaultBodyLimit is the body limit used when none is configured.
const DefaultBodyLimit int64 = 1 << 20

// BodyLimitConfig configures the request body limit middleware.
type BodyLimitConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip SkipFunc
	// MaxSize in bytes (default: DefaultBodyLimit)
	MaxSize int64
	// ErrorHandler builds the rejection for a declared oversize body (default: 413 JSON)
	ErrorHandler func(ctx handler.Context, contentLength, maxSize int64) handler.Response
}

// BodyLimit caps request bodies at maxSize bytes.
func BodyLimit[C handler.Context](maxSize int64) handler.Middleware[C] {
	return BodyLimitWithConfig[C](BodyLimitConfig{MaxSize: maxSize})
}

// BodyLimitWithConfig rejects requests whose Content-Length exceeds the
// limit and wraps the body in http.MaxBytesReader so undeclared oversize
// bodies fail on read.
func BodyLimitWithConfig[C handler.Context](cfg BodyLimitConfig) handler.Middleware[C] {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultBodyLimit
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(ctx handler.Context, contentLength, maxSize int64) handler.Response {
			return response.Error(response.ErrRequestEntityTooLarge.
				WithMessage(fmt.Sprintf("Request body too large. Maximum allowed: %d bytes", maxSize)).
				WithDetails(map[string]any{"limit": maxSize, "size": contentLength}))
		}
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			r := ctx.Request()
			if r.ContentLength > cfg.MaxSize {
				return cfg.ErrorHandler(ctx, r.ContentLength, cfg.MaxSize)
			}

			if r.Body != nil {
				r.Body = http.MaxBytesReader(ctx.ResponseWriter(), r.Body, cfg.MaxSize)
			}
			return next(ctx)
		}
	}
}
