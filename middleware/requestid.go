package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrymomot/sessionguard/core/handler"
)

// DefaultRequestIDHeader carries the request id in both directions.
const DefaultRequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestIDConfig configures RequestIDWithConfig.
type RequestIDConfig struct {
	Skip SkipFunc

	// Generator defaults to uuid.NewString.
	Generator func() string

	// HeaderName defaults to DefaultRequestIDHeader.
	HeaderName string

	// UseExisting keeps an incoming id, but only when it parses as a UUID
	// so clients cannot inject arbitrary text into log lines.
	UseExisting bool
}

// RequestID tags every request with a fresh UUID.
func RequestID[C handler.Context]() handler.Middleware[C] {
	return RequestIDWithConfig[C](RequestIDConfig{})
}

func RequestIDWithConfig[C handler.Context](cfg RequestIDConfig) handler.Middleware[C] {
	if cfg.HeaderName == "" {
		cfg.HeaderName = DefaultRequestIDHeader
	}
	if cfg.Generator == nil {
		cfg.Generator = uuid.NewString
	}

	pick := func(ctx handler.Context) string {
		if cfg.UseExisting {
			if id := ctx.Request().Header.Get(cfg.HeaderName); id != "" && uuid.Validate(id) == nil {
				return id
			}
		}
		return cfg.Generator()
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			id := pick(ctx)
			ctx.ResponseWriter().Header().Set(cfg.HeaderName, id)
			ctx.SetValue(requestIDKey{}, id)
			return next(ctx)
		}
	}
}

// WithRequestID stores id in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// GetRequestID returns the id stored by RequestID, if any.
func GetRequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok
}
