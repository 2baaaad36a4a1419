package middleware

import (
	"context"
	"net/http"

	"github.com/dmitrymomot/sessionguard/core/handler"
	"github.com/dmitrymomot/sessionguard/pkg/clientip"
)

type clientIPKey struct{}

// ClientIPConfig configures the client IP extraction middleware.
type ClientIPConfig struct {
	Skip SkipFunc

	// TrustProxyHeaders reads CF-Connecting-IP, DO-Connecting-IP,
	// X-Forwarded-For and X-Real-IP before the connection address.
	// For X-Forwarded-For the right-most entry is used.
	//
	// WARNING: clients can send any of these headers. Enable this only
	// behind exactly one proxy that sets or overwrites them; otherwise
	// every IP-keyed rate limit can be bypassed by rotating a forged value.
	TrustProxyHeaders bool

	// StoreInHeader echoes the resolved IP in HeaderName, "X-Client-IP" by
	// default. Useful when debugging proxy chains.
	StoreInHeader bool
	HeaderName    string
}

// ClientIP stores the connection's remote address in the request context.
func ClientIP[C handler.Context]() handler.Middleware[C] {
	return ClientIPWithConfig[C](ClientIPConfig{})
}

func ClientIPWithConfig[C handler.Context](cfg ClientIPConfig) handler.Middleware[C] {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "X-Client-IP"
	}

	extract := clientip.FromRemoteAddr
	if cfg.TrustProxyHeaders {
		extract = clientip.GetIP
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			ip := extract(ctx.Request())
			if cfg.StoreInHeader && ip != "" {
				ctx.ResponseWriter().Header().Set(cfg.HeaderName, ip)
			}

			ctx.SetValue(clientIPKey{}, ip)
			return next(ctx)
		}
	}
}

// WithClientIP stores an IP in ctx.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// GetClientIP returns the IP stored by ClientIP. An empty IP counts as
// missing.
func GetClientIP(ctx context.Context) (string, bool) {
	ip, ok := ctx.Value(clientIPKey{}).(string)
	return ip, ok && ip != ""
}

// RequestIP returns the IP stored by ClientIP, falling back to the remote
// address of the connection.
func RequestIP(r *http.Request) string {
	if ip, ok := GetClientIP(r.Context()); ok {
		return ip
	}
	return clientip.FromRemoteAddr(r)
}
