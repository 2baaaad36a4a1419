package middleware

import (
	"maps"

	"github.com/dmitrymomot/sessionguard/core/handler"
)

// SecurityHeadersConfig lists the headers set on every response. Empty
// fields are omitted.
type SecurityHeadersConfig struct {
	Skip SkipFunc

	ContentTypeOptions        string
	FrameOptions              string
	StrictTransportSecurity   string
	ContentSecurityPolicy     string
	ReferrerPolicy            string
	CrossOriginOpenerPolicy   string
	CrossOriginResourcePolicy string

	// CustomHeaders are set after, and override, the fields above.
	CustomHeaders map[string]string

	// IsDevelopment drops HSTS so plain-HTTP local runs keep working.
	IsDevelopment bool
}

// APISecurity suits a JSON API that never renders HTML.
var APISecurity = SecurityHeadersConfig{
	ContentTypeOptions:        "nosniff",
	FrameOptions:              "DENY",
	StrictTransportSecurity:   "max-age=63072000; includeSubDomains",
	ContentSecurityPolicy:     "default-src 'none'; frame-ancestors 'none'",
	ReferrerPolicy:            "no-referrer",
	CrossOriginOpenerPolicy:   "same-origin",
	CrossOriginResourcePolicy: "same-origin",
}

// SecurityHeaders applies APISecurity.
func SecurityHeaders[C handler.Context]() handler.Middleware[C] {
	return SecurityHeadersWithConfig[C](APISecurity)
}

func SecurityHeadersWithConfig[C handler.Context](cfg SecurityHeadersConfig) handler.Middleware[C] {
	if cfg.IsDevelopment {
		cfg.StrictTransportSecurity = ""
	}

	headers := make(map[string]string)
	set := func(name, value string) {
		if value != "" {
			headers[name] = value
		}
	}
	set("X-Content-Type-Options", cfg.ContentTypeOptions)
	set("X-Frame-Options", cfg.FrameOptions)
	set("Strict-Transport-Security", cfg.StrictTransportSecurity)
	set("Content-Security-Policy", cfg.ContentSecurityPolicy)
	set("Referrer-Policy", cfg.ReferrerPolicy)
	set("Cross-Origin-Opener-Policy", cfg.CrossOriginOpenerPolicy)
	set("Cross-Origin-Resource-Policy", cfg.CrossOriginResourcePolicy)
	maps.Copy(headers, cfg.CustomHeaders)

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip == nil || !cfg.Skip(ctx) {
				h := ctx.ResponseWriter().Header()
				for key, value := range headers {
					h.Set(key, value)
				}
			}
			return next(ctx)
		}
	}
}
