package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/sessionguard/core/handler"
	"github.com/dmitrymomot/sessionguard/core/logger"
	"github.com/dmitrymomot/sessionguard/core/response"
)

const redacted = "[REDACTED]"


var defaultSensitiveHeaders = []string{
	"Authorization",
	"Cookie",
	"Set-Cookie",
	"X-Api-Key",
	"X-Auth-Token",
	"X-Csrf-Token",
}

// LoggingConfig configures LoggingWithConfig.
type LoggingConfig struct {
	Skip SkipFunc

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// LogLevel is used for successful requests. 4xx responses log at WARN
	// and 5xx at ERROR regardless.
	LogLevel slog.Level

	// LogHeaders adds the request headers to the "started" record.
	LogHeaders bool

	// SensitiveHeaders are logged as [REDACTED]. Session cookies and bearer
	// tokens are covered by default.
	SensitiveHeaders []string

	// SlowRequestThreshold promotes slow successful requests to WARN.
	// Defaults to 5s.
	SlowRequestThreshold time.Duration

	// Component defaults to "http".
	Component string
}

// Logging logs every request with default settings.
func Logging[C handler.Context](log *slog.Logger) handler.Middleware[C] {
	return LoggingWithConfig[C](LoggingConfig{Logger: log})
}

// LoggingWithConfig logs a record when a request starts and another when it
// completes, with status, bytes, duration and request id. When the response
// returns an error the status is the one the error handler will render.
func LoggingWithConfig[C handler.Context](cfg LoggingConfig) handler.Middleware[C] {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SlowRequestThreshold <= 0 {
		cfg.SlowRequestThreshold = 5 * time.Second
	}
	if cfg.Component == "" {
		cfg.Component = "http"
	}
	if cfg.SensitiveHeaders == nil {
		cfg.SensitiveHeaders = defaultSensitiveHeaders
	}
	sensitive := make(map[string]struct{}, len(cfg.SensitiveHeaders))
	for _, h := range cfg.SensitiveHeaders {
		sensitive[http.CanonicalHeaderKey(h)] = struct{}{}
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			start := time.Now()
			req := ctx.Request()
			requestID, _ := GetRequestID(ctx)
			base := []slog.Attr{
				logger.Component(cfg.Component),
				logger.Method(req.Method),
				logger.Path(req.URL.Path),
				logger.RequestID(requestID),
			}

			started := append(cloneAttrs(base), logger.Event("request"), logger.UserAgent(req.UserAgent()))
			if cfg.LogHeaders {
				started = append(started, slog.Any("request_headers", redactHeaders(req.Header, sensitive)))
			}
			cfg.Logger.LogAttrs(ctx, cfg.LogLevel, "HTTP request started", started...)

			resp := next(ctx)

			return func(w http.ResponseWriter, r *http.Request) error {
				rec := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
				err := render(resp, rec, r)

				status := rec.statusCode
				if err != nil && !rec.wroteHeader {
					status = response.ToHTTPError(err).Status
				}

				elapsed := time.Since(start)
				done := append(cloneAttrs(base),
					logger.Event("response"),
					logger.StatusCode(status),
					logger.BytesOut(rec.size),
					logger.Duration(elapsed),
				)

				level := cfg.LogLevel
				switch {
				case status >= http.StatusInternalServerError:
					level = slog.LevelError
				case status >= http.StatusBadRequest:
					level = slog.LevelWarn
				case elapsed > cfg.SlowRequestThreshold:
					level = slog.LevelWarn
					done = append(done, slog.Bool("slow_request", true))
				}
				cfg.Logger.LogAttrs(r.Context(), level, "HTTP request completed", done...)
				return err
			}
		}
	}
}

// cloneAttrs returns a copy of attrs with room for a few more.
func cloneAttrs(attrs []slog.Attr) []slog.Attr {
	return append(make([]slog.Attr, 0, len(attrs)+4), attrs...)
}

func redactHeaders(h http.Header, sensitive map[string]struct{}) map[string]string {
	out := make(map[string]string, len(h))
	for key, values := range h {
		if _, ok := sensitive[key]; ok {
			out[key] = redacted
			continue
		}
		out[key] = strings.Join(values, ", ")
	}
	return out
}

// responseWriter records the status and body size written by the handler.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	size        int64
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = statusCode
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
