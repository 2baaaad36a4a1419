package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Option configures the logger built by New.
type Option func(*options)

type options struct {
	level  slog.Level
	json   bool
	output io.Writer
	attrs  []slog.Attr
	source bool
}

// WithLevel sets the minimum log level.
func WithLevel(level slog.Level) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithJSONFormatter switches output to JSON.
func WithJSONFormatter() Option {
	return func(o *options) {
		o.json = true
	}
}

// WithTextFormatter switches output to logfmt-style text.
func WithTextFormatter() Option {
	return func(o *options) {
		o.json = false
	}
}

// WithOutput sets the destination writer.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.output = w
		}
	}
}

// WithAttr adds attributes to every record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(o *options) {
		o.attrs = append(o.attrs, attrs...)
	}
}

// WithSource includes the source file and line in each record.
func WithSource() Option {
	return func(o *options) {
		o.source = true
	}
}

// WithDevelopment configures text output at debug level.
func WithDevelopment(service string) Option {
	return func(o *options) {
		o.level = slog.LevelDebug
		o.json = false
		o.attrs = append(o.attrs, slog.String("service", service), slog.String("env", "development"))
	}
}

// WithProduction configures JSON output at info level.
func WithProduction(service string) Option {
	return func(o *options) {
		o.level = slog.LevelInfo
		o.json = true
		o.attrs = append(o.attrs, slog.String("service", service), slog.String("env", "production"))
	}
}

// New builds a slog.Logger. Defaults: text output to stdout at info level.
func New(opts ...Option) *slog.Logger {
	o := &options{
		level:  slog.LevelInfo,
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(o)
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     o.level,
		AddSource: o.source,
	}

	var h slog.Handler
	if o.json {
		h = slog.NewJSONHandler(o.output, handlerOpts)
	} else {
		h = slog.NewTextHandler(o.output, handlerOpts)
	}
	if len(o.attrs) > 0 {
		h = h.WithAttrs(o.attrs)
	}

	return slog.New(h)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a level name to slog.Level. Unknown names map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
