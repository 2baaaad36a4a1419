package guard

import (
	"io"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/sessionguard/core/logger"
)

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func NewLogger(cfg Config, w io.Writer) *slog.Logger {
	opts := []logger.Option{
		logger.WithOutput(w),
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithAttr(slog.String("service", cfg.AppName), slog.String("env", cfg.Env)),
	}
	if strings.EqualFold(cfg.LogFormat, "text") {
		opts = append(opts, logger.WithTextFormatter())
	} else {
		opts = append(opts, logger.WithJSONFormatter())
	}
	return logger.New(opts...)
}
