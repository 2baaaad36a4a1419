// Package logger provides structured logging utilities built on Go's standard slog package.
//
// It offers a small logger factory with functional options and a set of
// attribute helpers for the log lines emitted by the session and rate-limit
// layers.
//
// # Basic Usage
//
//	import "github.com/dmitrymomot/sessionguard/core/logger"
//
//	// Development: text format, debug level, stdout
//	log := logger.New(logger.WithDevelopment("sessionguard"))
//
//	// Production: JSON format, info level, stdout
//	log := logger.New(
//		logger.WithProduction("sessionguard"),
//		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
//	)
//
//	log.Info("server starting",
//		logger.Component("server"),
//		logger.Event("startup"),
//	)
//
// # Attribute Helpers
//
// Helpers return an empty slog.Attr for nil or empty inputs, which slog
// drops, so callers never need nil checks:
//
//	log.Warn("rate limit exceeded",
//		logger.Bucket("auth"),
//		logger.KeyDigest(result.Key),
//		logger.Method(r.Method),
//		logger.Path(r.URL.Path),
//	)
//
//	log.Error("store failure", logger.Error(err))
//
// KeyDigest truncates digests so log lines carry enough to correlate events
// without reproducing full lookup keys.
package logger
