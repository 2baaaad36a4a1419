package server

import (
	"crypto/tls"
	"log/slog"
	"time"
)

// Option configures a Server in New.
type Option func(*Server)

// WithTLS serves HTTPS. The config must already carry certificates; see
// LoadTLS.
func WithTLS(config *tls.Config) Option {
	return func(s *Server) { s.tls = config }
}

// WithLogger replaces the discard logger. Nil is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithShutdownTimeout(timeout time.Duration) Option {
	return func(s *Server) { s.shutdown = timeout }
}

func WithReadTimeout(timeout time.Duration) Option {
	return func(s *Server) { s.limits.read = timeout }
}

// WithReadHeaderTimeout bounds header reads separately. It defaults to the
// read timeout.
func WithReadHeaderTimeout(timeout time.Duration) Option {
	return func(s *Server) { s.limits.readHeader = timeout }
}

func WithWriteTimeout(timeout time.Duration) Option {
	return func(s *Server) { s.limits.write = timeout }
}

func WithIdleTimeout(timeout time.Duration) Option {
	return func(s *Server) { s.limits.idle = timeout }
}

func WithMaxHeaderBytes(n int) Option {
	return func(s *Server) { s.limits.maxHeaderBytes = n }
}
