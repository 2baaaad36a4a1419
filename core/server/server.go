package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/sessionguard/core/logger"
)

// limits are copied onto every http.Server the Server starts.
type limits struct {
	read           time.Duration
	readHeader     time.Duration
	write          time.Duration
	idle           time.Duration
	maxHeaderBytes int
}

// Server owns one http.Server at a time and shuts it down gracefully.
// Safe for concurrent use.
type Server struct {
	addr     string
	logger   *slog.Logger
	shutdown time.Duration
	tls      *tls.Config
	limits   limits

	mu       sync.RWMutex
	srv      *http.Server
	listener net.Listener
}

// New creates a Server for addr. Options are applied once, before any
// goroutine can observe the Server.
func New(addr string, opts ...Option) *Server {
	s := &Server{
		addr:     addr,
		logger:   logger.Discard(),
		shutdown: DefaultShutdownTimeout,
		limits: limits{
			read:           DefaultReadTimeout,
			write:          DefaultWriteTimeout,
			idle:           DefaultIdleTimeout,
			maxHeaderBytes: DefaultMaxHeaderBytes,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.limits.readHeader == 0 {
		s.limits.readHeader = s.limits.read
	}
	return s
}

// Addr returns the bound address while running, otherwise the configured
// one. With ":0" this is how callers learn the port.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Running reports whether the server is accepting connections.
func (s *Server) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.srv != nil
}

// Start serves handler until ctx is done, Stop is called, or serving fails.
// Cancellation and Stop both shut down gracefully and return nil.
func (s *Server) Start(ctx context.Context, handler http.Handler) error {
	srv, ln, err := s.bind(handler)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "server listening",
		logger.Component("server"),
		slog.String("addr", ln.Addr().String()),
		slog.Bool("tls", s.tls != nil))

	served := make(chan error, 1)
	go func() { served <- s.serve(srv, ln) }()

	select {
	case err := <-served:
		return err
	case <-ctx.Done():
		stopErr := s.Stop()
		return errors.Join(<-served, stopErr)
	}
}

// Run adapts Start for errgroup.Group.Go.
func (s *Server) Run(ctx context.Context, handler http.Handler) func() error {
	return func() error {
		return s.Start(ctx, handler)
	}
}

// Stop shuts the running server down within the shutdown timeout. It is a
// no-op when nothing is running.
func (s *Server) Stop() error {
	s.mu.Lock()
	srv := s.srv
	s.srv, s.listener = nil, nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	s.logger.Info("server shutting down", logger.Component("server"), logger.Duration(s.shutdown))

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Error("server shutdown failed", logger.Component("server"), logger.Error(err))
		return fmt.Errorf("%w: %w", ErrShutdown, err)
	}

	s.logger.Info("server stopped", logger.Component("server"))
	return nil
}

func (s *Server) bind(handler http.Handler) (*http.Server, net.Listener, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv != nil {
		return nil, nil, ErrAlreadyRunning
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrListen, err)
	}
	if s.tls != nil {
		ln = tls.NewListener(ln, s.tls)
	}

	s.srv = &http.Server{
		Handler:           handler,
		ReadTimeout:       s.limits.read,
		ReadHeaderTimeout: s.limits.readHeader,
		WriteTimeout:      s.limits.write,
		IdleTimeout:       s.limits.idle,
		MaxHeaderBytes:    s.limits.maxHeaderBytes,
		TLSConfig:         s.tls,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	s.listener = ln
	return s.srv, ln, nil
}

// serve blocks in srv.Serve. A failure that was not caused by Stop clears
// the running state so Start can be called again.
func (s *Server) serve(srv *http.Server, ln net.Listener) error {
	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	s.mu.Lock()
	if s.srv == srv {
		s.srv, s.listener = nil, nil
	}
	s.mu.Unlock()
	return fmt.Errorf("%w: %w", ErrServe, err)
}
