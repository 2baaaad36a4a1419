// Package server wraps http.Server with graceful shutdown, production
// timeouts and optional TLS.
//
// Run it under an errgroup so cancellation triggers a graceful stop:
//
//	srv, err := server.NewFromConfig(cfg, server.WithLogger(log))
//	if err != nil {
//		return err
//	}
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.Run(ctx, handler))
//	return g.Wait()
//
// Config is loaded from SERVER_* environment variables. Setting both
// SERVER_TLS_CERT_FILE and SERVER_TLS_KEY_FILE enables HTTPS with
// DefaultTLSConfig.
//
// Start returns ErrAlreadyRunning when called twice. Stop is a no-op
// on a server that is not running.
package server
