package server

import "errors"

var (
	ErrMissingAddress = errors.New("server: address is required")
	ErrAlreadyRunning = errors.New("server: already running")
	ErrLoadCert       = errors.New("server: load tls certificate")
	ErrListen         = errors.New("server: listen")
	ErrServe          = errors.New("server: serve")
	ErrShutdown       = errors.New("server: graceful shutdown")
)
