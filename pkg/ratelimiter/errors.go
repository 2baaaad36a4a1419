package ratelimiter

import "errors"

var (
	ErrInvalidConfig     = errors.New("ratelimiter: invalid configuration")
	ErrInvalidKey        = errors.New("ratelimiter: invalid key")
	ErrDuplicateBucket   = errors.New("ratelimiter: duplicate bucket name")
	ErrStoreUnavailable  = errors.New("ratelimiter: store unavailable")
	ErrRateLimitExceeded = errors.New("ratelimiter: rate limit exceeded")

	ErrSweepStarted    = errors.New("ratelimiter: memory sweep already started")
	ErrSweepNotStarted = errors.New("ratelimiter: memory sweep not started")
)
