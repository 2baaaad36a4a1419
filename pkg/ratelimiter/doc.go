// Package ratelimiter provides fixed-window rate limiting over named buckets
// with pluggable counter stores.
//
// # Algorithm
//
// Each bucket counts requests per key in fixed windows. A window opens on
// the first request for a key and lasts Config.Window; a request arriving
// after the window ended opens a new one (lazy reset). A request is allowed
// while the window count stays at or below Config.MaxRequests.
//
// With ContinueAfterExceed set, rejected requests keep incrementing the
// counter, so a client that keeps hammering stays rejected for the rest of
// the window. Without it the counter freezes at the quota.
//
// # Core Types
//
//   - Store: Increment/Get/Reset of per-key counters. Increment is atomic.
//   - MemoryStore: bounded LRU of counters for a single instance.
//   - RedisStore: Lua INCR/PEXPIRE counters shared across instances.
//   - Bucket: one policy (name, quota, window) applied through a Store.
//   - Limiter: a named set of buckets over one store.
//
// # Usage
//
//	store := ratelimiter.NewMemoryStore(ratelimiter.WithCapacity(10000))
//
//	limiter, err := ratelimiter.NewLimiter(store, []ratelimiter.Config{
//		{Name: "global", MaxRequests: 100, Window: 15 * time.Minute, ContinueAfterExceed: true},
//		{Name: "auth", MaxRequests: 5, Window: 15 * time.Minute, ContinueAfterExceed: true},
//	})
//	if err != nil {
//		return err
//	}
//
//	result, err := limiter.MustBucket("auth").Allow(ctx, ratelimiter.IPEmailKey(ip, email))
//	if err != nil {
//		// store unavailable
//	}
//	if !result.Allowed() {
//		log.Printf("retry in %s", ratelimiter.FormatRetryAfter(result.RetryAfter()))
//	}
//
// # Keys
//
// Keys passed to a bucket should be digests. Digest, IPKey and IPEmailKey
// hash their inputs with SHA-256, so raw addresses and emails never reach a
// store. NormalizeEmail folds case, width and surrounding whitespace before
// hashing.
//
// # Bounded memory
//
// MemoryStore never holds more than its capacity. Once full, each new key
// evicts the least recently used counter. The key being incremented is
// always the most recently used, so it is never the one evicted. Expired
// counters are also removed by an optional background sweep:
//
//	g.Go(store.Run(ctx))
//
// # Error Handling
//
//   - ErrInvalidConfig: bucket policy or store window is unusable
//   - ErrInvalidKey: empty key
//   - ErrDuplicateBucket: two buckets share a name
//   - ErrStoreUnavailable: the store failed; wraps the cause
//   - ErrRateLimitExceeded: for callers that report rejections as errors
package ratelimiter
