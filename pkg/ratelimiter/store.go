package ratelimiter

import (
	"context"
	"time"
)

// Counter is the state of one fixed window for one key.
type Counter struct {
	Count   int
	ResetAt time.Time
}

// Store counts requests per key within fixed windows.
// Increment must be atomic: concurrent calls for the same key observe
// distinct counts.
type Store interface {
	// Increment adds one to the key's counter, opening a new window of the
	// given length when none is active, and returns the updated counter.
	Increment(ctx context.Context, key string, window time.Duration) (Counter, error)
	// Get returns the active counter without modifying it.
	Get(ctx context.Context, key string) (Counter, bool, error)
	// Reset drops the key's counter.
	Reset(ctx context.Context, key string) error
}
