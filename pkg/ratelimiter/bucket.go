package ratelimiter

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// Config is the static policy of one named bucket.
type Config struct {
	Name        string
	MaxRequests int
	Window      time.Duration
	// ContinueAfterExceed keeps counting rejected requests, so a client that
	// keeps retrying stays over quota until its window ends. When false the
	// counter freezes at the quota and rejected requests are not recorded.
	ContinueAfterExceed bool
}

// Validate reports whether the bucket policy is usable.
func (c Config) Validate() error {
	switch {
	case c.Name == "":
		return fmt.Errorf("%w: bucket name is required", ErrInvalidConfig)
	case c.MaxRequests <= 0:
		return fmt.Errorf("%w: bucket %q: max requests must be positive, got %d", ErrInvalidConfig, c.Name, c.MaxRequests)
	case c.Window < time.Second:
		return fmt.Errorf("%w: bucket %q: window must be at least 1s, got %s", ErrInvalidConfig, c.Name, c.Window)
	}
	return nil
}

// Result describes the outcome of Allow for one request.
type Result struct {
	Bucket    string
	Key       string
	Limit     int
	Count     int
	Remaining int
	ResetAt   time.Time

	allowed bool
	now     time.Time
}

// Allowed reports whether the request is within quota.
func (r *Result) Allowed() bool {
	return r.allowed
}

// RetryAfter returns how long a rejected client should wait. It is zero for
// allowed requests and never below one second otherwise.
func (r *Result) RetryAfter() time.Duration {
	if r.allowed {
		return 0
	}
	return max(r.ResetAt.Sub(r.now), time.Second)
}

// ResetAfter returns the time remaining in the current window.
func (r *Result) ResetAfter() time.Duration {
	return max(r.ResetAt.Sub(r.now), 0)
}

// Bucket applies one Config to keys counted in a Store.
type Bucket struct {
	store Store
	cfg   Config
	now   func() time.Time
}

// BucketOption configures a Bucket.
type BucketOption func(*Bucket)

// WithBucketClock sets the time source used for retry computations.
func WithBucketClock(now func() time.Time) BucketOption {
	return func(b *Bucket) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBucket creates a bucket over store.
func NewBucket(store Store, cfg Config, opts ...BucketOption) (*Bucket, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &Bucket{store: store, cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Name returns the bucket name.
func (b *Bucket) Name() string {
	return b.cfg.Name
}

// Config returns the bucket policy.
func (b *Bucket) Config() Config {
	return b.cfg
}

// Allow counts one request for key and reports whether it is within quota.
// Store failures are returned wrapped in ErrStoreUnavailable.
func (b *Bucket) Allow(ctx context.Context, key string) (*Result, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	storeKey := b.storeKey(key)

	if !b.cfg.ContinueAfterExceed {
		c, ok, err := b.store.Get(ctx, storeKey)
		if err != nil {
			return nil, b.storeErr(err)
		}
		if ok && c.Count >= b.cfg.MaxRequests {
			return b.result(key, c, false), nil
		}
	}

	c, err := b.store.Increment(ctx, storeKey, b.cfg.Window)
	if err != nil {
		return nil, b.storeErr(err)
	}
	return b.result(key, c, c.Count <= b.cfg.MaxRequests), nil
}

// Status returns the current state for key without counting a request.
func (b *Bucket) Status(ctx context.Context, key string) (*Result, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}

	c, ok, err := b.store.Get(ctx, b.storeKey(key))
	if err != nil {
		return nil, b.storeErr(err)
	}
	if !ok {
		c = Counter{ResetAt: b.now().Add(b.cfg.Window)}
	}
	return b.result(key, c, c.Count < b.cfg.MaxRequests), nil
}

// Reset clears the counter for key.
func (b *Bucket) Reset(ctx context.Context, key string) error {
	if err := b.store.Reset(ctx, b.storeKey(key)); err != nil {
		return b.storeErr(err)
	}
	return nil
}

func (b *Bucket) storeKey(key string) string {
	return b.cfg.Name + ":" + key
}

func (b *Bucket) storeErr(err error) error {
	return fmt.Errorf("%w: bucket %q: %w", ErrStoreUnavailable, b.cfg.Name, err)
}

func (b *Bucket) result(key string, c Counter, allowed bool) *Result {
	return &Result{
		Bucket:    b.cfg.Name,
		Key:       key,
		Limit:     b.cfg.MaxRequests,
		Count:     c.Count,
		Remaining: max(b.cfg.MaxRequests-c.Count, 0),
		ResetAt:   c.ResetAt,
		allowed:   allowed,
		now:       b.now(),
	}
}

// Limiter is a set of independently configured buckets sharing one store.
type Limiter struct {
	buckets map[string]*Bucket
	order   []string
}

// NewLimiter creates one bucket per config. Names must be unique.
func NewLimiter(store Store, cfgs []Config, opts ...BucketOption) (*Limiter, error) {
	l := &Limiter{buckets: make(map[string]*Bucket, len(cfgs))}
	for _, cfg := range cfgs {
		if _, dup := l.buckets[cfg.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateBucket, cfg.Name)
		}
		b, err := NewBucket(store, cfg, opts...)
		if err != nil {
			return nil, err
		}
		l.buckets[cfg.Name] = b
		l.order = append(l.order, cfg.Name)
	}
	return l, nil
}

// Bucket returns the bucket with the given name.
func (l *Limiter) Bucket(name string) (*Bucket, bool) {
	b, ok := l.buckets[name]
	return b, ok
}

// MustBucket is like Bucket but panics for unknown names.
func (l *Limiter) MustBucket(name string) *Bucket {
	b, ok := l.buckets[name]
	if !ok {
		panic(fmt.Sprintf("ratelimiter: unknown bucket %q", name))
	}
	return b
}

// Names returns bucket names in configuration order.
func (l *Limiter) Names() []string {
	return slices.Clone(l.order)
}
