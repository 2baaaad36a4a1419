package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/sessionguard/core/cache"
)

// DefaultCapacity bounds the number of counters a MemoryStore keeps.
const DefaultCapacity = 10000

// window is the mutable counter state for one key.
type window struct {
	count int
	end   time.Time
}

// MemoryStore implements Store with a bounded in-memory LRU of counters.
// When the capacity is reached the least recently used counter is evicted.
type MemoryStore struct {
	mu       sync.Mutex
	counters *cache.LRUCache[string, *window]

	capacity        int
	cleanupInterval time.Duration
	shutdownTimeout time.Duration
	now             func() time.Time
	logger          *slog.Logger

	sweep *sweeper
	// sweepEnded is set once a started sweep has exited.
	sweepEnded bool

	countersCreated atomic.Int64
	countersExpired atomic.Int64
	countersEvicted atomic.Int64
}

// sweeper is the handle of a running Start call.
type sweeper struct {
	stop chan struct{}
	done chan struct{}
}

// MemoryStoreStats is a point-in-time snapshot. The counters are totals
// since the store was created.
type MemoryStoreStats struct {
	CountersCreated int64
	CountersExpired int64
	CountersEvicted int64
	ActiveCounters  int
	Capacity        int
	IsRunning       bool
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCapacity sets the maximum number of counters kept in memory.
func WithCapacity(n int) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if n > 0 {
			ms.capacity = n
		}
	}
}

// WithCleanupInterval sets how often expired counters are swept.
// Set to 0 to disable the background sweep; expiry remains lazy.
func WithCleanupInterval(interval time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		ms.cleanupInterval = interval
	}
}

// WithMemoryStoreShutdownTimeout bounds how long Stop waits for the sweep.
func WithMemoryStoreShutdownTimeout(timeout time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if timeout > 0 {
			ms.shutdownTimeout = timeout
		}
	}
}

// WithMemoryStoreLogger sets the logger. Nil is ignored.
func WithMemoryStoreLogger(logger *slog.Logger) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if logger != nil {
			ms.logger = logger
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if now != nil {
			ms.now = now
		}
	}
}

// NewMemoryStore creates a store. The sweep only runs once Start or Run is
// called.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	ms := &MemoryStore{
		capacity:        DefaultCapacity,
		cleanupInterval: time.Minute,
		shutdownTimeout: 5 * time.Second,
		now:             time.Now,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(ms)
	}

	ms.counters = cache.NewLRUCache[string, *window](ms.capacity)
	ms.counters.SetEvictCallback(func(string, *window) {
		ms.countersEvicted.Add(1)
	})

	return ms
}

// Increment implements Store.
func (ms *MemoryStore) Increment(ctx context.Context, key string, length time.Duration) (Counter, error) {
	if err := ctx.Err(); err != nil {
		return Counter{}, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	w, ok := ms.counters.Get(key)
	if !ok || !now.Before(w.end) {
		w = &window{end: now.Add(length)}
		ms.countersCreated.Add(1)
	}
	w.count++

	// Put marks the key most recently used, so the eviction it may trigger
	// never removes the counter being updated.
	ms.counters.Put(key, w)

	return Counter{Count: w.count, ResetAt: w.end}, nil
}

// Get implements Store. Expired counters are removed and reported missing.
func (ms *MemoryStore) Get(ctx context.Context, key string) (Counter, bool, error) {
	if err := ctx.Err(); err != nil {
		return Counter{}, false, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	w, ok := ms.counters.Peek(key)
	if !ok {
		return Counter{}, false, nil
	}
	if !ms.now().Before(w.end) {
		ms.counters.Remove(key)
		return Counter{}, false, nil
	}
	return Counter{Count: w.count, ResetAt: w.end}, true, nil
}

// Reset implements Store.
func (ms *MemoryStore) Reset(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.counters.Remove(key)
	return nil
}

// Start sweeps expired counters every cleanup interval until ctx is done or
// Stop is called. It blocks; see Run for errgroup use.
func (ms *MemoryStore) Start(ctx context.Context) error {
	if ms.cleanupInterval <= 0 {
		return fmt.Errorf("%w: cleanup interval must be > 0, got %s", ErrInvalidConfig, ms.cleanupInterval)
	}

	ms.mu.Lock()
	if ms.sweep != nil {
		ms.mu.Unlock()
		return ErrSweepStarted
	}
	sw := &sweeper{stop: make(chan struct{}), done: make(chan struct{})}
	ms.sweep = sw
	ms.sweepEnded = false
	ms.mu.Unlock()
	defer close(sw.done)
	defer func() {
		ms.mu.Lock()
		ms.sweepEnded = true
		ms.mu.Unlock()
	}()

	ms.logger.InfoContext(ctx, "memory store sweep started",
		slog.Duration("cleanup_interval", ms.cleanupInterval),
		slog.Int("capacity", ms.capacity))

	ticker := time.NewTicker(ms.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			ms.mu.Lock()
			if ms.sweep == sw {
				ms.sweep = nil
			}
			ms.mu.Unlock()
			ms.logger.Info("memory store sweep stopped")
			return ctx.Err()
		case <-sw.stop:
			return nil
		case <-ticker.C:
			ms.removeExpired()
		}
	}
}

// Stop ends the sweep started by Start and waits up to the shutdown
// timeout for it to exit.
func (ms *MemoryStore) Stop() error {
	ms.mu.Lock()
	sw := ms.sweep
	ms.sweep = nil
	ms.mu.Unlock()

	if sw == nil {
		return ErrSweepNotStarted
	}
	close(sw.stop)

	select {
	case <-sw.done:
		ms.logger.Info("memory store sweep stopped")
		return nil
	case <-time.After(ms.shutdownTimeout):
		return fmt.Errorf("ratelimiter: memory sweep did not stop within %s", ms.shutdownTimeout)
	}
}

// Run adapts Start for errgroup.Group.Go. Cancellation is not an error.
func (ms *MemoryStore) Run(ctx context.Context) func() error {
	return func() error {
		err := ms.Start(ctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	}
}

// removeExpired drops every counter whose window has ended.
func (ms *MemoryStore) removeExpired() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	removed := ms.counters.RemoveFunc(func(_ string, w *window) bool {
		return !now.Before(w.end)
	})

	if removed > 0 {
		ms.countersExpired.Add(int64(removed))
		ms.logger.DebugContext(context.Background(), "expired counters removed",
			slog.Int("removed", removed))
	}
	return removed
}

// Sweep removes expired counters immediately and returns how many were dropped.
func (ms *MemoryStore) Sweep() int {
	return ms.removeExpired()
}

// Stats is safe to call at any time.
func (ms *MemoryStore) Stats() MemoryStoreStats {
	ms.mu.Lock()
	isRunning := ms.sweep != nil
	active := ms.counters.Len()
	ms.mu.Unlock()

	return MemoryStoreStats{
		CountersCreated: ms.countersCreated.Load(),
		CountersExpired: ms.countersExpired.Load(),
		CountersEvicted: ms.countersEvicted.Load(),
		ActiveCounters:  active,
		Capacity:        ms.capacity,
		IsRunning:       isRunning,
	}
}

// Healthcheck fails once a started sweep has exited, since expired counters
// would then only be dropped lazily or by eviction. A store whose sweep has
// not been started yet is healthy.
func (ms *MemoryStore) Healthcheck(ctx context.Context) error {
	stats := ms.Stats()

	ms.mu.Lock()
	ended := ms.sweepEnded
	ms.mu.Unlock()

	if ms.cleanupInterval > 0 && ended && !stats.IsRunning {
		return fmt.Errorf("%w: sweep has stopped", ErrStoreUnavailable)
	}
	if stats.ActiveCounters > stats.Capacity {
		return fmt.Errorf("%w: %d counters exceed capacity %d", ErrStoreUnavailable, stats.ActiveCounters, stats.Capacity)
	}

	return nil
}
