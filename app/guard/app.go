package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/sessionguard/core/cookie"
	"github.com/dmitrymomot/sessionguard/core/logger"
	"github.com/dmitrymomot/sessionguard/core/server"
	"github.com/dmitrymomot/sessionguard/integration/database/redis"
	"github.com/dmitrymomot/sessionguard/pkg/ratelimiter"
	"github.com/dmitrymomot/sessionguard/pkg/secrets"
	"github.com/dmitrymomot/sessionguard/pkg/sessiontoken"
)

type healthChecker interface {
	Healthcheck(ctx context.Context) error
}

// App wires the session gate and rate limiter into an HTTP service.
type App struct {
	config    Config
	logger    *slog.Logger
	now       func() time.Time
	cookies   *cookie.Manager
	validator *sessiontoken.Validator
	store     ratelimiter.Store
	memory    *ratelimiter.MemoryStore
	redis     *goredis.Client
	limiter   *ratelimiter.Limiter
	provider  IdentityProvider
	server    *server.Server
	handler   http.Handler
}

type AppOption func(*App) error

// NewApp validates cfg and builds the service. A validation failure is
// returned as *config.ValidationError before anything is allocated.
func NewApp(ctx context.Context, cfg Config, opts ...AppOption) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &App{
		config: cfg,
		logger: logger.Discard(),
		now:    time.Now,
	}

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	engine, err := secrets.New([]byte(cfg.ResolvedEncryptionSecret()), cfg.Encryption)
	if err != nil {
		return nil, fmt.Errorf("encryption engine: %w", err)
	}

	if app.cookies == nil {
		cm, err := cookie.NewFromConfig(cfg.Cookie, engine)
		if err != nil {
			return nil, fmt.Errorf("cookie manager: %w", err)
		}
		app.cookies = cm
	}

	app.validator = sessiontoken.New(sessiontoken.WithClock(app.now))

	if app.store == nil {
		if err := app.openStore(ctx); err != nil {
			return nil, err
		}
	}

	limiter, err := ratelimiter.NewLimiter(app.store, cfg.RateLimit.Buckets(), ratelimiter.WithBucketClock(app.now))
	if err != nil {
		app.close()
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	app.limiter = limiter

	if app.server == nil {
		s, err := server.NewFromConfig(cfg.Server, server.WithLogger(app.logger))
		if err != nil {
			app.close()
			return nil, fmt.Errorf("server: %w", err)
		}
		app.server = s
	}

	app.handler = app.routes()
	return app, nil
}

func WithLogger(logger *slog.Logger) AppOption {
	return func(app *App) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		app.logger = logger
		return nil
	}
}

// WithIdentityProvider enables POST /auth/session. Without one the route
// answers 503.
func WithIdentityProvider(p IdentityProvider) AppOption {
	return func(app *App) error {
		if p == nil {
			return errors.New("identity provider cannot be nil")
		}
		app.provider = p
		return nil
	}
}

// WithStore replaces the configured counting store.
func WithStore(store ratelimiter.Store) AppOption {
	return func(app *App) error {
		if store == nil {
			return errors.New("store cannot be nil")
		}
		app.store = store
		if ms, ok := store.(*ratelimiter.MemoryStore); ok {
			app.memory = ms
		}
		return nil
	}
}

func WithServer(server *server.Server) AppOption {
	return func(app *App) error {
		if server == nil {
			return errors.New("server cannot be nil")
		}
		app.server = server
		return nil
	}
}

// WithClock sets the time source of token validation and rate limiting.
func WithClock(now func() time.Time) AppOption {
	return func(app *App) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		app.now = now
		return nil
	}
}

// Handler returns the fully wrapped HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Cookies returns the session cookie manager.
func (a *App) Cookies() *cookie.Manager {
	return a.cookies
}

// Limiter returns the configured buckets.
func (a *App) Limiter() *ratelimiter.Limiter {
	return a.limiter
}

// Run serves HTTP and sweeps the memory store until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(a.server.Run(ctx, a.handler))
	if a.memory != nil {
		g.Go(a.memory.Run(ctx))
	}

	a.logger.InfoContext(ctx, "sessionguard started",
		logger.Component("app"),
		slog.String("addr", a.config.Server.Addr),
		slog.String("env", a.config.Env),
		slog.String("rate_limit_store", a.config.RateLimit.Store))

	return g.Wait()
}

func (a *App) openStore(ctx context.Context) error {
	switch a.config.RateLimit.Store {
	case StoreRedis:
		client, err := redis.Connect(ctx, a.config.Redis)
		if err != nil {
			return fmt.Errorf("rate limit store: %w", err)
		}
		a.redis = client
		a.store = ratelimiter.NewRedisStore(client, ratelimiter.WithRedisClock(a.now))
	default:
		a.memory = ratelimiter.NewMemoryStore(
			ratelimiter.WithCapacity(a.config.RateLimit.Capacity),
			ratelimiter.WithMemoryStoreLogger(a.logger),
			ratelimiter.WithClock(a.now),
		)
		a.store = a.memory
	}
	return nil
}

func (a *App) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("close redis client", logger.Error(err))
		}
	}
}

func (a *App) healthcheck(ctx context.Context) error {
	if hc, ok := a.store.(healthChecker); ok {
		return hc.Healthcheck(ctx)
	}
	return nil
}
