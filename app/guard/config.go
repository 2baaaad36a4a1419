package guard

import (
	"time"

	"github.com/dmitrymomot/sessionguard/core/config"
	"github.com/dmitrymomot/sessionguard/core/cookie"
	"github.com/dmitrymomot/sessionguard/core/server"
	"github.com/dmitrymomot/sessionguard/integration/database/redis"
	"github.com/dmitrymomot/sessionguard/middleware"
	"github.com/dmitrymomot/sessionguard/pkg/ratelimiter"
	"github.com/dmitrymomot/sessionguard/pkg/secrets"
)

// Rate limit store kinds.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Bucket names.
const (
	BucketGlobal  = "global"
	BucketAuth    = "auth"
	BucketFeature = "feature"
	BucketHealth  = "health"
)

// Config aggregates every tunable of the service.
type Config struct {
	Cookie     cookie.Config
	Encryption secrets.Config
	Server     server.Config
	Redis      redis.Config
	RateLimit  RateLimitConfig

	AppName   string `env:"APP_NAME" envDefault:"sessionguard"`
	Env       string `env:"APP_ENV" envDefault:"development"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	SessionCookie string `env:"SESSION_COOKIE_NAME" envDefault:"encrypted_access_token"`
	// EncryptionSecret defaults to the first cookie secret.
	EncryptionSecret  string `env:"ENCRYPTION_SECRET"`
	TrustProxyHeaders bool   `env:"TRUST_PROXY_HEADERS" envDefault:"false"`
}

// RateLimitConfig holds the store choice and the quota of each bucket.
type RateLimitConfig struct {
	Store    string `env:"RATE_LIMIT_STORE" envDefault:"memory"`
	Capacity int    `env:"RATE_LIMIT_CAPACITY" envDefault:"10000"`

	GlobalMax     int           `env:"RATE_LIMIT_GLOBAL_MAX" envDefault:"100"`
	GlobalWindow  time.Duration `env:"RATE_LIMIT_GLOBAL_WINDOW" envDefault:"15m"`
	AuthMax       int           `env:"RATE_LIMIT_AUTH_MAX" envDefault:"5"`
	AuthWindow    time.Duration `env:"RATE_LIMIT_AUTH_WINDOW" envDefault:"15m"`
	FeatureMax    int           `env:"RATE_LIMIT_FEATURE_MAX" envDefault:"30"`
	FeatureWindow time.Duration `env:"RATE_LIMIT_FEATURE_WINDOW" envDefault:"1m"`
	HealthMax     int           `env:"RATE_LIMIT_HEALTH_MAX" envDefault:"60"`
	HealthWindow  time.Duration `env:"RATE_LIMIT_HEALTH_WINDOW" envDefault:"1m"`
}

// DefaultRateLimitConfig returns the in-memory store with the stock quotas.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Store:         StoreMemory,
		Capacity:      10000,
		GlobalMax:     100,
		GlobalWindow:  15 * time.Minute,
		AuthMax:       5,
		AuthWindow:    15 * time.Minute,
		FeatureMax:    30,
		FeatureWindow: time.Minute,
		HealthMax:     60,
		HealthWindow:  time.Minute,
	}
}

// Buckets returns the bucket policies. Offenders keep counting for the rest
// of their window.
func (c RateLimitConfig) Buckets() []ratelimiter.Config {
	return []ratelimiter.Config{
		{Name: BucketGlobal, MaxRequests: c.GlobalMax, Window: c.GlobalWindow, ContinueAfterExceed: true},
		{Name: BucketAuth, MaxRequests: c.AuthMax, Window: c.AuthWindow, ContinueAfterExceed: true},
		{Name: BucketFeature, MaxRequests: c.FeatureMax, Window: c.FeatureWindow, ContinueAfterExceed: true},
		{Name: BucketHealth, MaxRequests: c.HealthMax, Window: c.HealthWindow, ContinueAfterExceed: true},
	}
}

// DefaultConfig returns a development configuration without secrets.
func DefaultConfig() Config {
	return Config{
		Cookie:        cookie.DefaultConfig(),
		Encryption:    secrets.DefaultConfig(),
		Server:        server.DefaultConfig(),
		Redis:         redis.DefaultConfig(),
		RateLimit:     DefaultRateLimitConfig(),
		AppName:       "sessionguard",
		Env:           "development",
		LogLevel:      "info",
		LogFormat:     "json",
		SessionCookie: middleware.DefaultSessionCookie,
	}
}

// LoadConfig reads Config from the environment and a .env file, if any.
func LoadConfig() (Config, error) {
	var cfg Config
	err := config.Load(&cfg)
	return cfg, err
}

// IsProduction reports whether APP_ENV is production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// ResolvedEncryptionSecret returns the secret the envelope key is derived from.
func (c Config) ResolvedEncryptionSecret() string {
	if c.EncryptionSecret != "" {
		return c.EncryptionSecret
	}
	if list := c.Cookie.SecretList(); len(list) > 0 {
		return list[0]
	}
	return ""
}

// Validate returns a *config.ValidationError enumerating every violation.
func (c Config) Validate() error {
	var v config.ValidationError

	v.Merge(c.Cookie.Validate())
	v.Merge(c.Encryption.Validate())

	if c.IsProduction() && !c.Cookie.Secure {
		v.Addf("COOKIE_SECURE: must be true when APP_ENV is production")
	}
	if c.EncryptionSecret != "" && len(c.EncryptionSecret) < secrets.MinSecretLength {
		v.Addf("ENCRYPTION_SECRET: must be at least %d chars, got %d", secrets.MinSecretLength, len(c.EncryptionSecret))
	}
	if c.SessionCookie == "" {
		v.Addf("SESSION_COOKIE_NAME: must not be empty")
	}
	if c.Server.Addr == "" {
		v.Addf("SERVER_ADDR: must not be empty")
	}

	switch c.RateLimit.Store {
	case StoreMemory:
		if c.RateLimit.Capacity <= 0 {
			v.Addf("RATE_LIMIT_CAPACITY: must be positive, got %d", c.RateLimit.Capacity)
		}
	case StoreRedis:
		if c.Redis.ConnectionURL == "" {
			v.Addf("REDIS_URL: required when RATE_LIMIT_STORE is redis")
		}
	default:
		v.Addf("RATE_LIMIT_STORE: must be %q or %q, got %q", StoreMemory, StoreRedis, c.RateLimit.Store)
	}
	for _, b := range c.RateLimit.Buckets() {
		v.Merge(b.Validate())
	}

	return v.Err()
}
