package cookie

import (
	"net/http"
	"strings"

	"github.com/dmitrymomot/sessionguard/core/config"
)

// Config provides environment-based configuration for cookie manager.
type Config struct {
	Secrets  string        `env:"COOKIE_SECRETS" envDefault:""`
	Path     string        `env:"COOKIE_PATH" envDefault:"/"`
	Domain   string        `env:"COOKIE_DOMAIN" envDefault:""`
	MaxAge   int           `env:"COOKIE_MAX_AGE" envDefault:"0"`
	Secure   bool          `env:"COOKIE_SECURE" envDefault:"false"`
	HttpOnly bool          `env:"COOKIE_HTTP_ONLY" envDefault:"true"`
	SameSite http.SameSite `env:"COOKIE_SAME_SITE" envDefault:"3"` // SameSiteStrictMode
	MaxSize  int           `env:"COOKIE_MAX_SIZE" envDefault:"4096"`
}

// DefaultConfig returns a Config with secure defaults.
func DefaultConfig() Config {
	return Config{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxSize:  MaxCookieSize,
	}
}

// SecretList splits comma-separated secrets for key rotation support.
// Empty entries are dropped.
func (c Config) SecretList() []string {
	if c.Secrets == "" {
		return nil
	}

	parts := strings.Split(c.Secrets, ",")
	secrets := make([]string, 0, len(parts))

	for _, s := range parts {
		s = strings.TrimSpace(s)
		if s != "" {
			secrets = append(secrets, s)
		}
	}

	return secrets
}

// Validate reports every problem with the signing secrets and size limit.
func (c Config) Validate() error {
	var v config.ValidationError

	secrets := c.SecretList()
	if len(secrets) == 0 {
		v.Addf("COOKIE_SECRETS: at least one secret is required")
	}
	for i, s := range secrets {
		if len(s) < minSecretLength {
			v.Addf("COOKIE_SECRETS: secret %d has %d chars, need at least %d", i+1, len(s), minSecretLength)
		}
	}
	if c.MaxSize < 0 {
		v.Addf("COOKIE_MAX_SIZE: must not be negative, got %d", c.MaxSize)
	}

	return v.Err()
}

// NewFromConfig creates a Manager whose defaults come from cfg. Empty Path
// and zero SameSite keep the built-in defaults; opts are applied last.
func NewFromConfig(cfg Config, c Cipher, opts ...Option) (*Manager, error) {
	fromConfig := func(ck *http.Cookie) {
		if cfg.Path != "" {
			ck.Path = cfg.Path
		}
		if cfg.SameSite != 0 {
			ck.SameSite = cfg.SameSite
		}
		ck.Domain = cfg.Domain
		ck.MaxAge = cfg.MaxAge
		ck.Secure = cfg.Secure
		ck.HttpOnly = cfg.HttpOnly
	}

	return NewWithOptions(cfg.SecretList(), append([]Option{fromConfig}, opts...),
		WithMaxSize(cfg.MaxSize),
		WithCipher(c),
	)
}
