// Package config provides type-safe environment variable loading with caching
// using Go generics. Each configuration type is loaded once and cached for
// subsequent calls.
//
// The package loads .env files on first use (missing files are ignored) and
// uses the caarlos0/env library for parsing environment variables into
// struct fields.
//
// Basic usage:
//
//	import "github.com/dmitrymomot/sessionguard/core/config"
//
//	type CookieConfig struct {
//		Secrets string `env:"COOKIE_SECRETS,required"`
//		Secure  bool   `env:"COOKIE_SECURE" envDefault:"false"`
//	}
//
//	func main() {
//		var cfg CookieConfig
//
//		// Load with error handling
//		if err := config.Load(&cfg); err != nil {
//			log.Fatal(err)
//		}
//
//		// Or panic on failure (useful for startup)
//		config.MustLoad(&cfg)
//	}
//
// # Caching Behavior
//
// Each configuration type is loaded only once per application lifetime.
// Different types are cached independently.
//
// # Validation
//
// ValidationError collects every violation found while validating a loaded
// configuration so startup can report them all at once:
//
//	func (c Config) Validate() error {
//		var v config.ValidationError
//		if len(c.Secret) < 32 {
//			v.Addf("COOKIE_SECRETS: secret has %d chars, need at least 32", len(c.Secret))
//		}
//		return v.Err()
//	}
package config
