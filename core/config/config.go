package config

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	dotenvOnce sync.Once
	cacheMu    sync.Mutex
	cache      = make(map[reflect.Type]any)
)

// Load populates cfg from the environment. The first successful load of a
// type is cached and returned to subsequent callers.
func Load[T any](cfg *T) error {
	dotenvOnce.Do(func() {
		// A missing .env file is the normal case outside local development.
		_ = godotenv.Load()
	})

	typ := reflect.TypeFor[T]()

	cacheMu.Lock()
	defer cacheMu.Unlock()

	if cached, ok := cache[typ]; ok {
		*cfg = cached.(T)
		return nil
	}

	var loaded T
	if err := env.Parse(&loaded); err != nil {
		return fmt.Errorf("parse %s from environment: %w", typ, err)
	}

	cache[typ] = loaded
	*cfg = loaded
	return nil
}

// MustLoad is like Load but panics on failure.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}

// reset drops every cached configuration. Tests only.
func reset() {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	cache = make(map[reflect.Type]any)
}
