package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrNotPointer is returned when Load receives a non-pointer or nil value.
var ErrNotPointer = errors.New("config: target must be a non-nil pointer to a struct")

var (
	dotenvOnce sync.Once
	cacheMu    sync.Mutex
	cache      = map[reflect.Type]any{}
)

// Load parses environment variables into cfg, which must point to a struct.
// The first successful result per type is cached and copied into later calls.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return ErrNotPointer
	}
	typ := reflect.TypeOf(cfg).Elem()
	if typ.Kind() != reflect.Struct {
		return ErrNotPointer
	}

	dotenvOnce.Do(func() {
		// A missing .env file is the common case in containers.
		_ = godotenv.Load()
	})

	cacheMu.Lock()
	defer cacheMu.Unlock()

	if cached, ok := cache[typ]; ok {
		*cfg = cached.(T)
		return nil
	}

	var parsed T
	if err := env.Parse(&parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", typ.Name(), err)
	}
	cache[typ] = parsed
	*cfg = parsed
	return nil
}

// MustLoad is like Load but panics on error.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}

// Reset drops every cached configuration. Intended for tests.
func Reset() {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	cache = map[reflect.Type]any{}
}
