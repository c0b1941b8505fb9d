package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	mu     sync.RWMutex
	loaded = make(map[string]any)
	onces  = make(map[string]*sync.Once)

	dotenvOnce sync.Once
)

// Load parses environment variables into v, once per concrete type. Repeat
// calls for the same type return the cached copy, so every package can load
// its own Config without coordinating.
func Load[T any](v *T) error {
	dotenvOnce.Do(func() {
		// Missing .env is normal outside local development.
		_ = godotenv.Load()
	})
	if v == nil {
		return ErrNilPointer
	}

	key := typeKey[T]()

	mu.RLock()
	if cached, ok := loaded[key]; ok {
		*v = cached.(T)
		mu.RUnlock()
		return nil
	}
	mu.RUnlock()

	mu.Lock()
	once, ok := onces[key]
	if !ok {
		once = new(sync.Once)
		onces[key] = once
	}
	mu.Unlock()

	var parseErr error
	once.Do(func() {
		if err := env.Parse(v); err != nil {
			parseErr = errors.Join(ErrParsingConfig, err)
			return
		}
		mu.Lock()
		loaded[key] = *v // store a copy so callers cannot mutate the cache
		mu.Unlock()
	})
	if parseErr != nil {
		return parseErr
	}

	mu.RLock()
	defer mu.RUnlock()
	if cached, ok := loaded[key]; ok {
		*v = cached.(T)
		return nil
	}
	return ErrConfigNotLoaded
}

// MustLoad is Load that panics on failure, for configuration the service
// cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
}

func typeKey[T any]() string {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		return fmt.Sprintf("%T", *new(T))
	}
	return t.String()
}
