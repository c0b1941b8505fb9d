package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/followupbot/tenantkit/pkg/config"
)

// Each test uses its own config type: Load caches per concrete type for the
// lifetime of the process, so sharing one type across tests would leak state.

func TestLoad(t *testing.T) {
	type serverConfig struct {
		Addr    string        `env:"TEST_LOADER_ADDR" envDefault:":8080"`
		Timeout time.Duration `env:"TEST_LOADER_TIMEOUT" envDefault:"5s"`
	}

	t.Run("applies defaults", func(t *testing.T) {
		var cfg serverConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, 5*time.Second, cfg.Timeout)
	})

	t.Run("reads environment overrides", func(t *testing.T) {
		type overrideConfig struct {
			Addr string `env:"TEST_LOADER_OVERRIDE_ADDR" envDefault:":8080"`
		}
		t.Setenv("TEST_LOADER_OVERRIDE_ADDR", ":9090")

		var cfg overrideConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, ":9090", cfg.Addr)
	})

	t.Run("second load returns the cached copy", func(t *testing.T) {
		type cachedConfig struct {
			Addr string `env:"TEST_LOADER_CACHED_ADDR" envDefault:":8080"`
		}
		t.Setenv("TEST_LOADER_CACHED_ADDR", ":7070")

		var first cachedConfig
		require.NoError(t, config.Load(&first))

		// The env change after the first load must not be observed.
		t.Setenv("TEST_LOADER_CACHED_ADDR", ":6060")
		var second cachedConfig
		require.NoError(t, config.Load(&second))
		assert.Equal(t, first.Addr, second.Addr)
	})

	t.Run("rejects nil pointer", func(t *testing.T) {
		assert.ErrorIs(t, config.Load[serverConfig](nil), config.ErrNilPointer)
	})

	t.Run("reports missing required variables", func(t *testing.T) {
		type requiredConfig struct {
			Secret string `env:"TEST_LOADER_REQUIRED_SECRET,required"`
		}
		var cfg requiredConfig
		err := config.Load(&cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})
}

func TestMustLoad(t *testing.T) {
	t.Run("panics on failure", func(t *testing.T) {
		type mustConfig struct {
			Secret string `env:"TEST_LOADER_MUST_SECRET,required"`
		}
		assert.Panics(t, func() {
			var cfg mustConfig
			config.MustLoad(&cfg)
		})
	})
}
