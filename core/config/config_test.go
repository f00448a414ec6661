package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/wspubsub/core/config"
)

type sampleConfig struct {
	Addr     string        `env:"CFGTEST_ADDR" envDefault:":8080"`
	Keys     []string      `env:"CFGTEST_KEYS" envSeparator:"," envDefault:"a,b"`
	Deadline time.Duration `env:"CFGTEST_DEADLINE" envDefault:"10s"`
}

type requiredConfig struct {
	Secret string `env:"CFGTEST_SECRET,required"`
}

func TestLoad(t *testing.T) {
	t.Run("applies defaults and environment", func(t *testing.T) {
		config.Reset()
		t.Setenv("CFGTEST_KEYS", "k1,k2,k3")

		var cfg sampleConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, []string{"k1", "k2", "k3"}, cfg.Keys)
		assert.Equal(t, 10*time.Second, cfg.Deadline)
	})

	t.Run("caches per type", func(t *testing.T) {
		config.Reset()
		t.Setenv("CFGTEST_ADDR", ":9000")

		var first sampleConfig
		require.NoError(t, config.Load(&first))

		t.Setenv("CFGTEST_ADDR", ":9999")
		var second sampleConfig
		require.NoError(t, config.Load(&second))
		assert.Equal(t, ":9000", second.Addr)
	})

	t.Run("reports missing required values", func(t *testing.T) {
		config.Reset()

		var cfg requiredConfig
		err := config.Load(&cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "CFGTEST_SECRET")
		assert.Panics(t, func() { config.MustLoad(&cfg) })
	})

	t.Run("rejects nil pointer", func(t *testing.T) {
		var cfg *sampleConfig
		assert.ErrorIs(t, config.Load(cfg), config.ErrNotPointer)
	})
}
