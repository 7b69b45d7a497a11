package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		t.Setenv("STORAGE", "")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.HTTPAddr)
		assert.Equal(t, "memory", cfg.Storage)
		assert.Equal(t, "global", cfg.FanoutMode)
		assert.Equal(t, time.Hour, cfg.JWTTTL)
	})

	t.Run("File then environment", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "postsync.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
http_addr: ":9090"
storage: sqlite
fanout_mode: subscribed
jwt_ttl: 30m
db:
  host: db.internal
`), 0o600))

		t.Setenv("STORAGE", "postgres")
		t.Setenv("JWT_SECRET", "s3cret")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":9090", cfg.HTTPAddr)
		assert.Equal(t, "postgres", cfg.Storage, "environment wins over the file")
		assert.Equal(t, "subscribed", cfg.FanoutMode)
		assert.Equal(t, 30*time.Minute, cfg.JWTTTL)
		assert.Equal(t, "db.internal", cfg.DB.Host)
		assert.Equal(t, "5432", cfg.DB.Port, "unset keys keep their defaults")
		assert.Equal(t, "s3cret", cfg.JWTSecret)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("Bad duration", func(t *testing.T) {
		t.Setenv("JWT_TTL", "forever")
		_, err := Load("")
		assert.ErrorContains(t, err, "JWT_TTL")
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.JWTSecret = "secret"
		return cfg
	}

	assert.NoError(t, valid().Validate())

	cases := map[string]func(*Config){
		"unknown storage":     func(c *Config) { c.Storage = "mongo" },
		"unknown fanout mode": func(c *Config) { c.FanoutMode = "everyone" },
		"unknown cache":       func(c *Config) { c.Cache = "memcached" },
		"unknown log level":   func(c *Config) { c.LogLevel = "trace" },
		"missing secret":      func(c *Config) { c.JWTSecret = "" },
		"redis without addr":  func(c *Config) { c.Cache = "redis" },
		"postgres without db": func(c *Config) { c.Storage = "postgres" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLevel(t *testing.T) {
	cfg := Default()
	assert.Equal(t, slog.LevelInfo, cfg.Level())
	cfg.LogLevel = "debug"
	assert.Equal(t, slog.LevelDebug, cfg.Level())
}
