package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.False(t, cfg.Server.TrustProxy)
	assert.Equal(t, DriverBolt, cfg.Storage.Driver)
	assert.Equal(t, "pos.db", cfg.Storage.BoltPath)
	assert.Equal(t, "pos_products_v1", cfg.Storage.CatalogKey)
	assert.Equal(t, 3*time.Second, cfg.Storage.Timeout)
	assert.Equal(t, "1234", cfg.Admin.PIN)
	assert.Equal(t, 15*time.Minute, cfg.Admin.TokenTTL)
	assert.Equal(t, 5, cfg.Admin.LoginLimit)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "Europe/Vienna", cfg.Display.TimeZone)
	assert.True(t, cfg.WeakSecret())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_DRIVER", " Redis ")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("ADMIN_TOKEN_TTL", "1h")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("TRUST_PROXY", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, DriverRedis, cfg.Storage.Driver)
	assert.Equal(t, "cache:6379", cfg.Storage.RedisAddr)
	assert.Equal(t, 2, cfg.Storage.RedisDB)
	assert.Equal(t, time.Hour, cfg.Admin.TokenTTL)
	assert.False(t, cfg.Metrics.Enabled)
	assert.True(t, cfg.Server.TrustProxy)
}

func TestLoad_Rejects(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown driver":       {"STORAGE_DRIVER": "sqlite"},
		"postgres without dsn": {"STORAGE_DRIVER": "postgres"},
		"blank pin":            {"ADMIN_PIN": "   "},
		"bad duration":         {"ADMIN_TOKEN_TTL": "soon"},
		"non-positive timeout": {"STORAGE_TIMEOUT": "0s"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestWeakSecret(t *testing.T) {
	cfg := NewTestConfig()
	assert.False(t, cfg.WeakSecret())

	cfg.Admin.JWTSecret = "short"
	assert.True(t, cfg.WeakSecret())
}

func TestLocation(t *testing.T) {
	cfg := NewTestConfig()
	assert.Equal(t, time.UTC, cfg.Location())

	cfg.Display.TimeZone = "Nowhere/Special"
	assert.Equal(t, time.UTC, cfg.Location())
}
