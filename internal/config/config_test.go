package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.True(t, cfg.Auth.Required)
	assert.Equal(t, DriverMongo, cfg.Store.Driver)
	assert.Equal(t, "todo_db", cfg.Mongo.Database)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "9090")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("AUTH_REQUIRED", "false")
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.False(t, cfg.Auth.Required)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ACCESS_TOKEN_TTL", "soon")
	t.Setenv("BCRYPT_COST", "lots")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing secret", env: map[string]string{"JWT_SECRET": ""}},
		{name: "unknown driver", env: map[string]string{"JWT_SECRET": "s", "STORE_DRIVER": "cassandra"}},
		{name: "non numeric port", env: map[string]string{"JWT_SECRET": "s", "PORT": "http"}},
		{name: "bcrypt cost too low", env: map[string]string{"JWT_SECRET": "s", "BCRYPT_COST": "2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_OverridesApplyBeforeValidation(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("STORE_DRIVER", "bogus")
	t.Setenv("PORT", "http")

	_, err := Load()
	require.Error(t, err)

	cfg, err := Load(func(c *Config) {
		c.Store.Driver = DriverMemory
		c.Server.Port = "9000"
	})
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "9000", cfg.Server.Port)
}

func TestLoad_OverrideCanInvalidate(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	_, err := Load(func(c *Config) { c.Store.Driver = "cassandra" })
	assert.Error(t, err)
}
