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

	assert.Equal(t, "practice-service", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())

	assert.Equal(t, 5, cfg.Auth.LockoutThreshold)
	assert.Equal(t, 30*time.Minute, cfg.Auth.LockoutWindow())
	assert.Equal(t, 12*time.Hour, cfg.Auth.SessionTTL())
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9999")
	t.Setenv("AUTH_LOCKOUT_THRESHOLD", "3")
	t.Setenv("AUTH_LOCKOUT_MINUTES", "10")
	t.Setenv("POSTGRES_RUN_MIGRATIONS", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9999", cfg.App.Addr())
	assert.Equal(t, 3, cfg.Auth.LockoutThreshold)
	assert.Equal(t, 10*time.Minute, cfg.Auth.LockoutWindow())
	assert.False(t, cfg.Postgres.RunMigrations)
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("AUTH_LOCKOUT_THRESHOLD", "plenty")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Auth.LockoutThreshold)
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")

	_, err := Load()
	require.Error(t, err)
}
