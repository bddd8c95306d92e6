package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")
	t.Setenv("AUTH_TOKEN_TTL", "")
	t.Setenv("AUTH_TOKEN_REMEMBER_TTL", "")
	t.Setenv("AUTH_ROLE_CACHE_TTL_SECONDS", "")
	t.Setenv("APP_PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "1d", cfg.Auth.TokenTTL)
	assert.Equal(t, "30d", cfg.Auth.RememberTTL)
	assert.Equal(t, time.Duration(0), cfg.Auth.RoleCacheTTL())
	assert.Equal(t, "0.0.0.0:3000", cfg.App.Addr())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("AUTH_TOKEN_TTL", "12h")
	t.Setenv("AUTH_TOKEN_REMEMBER_TTL", "7 days")
	t.Setenv("AUTH_ROLE_CACHE_TTL_SECONDS", "15")
	t.Setenv("AUTH_BCRYPT_COST", "not-a-number")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, "12h", cfg.Auth.TokenTTL)
	assert.Equal(t, "7 days", cfg.Auth.RememberTTL)
	assert.Equal(t, 15*time.Second, cfg.Auth.RoleCacheTTL())
	assert.Equal(t, 10, cfg.Auth.BcryptCost, "invalid ints fall back to the default")
	assert.Equal(t, 5*time.Second, cfg.App.RequestTimeout())
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_DB")
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_JWT_SECRET")

	t.Setenv("AUTH_JWT_SECRET", "real-secret")
	_, err = Load()
	assert.NoError(t, err)
}
