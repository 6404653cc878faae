package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 30*24*time.Hour, cfg.Security.SessionTTL)
	assert.Equal(t, "session", cfg.Security.SessionCookieName)
	assert.Equal(t, 5, cfg.Security.RateLimitAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Security.RateLimitWindow)
	assert.Equal(t, 30*24*time.Hour, cfg.Retention.TrashTTL)
	assert.Equal(t, int64(10*1024*1024), cfg.Upload.MaxBytes)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("POCKETIDEAS_ENVIRONMENT", "production")
	t.Setenv("POCKETIDEAS_HTTP_PORT", "9000")
	t.Setenv("POCKETIDEAS_SECURITY_RATELIMITATTEMPTS", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 9000, cfg.HTTP.Port)
	assert.Equal(t, 3, cfg.Security.RateLimitAttempts)
}
