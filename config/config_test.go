package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppConfig_Defaults(t *testing.T) {
	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	require.NoError(t, cfg.Sanitize())

	assert.False(t, cfg.IsDev)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "console_session", cfg.Session.CookieName)
	assert.Equal(t, 12*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "localhost", cfg.Postgres.Host)
	assert.True(t, cfg.Postgres.RunMigrationsOnStart)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "http://localhost:9000", cfg.Platform.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Platform.Timeout)
}

func TestAppConfig_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("SESSION_COOKIE_NAME", "cb_session")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("REDIS_ADDR", "redis.internal:6380")
	t.Setenv("PLATFORM_BASE_URL", "https://api.campus.example")

	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	require.NoError(t, cfg.Sanitize())

	assert.Equal(t, ":9999", cfg.HTTP.Addr)
	assert.Equal(t, "cb_session", cfg.Session.CookieName)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.Equal(t, "db.internal", cfg.Postgres.Host)
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
	assert.Equal(t, "https://api.campus.example", cfg.Platform.BaseURL)
}

func TestAppConfig_DevModeFromNodeEnv(t *testing.T) {
	t.Setenv("NODE_ENV", "development")

	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	require.NoError(t, cfg.Sanitize())

	assert.True(t, cfg.IsDev)
}

func TestSessionConfig_Sanitize_Guardrails(t *testing.T) {
	s := SessionConfig{TTL: -time.Minute}
	require.NoError(t, s.Sanitize(false))
	assert.Equal(t, "console_session", s.CookieName)
	assert.Equal(t, 12*time.Hour, s.TTL)
}

func TestSessionConfig_Sanitize_RejectsPublicSuffixDomain(t *testing.T) {
	for _, domain := range []string{"com", ".com", "co.uk"} {
		s := SessionConfig{CookieName: "console_session", TTL: time.Hour, CookieDomain: domain}
		assert.Error(t, s.Sanitize(false), "domain %q", domain)
	}

	s := SessionConfig{CookieName: "console_session", TTL: time.Hour, CookieDomain: "console.campus.example"}
	assert.NoError(t, s.Sanitize(false))
}

func TestHTTPConfig_Sanitize(t *testing.T) {
	h := HTTPConfig{ShutdownTimeout: -1}
	h.Sanitize()
	assert.Equal(t, ":8080", h.Addr)
	assert.Equal(t, 10*time.Second, h.ShutdownTimeout)
}

func TestPlatformConfig_Sanitize(t *testing.T) {
	p := PlatformConfig{}
	p.Sanitize()
	assert.Equal(t, 5*time.Second, p.Timeout)
}
