package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads; viper treats empty as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "PORT", "DATABASE_URL", "REDIS_URL", "ACCESS_TOKEN_SECRET",
		"ACCESS_TOKEN_EXPIRY", "REFRESH_TOKEN_EXPIRY", "SENDGRID_API_KEY", "MAIL_FROM",
		"MAIL_FROM_NAME", "APP_BASE_URL", "CORS_ORIGIN", "AUTH_RATE_LIMIT", "TRUST_PROXY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "test")
	cfg := fromViper(newViper())

	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenExpiry)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenExpiry)
	assert.Equal(t, 20, cfg.AuthRateLimit)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.False(t, cfg.TrustProxy)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "9000")
	t.Setenv("ACCESS_TOKEN_EXPIRY", "5m")
	t.Setenv("CORS_ORIGIN", "https://a.example, https://b.example ,")
	t.Setenv("AUTH_RATE_LIMIT", "3")
	t.Setenv("TRUST_PROXY", "true")
	t.Setenv("APP_BASE_URL", "https://camp.example/")

	cfg := Load()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenExpiry)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 3, cfg.AuthRateLimit)
	assert.True(t, cfg.TrustProxy)
	assert.Equal(t, "https://camp.example", cfg.AppBaseURL)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Env:                "development",
			AccessTokenSecret:  "secret",
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: time.Hour,
			AuthRateLimit:      20,
		}
	}

	require.NoError(t, base().Validate())

	noSecret := base()
	noSecret.AccessTokenSecret = ""
	assert.ErrorContains(t, noSecret.Validate(), "ACCESS_TOKEN_SECRET")

	inverted := base()
	inverted.RefreshTokenExpiry = time.Minute
	assert.ErrorContains(t, inverted.Validate(), "REFRESH_TOKEN_EXPIRY")

	prod := base()
	prod.Env = "production"
	err := prod.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "DATABASE_URL")
	assert.ErrorContains(t, err, "REDIS_URL")
	assert.ErrorContains(t, err, "SENDGRID_API_KEY")

	prod.DatabaseURL = "postgres://localhost/camp"
	prod.RedisURL = "redis://localhost:6379"
	prod.SendGridAPIKey = "SG.key"
	assert.NoError(t, prod.Validate())
}
