package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"APP_PORT", "APP_VERSION", "DB_DRIVER", "AI_REQUEST_TIMEOUT", "AI_MAX_ATTEMPTS", "AI_RETRY_BASE_DELAY", "AI_MAX_TOKENS"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := Load()

	assert.Equal(t, "5000", cfg.App.Port)
	assert.Equal(t, AppVersion, cfg.App.Version)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, 30*time.Second, cfg.Ai.RequestTimeout)
	assert.Equal(t, 3, cfg.Ai.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Ai.RetryBaseDelay)
	assert.Equal(t, 500, cfg.Ai.MaxTokens)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("AI_PROVIDER", "Gemini")
	t.Setenv("AI_REQUEST_TIMEOUT", "45")
	t.Setenv("AI_RETRY_BASE_DELAY", "250ms")
	t.Setenv("AI_TEMPERATURE", "0.2")
	t.Setenv("DB_AUTO_MIGRATE", "false")
	t.Setenv("AUTH_MODE", "REQUIRED")

	cfg := Load()

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "gemini", cfg.Ai.Provider)
	assert.Equal(t, 45*time.Second, cfg.Ai.RequestTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Ai.RetryBaseDelay)
	assert.InDelta(t, 0.2, cfg.Ai.Temperature, 1e-9)
	assert.False(t, cfg.Database.AutoMigrate)
	assert.Equal(t, "required", cfg.Auth.Mode)
}

func TestGetEnvAsDuration_InvalidFallsBack(t *testing.T) {
	t.Setenv("SOME_DURATION", "soon")
	assert.Equal(t, 5*time.Second, getEnvAsDuration("SOME_DURATION", 5*time.Second))
}
