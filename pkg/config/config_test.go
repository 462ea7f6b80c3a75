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

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "preguntas_triaje.json", cfg.Triage.CatalogPath)
	assert.Equal(t, "vvv", cfg.Triage.AdminAPIKey)
	assert.Equal(t, RegistryMemory, cfg.Registry.Backend)
	assert.Empty(t, cfg.Classifier.URL)
	assert.Equal(t, 5*time.Second, cfg.Classifier.Timeout)
	assert.Equal(t, 3, cfg.Classifier.RetryAttempts)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_ClassifierConfig(t *testing.T) {
	t.Setenv("CLASSIFIER_URL", "http://inference:9000")
	t.Setenv("CLASSIFIER_TIMEOUT", "750ms")
	t.Setenv("CLASSIFIER_RATE_LIMIT_RPS", "2.5")
	t.Setenv("ADMIN_API_KEY", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://inference:9000", cfg.Classifier.URL)
	assert.Equal(t, 750*time.Millisecond, cfg.Classifier.Timeout)
	assert.Equal(t, 2.5, cfg.Classifier.RateLimitRPS)
	assert.Equal(t, "s3cret", cfg.Triage.AdminAPIKey)
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	t.Setenv("CLASSIFIER_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Classifier.Timeout)
}

func TestLoad_RejectsUnknownRegistry(t *testing.T) {
	t.Setenv("REGISTRY_BACKEND", "cassandra")

	cfg, err := Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_RedisRegistryRequiresRedis(t *testing.T) {
	t.Setenv("REGISTRY_BACKEND", RegistryRedis)

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("REDIS_ENABLED", "true")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", cfg.Redis.RedisAddr())
}

func TestLoad_AllowedOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://urgencias.example, ,https://panel.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://urgencias.example", "https://panel.example"}, cfg.Server.AllowedOrigins)
}
