package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("CLASSIFIER_TIMEOUT_SECONDS", "")
	t.Setenv("CLASSIFIER_RATE_LIMIT_RPS", "")
	t.Setenv("APP_PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.False(t, cfg.Classifier.HasCredential())
	assert.Equal(t, 10*time.Second, cfg.Classifier.Timeout())
	assert.Equal(t, 0.0, cfg.Classifier.RateLimitRPS)
	assert.Equal(t, 60, cfg.Classifier.MaxTokens)
}

func TestLoadClassifierOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-test")
	t.Setenv("CLASSIFIER_TIMEOUT_SECONDS", "3")
	t.Setenv("CLASSIFIER_RATE_LIMIT_RPS", "2.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Classifier.HasCredential())
	assert.Equal(t, "gpt-test", cfg.Classifier.Model)
	assert.Equal(t, 3*time.Second, cfg.Classifier.Timeout())
	assert.Equal(t, 2.5, cfg.Classifier.RateLimitRPS)
}

func TestLoadInvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadEmptyRedisAddrDisablesRedis(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Redis.Addr)
}

func TestTimeoutFallsBackWhenNonPositive(t *testing.T) {
	assert.Equal(t, 10*time.Second, ClassifierConfig{TimeoutSeconds: -1}.Timeout())
	assert.Equal(t, time.Duration(0), AppConfig{RequestTimeoutSeconds: 0}.RequestTimeout())
}

func TestInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("CLASSIFIER_MAX_TOKENS", "many")
	t.Setenv("CLASSIFIER_RATE_LIMIT_RPS", "fast")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Classifier.MaxTokens)
	assert.Equal(t, 0.0, cfg.Classifier.RateLimitRPS)
}
