package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DEEPL_API_KEY", "key-123")
	for _, key := range []string{
		"DEEPL_API_URL", "DATABASE_URL", "DEFAULT_LANGUAGE",
		"WORKER_COUNT", "MAX_RETRIES", "REQUEST_TIMEOUT_SECONDS",
		"RETRANSLATE_EXISTING",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "key-123", cfg.DeepLAPIKey)
	assert.Equal(t, DefaultAPIURL, cfg.DeepLAPIURL)
	assert.Equal(t, "", cfg.DatabaseURL)
	assert.Equal(t, "german", cfg.DefaultLanguage)
	assert.Equal(t, 1, cfg.WorkerCount)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.RetranslateExisting)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DEEPL_API_KEY", "key-123")
	t.Setenv("DEEPL_API_URL", "https://api-free.deepl.com/v2/translate")
	t.Setenv("DEFAULT_LANGUAGE", "polish")
	t.Setenv("WORKER_COUNT", "4")
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "30")
	t.Setenv("RETRANSLATE_EXISTING", "true")

	cfg := Load()
	assert.Equal(t, "https://api-free.deepl.com/v2/translate", cfg.DeepLAPIURL)
	assert.Equal(t, "polish", cfg.DefaultLanguage)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.RetranslateExisting)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("WORKER_COUNT", "many")
	t.Setenv("RETRANSLATE_EXISTING", "maybe")

	cfg := Load()
	assert.Equal(t, 1, cfg.WorkerCount)
	assert.False(t, cfg.RetranslateExisting)
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	require.ErrorIs(t, err, ErrMissingAPIKey)

	cfg.DeepLAPIKey = "key-123"
	assert.NoError(t, cfg.Validate())
}
