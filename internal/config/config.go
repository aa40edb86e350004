package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// DefaultAPIURL is the DeepL Pro endpoint. Free-tier keys need
// DEEPL_API_URL=https://api-free.deepl.com/v2/translate.
const DefaultAPIURL = "https://api.deepl.com/v2/translate"

// ErrMissingAPIKey is returned when no DeepL credential is configured.
var ErrMissingAPIKey = errors.New("DEEPL_API_KEY not set (set it in the environment or a .env file)")

type Config struct {
	DeepLAPIKey         string
	DeepLAPIURL         string
	DatabaseURL         string
	DefaultLanguage     string
	WorkerCount         int
	MaxRetries          int
	RequestTimeout      time.Duration
	RetranslateExisting bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using environment variables")
	}

	return &Config{
		DeepLAPIKey:         getEnv("DEEPL_API_KEY", ""),
		DeepLAPIURL:         getEnv("DEEPL_API_URL", DefaultAPIURL),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		DefaultLanguage:     getEnv("DEFAULT_LANGUAGE", "german"),
		WorkerCount:         getEnvInt("WORKER_COUNT", 1),
		MaxRetries:          getEnvInt("MAX_RETRIES", 3),
		RequestTimeout:      time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
		RetranslateExisting: getEnvBool("RETRANSLATE_EXISTING", false),
	}
}

// Validate checks that the configuration is complete enough to start
// processing. A missing credential is fatal before any file is touched.
func (c *Config) Validate() error {
	if c.DeepLAPIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
