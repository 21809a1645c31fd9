package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// MaxRetryAttempts bounds RETRY_MAX_ATTEMPTS.
const MaxRetryAttempts = 10

// Pacing modes accepted by PACING_MODE.
const (
	PacingFixed = "fixed"
	PacingToken = "token"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv   string
	LogLevel string
	Port     string

	GeminiAPIKey     string
	GeminiBaseURL    string
	GeminiTextModel  string
	GeminiImageModel string
	BackendTimeout   time.Duration

	RetryMaxAttempts  int
	RetryInitialDelay time.Duration
	PacingMode        string
	PacingDelay       time.Duration

	DatabaseURL   string
	DBMaxConns    int
	HistoryDBPath string
	StoragePath   string
	GeoIPDBPath   string

	DefaultLocale      string
	CORSAllowedOrigins []string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		LogLevel:          os.Getenv("LOG_LEVEL"),
		Port:              getEnv("PORT", "8080"),
		GeminiAPIKey:      strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiBaseURL:     getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiTextModel:   getEnv("GEMINI_TEXT_MODEL", "gemini-2.5-flash"),
		GeminiImageModel:  getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		BackendTimeout:    time.Second * time.Duration(getEnvInt("GEMINI_TIMEOUT_SECONDS", 120)),
		RetryMaxAttempts:  getEnvInt("RETRY_MAX_ATTEMPTS", 3),
		RetryInitialDelay: time.Millisecond * time.Duration(getEnvInt("RETRY_INITIAL_DELAY_MS", 2000)),
		PacingMode:        strings.ToLower(getEnv("PACING_MODE", PacingFixed)),
		PacingDelay:       time.Millisecond * time.Duration(getEnvInt("PACING_DELAY_MS", 1500)),
		DatabaseURL:       strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:        getEnvInt("DB_MAX_CONNS", 4),
		HistoryDBPath:     strings.TrimSpace(os.Getenv("HISTORY_DB_PATH")),
		StoragePath:       getEnv("STORAGE_PATH", "./storage"),
		GeoIPDBPath:       os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:     getEnv("DEFAULT_LOCALE", "en"),
		HTTPReadTimeout:   time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:  time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:   time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:   getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}
	cfg.CORSAllowedOrigins = splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"))

	if cfg.RetryMaxAttempts < 1 || cfg.RetryMaxAttempts > MaxRetryAttempts {
		return nil, fmt.Errorf("RETRY_MAX_ATTEMPTS must be between 1 and %d, got %d", MaxRetryAttempts, cfg.RetryMaxAttempts)
	}
	if cfg.RetryInitialDelay < 0 || cfg.PacingDelay < 0 {
		return nil, fmt.Errorf("retry and pacing delays must not be negative")
	}
	switch cfg.PacingMode {
	case PacingFixed, PacingToken:
	default:
		return nil, fmt.Errorf("PACING_MODE must be %q or %q, got %q", PacingFixed, PacingToken, cfg.PacingMode)
	}

	return cfg, nil
}

// SyntheticBackend reports whether generation runs without a Gemini key.
func (c *Config) SyntheticBackend() bool {
	return c == nil || c.GeminiAPIKey == ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
