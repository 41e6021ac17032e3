package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	CredentialBackendFile     = "file"
	CredentialBackendPostgres = "postgres"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv               string
	Port                 string
	KreaBaseURL          string
	DefaultToken         string
	CredentialBackend    string
	CredentialDir        string
	DatabaseURL          string
	PollInterval         time.Duration
	ImageMaxAttempts     int
	VideoMaxAttempts     int
	BatchMaxRounds       int
	BatchPollConcurrency int
	HTTPClientTimeout    time.Duration
	HTTPReadTimeout      time.Duration
	HTTPWriteTimeout     time.Duration
	HTTPIdleTimeout      time.Duration
	RateLimitPerMin      int
	CORSAllowedOrigins   []string
	DefaultLocale        string
	GeoIPDBPath          string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:               getEnv("APP_ENV", "development"),
		Port:                 getEnv("PORT", "8080"),
		KreaBaseURL:          getEnv("KREA_API_BASE_URL", "https://api.krea.ai"),
		DefaultToken:         strings.TrimSpace(os.Getenv("KREA_API_TOKEN")),
		CredentialBackend:    strings.ToLower(getEnv("CREDENTIAL_BACKEND", CredentialBackendFile)),
		CredentialDir:        getEnv("CREDENTIAL_DIR", defaultCredentialDir()),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		PollInterval:         time.Millisecond * time.Duration(getEnvInt("POLL_INTERVAL_MS", 5000)),
		ImageMaxAttempts:     getEnvInt("IMAGE_MAX_ATTEMPTS", 60),
		VideoMaxAttempts:     getEnvInt("VIDEO_MAX_ATTEMPTS", 120),
		BatchMaxRounds:       getEnvInt("BATCH_MAX_ROUNDS", 60),
		BatchPollConcurrency: getEnvInt("BATCH_POLL_CONCURRENCY", 4),
		HTTPClientTimeout:    time.Second * time.Duration(getEnvInt("HTTP_CLIENT_TIMEOUT_SECONDS", 30)),
		HTTPReadTimeout:      time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:     time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:      time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:      getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		CORSAllowedOrigins:   getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		DefaultLocale:        getEnv("DEFAULT_LOCALE", "en"),
		GeoIPDBPath:          os.Getenv("GEOIP_DB_PATH"),
	}

	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL_MS must be positive")
	}
	if cfg.ImageMaxAttempts <= 0 || cfg.VideoMaxAttempts <= 0 || cfg.BatchMaxRounds <= 0 {
		return nil, fmt.Errorf("poll attempt budgets must be positive")
	}
	if cfg.BatchPollConcurrency <= 0 {
		return nil, fmt.Errorf("BATCH_POLL_CONCURRENCY must be positive")
	}

	switch cfg.CredentialBackend {
	case CredentialBackendFile:
		if strings.TrimSpace(cfg.CredentialDir) == "" {
			return nil, fmt.Errorf("CREDENTIAL_DIR is required for the file credential backend")
		}
	case CredentialBackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres credential backend")
		}
	default:
		return nil, fmt.Errorf("unsupported CREDENTIAL_BACKEND %q", cfg.CredentialBackend)
	}

	return cfg, nil
}

func defaultCredentialDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "mediagen")
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".config", "mediagen")
	}
	return ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
