package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	SupabaseURL     string
	SupabaseAnonKey string
	CoverBucket     string
	Port            string
	Environment     string
	LogLevel        string
	SessionDuration time.Duration
	PageSize        int
	AllowedOrigins  string
}

// Load reads the configuration from the environment. The backend URL and
// publishable key have no sensible defaults; without them nothing works, so
// missing values are reported as an error and the caller is expected to
// abort startup.
func Load() (*Config, error) {
	var missing []string

	supabaseURL := os.Getenv("SUPABASE_URL")
	if supabaseURL == "" {
		missing = append(missing, "SUPABASE_URL")
	}

	anonKey := os.Getenv("SUPABASE_ANON_KEY")
	if anonKey == "" {
		missing = append(missing, "SUPABASE_ANON_KEY")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	cfg := &Config{
		SupabaseURL:     supabaseURL,
		SupabaseAnonKey: anonKey,
		CoverBucket:     getEnv("COVER_BUCKET", "bookcovers"),
		Port:            getEnv("PORT", "8080"),
		Environment:     getEnv("ENV", "production"),
		LogLevel:        getEnv("LOG_LEVEL", "INFO"),
		SessionDuration: getEnvDuration("SESSION_DURATION", 168*time.Hour),
		PageSize:        getEnvInt("PAGE_SIZE", 5),
		AllowedOrigins:  getEnv("ALLOWED_ORIGINS", "http://localhost:8080"),
	}

	if cfg.PageSize < 1 {
		cfg.PageSize = 5
	}

	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return i
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
