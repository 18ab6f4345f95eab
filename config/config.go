// Package config loads application configuration from the environment.
// Every setting has a default that works for local development except
// the two real secrets: the Steam Web API key and the auth secret.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment represents the application environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config holds all application configuration.
type Config struct {
	// Application
	App AppConfig

	// HTTP server
	Server ServerConfig

	// Steam Web API
	Steam SteamConfig

	// Sessions
	Auth AuthConfig

	// Redis (optional shared stat cache)
	Redis RedisConfig

	// PostgreSQL (optional durable refresh-token store)
	Database DatabaseConfig
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string
	Environment Environment
	Debug       bool

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host               string
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	AllowedOrigins     []string
	RateLimitPerMinute int
	EnableMetrics      bool
	CookieDomain       string
	CookieSecure       bool
	DevLoginEnabled    bool
}

// SteamConfig holds Steam Web API settings.
type SteamConfig struct {
	// APIKey is the Steam Web API key. Required.
	APIKey string

	// BaseURL is the Web API base URL.
	BaseURL string

	// StoreBaseURL is the storefront base URL.
	StoreBaseURL string

	// Timeout is the per-request upstream timeout.
	Timeout time.Duration

	// UsageGateSize bounds concurrent playtime fetches process-wide.
	UsageGateSize int

	// LevelGateSize bounds concurrent level fetches process-wide.
	LevelGateSize int

	// StoreMinInterval paces storefront calls.
	StoreMinInterval time.Duration
}

// AuthConfig holds session settings.
type AuthConfig struct {
	// Secret the access-token signing key derives from. Required.
	Secret string

	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	// Enabled switches the stat cache from in-process to Redis.
	Enabled bool

	Host     string
	Port     int
	Password string
	DB       int
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// Enabled switches refresh tokens from in-memory to PostgreSQL.
	Enabled bool

	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:            getEnv("APP_NAME", "steam-gametime-hub"),
			Environment:     Environment(getEnv("APP_ENV", string(EnvDevelopment))),
			Debug:           getEnvBool("APP_DEBUG", true),
			ShutdownTimeout: getEnvDuration("APP_SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Server: ServerConfig{
			Host:               getEnv("HTTP_HOST", "0.0.0.0"),
			Port:               getEnvInt("HTTP_PORT", 8080),
			ReadTimeout:        getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:       getEnvDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:        getEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			AllowedOrigins:     getEnvSlice("HTTP_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
			RateLimitPerMinute: getEnvInt("HTTP_RATE_LIMIT_PER_MINUTE", 100),
			EnableMetrics:      getEnvBool("HTTP_ENABLE_METRICS", true),
			CookieDomain:       getEnv("HTTP_COOKIE_DOMAIN", ""),
			CookieSecure:       getEnvBool("HTTP_COOKIE_SECURE", false),
			DevLoginEnabled:    getEnvBool("HTTP_DEV_LOGIN", false),
		},
		Steam: SteamConfig{
			APIKey:           getEnv("STEAM_API_KEY", ""),
			BaseURL:          getEnv("STEAM_API_BASE_URL", "https://api.steampowered.com"),
			StoreBaseURL:     getEnv("STEAM_STORE_BASE_URL", "https://store.steampowered.com"),
			Timeout:          getEnvDuration("STEAM_TIMEOUT", 12*time.Second),
			UsageGateSize:    getEnvInt("STEAM_USAGE_GATE", 8),
			LevelGateSize:    getEnvInt("STEAM_LEVEL_GATE", 8),
			StoreMinInterval: getEnvDuration("STEAM_STORE_MIN_INTERVAL", 150*time.Millisecond),
		},
		Auth: AuthConfig{
			Secret:     getEnv("AUTH_SECRET", ""),
			Issuer:     getEnv("AUTH_ISSUER", "gametime-hub"),
			Audience:   getEnv("AUTH_AUDIENCE", "gametime-hub-spa"),
			AccessTTL:  getEnvDuration("AUTH_ACCESS_TTL", 7*24*time.Hour),
			RefreshTTL: getEnvDuration("AUTH_REFRESH_TTL", 30*24*time.Hour),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Database: DatabaseConfig{
			Enabled:  getEnvBool("DATABASE_ENABLED", false),
			Host:     getEnv("DATABASE_HOST", "localhost"),
			Port:     getEnvInt("DATABASE_PORT", 5432),
			Database: getEnv("DATABASE_NAME", "gametime"),
			User:     getEnv("DATABASE_USER", "gametime"),
			Password: getEnv("DATABASE_PASSWORD", ""),
			SSLMode:  getEnv("DATABASE_SSLMODE", "disable"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for fatal mistakes.
func (c *Config) Validate() error {
	if c.Steam.APIKey == "" {
		return fmt.Errorf("config: STEAM_API_KEY is required")
	}
	if c.Auth.Secret == "" {
		return fmt.Errorf("config: AUTH_SECRET is required")
	}
	if c.Steam.UsageGateSize <= 0 || c.Steam.LevelGateSize <= 0 {
		return fmt.Errorf("config: gate sizes must be positive")
	}
	if c.App.Environment == EnvProduction {
		if c.Server.DevLoginEnabled {
			return fmt.Errorf("config: HTTP_DEV_LOGIN must be off in production")
		}
		if !c.Server.CookieSecure {
			return fmt.Errorf("config: HTTP_COOKIE_SECURE must be on in production")
		}
	}
	return nil
}

// IsDevelopment reports whether the app runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

func getEnvInt(key string, defaultVal int) int {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

func getEnvSlice(key string, defaultVal []string) []string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return defaultVal
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
