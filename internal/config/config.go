package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const defaultUpstreamURL = "http://localhost:8000"

// Config holds all application configuration
type Config struct {
	UpstreamURL     string        `env:"API_URL" envDefault:"http://localhost:8000"`
	ClientBaseURL   string        `env:"CLIENT_BASE_URL"` // empty means talk to the upstream directly
	GatewayAddr     string        `env:"GATEWAY_ADDR" envDefault:":3000"`
	ProxyPrefix     string        `env:"PROXY_PREFIX" envDefault:"/api"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30"` // seconds
	RequestsPerSec  int           `env:"REQUESTS_PER_SEC" envDefault:"5"`
	MaxRetries      int           `env:"MAX_RETRIES" envDefault:"2"`
	MaxRetryTimeout time.Duration `env:"MAX_RETRY_TIMEOUT" envDefault:"30"` // seconds
	StorageDriver   string        `env:"STORAGE_DRIVER" envDefault:"sqlite"`
	SQLitePath      string        `env:"SQLITE_PATH"`
	DB              DBConfig
	HistoryLimit    int           `env:"HISTORY_LIMIT" envDefault:"10"`
	HealthInterval  time.Duration `env:"HEALTH_INTERVAL" envDefault:"30s"`
	InfoInterval    time.Duration `env:"INFO_INTERVAL" envDefault:"60s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty       bool          `env:"LOG_PRETTY" envDefault:"false"`
}

// DBConfig holds PostgreSQL connection parameters for the postgres storage driver
type DBConfig struct {
	Host     string `env:"DB_HOST"`
	Port     string `env:"DB_PORT"`
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`
	DBName   string `env:"DB_NAME"`
	SSLMode  string `env:"DB_SSLMODE"`
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.UpstreamURL = getEnvWithDefault("API_URL", getEnvWithDefault("NEXT_PUBLIC_API_URL", defaultUpstreamURL))
	cfg.UpstreamURL = strings.TrimRight(cfg.UpstreamURL, "/")
	cfg.ClientBaseURL = strings.TrimRight(os.Getenv("CLIENT_BASE_URL"), "/")
	cfg.GatewayAddr = getEnvWithDefault("GATEWAY_ADDR", ":3000")
	cfg.ProxyPrefix = getEnvWithDefault("PROXY_PREFIX", "/api")
	cfg.RequestTimeout = time.Duration(getEnvIntWithDefault("REQUEST_TIMEOUT", 30)) * time.Second
	cfg.RequestsPerSec = getEnvIntWithDefault("REQUESTS_PER_SEC", 5)
	cfg.MaxRetries = getEnvIntWithDefault("MAX_RETRIES", 2)
	cfg.MaxRetryTimeout = time.Duration(getEnvIntWithDefault("MAX_RETRY_TIMEOUT", 30)) * time.Second
	cfg.StorageDriver = strings.ToLower(getEnvWithDefault("STORAGE_DRIVER", "sqlite"))
	cfg.SQLitePath = getEnvWithDefault("SQLITE_PATH", defaultSQLitePath())
	cfg.DB = DBConfig{
		Host:     getEnvWithDefault("DB_HOST", "localhost"),
		Port:     getEnvWithDefault("DB_PORT", "5432"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		DBName:   os.Getenv("DB_NAME"),
		SSLMode:  getEnvWithDefault("DB_SSLMODE", "disable"),
	}
	cfg.HistoryLimit = getEnvIntWithDefault("HISTORY_LIMIT", 10)
	cfg.HealthInterval = getEnvDurationWithDefault("HEALTH_INTERVAL", 30*time.Second)
	cfg.InfoInterval = getEnvDurationWithDefault("INFO_INTERVAL", 60*time.Second)
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.LogPretty = getEnvBoolWithDefault("LOG_PRETTY", false)

	return &cfg, nil
}

// ClientURL returns the base URL the RemoteClient should call
func (c *Config) ClientURL() string {
	if c.ClientBaseURL != "" {
		return c.ClientBaseURL
	}
	return c.UpstreamURL
}

// defaultSQLitePath places the local state next to the user's other app configs
func defaultSQLitePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "tweetmood", "state.db")
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

// getEnvDurationWithDefault accepts Go durations ("45s") or bare seconds ("45")
func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
