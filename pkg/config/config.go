package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Registry backends
const (
	RegistryMemory   = "memory"
	RegistryRedis    = "redis"
	RegistryPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Triage     TriageConfig
	Registry   RegistryConfig
	Classifier ClassifierConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	OTEL       OTELConfig
	Log        LogConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// TriageConfig holds the rule engine inputs and the admin secret
type TriageConfig struct {
	CatalogPath string
	AdminAPIKey string
}

// RegistryConfig selects where patient records live
type RegistryConfig struct {
	Backend string
}

// ClassifierConfig holds text classifier configuration.
// An empty URL selects the local keyword classifier.
type ClassifierConfig struct {
	URL           string
	Timeout       time.Duration
	RateLimitRPS  float64
	RateBurst     int
	RetryAttempts int
	CacheTTL      time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
	// CachePrefix namespaces classifier cache keys
	CachePrefix string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// LogConfig holds logger configuration
type LogConfig struct {
	Env   string
	Level string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8000),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		},
		Triage: TriageConfig{
			CatalogPath: getEnv("TRIAGE_CATALOG_PATH", "preguntas_triaje.json"),
			AdminAPIKey: getEnv("ADMIN_API_KEY", "vvv"),
		},
		Registry: RegistryConfig{
			Backend: getEnv("REGISTRY_BACKEND", RegistryMemory),
		},
		Classifier: ClassifierConfig{
			URL:           getEnv("CLASSIFIER_URL", ""),
			Timeout:       getEnvAsDuration("CLASSIFIER_TIMEOUT", 5*time.Second),
			RateLimitRPS:  getEnvAsFloat("CLASSIFIER_RATE_LIMIT_RPS", 10),
			RateBurst:     getEnvAsInt("CLASSIFIER_RATE_BURST", 5),
			RetryAttempts: getEnvAsInt("CLASSIFIER_RETRY_ATTEMPTS", 3),
			CacheTTL:      getEnvAsDuration("CLASSIFIER_CACHE_TTL", 10*time.Minute),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "clinical_triage"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			PoolSize: getEnvAsInt("REDIS_POOL_SIZE", 0),

			CachePrefix: getEnv("REDIS_CACHE_PREFIX", "triage:cache:"),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "clinical-triage"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Log: LogConfig{
			Env:   getEnv("APP_ENV", "development"),
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with
func (c *Config) Validate() error {
	if c.Triage.CatalogPath == "" {
		return errors.New("TRIAGE_CATALOG_PATH must not be empty")
	}
	if c.Triage.AdminAPIKey == "" {
		return errors.New("ADMIN_API_KEY must not be empty")
	}
	switch c.Registry.Backend {
	case RegistryMemory, RegistryPostgres:
	case RegistryRedis:
		if !c.Redis.Enabled {
			return errors.New("REGISTRY_BACKEND=redis requires REDIS_ENABLED=true")
		}
	default:
		return fmt.Errorf("unknown REGISTRY_BACKEND %q", c.Registry.Backend)
	}
	if c.Classifier.Timeout <= 0 {
		return errors.New("CLASSIFIER_TIMEOUT must be positive")
	}
	if c.Classifier.RetryAttempts < 1 {
		return errors.New("CLASSIFIER_RETRY_ATTEMPTS must be at least 1")
	}
	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
