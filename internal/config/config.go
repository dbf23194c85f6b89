// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Redis       RedisConfig
	Cache       CacheConfig
	Pagination  PaginationConfig
	Throttle    ThrottleConfig
	Logging     LoggingConfig
	Tracing     TracingConfig
	Admin       AdminConfig
}

type ServerConfig struct {
	Port           string
	Host           string
	ReadTimeout    int
	WriteTimeout   int
	IdleTimeout    int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
	QueryTimeout time.Duration
}

type JWTConfig struct {
	SecretKey       string
	AccessTokenTTL  int // in hours
	RefreshTokenTTL int // in hours
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type CacheConfig struct {
	Backend        string // "memory" or "redis"
	Capacity       int
	NumShards      int
	Timeout        time.Duration
	ProductListTTL time.Duration
	OrderListTTL   time.Duration
}

type PaginationConfig struct {
	PageSize         int
	MaxPageSize      int
	DefaultLimit     int
	MaxLimit         int
	ProductListStyle string // "page_number", "limit_offset" or "none"
	OrderListStyle   string
}

type ThrottleConfig struct {
	ProductRate string
	OrdersRate  string
	AuthRate    string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type TracingConfig struct {
	Enabled     bool
	ServiceName string
}

// AdminConfig seeds the first staff account when the users table has none.
type AdminConfig struct {
	Username string
	Email    string
	Password string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			Host:           getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:    getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout:   getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:    getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "catalog"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "silent"),
			QueryTimeout: getEnvAsDuration("DB_QUERY_TIMEOUT", 5*time.Second),
		},
		JWT: JWTConfig{
			SecretKey:       getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenTTL:  getEnvAsInt("JWT_ACCESS_TTL", 24),   // 24 hours
			RefreshTokenTTL: getEnvAsInt("JWT_REFRESH_TTL", 168), // 7 days
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Cache: CacheConfig{
			Backend:        strings.ToLower(getEnv("CACHE_BACKEND", "memory")),
			Capacity:       getEnvAsInt("CACHE_CAPACITY", 10000),
			NumShards:      getEnvAsInt("CACHE_SHARDS", 64),
			Timeout:        getEnvAsDuration("CACHE_TIMEOUT", 500*time.Millisecond),
			ProductListTTL: getEnvAsDuration("CACHE_PRODUCT_LIST_TTL", 2*time.Hour),
			OrderListTTL:   getEnvAsDuration("CACHE_ORDER_LIST_TTL", 15*time.Minute),
		},
		Pagination: PaginationConfig{
			PageSize:         getEnvAsInt("PAGE_SIZE", 2),
			MaxPageSize:      getEnvAsInt("MAX_PAGE_SIZE", 10),
			DefaultLimit:     getEnvAsInt("DEFAULT_LIMIT", 10),
			MaxLimit:         getEnvAsInt("MAX_LIMIT", 100),
			ProductListStyle: getEnv("PRODUCT_PAGINATION", "page_number"),
			OrderListStyle:   getEnv("ORDER_PAGINATION", "limit_offset"),
		},
		Throttle: ThrottleConfig{
			ProductRate: getEnv("THROTTLE_PRODUCT_RATE", "100/minute"),
			OrdersRate:  getEnv("THROTTLE_ORDERS_RATE", "60/minute"),
			AuthRate:    getEnv("THROTTLE_AUTH_RATE", "5/minute"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("TRACING_ENABLED", false),
			ServiceName: getEnv("TRACING_SERVICE_NAME", "catalog-api"),
		},
		Admin: AdminConfig{
			Username: getEnv("ADMIN_USERNAME", "admin"),
			Email:    getEnv("ADMIN_EMAIL", "admin@example.com"),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if c.Cache.Backend != "memory" && c.Cache.Backend != "redis" {
		return fmt.Errorf("unsupported cache backend %q", c.Cache.Backend)
	}

	for name, style := range map[string]string{
		"PRODUCT_PAGINATION": c.Pagination.ProductListStyle,
		"ORDER_PAGINATION":   c.Pagination.OrderListStyle,
	} {
		switch style {
		case "page_number", "limit_offset", "none":
		default:
			return fmt.Errorf("%s must be one of page_number, limit_offset, none; got %q", name, style)
		}
	}

	if c.Pagination.PageSize < 1 || c.Pagination.DefaultLimit < 1 {
		return fmt.Errorf("page size and default limit must be positive")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
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
	return out
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("15m") or plain seconds ("900").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
