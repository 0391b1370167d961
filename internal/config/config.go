package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported catalog store drivers
const (
	StoreElasticsearch = "elasticsearch"
	StorePostgres      = "postgres"
	StoreMemory        = "memory"
)

// Config holds all configuration for the application
type Config struct {
	Env           string
	LogLevel      string
	StoreDriver   string
	Server        ServerConfig
	Elasticsearch ElasticsearchConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	NameGuard     NameGuardConfig
	NATS          NATSConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// ElasticsearchConfig holds the search index configuration
type ElasticsearchConfig struct {
	Addresses  []string
	Username   string
	Password   string
	Index      string
	MaxResults int // documents per search page
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// NameGuardConfig controls the Redis-backed product name reservation
type NameGuardConfig struct {
	Enabled bool
	TTL     time.Duration
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL           string
	EventsEnabled bool
}

// Load reads configuration from environment variables and returns a Config struct
func Load() (*Config, error) {
	viper.AutomaticEnv()

	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "")
	viper.SetDefault("STORE_DRIVER", StoreElasticsearch)

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_READ_TIMEOUT", "10s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "10s")
	viper.SetDefault("SERVER_REQUEST_TIMEOUT", "30s")
	viper.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "30s")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8080")

	viper.SetDefault("ES_ADDRESSES", "http://localhost:9200")
	viper.SetDefault("ES_USERNAME", "")
	viper.SetDefault("ES_PASSWORD", "")
	viper.SetDefault("ES_INDEX", "products")
	viper.SetDefault("ES_MAX_RESULTS", 10000)

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "product_catalog")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "5m")

	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("NAME_GUARD_ENABLED", false)
	viper.SetDefault("NAME_GUARD_TTL", "10s")

	viper.SetDefault("NATS_URL", "nats://localhost:4222")
	viper.SetDefault("EVENTS_ENABLED", false)

	storeDriver := strings.ToLower(strings.TrimSpace(viper.GetString("STORE_DRIVER")))
	switch storeDriver {
	case StoreElasticsearch, StorePostgres, StoreMemory:
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER: %q", storeDriver)
	}

	readTimeout, err := time.ParseDuration(viper.GetString("SERVER_READ_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := time.ParseDuration(viper.GetString("SERVER_WRITE_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT: %w", err)
	}

	requestTimeout, err := time.ParseDuration(viper.GetString("SERVER_REQUEST_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_REQUEST_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := time.ParseDuration(viper.GetString("SERVER_SHUTDOWN_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT: %w", err)
	}

	connMaxLifetime, err := time.ParseDuration(viper.GetString("DB_CONN_MAX_LIFETIME"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
	}

	nameGuardTTL, err := time.ParseDuration(viper.GetString("NAME_GUARD_TTL"))
	if err != nil {
		return nil, fmt.Errorf("invalid NAME_GUARD_TTL: %w", err)
	}

	maxResults := viper.GetInt("ES_MAX_RESULTS")
	if maxResults <= 0 {
		return nil, fmt.Errorf("invalid ES_MAX_RESULTS: %d", maxResults)
	}

	config := &Config{
		Env:         viper.GetString("ENV"),
		LogLevel:    viper.GetString("LOG_LEVEL"),
		StoreDriver: storeDriver,
		Server: ServerConfig{
			Port:            viper.GetString("SERVER_PORT"),
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			RequestTimeout:  requestTimeout,
			ShutdownTimeout: shutdownTimeout,
			AllowedOrigins:  splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Elasticsearch: ElasticsearchConfig{
			Addresses:  splitList(viper.GetString("ES_ADDRESSES")),
			Username:   viper.GetString("ES_USERNAME"),
			Password:   viper.GetString("ES_PASSWORD"),
			Index:      viper.GetString("ES_INDEX"),
			MaxResults: maxResults,
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetString("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			Name:            viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxOpenConns:    viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		NameGuard: NameGuardConfig{
			Enabled: viper.GetBool("NAME_GUARD_ENABLED"),
			TTL:     nameGuardTTL,
		},
		NATS: NATSConfig{
			URL:           viper.GetString("NATS_URL"),
			EventsEnabled: viper.GetBool("EVENTS_ENABLED"),
		},
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}
