package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Cache         CacheConfig
	Broker        BrokerConfig
	Observability ObservabilityConfig
	Security      SecurityConfig
	RateLimit     RateLimitConfig
	Ingest        IngestConfig
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// FrontendDir holds the built frontend served at the root. Empty
	// disables it.
	FrontendDir string
	// TrustedProxies are the addresses or CIDRs of reverse proxies whose
	// X-Forwarded-For and X-Real-IP headers are believed.
	TrustedProxies []string
}

// DatabaseConfig holds database configuration. Driver is "mysql" or "pgx".
type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            string
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// AuthConfig describes how bearer tokens are verified.
type AuthConfig struct {
	Issuer     string
	JWKSURL    string
	ClientID   string
	HMACSecret string
	Leeway     time.Duration
}

// CacheConfig holds the report cache settings. An empty RedisAddr keeps
// the cache in process memory.
type CacheConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Prefix        string
	TTL           time.Duration
}

// BrokerConfig holds RabbitMQ settings. Without a URL, import events are
// handled in process.
type BrokerConfig struct {
	URL             string
	ConsumerEnabled bool
}

// ObservabilityConfig holds logging and tracing configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string
	OTELEnabled    bool
	OTELEndpoint   string
	SamplingRate   float64
	ServiceName    string
	ServiceVersion string
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	// TenantSecretKey is the base64 key sealing secret tenant_config values.
	TenantSecretKey string
}

// IngestConfig locates bank import profiles.
type IngestConfig struct {
	ProfilesDir string
}

// Load loads configuration from environment variables. Values from a .env
// file (or ENV_FILE) fill in variables that are not already set.
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	driver := getEnv("DB_DRIVER", "mysql")
	defaultPort := "3306"
	if driver == "pgx" {
		defaultPort = "5432"
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnv("SERVER_PORT", "5000"),
			ReadTimeout:    parseDuration("SERVER_READ_TIMEOUT", "15s"),
			WriteTimeout:   parseDuration("SERVER_WRITE_TIMEOUT", "60s"),
			IdleTimeout:    parseDuration("SERVER_IDLE_TIMEOUT", "60s"),
			FrontendDir:    getEnv("FRONTEND_DIR", ""),
			TrustedProxies: parseList("TRUSTED_PROXIES"),
		},
		Database: DatabaseConfig{
			Driver:          driver,
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", defaultPort),
			User:            getEnv("DB_USER", "myadmin"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "finance"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    parseInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    parseInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: parseDuration("DB_CONN_MAX_LIFETIME", "5m"),
		},
		Auth: AuthConfig{
			Issuer:     getEnv("COGNITO_ISSUER", ""),
			JWKSURL:    getEnv("COGNITO_JWKS_URL", ""),
			ClientID:   getEnv("COGNITO_CLIENT_ID", ""),
			HMACSecret: getEnv("JWT_HMAC_SECRET", ""),
			Leeway:     parseDuration("JWT_LEEWAY", "30s"),
		},
		Cache: CacheConfig{
			Enabled:       parseBool("CACHE_ENABLED", true),
			RedisAddr:     getEnv("REDIS_ADDR", ""),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       parseInt("REDIS_DB", 0),
			Prefix:        getEnv("CACHE_PREFIX", "myadmin"),
			TTL:           parseDuration("CACHE_TTL", "5m"),
		},
		Broker: BrokerConfig{
			URL:             getEnv("RABBITMQ_URL", ""),
			ConsumerEnabled: parseBool("RABBITMQ_CONSUMER_ENABLED", true),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			OTELEnabled:    parseBool("OTEL_ENABLED", false),
			OTELEndpoint:   getEnv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", ""),
			SamplingRate:   parseFloat("OTEL_SAMPLING_RATE", 1.0),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "myadmin"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "0.1.0"),
		},
		Security: SecurityConfig{
			TenantSecretKey: getEnv("TENANT_SECRET_KEY", ""),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: parseFloat("RATELIMIT_RPS", 10),
			Burst:             parseInt("RATELIMIT_BURST", 20),
		},
		Ingest: IngestConfig{
			ProfilesDir: getEnv("IMPORT_PROFILES_DIR", "profiles"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// minHMACSecret is the shortest accepted shared secret for HS256.
const minHMACSecret = 32

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "mysql", "pgx":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be mysql or pgx, got %q", c.Database.Driver))
	}
	if c.Database.Password == "" {
		errs = append(errs, errors.New("DB_PASSWORD is required"))
	}
	if c.Auth.Issuer == "" && c.Auth.JWKSURL == "" && c.Auth.HMACSecret == "" {
		errs = append(errs, errors.New("one of COGNITO_ISSUER, COGNITO_JWKS_URL or JWT_HMAC_SECRET is required"))
	}
	if c.Auth.HMACSecret != "" && len(c.Auth.HMACSecret) < minHMACSecret {
		errs = append(errs, fmt.Errorf("JWT_HMAC_SECRET must be at least %d characters", minHMACSecret))
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("RATELIMIT_RPS and RATELIMIT_BURST must be positive"))
	}
	for _, p := range c.Server.TrustedProxies {
		if _, err := netip.ParsePrefix(p); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(p); err != nil {
			errs = append(errs, fmt.Errorf("TRUSTED_PROXIES: %q is not an address or CIDR", p))
		}
	}
	return errors.Join(errs...)
}

// Addr is the listen address of the HTTP server.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

func loadEnvFile() error {
	path := getEnv("ENV_FILE", ".env")
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func parseFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func parseBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// parseList splits a comma-separated variable, dropping empty items.
func parseList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseDuration(key string, defaultValue string) time.Duration {
	value := getEnv(key, defaultValue)
	d, err := time.ParseDuration(value)
	if err != nil {
		// Fallback to default
		d, _ = time.ParseDuration(defaultValue)
	}
	return d
}
