package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/gvserver/pkg/middleware"
	"github.com/platinummonkey/gvserver/pkg/observability"
)

// minJWTSecretLength is the HS256 key size in bytes
const minJWTSecretLength = 32

// Config holds all application configuration
type Config struct {
	Application   ApplicationConfig   `yaml:"application"`
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Hashing       HashingConfig       `yaml:"hashing"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ApplicationConfig holds the API listener and token settings
type ApplicationConfig struct {
	Host          string        `yaml:"host"`
	Port          int           `yaml:"port"`
	BaseURL       string        `yaml:"base_url"`
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenValidity time.Duration `yaml:"token_validity"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes"`
}

// Address returns host:port for the API listener
func (a ApplicationConfig) Address() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// ServerConfig holds HTTP server timeouts and the ops listener
type ServerConfig struct {
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Health/metrics server (separate port for k8s probes)
	OpsPort int `yaml:"ops_port"`
}

// DatabaseConfig holds PostgreSQL connection and pool settings
type DatabaseConfig struct {
	// URL, when set, wins over the discrete fields below
	URL          string `yaml:"url"`
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	DatabaseName string `yaml:"database_name"`
	RequireSSL   bool   `yaml:"require_ssl"`

	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	AcquireTimeout  time.Duration `yaml:"acquire_timeout"`
	MigrateOnStart  bool          `yaml:"migrate_on_start"`
}

// ConnectionString returns the lib/pq connection URL
func (d DatabaseConfig) ConnectionString() string {
	if d.URL != "" {
		return d.URL
	}

	sslMode := "disable"
	if d.RequireSSL {
		sslMode = "require"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.Username, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.DatabaseName,
		RawQuery: url.Values{"sslmode": []string{sslMode}}.Encode(),
	}
	return u.String()
}

// RedisConfig holds the optional Redis connection used for rate limiting
type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Enabled reports whether a Redis URL is configured
func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}

// RateLimitConfig holds the login/signup limits
type RateLimitConfig struct {
	Enabled           bool          `yaml:"enabled"`
	RequestsPerWindow int           `yaml:"requests_per_window"`
	Window            time.Duration `yaml:"window"`
	// IPs or CIDRs of reverse proxies whose X-Forwarded-For is believed
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// HashingConfig sizes the password hashing pool
type HashingConfig struct {
	Workers int `yaml:"workers"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel string `yaml:"log_level"`

	// Metrics
	MetricsEnabled bool `yaml:"metrics_enabled"`

	// OpenTelemetry
	OTelEnabled     bool   `yaml:"otel_enabled"`
	OTelEndpoint    string `yaml:"otel_endpoint"`
	OTelServiceName string `yaml:"otel_service_name"`
	OTelInsecure    bool   `yaml:"otel_insecure"` // Use insecure gRPC connection
	// Fraction of root traces kept, in [0, 1]
	OTelSampleRatio float64 `yaml:"otel_sample_ratio"`
}

// Level parses LogLevel, falling back to info
func (o ObservabilityConfig) Level() observability.LogLevel {
	return observability.ParseLogLevel(o.LogLevel)
}

// Default returns a configuration with every optional value filled in.
// jwt_secret and the database location still have to be supplied.
func Default() *Config {
	return &Config{
		Application: ApplicationConfig{
			Host:          "0.0.0.0",
			Port:          8000,
			TokenValidity: 7 * 24 * time.Hour,
			MaxBodyBytes:  20 << 20,
		},
		Server: ServerConfig{
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			OpsPort:         9090,
		},
		Database: DatabaseConfig{
			Port:            5432,
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			AcquireTimeout:  2 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerWindow: 20,
			Window:            time.Minute,
		},
		Hashing: HashingConfig{
			Workers: 4,
		},
		Observability: ObservabilityConfig{
			LogLevel:        "info",
			MetricsEnabled:  true,
			OTelEndpoint:    "localhost:4317",
			OTelServiceName: "gvserver",
			OTelInsecure:    true,
			OTelSampleRatio: 1,
		},
	}
}

// Load applies defaults, then the YAML file at path (skipped when path is
// empty), then GVSERVER_* environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnv overrides loaded values with any GVSERVER_* variables that are set
func (c *Config) applyEnv() {
	c.Application.Host = getEnv("GVSERVER_APPLICATION_HOST", c.Application.Host)
	c.Application.Port = getEnvInt("GVSERVER_APPLICATION_PORT", c.Application.Port)
	c.Application.BaseURL = getEnv("GVSERVER_APPLICATION_BASE_URL", c.Application.BaseURL)
	c.Application.JWTSecret = getEnv("GVSERVER_APPLICATION_JWT_SECRET", c.Application.JWTSecret)
	c.Application.TokenValidity = getEnvDuration("GVSERVER_APPLICATION_TOKEN_VALIDITY", c.Application.TokenValidity)
	c.Application.MaxBodyBytes = getEnvInt64("GVSERVER_APPLICATION_MAX_BODY_BYTES", c.Application.MaxBodyBytes)

	c.Server.ReadTimeout = getEnvDuration("GVSERVER_SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("GVSERVER_SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvDuration("GVSERVER_SERVER_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("GVSERVER_SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Server.OpsPort = getEnvInt("GVSERVER_SERVER_OPS_PORT", c.Server.OpsPort)

	c.Database.URL = getEnv("GVSERVER_DATABASE_URL", c.Database.URL)
	c.Database.Host = getEnv("GVSERVER_DATABASE_HOST", c.Database.Host)
	c.Database.Port = getEnvInt("GVSERVER_DATABASE_PORT", c.Database.Port)
	c.Database.Username = getEnv("GVSERVER_DATABASE_USERNAME", c.Database.Username)
	c.Database.Password = getEnv("GVSERVER_DATABASE_PASSWORD", c.Database.Password)
	c.Database.DatabaseName = getEnv("GVSERVER_DATABASE_DATABASE_NAME", c.Database.DatabaseName)
	c.Database.RequireSSL = getEnvBool("GVSERVER_DATABASE_REQUIRE_SSL", c.Database.RequireSSL)
	c.Database.MaxOpenConns = getEnvInt("GVSERVER_DATABASE_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = getEnvInt("GVSERVER_DATABASE_MAX_IDLE_CONNS", c.Database.MaxIdleConns)
	c.Database.ConnMaxLifetime = getEnvDuration("GVSERVER_DATABASE_CONN_MAX_LIFETIME", c.Database.ConnMaxLifetime)
	c.Database.AcquireTimeout = getEnvDuration("GVSERVER_DATABASE_ACQUIRE_TIMEOUT", c.Database.AcquireTimeout)
	c.Database.MigrateOnStart = getEnvBool("GVSERVER_DATABASE_MIGRATE_ON_START", c.Database.MigrateOnStart)

	c.Redis.URL = getEnv("GVSERVER_REDIS_URL", c.Redis.URL)
	c.Redis.Password = getEnv("GVSERVER_REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("GVSERVER_REDIS_DB", c.Redis.DB)

	c.RateLimit.Enabled = getEnvBool("GVSERVER_RATE_LIMIT_ENABLED", c.RateLimit.Enabled)
	c.RateLimit.RequestsPerWindow = getEnvInt("GVSERVER_RATE_LIMIT_REQUESTS_PER_WINDOW", c.RateLimit.RequestsPerWindow)
	c.RateLimit.Window = getEnvDuration("GVSERVER_RATE_LIMIT_WINDOW", c.RateLimit.Window)
	if proxies := os.Getenv("GVSERVER_RATE_LIMIT_TRUSTED_PROXIES"); proxies != "" {
		c.RateLimit.TrustedProxies = strings.Split(proxies, ",")
	}

	c.Hashing.Workers = getEnvInt("GVSERVER_HASHING_WORKERS", c.Hashing.Workers)

	c.Observability.LogLevel = getEnv("GVSERVER_LOG_LEVEL", c.Observability.LogLevel)
	c.Observability.MetricsEnabled = getEnvBool("GVSERVER_METRICS_ENABLED", c.Observability.MetricsEnabled)
	c.Observability.OTelEnabled = getEnvBool("GVSERVER_OTEL_ENABLED", c.Observability.OTelEnabled)
	c.Observability.OTelEndpoint = getEnv("GVSERVER_OTEL_ENDPOINT", c.Observability.OTelEndpoint)
	c.Observability.OTelServiceName = getEnv("GVSERVER_OTEL_SERVICE_NAME", c.Observability.OTelServiceName)
	c.Observability.OTelInsecure = getEnvBool("GVSERVER_OTEL_INSECURE", c.Observability.OTelInsecure)
	c.Observability.OTelSampleRatio = getEnvFloat("GVSERVER_OTEL_SAMPLE_RATIO", c.Observability.OTelSampleRatio)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Application.Port <= 0 {
		return errors.New("application port is required")
	}
	if c.Server.OpsPort <= 0 {
		return errors.New("ops port is required")
	}
	if c.Application.Port == c.Server.OpsPort {
		return errors.New("application port and ops port must be different")
	}

	if c.Application.JWTSecret == "" {
		return errors.New("jwt secret is required")
	}
	if len(c.Application.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("jwt secret must be at least %d bytes", minJWTSecretLength)
	}
	if c.Application.TokenValidity <= 0 {
		return errors.New("token validity must be positive")
	}
	if c.Application.MaxBodyBytes <= 0 {
		return errors.New("max body bytes must be positive")
	}

	if c.Database.URL == "" && c.Database.Host == "" {
		return errors.New("database url or host is required")
	}
	if c.Database.AcquireTimeout <= 0 {
		return errors.New("database acquire timeout must be positive")
	}

	if c.RateLimit.Enabled && c.Redis.Enabled() {
		if c.RateLimit.RequestsPerWindow <= 0 || c.RateLimit.Window <= 0 {
			return errors.New("rate limit requests_per_window and window must be positive")
		}
	}
	if _, err := middleware.ParseTrustedProxies(c.RateLimit.TrustedProxies); err != nil {
		return fmt.Errorf("rate limit trusted_proxies: %w", err)
	}

	if c.Hashing.Workers < 1 {
		return errors.New("hashing workers must be at least 1")
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return errors.New("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return errors.New("OpenTelemetry service name is required when OTel is enabled")
		}
		if c.Observability.OTelSampleRatio < 0 || c.Observability.OTelSampleRatio > 1 {
			return errors.New("OpenTelemetry sample ratio must be between 0 and 1")
		}
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvInt64 returns an int64 environment variable or a default
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns a float environment variable or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
