package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Source    SourceConfig    `mapstructure:"source"`
	Mirror    MirrorConfig    `mapstructure:"mirror"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Resolver  ResolverConfig  `mapstructure:"resolver"`
	Refresh   RefreshConfig   `mapstructure:"refresh"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// SourceConfig holds backing store configuration. Kind selects between
// the remote sheet exports and the local relational mirror.
type SourceConfig struct {
	Kind                string            `mapstructure:"kind"` // "sheet" | "mirror"
	CatalogURL          string            `mapstructure:"catalog_url"`
	ScheduleURLTemplate string            `mapstructure:"schedule_url_template"`
	UsersURL            string            `mapstructure:"users_url"`
	Format              string            `mapstructure:"format"`   // "csv" | "xlsx"
	Encoding            string            `mapstructure:"encoding"` // CSV only; empty = auto
	CatalogHeaders      map[string]string `mapstructure:"catalog_headers"`
	ScheduleHeaders     map[string]string `mapstructure:"schedule_headers"`
	UserHeaders         map[string]string `mapstructure:"user_headers"`
	RowTTL              time.Duration     `mapstructure:"row_ttl"`
	FetchConcurrency    int               `mapstructure:"fetch_concurrency"`
	FetchTimeout        time.Duration     `mapstructure:"fetch_timeout"`
}

// MirrorConfig holds mirror database connection configuration
type MirrorConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// CacheConfig holds cache store configuration
type CacheConfig struct {
	Policy   string `mapstructure:"policy"` // "ttl" | "lru"
	Capacity int    `mapstructure:"capacity"`
}

// ResolverConfig holds resolution pipeline configuration
type ResolverConfig struct {
	FallbackAnyShop bool          `mapstructure:"fallback_any_shop"`
	BuildTimeout    time.Duration `mapstructure:"build_timeout"`
	SnapshotTTL     time.Duration `mapstructure:"snapshot_ttl"`
	UserTTL         time.Duration `mapstructure:"user_ttl"`
}

// RefreshConfig holds background refresh configuration
type RefreshConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// RateLimitConfig holds backing store rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
	MaxRetries        int     `mapstructure:"max_retries"`
	InitialBackoffMs  int     `mapstructure:"initial_backoff_ms"`
	MaxBackoffMs      int     `mapstructure:"max_backoff_ms"`
}

// AdminConfig holds the static admin allow-list
type AdminConfig struct {
	Token string   `mapstructure:"token"`
	IDs   []string `mapstructure:"ids"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// Load loads the configuration from file, .env, and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// .env is optional
	_ = loadEnvFile()

	v.AutomaticEnv()
	v.SetEnvPrefix("CATALOG_SERVICE")

	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads a .env file by parsing KEY=VALUE lines and setting
// them as environment variables
func loadEnvFile() error {
	envPaths := []string{".", "./config"}

	for _, path := range envPaths {
		envFile := fmt.Sprintf("%s/.env", path)
		if _, err := os.Stat(envFile); err == nil {
			if err := loadDotEnvFile(envFile); err == nil {
				return nil
			}
		}
	}
	return fmt.Errorf("no .env file found")
}

// loadDotEnvFile reads a .env file and sets environment variables
func loadDotEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			value = strings.Trim(value, "\"'")
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

// bindEnvVars binds environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	// Mirror database
	v.BindEnv("mirror.url", "MIRROR_DATABASE_URL")

	// Sheet export URLs
	v.BindEnv("source.catalog_url", "CATALOG_SHEET_URL")
	v.BindEnv("source.schedule_url_template", "SCHEDULE_SHEET_URL_TEMPLATE")
	v.BindEnv("source.users_url", "USERS_SHEET_URL")

	// Server
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.host", "HOST")

	// Admin
	v.BindEnv("admin.token", "ADMIN_TOKEN")

	// Logging
	v.BindEnv("logging.level", "LOG_LEVEL")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	// Source defaults
	v.SetDefault("source.kind", "sheet")
	v.SetDefault("source.format", "csv")
	v.SetDefault("source.row_ttl", 12*time.Hour)
	v.SetDefault("source.fetch_concurrency", 4)
	v.SetDefault("source.fetch_timeout", 30*time.Second)

	// Mirror defaults
	v.SetDefault("mirror.max_connections", 10)
	v.SetDefault("mirror.min_connections", 2)
	v.SetDefault("mirror.max_conn_lifetime", 1*time.Hour)
	v.SetDefault("mirror.max_conn_idle_time", 30*time.Minute)

	// Cache defaults (the bot historically ran a 1000-entry TTL cache)
	v.SetDefault("cache.policy", "ttl")
	v.SetDefault("cache.capacity", 1000)

	// Resolver defaults
	v.SetDefault("resolver.fallback_any_shop", false)
	v.SetDefault("resolver.build_timeout", 2*time.Minute)
	v.SetDefault("resolver.snapshot_ttl", 12*time.Hour)
	v.SetDefault("resolver.user_ttl", 12*time.Hour)

	// Refresh defaults
	v.SetDefault("refresh.interval", 12*time.Hour)

	// Rate limit defaults
	v.SetDefault("rate_limit.requests_per_second", 2)
	v.SetDefault("rate_limit.burst", 4)
	v.SetDefault("rate_limit.max_retries", 3)
	v.SetDefault("rate_limit.initial_backoff_ms", 100)
	v.SetDefault("rate_limit.max_backoff_ms", 30000)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.no_color", false)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
}
