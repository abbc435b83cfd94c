package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App      AppConfig
	Server   ServerConfig
	Dataset  DatasetConfig
	Session  SessionConfig
	Logger   LoggerConfig
	Security SecurityConfig
}

type AppConfig struct {
	Debug bool
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DatasetConfig struct {
	CSVFile  string            `yaml:"csv_file"`
	CacheDir string            `yaml:"cache_dir"`
	Columns  map[string]string `yaml:"columns"`
}

type SessionConfig struct {
	TTL              time.Duration
	SweepInterval    time.Duration
	RecomputeTimeout time.Duration
}

type LoggerConfig struct {
	Level  string
	Format string
}

type SecurityConfig struct {
	EnableRateLimit bool
	RateLimitRPS    int
	RateLimitBurst  int
	AllowedOrigins  []string
	TrustedProxies  []string
}

// fileConfig is the optional YAML overlay named by CONFIG_FILE.
type fileConfig struct {
	Dataset *DatasetConfig `yaml:"dataset"`
	Logger  *struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logger"`
}

func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Debug: getEnvBool("DEBUG", false),
		},
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "localhost"),
			Port:            getEnvInt("SERVER_PORT", 8050),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Dataset: DatasetConfig{
			CSVFile:  getEnvString("CSV_FILE", "supermarket_sales.csv"),
			CacheDir: getEnvString("DATASET_CACHE_DIR", ""),
		},
		Session: SessionConfig{
			TTL:              getEnvDuration("SESSION_TTL", 30*time.Minute),
			SweepInterval:    getEnvDuration("SESSION_SWEEP_INTERVAL", time.Minute),
			RecomputeTimeout: getEnvDuration("RECOMPUTE_TIMEOUT", 5*time.Second),
		},
		Logger: LoggerConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			EnableRateLimit: getEnvBool("SECURITY_RATE_LIMIT_ENABLED", true),
			RateLimitRPS:    getEnvInt("SECURITY_RATE_LIMIT_RPS", 100),
			RateLimitBurst:  getEnvInt("SECURITY_RATE_LIMIT_BURST", 20),
			AllowedOrigins:  getEnvStringSlice("SECURITY_ALLOWED_ORIGINS", []string{"http://localhost:8050"}),
			TrustedProxies:  getEnvStringSlice("SECURITY_TRUSTED_PROXIES", []string{"127.0.0.1"}),
		},
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Dataset != nil {
		if fc.Dataset.CSVFile != "" {
			c.Dataset.CSVFile = fc.Dataset.CSVFile
		}
		if fc.Dataset.CacheDir != "" {
			c.Dataset.CacheDir = fc.Dataset.CacheDir
		}
		if len(fc.Dataset.Columns) > 0 {
			c.Dataset.Columns = fc.Dataset.Columns
		}
	}
	if fc.Logger != nil {
		if fc.Logger.Level != "" {
			c.Logger.Level = fc.Logger.Level
		}
		if fc.Logger.Format != "" {
			c.Logger.Format = fc.Logger.Format
		}
	}
	return nil
}

// EnableDebug switches to verbose, human-readable logging.
func (c *Config) EnableDebug() {
	c.App.Debug = true
	c.Logger.Level = "debug"
	c.Logger.Format = "text"
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Dataset.CSVFile == "" {
		return fmt.Errorf("CSV file path cannot be empty")
	}

	validColumns := []string{"city", "payment", "product_line", "gender", "date", "revenue", "rating"}
	for name := range c.Dataset.Columns {
		if !contains(validColumns, name) {
			return fmt.Errorf("unknown dataset column %q, must be one of: %s", name, strings.Join(validColumns, ", "))
		}
	}

	if c.Session.TTL <= 0 || c.Session.SweepInterval <= 0 {
		return fmt.Errorf("session TTL and sweep interval must be positive")
	}

	if c.Session.RecomputeTimeout <= 0 {
		return fmt.Errorf("recompute timeout must be positive")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
