package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Dataset  DatasetConfig
	Logger   LoggerConfig
	Security SecurityConfig
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
	File string
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

// Load builds the configuration from built-in defaults, an optional file
// named by CONFIG_FILE, and environment variables, in increasing order of
// precedence. A .env file in the working directory is applied first.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return LoadFrom(os.Getenv("CONFIG_FILE"))
}

// LoadFrom is Load with an explicit config file path. An empty path skips
// the file layer.
func LoadFrom(path string) (*Config, error) {
	file := &FileConfig{}
	if path != "" {
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		file = loaded
	}

	defaults := Defaults()
	file.apply(defaults)

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", defaults.Server.Host),
			Port:            getEnvInt("SERVER_PORT", defaults.Server.Port),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", defaults.Server.ReadTimeout),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", defaults.Server.WriteTimeout),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", defaults.Server.IdleTimeout),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", defaults.Server.ShutdownTimeout),
		},
		Dataset: DatasetConfig{
			File: getEnvString("SALES_FILE", defaults.Dataset.File),
		},
		Logger: LoggerConfig{
			Level:  getEnvString("LOG_LEVEL", defaults.Logger.Level),
			Format: getEnvString("LOG_FORMAT", defaults.Logger.Format),
		},
		Security: SecurityConfig{
			EnableRateLimit: getEnvBool("SECURITY_RATE_LIMIT_ENABLED", defaults.Security.EnableRateLimit),
			RateLimitRPS:    getEnvInt("SECURITY_RATE_LIMIT_RPS", defaults.Security.RateLimitRPS),
			RateLimitBurst:  getEnvInt("SECURITY_RATE_LIMIT_BURST", defaults.Security.RateLimitBurst),
			AllowedOrigins:  getEnvStringSlice("SECURITY_ALLOWED_ORIGINS", defaults.Security.AllowedOrigins),
			TrustedProxies:  getEnvStringSlice("SECURITY_TRUSTED_PROXIES", defaults.Security.TrustedProxies),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8501,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Dataset: DatasetConfig{
			File: "sales_data.xlsx",
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
		},
		Security: SecurityConfig{
			EnableRateLimit: true,
			RateLimitRPS:    100,
			RateLimitBurst:  10,
			AllowedOrigins:  []string{"http://localhost:8501"},
			TrustedProxies:  []string{"127.0.0.1"},
		},
	}
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

	if c.Dataset.File == "" {
		return fmt.Errorf("sales workbook path cannot be empty")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !slices.Contains(validLogFormats, c.Logger.Format) {
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
	return getEnv(key, defaultValue, func(v string) (string, error) { return v, nil })
}

func getEnvInt(key string, defaultValue int) int {
	return getEnv(key, defaultValue, strconv.Atoi)
}

func getEnvBool(key string, defaultValue bool) bool {
	return getEnv(key, defaultValue, strconv.ParseBool)
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	return getEnv(key, defaultValue, time.ParseDuration)
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	return getEnv(key, defaultValue, func(v string) ([]string, error) {
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	})
}

// getEnv parses the variable named key, keeping defaultValue when it is
// unset, empty or unparsable.
func getEnv[T any](key string, defaultValue T, parse func(string) (T, error)) T {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := parse(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
