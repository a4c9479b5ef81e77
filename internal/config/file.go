package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors the settings that may come from a config file. Zero
// values leave the built-in default in place.
type FileConfig struct {
	Server struct {
		Host            string `json:"host" yaml:"host" toml:"host"`
		Port            int    `json:"port" yaml:"port" toml:"port"`
		ReadTimeout     string `json:"read_timeout" yaml:"read_timeout" toml:"read_timeout"`
		WriteTimeout    string `json:"write_timeout" yaml:"write_timeout" toml:"write_timeout"`
		IdleTimeout     string `json:"idle_timeout" yaml:"idle_timeout" toml:"idle_timeout"`
		ShutdownTimeout string `json:"shutdown_timeout" yaml:"shutdown_timeout" toml:"shutdown_timeout"`
	} `json:"server" yaml:"server" toml:"server"`
	Dataset struct {
		File string `json:"file" yaml:"file" toml:"file"`
	} `json:"dataset" yaml:"dataset" toml:"dataset"`
	Logger struct {
		Level  string `json:"level" yaml:"level" toml:"level"`
		Format string `json:"format" yaml:"format" toml:"format"`
	} `json:"logger" yaml:"logger" toml:"logger"`
	Security struct {
		EnableRateLimit *bool    `json:"rate_limit_enabled" yaml:"rate_limit_enabled" toml:"rate_limit_enabled"`
		RateLimitRPS    int      `json:"rate_limit_rps" yaml:"rate_limit_rps" toml:"rate_limit_rps"`
		RateLimitBurst  int      `json:"rate_limit_burst" yaml:"rate_limit_burst" toml:"rate_limit_burst"`
		AllowedOrigins  []string `json:"allowed_origins" yaml:"allowed_origins" toml:"allowed_origins"`
		TrustedProxies  []string `json:"trusted_proxies" yaml:"trusted_proxies" toml:"trusted_proxies"`
	} `json:"security" yaml:"security" toml:"security"`
}

// LoadFile reads a TOML, YAML or JSON config file, chosen by extension.
func LoadFile(filePath string) (*FileConfig, error) {
	fileExtension := strings.ToLower(filepath.Ext(filePath))

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("error accessing config file: %w", err)
	}

	if fileInfo.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not a file", filePath)
	}

	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg FileConfig

	switch fileExtension {
	case ".toml":
		if err := toml.Unmarshal(fileData, &cfg); err != nil {
			return nil, fmt.Errorf("error parsing TOML file: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(fileData, &cfg); err != nil {
			return nil, fmt.Errorf("error parsing YAML file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(fileData, &cfg); err != nil {
			return nil, fmt.Errorf("error parsing JSON file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", fileExtension)
	}

	return &cfg, nil
}

func (f *FileConfig) apply(cfg *Config) {
	setString(&cfg.Server.Host, f.Server.Host)
	setInt(&cfg.Server.Port, f.Server.Port)
	setDuration(&cfg.Server.ReadTimeout, f.Server.ReadTimeout)
	setDuration(&cfg.Server.WriteTimeout, f.Server.WriteTimeout)
	setDuration(&cfg.Server.IdleTimeout, f.Server.IdleTimeout)
	setDuration(&cfg.Server.ShutdownTimeout, f.Server.ShutdownTimeout)

	setString(&cfg.Dataset.File, f.Dataset.File)

	setString(&cfg.Logger.Level, f.Logger.Level)
	setString(&cfg.Logger.Format, f.Logger.Format)

	if f.Security.EnableRateLimit != nil {
		cfg.Security.EnableRateLimit = *f.Security.EnableRateLimit
	}
	setInt(&cfg.Security.RateLimitRPS, f.Security.RateLimitRPS)
	setInt(&cfg.Security.RateLimitBurst, f.Security.RateLimitBurst)
	if len(f.Security.AllowedOrigins) > 0 {
		cfg.Security.AllowedOrigins = f.Security.AllowedOrigins
	}
	if len(f.Security.TrustedProxies) > 0 {
		cfg.Security.TrustedProxies = f.Security.TrustedProxies
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

// unparsable durations are ignored, same as the env getters
func setDuration(dst *time.Duration, v string) {
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
	}
}
