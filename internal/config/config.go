// Package config loads service settings from a YAML file, a .env file and
// HOUSEPREDICT_* environment variables, in increasing order of precedence.
package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/housepredict/housing"
	"github.com/YuminosukeSato/housepredict/pkg/errors"
	"github.com/YuminosukeSato/housepredict/pkg/log"
)

const envPrefix = "HOUSEPREDICT_"

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig        `yaml:"server"`
	Models  housing.ModelConfig `yaml:"models"`
	Batch   BatchConfig         `yaml:"batch"`
	Cache   CacheConfig         `yaml:"cache"`
	Logging LoggingConfig       `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	GinMode        string        `yaml:"ginMode"`
	MaxUploadBytes int64         `yaml:"maxUploadBytes"`
	AllowedOrigins []string      `yaml:"allowedOrigins"`
	ShutdownGrace  time.Duration `yaml:"shutdownGrace"`
}

// BatchConfig holds batch evaluation settings
type BatchConfig struct {
	Workers int `yaml:"workers"`
}

// CacheConfig holds the single-prediction cache settings
type CacheConfig struct {
	Size int `yaml:"size"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	Compress   bool   `yaml:"compress"`
}

// Log converts the settings for pkg/log.
func (l LoggingConfig) Log() log.Config {
	return log.Config{
		Level:      l.Level,
		Format:     l.Format,
		File:       l.File,
		MaxSizeMB:  l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
		MaxAgeDays: l.MaxAgeDays,
		Compress:   l.Compress,
	}
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           5000,
			GinMode:        "release",
			MaxUploadBytes: 16 << 20,
			AllowedOrigins: []string{"*"},
			ShutdownGrace:  10 * time.Second,
		},
		Models: housing.ModelConfig{Dir: "."},
		Batch:  BatchConfig{Workers: runtime.NumCPU()},
		Cache:  CacheConfig{Size: 1024},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load builds the configuration. path names a YAML file; when empty,
// CONFIG_FILE is consulted, and without either only defaults and the
// environment apply.
func Load(path string) (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := loadFromYAML(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading config file %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrapf(err, "parsing config file %s", path)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	var err error
	setString(&cfg.Server.Host, "HOST")
	setString(&cfg.Server.GinMode, "GIN_MODE")
	if v, ok := lookup("ALLOWED_ORIGINS"); ok {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	setString(&cfg.Models.Dir, "MODEL_DIR")
	setString(&cfg.Models.LinearFile, "LINEAR_MODEL")
	setString(&cfg.Models.LogisticFile, "LOGISTIC_MODEL")
	setString(&cfg.Models.TreeFile, "TREE_MODEL")
	setString(&cfg.Models.ScalerFile, "SCALER")
	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Logging.Format, "LOG_FORMAT")
	setString(&cfg.Logging.File, "LOG_FILE")

	for _, f := range []func() error{
		func() error { return setInt(&cfg.Server.Port, "PORT") },
		func() error { return setInt(&cfg.Batch.Workers, "WORKERS") },
		func() error { return setInt(&cfg.Cache.Size, "CACHE_SIZE") },
		func() error {
			if v, ok := lookup("SHUTDOWN_GRACE"); ok {
				cfg.Server.ShutdownGrace, err = time.ParseDuration(v)
				if err != nil {
					return errors.Wrapf(err, "invalid %sSHUTDOWN_GRACE", envPrefix)
				}
			}
			return nil
		},
		func() error {
			if v, ok := lookup("MAX_UPLOAD_BYTES"); ok {
				cfg.Server.MaxUploadBytes, err = strconv.ParseInt(v, 10, 64)
				if err != nil {
					return errors.Wrapf(err, "invalid %sMAX_UPLOAD_BYTES", envPrefix)
				}
			}
			return nil
		},
	} {
		if err := f(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Newf("server port %d out of range", c.Server.Port)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return errors.Newf("maxUploadBytes must be positive, got %d", c.Server.MaxUploadBytes)
	}
	if c.Cache.Size < 0 {
		return errors.Newf("cache size must not be negative, got %d", c.Cache.Size)
	}
	if c.Batch.Workers <= 0 {
		c.Batch.Workers = runtime.NumCPU()
	}
	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Server.GinMode {
	case "debug", "release", "test":
	default:
		return errors.Newf("invalid gin mode %q", c.Server.GinMode)
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return c.Server.Addr()
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}

// Helper functions

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return errors.Wrapf(err, "invalid %s%s", envPrefix, key)
	}
	*dst = n
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
