// Package config loads levelkitd settings from JSON files and environment
// variables, with env values taking precedence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"levelkit/adapters/redis"
)

// Environment represents the deployment environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config holds the complete daemon configuration.
type Config struct {
	Environment Environment `json:"environment" env:"LEVELKIT_ENV"`
	Profile     string      `json:"profile" env:"LEVELKIT_PROFILE"`

	Server   ServerConfig   `json:"server"`
	Storage  StorageConfig  `json:"storage"`
	Leveling LevelingConfig `json:"leveling"`
	Logging  LoggingConfig  `json:"logging"`
}

// ServerConfig holds the HTTP admin server settings.
type ServerConfig struct {
	Address           string        `json:"address" env:"LEVELKIT_SERVER_ADDR"`
	PathPrefix        string        `json:"path_prefix" env:"LEVELKIT_SERVER_PATH_PREFIX"`
	CORSOrigin        string        `json:"cors_origin" env:"LEVELKIT_SERVER_CORS_ORIGIN"`
	APIKeys           []string      `json:"api_keys,omitempty" env:"LEVELKIT_SERVER_API_KEYS"`
	ReadTimeout       time.Duration `json:"read_timeout" env:"LEVELKIT_SERVER_READ_TIMEOUT"`
	WriteTimeout      time.Duration `json:"write_timeout" env:"LEVELKIT_SERVER_WRITE_TIMEOUT"`
	IdleTimeout       time.Duration `json:"idle_timeout" env:"LEVELKIT_SERVER_IDLE_TIMEOUT"`
	ReadHeaderTimeout time.Duration `json:"read_header_timeout" env:"LEVELKIT_SERVER_READ_HEADER_TIMEOUT"`
	ShutdownTimeout   time.Duration `json:"shutdown_timeout" env:"LEVELKIT_SERVER_SHUTDOWN_TIMEOUT"`
}

// StorageConfig selects and configures the record store.
type StorageConfig struct {
	Adapter string       `json:"adapter" env:"LEVELKIT_STORAGE_ADAPTER"`
	SQLite  SQLiteConfig `json:"sqlite,omitempty"`
	Redis   RedisConfig  `json:"redis,omitempty"`
}

// SQLiteConfig holds the single-file store settings.
type SQLiteConfig struct {
	Path string `json:"path" env:"LEVELKIT_STORAGE_SQLITE_PATH"`
}

// RedisConfig holds the Redis store settings.
type RedisConfig struct {
	Addr     string `json:"addr" env:"LEVELKIT_STORAGE_REDIS_ADDR"`
	Password string `json:"password,omitempty" env:"LEVELKIT_STORAGE_REDIS_PASSWORD"`
	DB       int    `json:"db" env:"LEVELKIT_STORAGE_REDIS_DB"`
}

// Adapter converts to the redis adapter's connection config.
func (r RedisConfig) Adapter() redis.Config {
	cfg := redis.DefaultConfig()
	if r.Addr != "" {
		cfg.Addr = r.Addr
	}
	cfg.Password = r.Password
	cfg.DB = r.DB
	return cfg
}

// LevelingConfig holds the award pipeline settings.
type LevelingConfig struct {
	Rate            int           `json:"rate" env:"LEVELKIT_LEVELING_RATE"`
	Per             time.Duration `json:"per" env:"LEVELKIT_LEVELING_PER"`
	AmountMin       int           `json:"amount_min" env:"LEVELKIT_LEVELING_AMOUNT_MIN"`
	AmountMax       int           `json:"amount_max" env:"LEVELKIT_LEVELING_AMOUNT_MAX"`
	AnnounceLevelUp bool          `json:"announce_level_up" env:"LEVELKIT_LEVELING_ANNOUNCE"`
	StackAwards     bool          `json:"stack_awards" env:"LEVELKIT_LEVELING_STACK_AWARDS"`
	NoXPRoles       []int64       `json:"no_xp_roles,omitempty" env:"LEVELKIT_LEVELING_NO_XP_ROLES"`
	NoXPChannels    []int64       `json:"no_xp_channels,omitempty" env:"LEVELKIT_LEVELING_NO_XP_CHANNELS"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `json:"level" env:"LEVELKIT_LOG_LEVEL"`
	Format string `json:"format" env:"LEVELKIT_LOG_FORMAT"`
	Output string `json:"output" env:"LEVELKIT_LOG_OUTPUT"`
}

// DefaultConfig returns development defaults.
func DefaultConfig() *Config {
	return &Config{
		Environment: EnvDevelopment,
		Profile:     "default",
		Server: ServerConfig{
			Address:           ":8080",
			PathPrefix:        "/api",
			CORSOrigin:        "*",
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   30 * time.Second,
		},
		Storage: StorageConfig{
			Adapter: "memory",
			SQLite:  SQLiteConfig{Path: "./data/levelkit.db"},
			Redis:   RedisConfig{Addr: "localhost:6379"},
		},
		Leveling: LevelingConfig{
			Rate:            1,
			Per:             60 * time.Second,
			AmountMin:       15,
			AmountMax:       25,
			AnnounceLevelUp: true,
			StackAwards:     true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// Load builds the config from defaults and environment variables.
func Load() (*Config, error) {
	cfg := DefaultConfig()
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("load config from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFromFile reads a JSON config file, then applies environment
// overrides.
func LoadFromFile(path string) (*Config, error) {
	if err := checkConfigPath(path); err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file %s: %w", path, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("load config from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func checkConfigPath(path string) error {
	if path == "" {
		return errors.New("config file path cannot be empty")
	}
	clean := filepath.Clean(path)
	if !strings.HasSuffix(strings.ToLower(clean), ".json") {
		return errors.New("config file must have .json extension")
	}
	if _, err := os.Stat(clean); err != nil {
		return fmt.Errorf("config file not accessible: %w", err)
	}
	return nil
}

// String renders the config as JSON with secrets redacted.
func (c *Config) String() string {
	cfg := *c
	if cfg.Storage.Redis.Password != "" {
		cfg.Storage.Redis.Password = "[REDACTED]"
	}
	cfg.Server.APIKeys = nil
	data, _ := json.MarshalIndent(cfg, "", "  ")
	return string(data)
}
