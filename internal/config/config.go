// Package config loads server configuration from defaults, an optional YAML
// file, and environment variables, in that order of precedence.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Port           string        `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// StorageConfig selects the instrument registry backend. An empty
// DatabaseURL means the in-memory store.
type StorageConfig struct {
	DatabaseURL string        `yaml:"database_url"`
	RedisURL    string        `yaml:"redis_url"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
}

// SimulationConfig holds request defaults and the workload budget.
type SimulationConfig struct {
	DefaultPaths int   `yaml:"default_paths"`
	DefaultSteps int   `yaml:"default_steps"`
	DisplayPaths int   `yaml:"display_paths"` // paths echoed back per response
	MaxPaths     int   `yaml:"max_paths"`     // 0 = unlimited
	MaxSteps     int   `yaml:"max_steps"`     // 0 = unlimited
	MaxWorkload  int64 `yaml:"max_workload"`  // paths × steps × runs, 0 = unlimited
}

type Config struct {
	LogLevel   string           `yaml:"log_level"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Simulation SimulationConfig `yaml:"simulation"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Server: ServerConfig{
			Port:           "8080",
			RequestTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			CacheTTL: 30 * time.Second,
		},
		Simulation: SimulationConfig{
			DefaultPaths: 10000,
			DefaultSteps: 252,
			DisplayPaths: 10,
			MaxPaths:     1_000_000,
			MaxSteps:     10_000,
			MaxWorkload:  500_000_000,
		},
	}
}

// Load builds the configuration. A YAML file named by CONFIG_FILE is read
// when set; a missing or malformed file is an error.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", cfg.Server.RequestTimeout)
	cfg.Storage.DatabaseURL = getEnv("DATABASE_URL", cfg.Storage.DatabaseURL)
	cfg.Storage.RedisURL = getEnv("REDIS_URL", cfg.Storage.RedisURL)
	cfg.Storage.CacheTTL = getEnvDuration("CACHE_TTL", cfg.Storage.CacheTTL)
	cfg.Simulation.DefaultPaths = getEnvInt("DEFAULT_PATHS", cfg.Simulation.DefaultPaths)
	cfg.Simulation.DefaultSteps = getEnvInt("DEFAULT_STEPS", cfg.Simulation.DefaultSteps)
	cfg.Simulation.DisplayPaths = getEnvInt("DISPLAY_PATHS", cfg.Simulation.DisplayPaths)
	cfg.Simulation.MaxPaths = getEnvInt("MAX_PATHS", cfg.Simulation.MaxPaths)
	cfg.Simulation.MaxSteps = getEnvInt("MAX_STEPS", cfg.Simulation.MaxSteps)
	cfg.Simulation.MaxWorkload = int64(getEnvInt("MAX_WORKLOAD", int(cfg.Simulation.MaxWorkload)))

	return cfg, nil
}

// SlogLevel maps LogLevel onto a slog level; unknown names mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
