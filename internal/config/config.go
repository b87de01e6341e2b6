// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/topic-modeler/internal/embeddings"
	"github.com/topic-modeler/internal/logger"
)

// EnvPrefix is prepended to every environment override, e.g. TOPIC_MODELER_DATA_DIR.
const EnvPrefix = "TOPIC_MODELER"

// DefaultConfigFile is read when no --config flag is given and the file exists.
const DefaultConfigFile = "topic-modeler.yaml"

// Config holds the application configuration
type Config struct {
	DataDir         string            `mapstructure:"data_dir"`
	LogFile         string            `mapstructure:"log_file"`
	DBPath          string            `mapstructure:"db_path"`
	RawCommentsFile string            `mapstructure:"raw_comments_file"`
	Embedder        embeddings.Config `mapstructure:"embedder"`
	Queue           QueueConfig       `mapstructure:"queue"`
	Redis           RedisConfig       `mapstructure:"redis"`
	WorkerCount     int               `mapstructure:"worker_count"`
	Server          ServerConfig      `mapstructure:"server"`
	Notify          NotifyConfig      `mapstructure:"notify"`
	Watch           WatchConfig       `mapstructure:"watch"`
}

// QueueConfig selects the training queue backend
type QueueConfig struct {
	Backend string `mapstructure:"backend"` // "memory" or "redis"
	Key     string `mapstructure:"key"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	DB       int    `mapstructure:"db"`
	Password string `mapstructure:"password"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// NotifyConfig toggles desktop notifications
type NotifyConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// WatchConfig holds data directory watcher settings
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "./data")
	v.SetDefault("log_file", "app.log")
	v.SetDefault("db_path", "")
	v.SetDefault("raw_comments_file", "raw_comments.csv")
	v.SetDefault("embedder.type", "mock")
	v.SetDefault("embedder.model", "")
	v.SetDefault("embedder.base_url", "")
	v.SetDefault("embedder.api_key", "")
	v.SetDefault("embedder.dimension", 256)
	v.SetDefault("queue.backend", "memory")
	v.SetDefault("queue.key", "jobs:training")
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("worker_count", 1)
	v.SetDefault("server.port", 8080)
	v.SetDefault("notify.enabled", false)
	v.SetDefault("watch.debounce", "2s")
}

// Load reads configuration from .env, the YAML file at configPath and the
// environment, in increasing order of precedence. An empty configPath falls
// back to DefaultConfigFile when it exists; otherwise only defaults apply.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warnf("config.Load: failed to read .env: %v", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	if configPath == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			configPath = DefaultConfigFile
		}
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
		}
		logger.Printf("config.Load: using %s", v.ConfigFileUsed())
	} else {
		logger.Debugf("config.Load: no config file found, using defaults")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "topic-modeler.db")
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Queue.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown queue backend %q (want memory or redis)", c.Queue.Backend)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("worker_count must be at least 1, got %d", c.WorkerCount)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	return nil
}

// ResolvePath returns name unchanged when it is absolute or exists relative to
// the working directory, and joins it onto DataDir otherwise.
func (c *Config) ResolvePath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	if _, err := os.Stat(name); err == nil {
		return name
	}
	return filepath.Join(c.DataDir, name)
}
