// Package config loads plot's configuration from an optional TOML file with
// PLOT_* environment variable overrides. Everything has a sensible default so
// a bare binary just works.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
}

type ServerConfig struct {
	Port string `toml:"port"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

func defaults() Config {
	return Config{
		Server:   ServerConfig{Port: "8080"},
		Database: DatabaseConfig{Path: "plot.db"},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads the TOML file at path (skipped when path is empty or the file
// does not exist), then applies environment overrides on top.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config file: %w", err)
			}
		} else if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if port := os.Getenv("PLOT_PORT"); port != "" {
		c.Server.Port = port
	}
	if dbPath := os.Getenv("PLOT_DB_PATH"); dbPath != "" {
		c.Database.Path = dbPath
	}
	if level := os.Getenv("PLOT_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if format := os.Getenv("PLOT_LOG_FORMAT"); format != "" {
		c.Log.Format = format
	}
}
