// Package config loads the application configuration and slices it per
// service for the composition resolver. The resolver never interprets the
// per-service slices; this package is the only place that knows where they
// come from.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"composekit/internal/di"
)

// ServerConfig holds the HTTP listener configuration.
type ServerConfig struct {
	Address         string `yaml:"address"`
	ShutdownTimeout int    `yaml:"shutdown_timeout_seconds"`
}

// LoggingConfig holds logger construction settings.
type LoggingConfig struct {
	Environment string `yaml:"environment"`
	Level       string `yaml:"level"`
}

// Config holds all application configuration. Services carries one opaque
// map per service name; each map is handed unmodified to that service's
// factory.
type Config struct {
	Server   ServerConfig              `yaml:"server"`
	Logging  LoggingConfig             `yaml:"logging"`
	Services map[string]map[string]any `yaml:"services"`
}

// Load reads configuration from an optional YAML file, then applies
// environment overrides. An empty path yields defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Address:         ":8080",
			ShutdownTimeout: 15,
		},
		Logging: LoggingConfig{
			Environment: "development",
			Level:       "info",
		},
		Services: make(map[string]map[string]any),
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if cfg.Services == nil {
		cfg.Services = make(map[string]map[string]any)
	}
	return cfg, nil
}

// applyEnv overlays environment variables on top of file values.
func (c *Config) applyEnv() {
	if v := os.Getenv("SERVER_ADDRESS"); v != "" {
		c.Server.Address = v
	}
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		c.Logging.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Slice returns the configuration map for one service. Missing services get
// nil, which factories must tolerate.
func (c *Config) Slice(service string) map[string]any {
	if c == nil || c.Services == nil {
		return nil
	}
	return c.Services[service]
}

// ResolverConfig converts the per-service sections into the resolver's
// config value, keyed by service name.
func (c *Config) ResolverConfig() di.Config {
	out := make(di.Config, len(c.Services))
	for name, slice := range c.Services {
		out[name] = slice
	}
	return out
}
