// Package config provides YAML-based configuration loading for docbridge.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level docbridge configuration, loaded from docbridge.yaml.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Predictor PredictorConfig `yaml:"predictor"`
	Directory DirectoryConfig `yaml:"directory"`
	Audit     AuditConfig     `yaml:"audit"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig selects and configures the storage backend.
// Driver "sqlite" uses Path; driver "mysql" uses the host settings.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// AuthConfig holds identity-token settings. The secret verifies tokens
// issued by the identity context; docbridge never stores credentials.
type AuthConfig struct {
	Secret   string `yaml:"secret"`
	TokenTTL string `yaml:"token_ttl"`
}

// PredictorConfig points at the external disease predictor service.
type PredictorConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// DirectoryConfig points at the identity directory used to resolve user
// display names. When BaseURL is empty a static in-process directory is
// used, seeded from Users.
type DirectoryConfig struct {
	BaseURL string           `yaml:"base_url"`
	Users   []DirectoryEntry `yaml:"users"`
}

// DirectoryEntry seeds the static directory for single-node deployments.
type DirectoryEntry struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	Role  string `yaml:"role"`
}

// AuditConfig controls the scheduled rating-summary audit.
type AuditConfig struct {
	Schedule string `yaml:"schedule"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "docbridge.db"
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.Database == "" {
		c.Database.Database = "docbridge"
	}
	if c.Auth.TokenTTL == "" {
		c.Auth.TokenTTL = "168h"
	}
	if c.Predictor.TimeoutSeconds == 0 {
		c.Predictor.TimeoutSeconds = 30
	}
	if c.Audit.Schedule == "" {
		c.Audit.Schedule = "@hourly"
	}
}

// applyEnv overrides secrets from the environment so they stay out of
// config files checked into version control.
func (c *Config) applyEnv() {
	if v := os.Getenv("DOCBRIDGE_AUTH_SECRET"); v != "" {
		c.Auth.Secret = v
	}
	if v := os.Getenv("DOCBRIDGE_DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Auth.Secret == "" {
		errs = append(errs, "auth.secret is required (or DOCBRIDGE_AUTH_SECRET)")
	}
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (sqlite, mysql)", c.Database.Driver))
	}
	if c.Database.Driver == "mysql" && c.Database.User == "" {
		errs = append(errs, "database.user is required for mysql")
	}
	for i, u := range c.Directory.Users {
		if u.ID == "" {
			errs = append(errs, fmt.Sprintf("directory.users[%d].id is required", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
