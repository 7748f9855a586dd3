// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package modelinit

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the options a Configuration starts from.
type Config struct {
	// ConnectionString selects the dialect and database, e.g. "sqlite::memory:",
	// "sqlite:/var/lib/app/app.db", "mysql://user:pw@tcp(host:3306)/app",
	// "postgres://user:pw@host/app?sslmode=disable".
	// LoadConfig expands environment variables in it.
	ConnectionString string `yaml:"connection"`

	// Logger for operational logging. Uses slog.Default() if nil.
	Logger *slog.Logger `yaml:"-"`

	// ProductionEnvVar is the environment variable checked to determine
	// production mode. If the variable equals "production" (case-insensitive),
	// in-memory databases are rejected unless AllowMemoryInProduction is true.
	// Default: "ENV".
	ProductionEnvVar string `yaml:"production_env_var"`

	// AllowMemoryInProduction permits :memory: databases when the production
	// environment variable is set. Default: false.
	AllowMemoryInProduction bool `yaml:"allow_memory_in_production"`

	// Behaviour flags copied onto the factory. All default to false.
	AutoDetectChangesEnabled bool `yaml:"auto_detect_changes"`
	LazyLoadingEnabled       bool `yaml:"lazy_loading"`
	ProxyCreationEnabled     bool `yaml:"proxy_creation"`
	ValidateOnSaveEnabled    bool `yaml:"validate_on_save"`
}

// defaults returns a copy of cfg with default values applied.
func (cfg Config) defaults() Config {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ProductionEnvVar == "" {
		cfg.ProductionEnvVar = "ENV"
	}
	return cfg
}

// isProduction returns true if the production environment variable is set.
func (cfg Config) isProduction() bool {
	return strings.EqualFold(os.Getenv(cfg.ProductionEnvVar), "production")
}

// LoadConfig reads a YAML configuration file. Unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.ConnectionString = os.ExpandEnv(cfg.ConnectionString)

	return cfg.defaults(), nil
}
