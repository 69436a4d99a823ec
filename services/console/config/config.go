// Copyright (C) 2026 QuestDesk Labs (dev@questdesk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads the console service configuration from YAML with
// environment-variable overrides for deployment knobs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the console service configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Backend BackendConfig `yaml:"backend"`
	License LicenseConfig `yaml:"license"`
	Flows   FlowConfig    `yaml:"flows"`
	Log     LogConfig     `yaml:"log"`
	Tracing TracingConfig `yaml:"tracing"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// BackendConfig configures the platform backend client.
type BackendConfig struct {
	BaseURL           string        `yaml:"base_url"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

// LicenseConfig configures the usage-limit gate.
type LicenseConfig struct {
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// FlowConfig configures the pending-flow registry.
type FlowConfig struct {
	TTL             time.Duration `yaml:"ttl"`
	JanitorInterval time.Duration `yaml:"janitor_interval"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
	JSON  bool   `yaml:"json"`
}

// TracingConfig configures OTLP trace export.
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Server:  ServerConfig{Port: 8090},
		Backend: BackendConfig{BaseURL: "http://localhost:9400", Timeout: 30 * time.Second, RequestsPerSecond: 20},
		License: LicenseConfig{CacheTTL: 5 * time.Minute},
		Flows:   FlowConfig{TTL: 10 * time.Minute, JanitorInterval: time.Minute},
		Log:     LogConfig{Level: "info"},
		Tracing: TracingConfig{Endpoint: "localhost:4317"},
	}
}

// Load reads the configuration from path, fills gaps with defaults and
// applies environment overrides. A missing file is not an error; the
// defaults are used as-is.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to defaults
		case err != nil:
			return cfg, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config file %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return cfg, fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}
	if cfg.Backend.BaseURL == "" {
		return cfg, fmt.Errorf("backend base URL not set")
	}
	return cfg, nil
}

// applyEnv overlays the deployment knobs most often set per environment.
func applyEnv(cfg *Config) {
	if v := os.Getenv("QUESTDESK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("QUESTDESK_BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("QUESTDESK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("QUESTDESK_LOG_DIR"); v != "" {
		cfg.Log.Dir = v
	}
	if v := os.Getenv("QUESTDESK_OTLP_ENDPOINT"); v != "" {
		cfg.Tracing.Endpoint = v
		cfg.Tracing.Enabled = true
	}
}
