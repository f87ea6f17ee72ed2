package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the optional overlay file inside the config directory.
const ConfigFileName = "agent.yaml"

// Initialize loads, merges, and validates configuration.
//
// Steps performed:
//  1. Start from built-in defaults
//  2. Overlay agent.yaml from configDir (if present), env-expanded
//  3. Apply environment overrides (credentials, endpoints)
//  4. Validate
func Initialize(configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)

	cfg := Default()

	path := filepath.Join(configDir, ConfigFileName)
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		log.Info("No agent.yaml found, using defaults")
	case err != nil:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	default:
		var overlay Config
		if err := yaml.Unmarshal(ExpandEnv(data), &overlay); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if err := mergo.Merge(&cfg, overlay, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge %s over defaults: %w", path, err)
		}
		log.Info("Loaded configuration overlay", "path", path)
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// applyEnvOverrides maps the environment variables the original
// deployment uses onto config fields. Environment wins over file values
// for credentials and endpoints.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GROQ_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("GROQ_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("GROQ_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("GROQ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.LLM.Timeout = d
		}
	}
	if v := os.Getenv("SMTP_SERVER"); v != "" {
		cfg.SMTP.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.SMTP.Port = port
		}
	}
	if v := os.Getenv("SMTP_USER"); v != "" {
		cfg.SMTP.Username = v
		cfg.SMTP.Sender = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.SMTP.Password = v
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		cfg.HTTP.Port = v
	}
}
