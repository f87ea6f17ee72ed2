// Package config loads and validates agent configuration: built-in
// defaults, an optional agent.yaml overlay with environment-variable
// expansion, and environment overrides for credentials.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config is the umbrella configuration object used throughout the agent.
type Config struct {
	Agent  AgentConfig  `yaml:"agent"`
	LLM    LLMConfig    `yaml:"llm"`
	SMTP   SMTPConfig   `yaml:"smtp"`
	Output OutputConfig `yaml:"output"`
	HTTP   HTTPConfig   `yaml:"http"`
}

// AgentConfig bounds the conversation loop and parameterizes prompts.
type AgentConfig struct {
	MaxSteps          int    `yaml:"max_steps"`
	MaxActionsPerStep int    `yaml:"max_actions_per_step"`
	AlertRecipient    string `yaml:"alert_recipient"`
}

// LLMConfig configures the chat-completions backend.
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`

	// Temperature stays 0 for deterministic runs.
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// SMTPConfig configures the email alert tool.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Sender   string `yaml:"sender"`
}

// OutputConfig locates the file stores written by the action tools.
type OutputConfig struct {
	AlertsDir   string `yaml:"alerts_dir"`
	ReportsDir  string `yaml:"reports_dir"`
	ReviewsDir  string `yaml:"reviews_dir"`
	EmailLogDir string `yaml:"email_log_dir"`
}

// HTTPConfig configures the optional HTTP API mode.
type HTTPConfig struct {
	Port string `yaml:"port"`
}

// Validate checks the merged configuration. The LLM API key is validated
// separately (RequireAPIKey) so offline commands and tests can construct
// configs without credentials.
func (c *Config) Validate() error {
	var errs []error
	if c.Agent.MaxSteps <= 0 {
		errs = append(errs, fmt.Errorf("agent.max_steps must be positive, got %d", c.Agent.MaxSteps))
	}
	if c.Agent.MaxActionsPerStep <= 0 {
		errs = append(errs, fmt.Errorf("agent.max_actions_per_step must be positive, got %d", c.Agent.MaxActionsPerStep))
	}
	if c.Agent.AlertRecipient == "" {
		errs = append(errs, errors.New("agent.alert_recipient must not be empty"))
	}
	if c.LLM.BaseURL == "" {
		errs = append(errs, errors.New("llm.base_url must not be empty"))
	}
	if c.LLM.Model == "" {
		errs = append(errs, errors.New("llm.model must not be empty"))
	}
	if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("smtp.port out of range: %d", c.SMTP.Port))
	}
	return errors.Join(errs...)
}

// RequireAPIKey fails when no LLM credential is configured. Called by
// entry points that will actually reach the backend.
func (c *Config) RequireAPIKey() error {
	if c.LLM.APIKey == "" {
		return errors.New("missing LLM API key: set GROQ_API_KEY or llm.api_key")
	}
	return nil
}
