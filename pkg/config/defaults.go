package config

import "time"

// Default returns the built-in configuration. An agent.yaml overlay and
// environment variables override individual fields.
func Default() Config {
	return Config{
		Agent: AgentConfig{
			MaxSteps:          20,
			MaxActionsPerStep: 5,
			AlertRecipient:    "audit-team@awb.bank",
		},
		LLM: LLMConfig{
			BaseURL:     "https://api.groq.com/openai/v1",
			Model:       "llama-3.1-8b-instant",
			Temperature: 0,
			Timeout:     2 * time.Minute,
		},
		SMTP: SMTPConfig{
			Host:   "localhost",
			Port:   1025,
			Sender: "agent@awb.bank",
		},
		Output: OutputConfig{
			AlertsDir:   "alerts",
			ReportsDir:  "reports",
			ReviewsDir:  "review_requests",
			EmailLogDir: "email_logs",
		},
		HTTP: HTTPConfig{
			Port: "8080",
		},
	}
}
