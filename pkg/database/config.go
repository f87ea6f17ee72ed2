package database

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds audit database connection settings. The agent is a
// read-only consumer of this database; it never owns or migrates the
// schema.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// LoadConfigFromEnv loads database configuration from the PG_* variables
// the deployment has always used.
func LoadConfigFromEnv() (Config, error) {
	port, err := strconv.Atoi(getEnvOrDefault("PG_PORT", "5432"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid PG_PORT: %w", err)
	}

	maxOpen, _ := strconv.Atoi(getEnvOrDefault("PG_MAX_OPEN_CONNS", "5"))
	maxIdle, _ := strconv.Atoi(getEnvOrDefault("PG_MAX_IDLE_CONNS", "2"))

	return Config{
		Host:            getEnvOrDefault("PG_HOST", "localhost"),
		Port:            port,
		User:            getEnvOrDefault("PG_USER", "audit"),
		Password:        os.Getenv("PG_PASSWORD"),
		Database:        getEnvOrDefault("PG_DATABASE", "audit"),
		SSLMode:         getEnvOrDefault("PG_SSLMODE", "disable"),
		MaxOpenConns:    maxOpen,
		MaxIdleConns:    maxIdle,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}, nil
}

// DSN returns the pgx-compatible connection string.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
