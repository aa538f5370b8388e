// Package config loads the application configuration from environment
// variables and an optional .env file.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/sevigo/mod-warden/internal/logger"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port string
}

// DBConfig holds the Postgres connection settings.
type DBConfig struct {
	Host            string
	Port            int
	Username        string
	Password        string
	Database        string
	SSLMode         string
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// SweepConfig tunes the background timeout sweep.
type SweepConfig struct {
	Schedule   string
	PolicyPath string
}

// CollaboratorsConfig points at the external notification and trust-score
// services.
type CollaboratorsConfig struct {
	NotifierURL string
	TrustURL    string
	Timeout     time.Duration
}

// Config holds the application's configuration values.
type Config struct {
	Server        ServerConfig
	Database      DBConfig
	Logging       logger.Config
	Sweep         SweepConfig
	Collaborators CollaboratorsConfig
	MaxWorkers    int
}

// LoadConfig reads configuration from environment variables and a .env file,
// sets sensible defaults, and validates required fields. It uses the Viper
// library to handle configuration loading and precedence.
func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")
	viper.SetDefault("LOG_OUTPUT", "stdout")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_USER", "modwarden")
	viper.SetDefault("DB_NAME", "modwarden")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	viper.SetDefault("DB_CONN_MAX_IDLE_TIME", "5m")
	viper.SetDefault("SWEEP_SCHEDULE", "@every 5m")
	viper.SetDefault("ESCALATION_POLICY_PATH", "escalation.yaml")
	viper.SetDefault("COLLABORATOR_TIMEOUT", "10s")
	viper.SetDefault("MAX_WORKERS", 5)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", "error", err)
		}
	}

	if viper.GetString("DB_PASSWORD") == "" {
		return nil, fmt.Errorf("DB_PASSWORD must be set")
	}
	if viper.GetString("NOTIFIER_URL") == "" {
		return nil, fmt.Errorf("NOTIFIER_URL must be set")
	}
	if viper.GetString("TRUST_SCORE_URL") == "" {
		return nil, fmt.Errorf("TRUST_SCORE_URL must be set")
	}

	return &Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
		},
		Database: DBConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			Username:        viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			Database:        viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSL_MODE"),
			ConnMaxLifetime: viper.GetDuration("DB_CONN_MAX_LIFETIME"),
			ConnMaxIdleTime: viper.GetDuration("DB_CONN_MAX_IDLE_TIME"),
		},
		Logging: logger.Config{
			Level:  viper.GetString("LOG_LEVEL"),
			Format: viper.GetString("LOG_FORMAT"),
			Output: viper.GetString("LOG_OUTPUT"),
		},
		Sweep: SweepConfig{
			Schedule:   viper.GetString("SWEEP_SCHEDULE"),
			PolicyPath: viper.GetString("ESCALATION_POLICY_PATH"),
		},
		Collaborators: CollaboratorsConfig{
			NotifierURL: viper.GetString("NOTIFIER_URL"),
			TrustURL:    viper.GetString("TRUST_SCORE_URL"),
			Timeout:     viper.GetDuration("COLLABORATOR_TIMEOUT"),
		},
		MaxWorkers: viper.GetInt("MAX_WORKERS"),
	}, nil
}
