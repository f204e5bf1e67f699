package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server settings for the demo application.
type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds MongoDB connection settings.
type DatabaseConfig struct {
	// URI is read from MONGO_URI. The fallback targets a local unsecured
	// server and exists for development only; real deployments must set
	// the variable. No deployable credential is ever baked in here.
	URI string

	Name            string
	Collection      string
	AuditCollection string
	ConnectTimeout  time.Duration
	EnsureIndexes   bool
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string
}

// Load reads configuration from environment variables with sensible
// defaults.
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Env:          getEnv("SERVER_ENV", "development"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			URI:             getEnv("MONGO_URI", "mongodb://localhost:27017/"),
			Name:            getEnv("DB_NAME", "AAC"),
			Collection:      getEnv("DB_COLLECTION", "animals"),
			AuditCollection: getEnv("DB_AUDIT_COLLECTION", "audits"),
			ConnectTimeout:  getDurationEnv("DB_CONNECT_TIMEOUT", 5*time.Second),
			EnsureIndexes:   getBoolEnv("DB_ENSURE_INDEXES", true),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

// Validate checks that all required configuration values are present and
// valid. It returns an error describing all validation failures, or nil.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}

	if c.Database.URI == "" {
		errs = append(errs, errors.New("MONGO_URI is required"))
	}
	if c.Database.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if c.Database.Collection == "" {
		errs = append(errs, errors.New("DB_COLLECTION is required"))
	}
	if c.Database.AuditCollection == "" {
		errs = append(errs, errors.New("DB_AUDIT_COLLECTION is required"))
	}
	if c.Database.Collection == c.Database.AuditCollection {
		errs = append(errs, errors.New("DB_COLLECTION and DB_AUDIT_COLLECTION must differ"))
	}
	if c.Database.ConnectTimeout <= 0 {
		errs = append(errs, errors.New("DB_CONNECT_TIMEOUT must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// LogLevel maps the configured level name onto slog's scale.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
