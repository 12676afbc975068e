package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Environment selects which storage engine backs the task store
type Environment string

const (
	Development Environment = "development"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

// Config holds all configuration options for the task list application
type Config struct {
	Database    DatabaseConfig
	Queue       QueueConfig
	Validation  ValidationConfig
	Logging     LoggingConfig
	Application ApplicationConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Dir            string        `env:"TL_DB_DIR"`
	Filename       string        `env:"TL_DB_FILENAME"`
	DirPermissions uint32        `env:"TL_DB_DIR_PERMISSIONS"`
	BusyTimeout    time.Duration `env:"TL_DB_BUSY_TIMEOUT"`
}

// QueueConfig holds writer queue configuration
type QueueConfig struct {
	Capacity int `env:"TL_QUEUE_CAPACITY"`
}

// ValidationConfig holds validation rules configuration
type ValidationConfig struct {
	TitleMaxLength       int `env:"TL_VALIDATION_TITLE_MAX"`
	DescriptionMaxLength int `env:"TL_VALIDATION_DESCRIPTION_MAX"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string `env:"TL_LOG_LEVEL"`
	Format string `env:"TL_LOG_FORMAT"`
}

// ApplicationConfig holds application-level configuration
type ApplicationConfig struct {
	Environment Environment   `env:"TL_ENV"`
	Timeout     time.Duration `env:"TL_APP_TIMEOUT"`
	Verbose     bool          `env:"TL_APP_VERBOSE"`
}

// NewConfig creates a new configuration with sensible defaults
func NewConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultDBDir := filepath.Join(homeDir, ".tasklist")

	return &Config{
		Database: DatabaseConfig{
			Dir:            defaultDBDir,
			Filename:       "tasks.db",
			DirPermissions: 0755,
			BusyTimeout:    5 * time.Second,
		},
		Queue: QueueConfig{
			Capacity: 64,
		},
		Validation: ValidationConfig{
			TitleMaxLength:       255,
			DescriptionMaxLength: 4096,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Application: ApplicationConfig{
			Environment: Production,
			Timeout:     30 * time.Second,
			Verbose:     false,
		},
	}
}

// GetDatabasePath returns the full path to the database file
func (c *Config) GetDatabasePath() string {
	return filepath.Join(c.Database.Dir, c.Database.Filename)
}

// ParseEnvironment maps a string onto a known environment.
// Unknown values default to production for safety.
func ParseEnvironment(s string) Environment {
	switch Environment(strings.ToLower(strings.TrimSpace(s))) {
	case Development:
		return Development
	case Testing:
		return Testing
	default:
		return Production
	}
}

// LoadFromEnvironment loads configuration from environment variables
func (c *Config) LoadFromEnvironment() error {
	// Database configuration
	if dir := os.Getenv("TL_DB_DIR"); dir != "" {
		c.Database.Dir = dir
	}
	if filename := os.Getenv("TL_DB_FILENAME"); filename != "" {
		c.Database.Filename = filename
	}
	if perms := os.Getenv("TL_DB_DIR_PERMISSIONS"); perms != "" {
		c.Database.DirPermissions = ParseUint32WithFallback(perms, 8, c.Database.DirPermissions)
	}
	if timeout := os.Getenv("TL_DB_BUSY_TIMEOUT"); timeout != "" {
		c.Database.BusyTimeout = ParseDurationWithFallback(timeout, c.Database.BusyTimeout)
	}

	// Queue configuration
	if capacity := os.Getenv("TL_QUEUE_CAPACITY"); capacity != "" {
		c.Queue.Capacity = ParseIntWithFallback(capacity, c.Queue.Capacity)
	}

	// Validation configuration
	if maxLen := os.Getenv("TL_VALIDATION_TITLE_MAX"); maxLen != "" {
		c.Validation.TitleMaxLength = ParseIntWithFallback(maxLen, c.Validation.TitleMaxLength)
	}
	if maxLen := os.Getenv("TL_VALIDATION_DESCRIPTION_MAX"); maxLen != "" {
		c.Validation.DescriptionMaxLength = ParseIntWithFallback(maxLen, c.Validation.DescriptionMaxLength)
	}

	// Logging configuration
	if level := os.Getenv("TL_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if format := os.Getenv("TL_LOG_FORMAT"); format != "" {
		c.Logging.Format = format
	}

	// Application configuration
	if env := os.Getenv("TL_ENV"); env != "" {
		c.Application.Environment = ParseEnvironment(env)
	}
	if timeout := os.Getenv("TL_APP_TIMEOUT"); timeout != "" {
		c.Application.Timeout = ParseDurationWithFallback(timeout, c.Application.Timeout)
	}
	if verbose := os.Getenv("TL_APP_VERBOSE"); verbose != "" {
		c.Application.Verbose = ParseBoolWithFallback(verbose, c.Application.Verbose)
	}

	return nil
}

// Validate validates the configuration and returns any errors
func (c *Config) Validate() error {
	if c.Application.Environment != Testing {
		if c.Database.Dir == "" {
			return &ConfigError{Field: "database.dir", Message: "database directory cannot be empty"}
		}
		if c.Database.Filename == "" {
			return &ConfigError{Field: "database.filename", Message: "database filename cannot be empty"}
		}
	}
	if c.Database.BusyTimeout < 0 {
		return &ConfigError{Field: "database.busy_timeout", Message: "busy timeout cannot be negative"}
	}

	if c.Queue.Capacity < 1 {
		return &ConfigError{Field: "queue.capacity", Message: "queue capacity must be at least 1"}
	}

	if c.Validation.TitleMaxLength < 1 {
		return &ConfigError{Field: "validation.title_max_length", Message: "title maximum length must be at least 1"}
	}
	if c.Validation.DescriptionMaxLength < 0 {
		return &ConfigError{Field: "validation.description_max_length", Message: "description maximum length cannot be negative"}
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: "log format must be text or json"}
	}
	if c.Logging.Level == "" {
		return &ConfigError{Field: "logging.level", Message: "log level cannot be empty"}
	}

	if c.Application.Timeout <= 0 {
		return &ConfigError{Field: "application.timeout", Message: "application timeout must be positive"}
	}

	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

// ParseDurationWithFallback parses a duration string with a fallback value
func ParseDurationWithFallback(s string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return fallback
}

// ParseIntWithFallback parses an integer string with a fallback value
func ParseIntWithFallback(s string, fallback int) int {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return fallback
}

// ParseBoolWithFallback parses a boolean string with a fallback value
func ParseBoolWithFallback(s string, fallback bool) bool {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return fallback
}

// ParseUint32WithFallback parses a uint32 string with a fallback value
func ParseUint32WithFallback(s string, base int, fallback uint32) uint32 {
	if u, err := strconv.ParseUint(s, base, 32); err == nil {
		return uint32(u)
	}
	return fallback
}
